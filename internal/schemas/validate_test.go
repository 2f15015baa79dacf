package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := make([]string, 0, len(validationErr.Errors))
	for _, fe := range validationErr.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}

func TestValidateImagenRequest_Valid(t *testing.T) {
	bodies := []string{
		`{"prompt": ""}`,
		`{"prompt": "hero", "career": "doctor", "background": "merlion-park", "activity": "saving the day",
		  "aspect": "4:3", "selfieDataUrl": "data:image/png;base64,AAAA", "selectedModel": "detailed"}`,
		`{"prompt": "hero", "selectedModel": "face-match", "seed": 42, "model": "detailed"}`,
		`{"prompt": "hero", "mission": {"action": "rescue", "who": "animals", "power": "super-speed"}}`,
		`{"prompt": "hero", "avatarSelection": "robot"}`,
	}
	for _, body := range bodies {
		assert.NoError(t, ValidateImagenRequest([]byte(body)), body)
	}
}

func TestValidateImagenRequest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing prompt", `{"career": "doctor"}`, "(root)"},
		{"prompt wrong type", `{"prompt": 7}`, "prompt"},
		{"bad aspect", `{"prompt": "p", "aspect": "21:9"}`, "aspect"},
		{"bad model variant", `{"prompt": "p", "selectedModel": "cartoon"}`, "selectedModel"},
		{"fractional seed", `{"prompt": "p", "seed": 1.5}`, "seed"},
		{"selfie wrong type", `{"prompt": "p", "selfieDataUrl": true}`, "selfieDataUrl"},
		{"incomplete mission", `{"prompt": "p", "mission": {"action": "rescue"}}`, "mission"},
		{"empty mission slot", `{"prompt": "p", "mission": {"action": "rescue", "who": "", "power": "kindness"}}`, "mission.who"},
		{"not an object", `["prompt"]`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagenRequest([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestValidateImagenRequest_MalformedJSON(t *testing.T) {
	err := ValidateImagenRequest([]byte(`{"prompt": `))
	require.Error(t, err)

	var docErr *DocumentError
	assert.True(t, errors.As(err, &docErr), "got %T", err)
}

func TestValidateGenerationResult(t *testing.T) {
	valid := `{
		"success": true,
		"imageUrl": "data:image/png;base64,BBBB",
		"metadata": {
			"requestId": "8c0f6a3e-5f0e-4d5e-9a57-8d6a1b1e2c3d",
			"modelUsed": "imagen-4.0-ultra-generate-001",
			"prompt": "hero",
			"timestamp": "2024-08-09T10:00:00Z",
			"aspectRatio": "4:3"
		}
	}`
	assert.NoError(t, ValidateGenerationResult([]byte(valid)))

	fallbackWithoutError := `{
		"success": true,
		"imageUrl": "data:image/svg+xml;base64,PHN2Zz4=",
		"metadata": {
			"requestId": "r", "modelUsed": "m", "prompt": "p",
			"timestamp": "2024-08-09T10:00:00Z", "aspectRatio": "4:3",
			"fallback": true
		}
	}`
	assert.Error(t, ValidateGenerationResult([]byte(fallbackWithoutError)))

	notDataURL := `{"success": true, "imageUrl": "https://example.com/a.png", "metadata": {
		"requestId": "r", "modelUsed": "m", "prompt": "p", "timestamp": "2024-08-09T10:00:00Z", "aspectRatio": "4:3"}}`
	err := ValidateGenerationResult([]byte(notDataURL))
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "imageUrl")
}

func TestLoad_UnknownSchema(t *testing.T) {
	_, err := load("missing.schema.json")

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Error(), "missing.schema.json")
}

func TestLoad_Caches(t *testing.T) {
	first, err := load("imagen_request.schema.json")
	require.NoError(t, err)
	second, err := load("imagen_request.schema.json")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}

func TestValidateImagenRequest_NestedMissionField(t *testing.T) {
	err := ValidateImagenRequest([]byte(`{"prompt": "x", "mission": {"action": "rescue"}}`))
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "mission")
}
