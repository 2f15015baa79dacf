package imagen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/rendering"
	"github.com/dreambig/dreambig-sg/internal/schemas"
	"github.com/dreambig/dreambig-sg/internal/security"
	"github.com/dreambig/dreambig-sg/internal/server/ratelimit"
	"github.com/dreambig/dreambig-sg/internal/types"
	"github.com/dreambig/dreambig-sg/internal/vertex"
)

// pngPhoto is the PNG signature, enough for content sniffing.
var pngPhoto = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

type predictCall struct {
	model string
	req   *vertex.PredictRequest
}

type fakePredictor struct {
	mu    sync.Mutex
	calls []predictCall
	image *vertex.GeneratedImage
	err   error
}

func (f *fakePredictor) Predict(_ context.Context, model string, req *vertex.PredictRequest) (*vertex.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, predictCall{model: model, req: req})
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

type fakeDescriber struct {
	answer      string
	err         error
	instruction string
	format      string
	calls       int
}

func (f *fakeDescriber) DescribeImage(_ context.Context, instruction string, _ []byte, format string) (string, error) {
	f.calls++
	f.instruction = instruction
	f.format = format
	return f.answer, f.err
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.ProjectID = "dreambig-test"
	cfg.CredentialsJSON = `{"type":"service_account"}`
	return &cfg
}

func newTestService(cfg *config.Config, limiter ratelimit.Limiter, describer SubjectDescriber, predictor Predictor) *Service {
	svc := NewService(cfg, limiter, describer, predictor)
	svc.now = func() time.Time { return time.Date(2025, 8, 9, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "req-1" }
	return svc
}

func body(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return data
}

func assertValidResult(t *testing.T, result *types.GenerationResult) {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NoError(t, schemas.ValidateGenerationResult(data))
}

func TestProcess_DoctorAtMerlionPark(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	result, err := svc.Process(context.Background(), "client-a", body(t, map[string]any{
		"prompt":        "make me a hero",
		"career":        "doctor",
		"background":    "merlion-park",
		"selfieDataUrl": pngPhoto,
	}))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "data:image/png;base64,BBBB", result.ImageURL)
	assert.Equal(t, "4:3", result.Metadata.AspectRatio)
	assert.Equal(t, "req-1", result.Metadata.RequestID)
	assert.Equal(t, config.DefaultDetailedModelID, result.Metadata.ModelUsed)
	assert.Equal(t, "detailed", result.Metadata.SelectedModel)
	assert.Equal(t, "2025-08-09T10:00:00Z", result.Metadata.Timestamp)
	assert.True(t, result.Metadata.HasUploadedPhoto)
	assert.False(t, result.Metadata.Fallback)
	assert.Equal(t, types.AgeUnknown, result.Metadata.AgeBracket)
	assertValidResult(t, result)

	require.Len(t, predictor.calls, 1)
	call := predictor.calls[0]
	assert.Equal(t, config.DefaultDetailedModelID, call.model)
	require.Len(t, call.req.Instances, 1)
	prompt := call.req.Instances[0].Prompt
	assert.Contains(t, prompt, "Doctor superhero")
	assert.Contains(t, prompt, "Merlion statue")
	assert.Contains(t, prompt, "saving the day")
	assert.Empty(t, call.req.Instances[0].ReferenceImages)
	assert.Equal(t, 1, call.req.Parameters.SampleCount)
	assert.Equal(t, "4:3", call.req.Parameters.AspectRatio)
	assert.Equal(t, config.DefaultSafetyFilterLevel, call.req.Parameters.SafetyFilterLevel)
	require.NotNil(t, call.req.Parameters.OutputDimension)
	assert.Equal(t, config.DefaultOutputDimension, call.req.Parameters.OutputDimension.WidthPixels)
	assert.Equal(t, config.DefaultOutputDimension, call.req.Parameters.OutputDimension.HeightPixels)
}

func TestProcess_FaceMatchSendsReferenceImage(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "CCCC", MimeType: "image/jpeg"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	result, err := svc.Process(context.Background(), "client-a", body(t, map[string]any{
		"prompt":        "hero",
		"career":        "astronaut",
		"background":    "gardens-by-the-bay",
		"aspect":        "1:1",
		"selectedModel": "face-match",
		"selfieDataUrl": pngPhoto,
	}))
	require.NoError(t, err)

	assert.Equal(t, "data:image/jpeg;base64,CCCC", result.ImageURL)
	assert.Equal(t, config.DefaultFaceMatchModelID, result.Metadata.ModelUsed)
	assert.Equal(t, "face-match", result.Metadata.ModelType)
	assert.Equal(t, "1:1", result.Metadata.AspectRatio)
	assertValidResult(t, result)

	require.Len(t, predictor.calls, 1)
	call := predictor.calls[0]
	assert.Equal(t, config.DefaultFaceMatchModelID, call.model)
	refs := call.req.Instances[0].ReferenceImages
	require.Len(t, refs, 1)
	assert.Equal(t, strings.TrimPrefix(pngPhoto, "data:image/png;base64,"), refs[0].ReferenceImage.BytesBase64Encoded)
	assert.Equal(t, "ALLOW_ALL", call.req.Parameters.PersonGeneration)
	assert.Contains(t, call.req.Instances[0].Prompt, "reference image [1]")
}

func TestProcess_MissingEnvironment(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB"}}
	cfg := config.Defaults()
	svc := newTestService(&cfg, nil, nil, predictor)

	_, err := svc.Process(context.Background(), "client-a", body(t, map[string]any{"prompt": "x", "selfieDataUrl": pngPhoto}))

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, configErr.Missing, "GOOGLE_PROJECT_ID")
	assert.Empty(t, predictor.calls)
}

func TestProcess_RateLimited(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{Enabled: true, Name: "imagen", Limit: 5, Window: time.Minute})
	defer limiter.Stop()
	svc := newTestService(testConfig(), limiter, nil, predictor)

	req := body(t, map[string]any{"prompt": "x", "selfieDataUrl": pngPhoto})
	for i := 0; i < 5; i++ {
		_, err := svc.Process(context.Background(), "client-a", req)
		require.NoError(t, err, "request %d", i+1)
	}

	_, err := svc.Process(context.Background(), "client-a", req)
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 0, rateErr.Remaining)
	assert.Len(t, predictor.calls, 5)

	// Other clients have their own window
	_, err = svc.Process(context.Background(), "client-b", req)
	assert.NoError(t, err)
}

func TestProcess_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"prompt":`, MsgInvalidJSON},
		{"missing prompt", `{"selfieDataUrl":"` + pngPhoto + `"}`, MsgInvalidRequest},
		{"bad aspect", `{"prompt":"x","aspect":"2:1","selfieDataUrl":"` + pngPhoto + `"}`, MsgInvalidRequest},
		{"unknown model", `{"prompt":"x","selectedModel":"turbo","selfieDataUrl":"` + pngPhoto + `"}`, MsgInvalidRequest},
		{"missing photo", `{"prompt":"x"}`, security.MsgPhotoRequired},
		{"photo not a data uri", `{"prompt":"x","selfieDataUrl":"http://example.com/a.png"}`, security.MsgInvalidImageData},
		{"photo not base64", `{"prompt":"x","selfieDataUrl":"data:image/png;base64,@@@@"}`, security.MsgInvalidImageData},
		{"unknown mission option", `{"prompt":"x","mission":{"action":"juggle","who":"animals","power":"super-speed"},"selfieDataUrl":"` + pngPhoto + `"}`, MsgInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB"}}
			svc := newTestService(testConfig(), nil, nil, predictor)

			_, err := svc.Process(context.Background(), "client-a", []byte(tt.body))

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.message, validationErr.Message)
			assert.Empty(t, predictor.calls)
		})
	}
}

func TestGenerate_FallbackOnUpstreamFailure(t *testing.T) {
	predictor := &fakePredictor{err: &vertex.APIError{StatusCode: 429, Message: vertex.StatusMessage(429)}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	result, err := svc.Generate(context.Background(), types.PosterRequest{
		Prompt:        "  my <hero> ",
		Career:        "doctor",
		Background:    "merlion-park",
		SelfieDataURL: pngPhoto,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.ImageURL, rendering.SVGDataURLPrefix))
	assert.True(t, result.Metadata.Fallback)
	assert.Equal(t, vertex.StatusMessage(429), result.Metadata.APIError)
	assert.Equal(t, "my hero", result.Metadata.Prompt)
	assert.Equal(t, "4:3", result.Metadata.AspectRatio)
	assertValidResult(t, result)

	svg, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(result.ImageURL, rendering.SVGDataURLPrefix))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Doctor")
	assert.Contains(t, string(svg), "Merlion Park")
	assert.Contains(t, string(svg), "8/9/2025")
}

func TestGenerate_PropagatePolicy(t *testing.T) {
	cause := &vertex.APIError{StatusCode: 500, Message: vertex.StatusMessage(500)}
	cfg := testConfig()
	cfg.UpstreamFailurePolicy = config.PolicyPropagate
	svc := newTestService(cfg, nil, nil, &fakePredictor{err: cause})

	result, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})

	assert.Nil(t, result)
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, config.DefaultDetailedModelID, upstreamErr.Model)
	var apiErr *vertex.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestGenerate_VisionDescriptionFeedsPrompt(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	describer := &fakeDescriber{answer: "```json\n{\"description\": \"Transform this smiling kid with curly hair into a Doctor superhero.\", \"ageBracket\": \"child\"}\n```"}
	svc := newTestService(testConfig(), nil, describer, predictor)

	result, err := svc.Generate(context.Background(), types.PosterRequest{
		Prompt:        "x",
		Career:        "doctor",
		Background:    "merlion-park",
		SelfieDataURL: pngPhoto,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, describer.calls)
	assert.Equal(t, "png", describer.format)
	assert.Contains(t, describer.instruction, "Doctor superhero")
	assert.Equal(t, types.AgeChild, result.Metadata.AgeBracket)
	assert.Equal(t, "Transform this smiling kid with curly hair into a Doctor superhero.", result.Metadata.SubjectDescription)

	prompt := predictor.calls[0].req.Instances[0].Prompt
	assert.True(t, strings.HasPrefix(prompt, "Transform this smiling kid with curly hair"))
	assert.Contains(t, prompt, "future adult self")
	assertValidResult(t, result)
}

func TestGenerate_VisionFailureIsNotFatal(t *testing.T) {
	for _, policy := range []string{config.PolicyFallback, config.PolicyPropagate} {
		t.Run(policy, func(t *testing.T) {
			predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
			cfg := testConfig()
			cfg.UpstreamFailurePolicy = policy
			svc := newTestService(cfg, nil, &fakeDescriber{err: errors.New("quota exceeded")}, predictor)

			result, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", Career: "doctor", Background: "merlion-park", SelfieDataURL: pngPhoto})
			require.NoError(t, err)

			assert.False(t, result.Metadata.Fallback)
			assert.Equal(t, types.AgeUnknown, result.Metadata.AgeBracket)
			assert.Contains(t, predictor.calls[0].req.Instances[0].Prompt, "A superhero poster showing a person transformed into a Doctor superhero")
		})
	}
}

func TestGenerate_MissionBecomesActivity(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	_, err := svc.Generate(context.Background(), types.PosterRequest{
		Prompt:        "x",
		Mission:       &types.MissionSelection{Action: "rescue", Who: "animals", Power: "super-speed"},
		SelfieDataURL: pngPhoto,
	})
	require.NoError(t, err)

	assert.Contains(t, predictor.calls[0].req.Instances[0].Prompt, "I will Rescue my Animals with Super Speed.")
}

func TestGenerate_ExplicitActivityWinsOverMission(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	_, err := svc.Generate(context.Background(), types.PosterRequest{
		Prompt:        "x",
		Activity:      "planting trees",
		Mission:       &types.MissionSelection{Action: "rescue", Who: "animals", Power: "super-speed"},
		SelfieDataURL: pngPhoto,
	})
	require.NoError(t, err)

	prompt := predictor.calls[0].req.Instances[0].Prompt
	assert.Contains(t, prompt, "planting trees")
	assert.NotContains(t, prompt, "Rescue")
}

func TestGenerate_SanitizesFreeText(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	_, err := svc.Generate(context.Background(), types.PosterRequest{
		Prompt:        "x",
		Career:        "doctor",
		Activity:      `<script>alert("x")</script>helping javascript:people`,
		SelfieDataURL: pngPhoto,
	})
	require.NoError(t, err)

	prompt := predictor.calls[0].req.Instances[0].Prompt
	assert.NotContains(t, prompt, "<script")
	assert.NotContains(t, prompt, "javascript:")
}

func TestGenerate_OutputDimensionOmittedWhenZero(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	cfg := testConfig()
	cfg.OutputDimension = 0
	svc := newTestService(cfg, nil, nil, predictor)

	_, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	require.NoError(t, err)

	assert.Nil(t, predictor.calls[0].req.Parameters.OutputDimension)
}

func TestGenerate_MetadataTruncation(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	long := strings.Repeat("Transform this adult into a hero ", 20)
	describer := &fakeDescriber{answer: `{"description": "` + long + `", "ageBracket": "adult"}`}
	svc := newTestService(testConfig(), nil, describer, predictor)

	result, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(result.Metadata.Prompt)), maxMetadataPrompt+3)
	assert.LessOrEqual(t, len([]rune(result.Metadata.SubjectDescription)), maxMetadataSubject+3)
}

func TestGenerate_ProgressEvents(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	var steps []string
	svc.OnProgress = func(event ProgressEvent) {
		assert.Equal(t, "req-1", event.RequestID)
		steps = append(steps, event.Step)
	}

	_, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	require.NoError(t, err)
	assert.Equal(t, []string{StepValidate, StepVision, StepCompose, StepPredict, StepDone}, steps)

	steps = nil
	predictor.err = errors.New("boom")
	_, err = svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	require.NoError(t, err)
	assert.Equal(t, []string{StepValidate, StepVision, StepCompose, StepPredict, StepFallback}, steps)
}

func TestGenerate_NoPredictor(t *testing.T) {
	svc := newTestService(testConfig(), nil, nil, nil)

	_, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})

	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestUpstreamMessage(t *testing.T) {
	assert.Equal(t, vertex.MsgNetworkError, upstreamMessage(&vertex.APIError{Message: vertex.MsgNetworkError, Cause: errors.New("dial tcp")}))
	assert.Equal(t, "boom", upstreamMessage(errors.New("boom")))
	assert.Equal(t, "Unknown error", upstreamMessage(errors.New("")))
}

func TestGenerate_RejectsUnsupportedAspect(t *testing.T) {
	for _, aspect := range []string{"2:1", "4x3", "16:10"} {
		t.Run(aspect, func(t *testing.T) {
			predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
			svc := newTestService(testConfig(), nil, nil, predictor)

			_, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", Aspect: aspect, SelfieDataURL: pngPhoto})

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, MsgInvalidRequest, validationErr.Message)
			require.Len(t, validationErr.Details, 1)
			assert.Equal(t, "aspect", validationErr.Details[0].Field)
			assert.Empty(t, predictor.calls)
		})
	}
}

func TestGenerate_SupportedAspectsReachUpstream(t *testing.T) {
	for _, aspect := range []string{types.AspectSquare, types.AspectLandscape, types.AspectPortrait, types.AspectWide} {
		predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
		svc := newTestService(testConfig(), nil, nil, predictor)

		result, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", Aspect: aspect, SelfieDataURL: pngPhoto})
		require.NoError(t, err, aspect)

		assert.Equal(t, aspect, predictor.calls[0].req.Parameters.AspectRatio)
		assert.Equal(t, aspect, result.Metadata.AspectRatio)
	}
}

func TestGenerate_SeedPassedUpstream(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "image/png"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	seed := 42
	_, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", Seed: &seed, SelfieDataURL: pngPhoto})
	require.NoError(t, err)

	params := predictor.calls[0].req.Parameters
	require.NotNil(t, params.Seed)
	assert.Equal(t, 42, *params.Seed)
	require.NotNil(t, params.AddWatermark)
	assert.False(t, *params.AddWatermark)

	_, err = svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	require.NoError(t, err)
	assert.Nil(t, predictor.calls[1].req.Parameters.Seed)
	assert.Nil(t, predictor.calls[1].req.Parameters.AddWatermark)
}

func TestGenerate_NonImageResultFallsBack(t *testing.T) {
	predictor := &fakePredictor{image: &vertex.GeneratedImage{Base64: "BBBB", MimeType: "text/html"}}
	svc := newTestService(testConfig(), nil, nil, predictor)

	result, err := svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", Career: "doctor", SelfieDataURL: pngPhoto})
	require.NoError(t, err)

	assert.True(t, result.Metadata.Fallback)
	assert.Equal(t, vertex.MsgInvalidResponse, result.Metadata.APIError)
	assert.True(t, strings.HasPrefix(result.ImageURL, rendering.SVGDataURLPrefix))
	assertValidResult(t, result)

	cfg := testConfig()
	cfg.UpstreamFailurePolicy = config.PolicyPropagate
	svc = newTestService(cfg, nil, nil, predictor)

	_, err = svc.Generate(context.Background(), types.PosterRequest{Prompt: "x", SelfieDataURL: pngPhoto})
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	var schemaErr *schemas.ValidationError
	assert.ErrorAs(t, err, &schemaErr)
}
