package imagen

import (
	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/prompts"
	"github.com/dreambig/dreambig-sg/internal/security"
	"github.com/dreambig/dreambig-sg/internal/types"
	"github.com/dreambig/dreambig-sg/internal/vertex"
)

// Tags describe how a variant produces its image. They are copied into
// the result metadata.
type Tags struct {
	APIProvider    string
	GenerationType string
	ModelVersion   string
	Approach       string
}

// Variant owns everything that differs between upstream image models.
type Variant interface {
	Name() types.ModelVariant
	// ModelID returns the configured model for this variant.
	ModelID(cfg *config.Config) string
	// Prompt composes the prompt text for this variant.
	Prompt(in prompts.Input) string
	// Request shapes the predict payload. params holds the shared settings.
	Request(prompt string, photo *security.Photo, params vertex.Parameters) *vertex.PredictRequest
	Tags() Tags
}

// Variants returns every variant keyed by its discriminator.
func Variants() map[types.ModelVariant]Variant {
	return map[types.ModelVariant]Variant{
		types.VariantDetailed:  detailedVariant{},
		types.VariantFaceMatch: faceMatchVariant{},
	}
}

// LookupVariant returns the variant for name. An empty name selects detailed.
func LookupVariant(name types.ModelVariant) (Variant, bool) {
	if name == "" {
		name = types.VariantDetailed
	}
	v, ok := Variants()[name]
	return v, ok
}

// detailedVariant is text-only generation from the long structured prompt.
type detailedVariant struct{}

func (detailedVariant) Name() types.ModelVariant { return types.VariantDetailed }

func (detailedVariant) ModelID(cfg *config.Config) string { return cfg.DetailedModelID }

func (detailedVariant) Prompt(in prompts.Input) string {
	return prompts.Compose(in, types.VariantDetailed)
}

func (detailedVariant) Request(prompt string, _ *security.Photo, params vertex.Parameters) *vertex.PredictRequest {
	return &vertex.PredictRequest{
		Instances:  []vertex.Instance{{Prompt: prompt}},
		Parameters: params,
	}
}

func (detailedVariant) Tags() Tags {
	return Tags{
		APIProvider:    "Google Vertex AI Imagen 4 + Gemini Vision",
		GenerationType: "text-to-image-superhero-creation",
		ModelVersion:   "imagen-4-text-generation",
		Approach:       "gemini-analysis -> imagen-4-text-to-image-generation",
	}
}

// faceMatchVariant conditions generation on the uploaded photo.
type faceMatchVariant struct{}

const (
	personGenerationAllowAll = "ALLOW_ALL"
	referenceSubject         = "person to transform into superhero"
)

func (faceMatchVariant) Name() types.ModelVariant { return types.VariantFaceMatch }

func (faceMatchVariant) ModelID(cfg *config.Config) string { return cfg.FaceMatchModelID }

func (faceMatchVariant) Prompt(in prompts.Input) string {
	return prompts.Compose(in, types.VariantFaceMatch)
}

func (faceMatchVariant) Request(prompt string, photo *security.Photo, params vertex.Parameters) *vertex.PredictRequest {
	params.PersonGeneration = personGenerationAllowAll

	instance := vertex.Instance{Prompt: prompt}
	if photo != nil {
		instance.ReferenceImages = []vertex.ReferenceImage{{
			ReferenceType:  vertex.ReferenceTypeSubject,
			ReferenceID:    1,
			ReferenceImage: vertex.Image{BytesBase64Encoded: photo.Base64},
			SubjectImageConfig: &vertex.SubjectImageConfig{
				SubjectType:        vertex.SubjectTypePerson,
				SubjectDescription: referenceSubject,
			},
		}}
	}

	return &vertex.PredictRequest{
		Instances:  []vertex.Instance{instance},
		Parameters: params,
	}
}

func (faceMatchVariant) Tags() Tags {
	return Tags{
		APIProvider:    "Google Vertex AI Imagen 3 + Gemini Vision",
		GenerationType: "image-to-image-superhero-transformation",
		ModelVersion:   "imagen-3-with-reference-image",
		Approach:       "gemini-analysis -> imagen-3-reference-image-transformation",
	}
}
