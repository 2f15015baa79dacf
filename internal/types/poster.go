// Package types provides type definitions for the poster request/response
// payloads and the domain values shared across packages.
package types

import "github.com/go-playground/validator/v10"

// ModelVariant selects which upstream image model handles a request.
type ModelVariant string

const (
	// VariantDetailed is text-only generation from a long structured prompt.
	VariantDetailed ModelVariant = "detailed"
	// VariantFaceMatch is generation conditioned on the uploaded photo.
	VariantFaceMatch ModelVariant = "face-match"
)

// Supported aspect ratios.
const (
	AspectSquare    = "1:1"
	AspectLandscape = "4:3"
	AspectPortrait  = "3:4"
	AspectWide      = "16:9"

	DefaultAspect = AspectLandscape
)

// ValidAspect reports whether a is one of the supported aspect ratios.
func ValidAspect(a string) bool {
	switch a {
	case AspectSquare, AspectLandscape, AspectPortrait, AspectWide:
		return true
	}
	return false
}

// AgeBracket is the coarse age classification returned by the vision step.
type AgeBracket string

const (
	AgeChild   AgeBracket = "child"
	AgeTeen    AgeBracket = "teen"
	AgeAdult   AgeBracket = "adult"
	AgeUnknown AgeBracket = "unknown"
)

// Valid reports whether b is one of the known brackets.
func (b AgeBracket) Valid() bool {
	switch b {
	case AgeChild, AgeTeen, AgeAdult, AgeUnknown:
		return true
	}
	return false
}

// PosterRequest is the body of POST /api/imagen.
type PosterRequest struct {
	Prompt        string            `json:"prompt"`
	Seed          *int              `json:"seed,omitempty"`
	Career        string            `json:"career,omitempty"`
	Background    string            `json:"background,omitempty"`
	Activity      string            `json:"activity,omitempty"`
	Aspect        string            `json:"aspect,omitempty"`
	SelfieDataURL string            `json:"selfieDataUrl,omitempty"`
	SelectedModel ModelVariant      `json:"selectedModel,omitempty"`
	Mission       *MissionSelection `json:"mission,omitempty"`
}

// MissionSelection is the three-slot mission builder: action, who and power.
type MissionSelection struct {
	Action string `json:"action" validate:"required"`
	Who    string `json:"who" validate:"required"`
	Power  string `json:"power" validate:"required"`
}

// Validate validates the MissionSelection using the validator.
func (m *MissionSelection) Validate() error {
	return validator.New().Struct(m)
}

// GenerationResult is the success body of POST /api/imagen. Upstream
// failures under the fallback policy also produce a GenerationResult,
// flagged through Metadata.Fallback.
type GenerationResult struct {
	Success  bool     `json:"success"`
	ImageURL string   `json:"imageUrl"`
	Metadata Metadata `json:"metadata"`
}

// Metadata describes how an image was produced.
type Metadata struct {
	RequestID          string     `json:"requestId"`
	ModelUsed          string     `json:"modelUsed"`
	ModelType          string     `json:"modelType,omitempty"`
	SelectedModel      string     `json:"selectedModel,omitempty"`
	Prompt             string     `json:"prompt"`
	SubjectDescription string     `json:"subjectDescription,omitempty"`
	AgeBracket         AgeBracket `json:"ageBracket,omitempty"`
	Timestamp          string     `json:"timestamp"`
	HasUploadedPhoto   bool       `json:"hasUploadedPhoto"`
	AspectRatio        string     `json:"aspectRatio"`
	APIProvider        string     `json:"apiProvider,omitempty"`
	MimeType           string     `json:"mimeType,omitempty"`
	GenerationType     string     `json:"generationType,omitempty"`
	ModelVersion       string     `json:"modelVersion,omitempty"`
	Approach           string     `json:"approach,omitempty"`

	Fallback bool   `json:"fallback,omitempty"`
	APIError string `json:"apiError,omitempty"`
}

// PosterData is the selection a gallery poster was made from.
type PosterData struct {
	Career     string `json:"career"`
	Background string `json:"background"`
	Activity   string `json:"activity"`
}

// GeneratedPoster is an entry in the local gallery.
type GeneratedPoster struct {
	ID        string     `json:"id"`
	ImageURL  string     `json:"imageUrl"`
	Data      PosterData `json:"data"`
	CreatedAt string     `json:"createdAt"`
	Badges    []string   `json:"badges"`
}
