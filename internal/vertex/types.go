package vertex

// PredictRequest is the body of a publisher model :predict call.
type PredictRequest struct {
	Instances  []Instance `json:"instances"`
	Parameters Parameters `json:"parameters"`
}

// Instance is one generation request. ReferenceImages is set only for
// subject-conditioned models.
type Instance struct {
	Prompt          string           `json:"prompt"`
	ReferenceImages []ReferenceImage `json:"referenceImages,omitempty"`
}

// Reference image and subject types understood by the capability models.
const (
	ReferenceTypeSubject = "REFERENCE_TYPE_SUBJECT"
	SubjectTypePerson    = "SUBJECT_TYPE_PERSON"
)

// ReferenceImage conditions generation on an uploaded photo.
type ReferenceImage struct {
	ReferenceType      string              `json:"referenceType"`
	ReferenceID        int                 `json:"referenceId"`
	ReferenceImage     Image               `json:"referenceImage"`
	SubjectImageConfig *SubjectImageConfig `json:"subjectImageConfig,omitempty"`
}

// Image carries base64 image bytes.
type Image struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

// SubjectImageConfig describes what the reference image shows.
type SubjectImageConfig struct {
	SubjectType        string `json:"subjectType"`
	SubjectDescription string `json:"subjectDescription"`
}

// Parameters controls sampling and output.
type Parameters struct {
	SampleCount       int              `json:"sampleCount"`
	AspectRatio       string           `json:"aspectRatio,omitempty"`
	SafetyFilterLevel string           `json:"safetyFilterLevel,omitempty"`
	PersonGeneration  string           `json:"personGeneration,omitempty"`
	OutputDimension   *OutputDimension `json:"outputDimension,omitempty"`
	Seed              *int             `json:"seed,omitempty"`
	AddWatermark      *bool            `json:"addWatermark,omitempty"`
}

// OutputDimension is the requested output size in pixels.
type OutputDimension struct {
	WidthPixels  int `json:"widthPixels"`
	HeightPixels int `json:"heightPixels"`
}

// PredictResponse is the body returned by :predict.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction is one generated image.
type Prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
}

// DefaultMimeType is assumed when a prediction does not declare an image type.
const DefaultMimeType = "image/png"

// GeneratedImage is the first prediction of a successful call.
type GeneratedImage struct {
	Base64   string
	MimeType string
}

// DataURL returns the image as a data URI.
func (g *GeneratedImage) DataURL() string {
	return "data:" + g.MimeType + ";base64," + g.Base64
}
