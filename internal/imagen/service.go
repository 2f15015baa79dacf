// Package imagen orchestrates poster generation: it checks configuration,
// applies the rate limit, validates and sanitizes the request, analyzes the
// photo, composes the prompt for the selected model variant, calls the image
// model and falls back to a local placeholder when the call fails.
package imagen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/prompts"
	"github.com/dreambig/dreambig-sg/internal/rendering"
	"github.com/dreambig/dreambig-sg/internal/schemas"
	"github.com/dreambig/dreambig-sg/internal/security"
	"github.com/dreambig/dreambig-sg/internal/server/ratelimit"
	"github.com/dreambig/dreambig-sg/internal/types"
	"github.com/dreambig/dreambig-sg/internal/vertex"
)

// Metadata truncation lengths, in runes.
const (
	maxMetadataPrompt  = 300
	maxMetadataSubject = 200
)

// Predictor is the image model.
type Predictor interface {
	Predict(ctx context.Context, model string, req *vertex.PredictRequest) (*vertex.GeneratedImage, error)
}

// Service runs poster generation requests.
type Service struct {
	config    *config.Config
	limiter   ratelimit.Limiter
	describer SubjectDescriber
	predictor Predictor

	// OnProgress, when set, receives an event per generation step.
	OnProgress ProgressCallback

	now   func() time.Time
	newID func() string
}

// NewService wires a Service. limiter and describer may be nil: a nil
// limiter admits everything and a nil describer skips the vision step.
func NewService(cfg *config.Config, limiter ratelimit.Limiter, describer SubjectDescriber, predictor Predictor) *Service {
	return &Service{
		config:    cfg,
		limiter:   limiter,
		describer: describer,
		predictor: predictor,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// selection is a sanitized request with defaults applied.
type selection struct {
	Prompt   string
	Career   string
	Location string
	Activity string
	Aspect   string
	Seed     *int
	Variant  Variant
}

// Process handles a raw POST /api/imagen body from clientID. The returned
// error is one of *ConfigError, *RateLimitError, *ValidationError or, under
// the propagate policy, *UpstreamError.
func (s *Service) Process(ctx context.Context, clientID string, body []byte) (*types.GenerationResult, error) {
	if err := s.checkEnvironment(); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, clientID) {
		remaining := s.limiter.Remaining(ctx, clientID)
		log.Printf("[rate-limit] %s exceeded the poster limit", clientID)
		return nil, &RateLimitError{Remaining: remaining}
	}

	req, err := DecodeRequest(body)
	if err != nil {
		return nil, err
	}

	return s.Generate(ctx, *req)
}

// DecodeRequest validates body against the request schema and decodes it.
func DecodeRequest(body []byte) (*types.PosterRequest, error) {
	if err := schemas.ValidateImagenRequest(body); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &ValidationError{Message: MsgInvalidRequest, Details: validationErr.Errors}
		}
		var docErr *schemas.DocumentError
		if errors.As(err, &docErr) {
			return nil, &ValidationError{Message: MsgInvalidJSON, Cause: err}
		}
		return nil, &ConfigError{Cause: err}
	}

	var req types.PosterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ValidationError{Message: MsgInvalidJSON, Cause: err}
	}
	return &req, nil
}

// Generate runs a decoded request from input validation through to the
// image or the placeholder. It does not check the environment or the rate
// limit.
func (s *Service) Generate(ctx context.Context, req types.PosterRequest) (*types.GenerationResult, error) {
	if s.predictor == nil {
		return nil, &ConfigError{Cause: errors.New("no image model client configured")}
	}

	requestID := s.newID()
	s.emitProgress(requestID, StepValidate, "Validating request", nil)

	sel, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	photo, err := security.DecodePhoto(req.SelfieDataURL, security.PhotoOptions{
		MaxBytes:    s.config.PhotoMaxBytes,
		StrictTypes: s.config.StrictPhotoTypes,
	})
	if err != nil {
		var photoErr *security.PhotoError
		if errors.As(err, &photoErr) {
			return nil, &ValidationError{Message: photoErr.Message, Cause: photoErr.Cause}
		}
		return nil, &ValidationError{Message: security.MsgInvalidImageData, Cause: err}
	}

	log.Printf("[imagen] %s: model %s, career %q, location %q", requestID, sel.Variant.Name(), sel.Career, sel.Location)

	s.emitProgress(requestID, StepVision, "Analyzing photo", nil)
	subject := s.describeSubject(ctx, photo, sel)

	s.emitProgress(requestID, StepCompose, "Composing prompt", subject.Age)
	prompt := sel.Variant.Prompt(prompts.Input{
		Career:             sel.Career,
		Location:           sel.Location,
		Activity:           sel.Activity,
		SubjectDescription: subject.Description,
		Age:                subject.Age,
	})
	log.Printf("[imagen] %s: composed %d character prompt (vision used: %t, age: %s)", requestID, len(prompt), subject.FromVision, subject.Age)

	model := sel.Variant.ModelID(s.config)
	payload := sel.Variant.Request(prompt, photo, s.parameters(sel))

	s.emitProgress(requestID, StepPredict, "Generating image with "+model, nil)
	image, err := s.predictor.Predict(ctx, model, payload)
	if err != nil {
		return s.upstreamFailure(requestID, model, sel, err)
	}

	tags := sel.Variant.Tags()
	result := &types.GenerationResult{
		Success:  true,
		ImageURL: image.DataURL(),
		Metadata: types.Metadata{
			RequestID:          requestID,
			ModelUsed:          model,
			ModelType:          string(sel.Variant.Name()),
			SelectedModel:      string(sel.Variant.Name()),
			Prompt:             security.Truncate(prompt, maxMetadataPrompt),
			SubjectDescription: security.Truncate(subject.Description, maxMetadataSubject),
			AgeBracket:         subject.Age,
			Timestamp:          s.timestamp(),
			HasUploadedPhoto:   true,
			AspectRatio:        sel.Aspect,
			APIProvider:        tags.APIProvider,
			MimeType:           image.MimeType,
			GenerationType:     tags.GenerationType,
			ModelVersion:       tags.ModelVersion,
			Approach:           tags.Approach,
		},
	}

	if err := checkResult(result); err != nil {
		return s.upstreamFailure(requestID, model, sel, &vertex.APIError{Message: vertex.MsgInvalidResponse, Cause: err})
	}

	log.Printf("[imagen] %s: generated %s image", requestID, image.MimeType)
	s.emitProgress(requestID, StepDone, "Image generated", nil)
	return result, nil
}

// upstreamFailure applies the configured failure policy.
func (s *Service) upstreamFailure(requestID, model string, sel selection, cause error) (*types.GenerationResult, error) {
	log.Printf("[imagen] %s: %s failed: %v", requestID, model, cause)

	if s.config.Propagates() {
		return nil, &UpstreamError{Model: model, Cause: cause}
	}

	imageURL, err := rendering.PlaceholderPoster(sel.Career, sel.Location, sel.Activity, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to render placeholder: %w", err)
	}

	log.Printf("[imagen] %s: returning placeholder poster", requestID)
	s.emitProgress(requestID, StepFallback, "Returned placeholder poster", cause.Error())

	result := &types.GenerationResult{
		Success:  true,
		ImageURL: imageURL,
		Metadata: types.Metadata{
			RequestID:        requestID,
			ModelUsed:        model,
			SelectedModel:    string(sel.Variant.Name()),
			Prompt:           sel.Prompt,
			Timestamp:        s.timestamp(),
			HasUploadedPhoto: true,
			AspectRatio:      sel.Aspect,
			Fallback:         true,
			APIError:         upstreamMessage(cause),
		},
	}
	if err := checkResult(result); err != nil {
		return nil, fmt.Errorf("placeholder result: %w", err)
	}
	return result, nil
}

// checkResult validates a result against the published response schema.
func checkResult(result *types.GenerationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return schemas.ValidateGenerationResult(data)
}

// upstreamMessage is the client-facing text for an upstream failure.
func upstreamMessage(err error) string {
	var apiErr *vertex.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}

// checkEnvironment fails with a ConfigError when required settings are missing.
func (s *Service) checkEnvironment() error {
	if s.config == nil {
		return &ConfigError{Cause: errors.New("no configuration loaded")}
	}
	if missing := s.config.ValidateEnvironment(); len(missing) > 0 {
		log.Printf("[imagen] environment validation failed: missing %s", strings.Join(missing, ", "))
		return &ConfigError{Missing: missing}
	}
	return nil
}

// normalize sanitizes free text and applies defaults.
func (s *Service) normalize(req types.PosterRequest) (selection, error) {
	variant, ok := LookupVariant(req.SelectedModel)
	if !ok {
		return selection{}, &ValidationError{
			Message: MsgInvalidRequest,
			Details: []schemas.FieldError{{Field: "selectedModel", Message: fmt.Sprintf("unknown model variant %q", req.SelectedModel)}},
		}
	}

	aspect := req.Aspect
	if aspect == "" {
		aspect = types.DefaultAspect
	}
	if !types.ValidAspect(aspect) {
		return selection{}, &ValidationError{
			Message: MsgInvalidRequest,
			Details: []schemas.FieldError{{Field: "aspect", Message: fmt.Sprintf("unsupported aspect ratio %q", aspect)}},
		}
	}

	activity := security.Sanitize(req.Activity)
	if activity == "" && req.Mission != nil {
		if err := req.Mission.Validate(); err != nil {
			return selection{}, &ValidationError{Message: MsgInvalidRequest, Cause: err}
		}
		mission, err := catalog.BuildMission(*req.Mission)
		if err != nil {
			var optErr *catalog.UnknownOptionError
			if errors.As(err, &optErr) {
				return selection{}, &ValidationError{
					Message: MsgInvalidRequest,
					Details: []schemas.FieldError{{Field: "mission." + optErr.Slot, Message: optErr.Error()}},
				}
			}
			return selection{}, &ValidationError{Message: MsgInvalidRequest, Cause: err}
		}
		activity = mission
	}
	if activity == "" {
		activity = prompts.DefaultActivity
	}

	career := security.Sanitize(req.Career)
	if career == "" {
		career = prompts.DefaultCareer
	}

	return selection{
		Prompt:   security.Sanitize(req.Prompt),
		Career:   career,
		Location: security.Sanitize(req.Background),
		Activity: activity,
		Aspect:   aspect,
		Seed:     req.Seed,
		Variant:  variant,
	}, nil
}

// parameters are the predict settings shared by every variant. A seed only
// takes effect upstream with watermarking off.
func (s *Service) parameters(sel selection) vertex.Parameters {
	params := vertex.Parameters{
		SampleCount:       1,
		AspectRatio:       sel.Aspect,
		SafetyFilterLevel: s.config.SafetyFilterLevel,
	}
	if d := s.config.OutputDimension; d > 0 {
		params.OutputDimension = &vertex.OutputDimension{WidthPixels: d, HeightPixels: d}
	}
	if sel.Seed != nil {
		seed, watermark := *sel.Seed, false
		params.Seed = &seed
		params.AddWatermark = &watermark
	}
	return params
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
