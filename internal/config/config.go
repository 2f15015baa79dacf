// Package config provides configuration loading and validation for the poster service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Upstream failure policies.
const (
	// PolicyFallback answers upstream failures with a locally drawn placeholder poster.
	PolicyFallback = "fallback"
	// PolicyPropagate surfaces upstream failures to the caller as errors.
	PolicyPropagate = "propagate"
)

// Defaults used when neither the environment nor a config file sets a value.
const (
	DefaultRegion            = "us-central1"
	DefaultDetailedModelID   = "imagen-4.0-ultra-generate-001"
	DefaultFaceMatchModelID  = "imagen-3.0-capability-001"
	DefaultVisionModel       = "gemini-2.0-flash"
	DefaultOutputDimension   = 4096
	DefaultSafetyFilterLevel = "block_few"
	DefaultPhotoMaxBytes     = 8 * 1024 * 1024
)

// Config represents the service configuration. It can be read from the
// environment, from a JSON file, or from both merged together.
type Config struct {
	// Vertex AI
	ProjectID        string `json:"project_id,omitempty"`
	Region           string `json:"region,omitempty"`
	DetailedModelID  string `json:"detailed_model_id,omitempty"`
	FaceMatchModelID string `json:"face_match_model_id,omitempty"`

	// Credentials: inline service-account JSON or an ADC file path
	CredentialsJSON string `json:"credentials_json,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty"`

	// Gemini vision
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	VisionModel  string `json:"vision_model,omitempty"`

	// Behavior
	UpstreamFailurePolicy string `json:"upstream_failure_policy,omitempty" validate:"omitempty,oneof=fallback propagate"`
	OutputDimension       int    `json:"output_dimension,omitempty" validate:"gte=0,lte=8192"`
	SafetyFilterLevel     string `json:"safety_filter_level,omitempty"`
	PhotoMaxBytes         int64  `json:"photo_max_bytes,omitempty" validate:"gte=0"`
	StrictPhotoTypes      bool   `json:"strict_photo_types,omitempty"`
	RequireAuth           bool   `json:"require_auth,omitempty"`
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() Config {
	return Config{
		Region:                DefaultRegion,
		DetailedModelID:       DefaultDetailedModelID,
		FaceMatchModelID:      DefaultFaceMatchModelID,
		VisionModel:           DefaultVisionModel,
		UpstreamFailurePolicy: PolicyFallback,
		OutputDimension:       DefaultOutputDimension,
		SafetyFilterLevel:     DefaultSafetyFilterLevel,
		PhotoMaxBytes:         DefaultPhotoMaxBytes,
	}
}

// FromEnv reads the configuration from environment variables, falling back to
// Defaults for anything unset. Malformed numeric or boolean values are errors.
func FromEnv() (*Config, error) {
	cfg := Defaults()

	cfg.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	cfg.Region = envOr("GOOGLE_LOCATION", cfg.Region)
	cfg.DetailedModelID = envOr("IMAGEN_MODEL_ID", cfg.DetailedModelID)
	cfg.FaceMatchModelID = envOr("IMAGEN_MODEL_ID_3", cfg.FaceMatchModelID)
	cfg.CredentialsJSON = os.Getenv("GOOGLE_VERTEX_CREDENTIALS_JSON")
	cfg.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.VisionModel = envOr("GEMINI_VISION_MODEL", cfg.VisionModel)
	cfg.UpstreamFailurePolicy = envOr("UPSTREAM_FAILURE_POLICY", cfg.UpstreamFailurePolicy)
	cfg.SafetyFilterLevel = envOr("IMAGEN_SAFETY_FILTER", cfg.SafetyFilterLevel)

	if v := os.Getenv("IMAGEN_OUTPUT_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid IMAGEN_OUTPUT_DIMENSION: %v", err)
		}
		cfg.OutputDimension = n
	}
	if v := os.Getenv("PHOTO_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_MAX_BYTES: %v", err)
		}
		cfg.PhotoMaxBytes = n
	}
	if v := os.Getenv("PHOTO_STRICT_TYPES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PHOTO_STRICT_TYPES: %v", err)
		}
		cfg.StrictPhotoTypes = b
	}
	if v := os.Getenv("AUTH_REQUIRED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_REQUIRED: %v", err)
		}
		cfg.RequireAuth = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that configured values are in range. It does not check
// for required deployment settings; see ValidateEnvironment for that.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("config error: %s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("config error: %w", err)
}

// environment mirrors the settings that must be present before any image
// can be generated.
type environment struct {
	ProjectID       string `validate:"required"`
	CredentialsJSON string `validate:"required_without=CredentialsFile"`
	CredentialsFile string `validate:"required_without=CredentialsJSON"`
}

// envNames maps environment struct fields to the variables users set.
var envNames = map[string]string{
	"ProjectID":       "GOOGLE_PROJECT_ID",
	"CredentialsJSON": "GOOGLE_VERTEX_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS",
	"CredentialsFile": "GOOGLE_VERTEX_CREDENTIALS_JSON or GOOGLE_APPLICATION_CREDENTIALS",
}

// ValidateEnvironment returns the names of required settings that are
// missing. An empty result means the service can reach Vertex AI.
func (c *Config) ValidateEnvironment() []string {
	env := environment{
		ProjectID:       c.ProjectID,
		CredentialsJSON: c.CredentialsJSON,
		CredentialsFile: c.CredentialsFile,
	}

	err := validator.New().Struct(env)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := envNames[fe.Field()]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	return missing
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer a config file over environment values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ProjectID == "" {
		result.ProjectID = defaults.ProjectID
	}
	if result.Region == "" {
		result.Region = defaults.Region
	}
	if result.DetailedModelID == "" {
		result.DetailedModelID = defaults.DetailedModelID
	}
	if result.FaceMatchModelID == "" {
		result.FaceMatchModelID = defaults.FaceMatchModelID
	}
	if result.CredentialsJSON == "" {
		result.CredentialsJSON = defaults.CredentialsJSON
	}
	if result.CredentialsFile == "" {
		result.CredentialsFile = defaults.CredentialsFile
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.VisionModel == "" {
		result.VisionModel = defaults.VisionModel
	}
	if result.UpstreamFailurePolicy == "" {
		result.UpstreamFailurePolicy = defaults.UpstreamFailurePolicy
	}
	if result.SafetyFilterLevel == "" {
		result.SafetyFilterLevel = defaults.SafetyFilterLevel
	}

	if result.OutputDimension == 0 {
		result.OutputDimension = defaults.OutputDimension
	}
	if result.PhotoMaxBytes == 0 {
		result.PhotoMaxBytes = defaults.PhotoMaxBytes
	}

	// Bools: a file can only switch these on.
	result.StrictPhotoTypes = result.StrictPhotoTypes || defaults.StrictPhotoTypes
	result.RequireAuth = result.RequireAuth || defaults.RequireAuth

	return result
}

// Propagates reports whether upstream failures should reach the caller.
func (c *Config) Propagates() bool {
	return c.UpstreamFailurePolicy == PolicyPropagate
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
