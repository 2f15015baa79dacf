package imagen

import (
	"fmt"
	"strings"

	"github.com/dreambig/dreambig-sg/internal/schemas"
)

// Client-facing error messages.
const (
	MsgServerConfig    = "Server configuration error"
	MsgInvalidRequest  = "Invalid request data"
	MsgInvalidJSON     = "Invalid JSON in request body"
	MsgRateLimited     = "Rate limit exceeded"
	MsgGenerationError = "Failed to generate image"
)

// ConfigError means the server is missing required settings. Missing names
// the settings for logs; it is never sent to clients.
type ConfigError struct {
	Missing []string
	Cause   error
}

func (e *ConfigError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: missing %s", MsgServerConfig, strings.Join(e.Missing, ", "))
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", MsgServerConfig, e.Cause)
	default:
		return MsgServerConfig
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ValidationError is a problem with the request the client can fix.
type ValidationError struct {
	Message string
	Details []schemas.FieldError
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// RateLimitError means the client used up its window.
type RateLimitError struct {
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (%d remaining)", MsgRateLimited, e.Remaining)
}

// UpstreamError is an image generation failure returned under the
// propagate policy.
type UpstreamError struct {
	Model string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("image generation with %s failed: %v", e.Model, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
