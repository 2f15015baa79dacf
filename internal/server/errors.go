// Package server provides the HTTP API for the poster service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dreambig/dreambig-sg/internal/imagen"
)

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "Invalid username or password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		configErr      *imagen.ConfigError
		validationErr  *imagen.ValidationError
		rateErr        *imagen.RateLimitError
		upstreamErr    *imagen.UpstreamError
		credentialsErr *ErrInvalidCredentials
		requestErr     *ErrValidation
	)

	switch {
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case errors.As(err, &validationErr), errors.As(err, &requestErr):
		return http.StatusBadRequest
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &credentialsErr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON body written for err. Internal details stay in the logs.
func errorBody(err error) map[string]any {
	var (
		configErr     *imagen.ConfigError
		validationErr *imagen.ValidationError
		rateErr       *imagen.RateLimitError
		upstreamErr   *imagen.UpstreamError
	)

	switch {
	case errors.As(err, &configErr):
		return map[string]any{"error": imagen.MsgServerConfig}
	case errors.As(err, &validationErr):
		body := map[string]any{"error": validationErr.Message}
		if len(validationErr.Details) > 0 {
			body["details"] = validationErr.Details
		}
		return body
	case errors.As(err, &rateErr):
		return map[string]any{"error": imagen.MsgRateLimited, "remainingAttempts": rateErr.Remaining}
	case errors.As(err, &upstreamErr):
		return map[string]any{"error": imagen.MsgGenerationError, "details": upstreamMessage(upstreamErr)}
	}

	if HTTPStatus(err) == http.StatusInternalServerError {
		return map[string]any{"error": "Internal server error"}
	}
	return map[string]any{"error": err.Error()}
}

func upstreamMessage(err *imagen.UpstreamError) string {
	if err.Cause == nil {
		return err.Error()
	}
	return err.Cause.Error()
}
