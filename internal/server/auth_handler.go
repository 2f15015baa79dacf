package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dreambig/dreambig-sg/internal/config"
	"github.com/dreambig/dreambig-sg/internal/server/ratelimit"
	"github.com/dreambig/dreambig-sg/internal/types"
)

// AuthHandler handles the kiosk login.
type AuthHandler struct {
	credentials *config.Credentials
	jwtService  *JWTService
	limiter     ratelimit.Limiter
	validator   *validator.Validate
	now         func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// A nil limiter allows every attempt.
func NewAuthHandler(credentials *config.Credentials, jwtService *JWTService, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		jwtService:  jwtService,
		limiter:     limiter,
		validator:   validator.New(),
		now:         time.Now,
	}
}

// Login checks the kiosk credential and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	client := clientID(r)
	if h.limiter != nil && !h.limiter.Allow(r.Context(), client) {
		log.Printf("[auth] too many login attempts from %s", client)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             "Too many login attempts",
			"remainingAttempts": h.limiter.Remaining(r.Context(), client),
		})
		return
	}

	if h.credentials == nil || h.jwtService == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login is not configured"})
		return
	}

	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(extractValidationError(err)))
		return
	}

	if !h.credentials.Check(req.Username, req.Password) {
		log.Printf("[auth] failed login from %s", client)
		err := &ErrInvalidCredentials{}
		writeJSON(w, HTTPStatus(err), errorBody(err))
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		log.Printf("[auth] %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{
		Authenticated: true,
		Token:         token,
		LoginTime:     h.now().UTC().Format(time.RFC3339),
		ExpiresAt:     expiresAt.UTC().Format(time.RFC3339),
	})
}

// extractValidationError converts the first validator failure into an ErrValidation.
func extractValidationError(err error) *ErrValidation {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: fmt.Sprintf("invalid: %v", err)}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
