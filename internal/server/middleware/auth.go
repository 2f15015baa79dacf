// Package middleware provides HTTP middleware for kiosk session authentication.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// sessionKey is the context key for the authenticated session.
const sessionKey ContextKey = "session"

// Session identifies a logged-in kiosk session.
type Session struct {
	ID       uuid.UUID
	Username string
}

// TokenValidator validates bearer tokens. This allows the middleware to work
// with any token implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (SessionGetter, error)
}

// SessionGetter extracts the session from validated token claims.
type SessionGetter interface {
	GetSession() Session
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the
// session to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims.GetSession())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken parses "Bearer <token>", accepting any case for the scheme.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// GetSession extracts the authenticated session from the request context.
func GetSession(r *http.Request) (Session, error) {
	session, ok := r.Context().Value(sessionKey).(Session)
	if !ok {
		return Session{}, fmt.Errorf("session not found in request context")
	}
	return session, nil
}

// SessionKey returns the context key for the session (for testing purposes).
func SessionKey() ContextKey {
	return sessionKey
}
