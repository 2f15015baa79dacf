package types

import "github.com/go-playground/validator/v10"

// LoginRequest represents the kiosk login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Authenticated bool   `json:"authenticated"`
	Token         string `json:"token"`
	LoginTime     string `json:"loginTime"`
	ExpiresAt     string `json:"expiresAt"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validator.New().Struct(r)
}
