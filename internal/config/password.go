package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// Default login used by the kiosk when none is configured.
const (
	DefaultUsername = "superkid"
	DefaultPassword = "buildSG"
)

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig creates a new password configuration from environment variables.
// It reads BCRYPT_COST (default: 12) and optionally PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		costStr = "12"
	}

	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	config := &PasswordConfig{
		BcryptCost: cost,
		Pepper:     os.Getenv("PASSWORD_PEPPER"),
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.pepper(pw)), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(c.pepper(pw))) == nil
}

func (c *PasswordConfig) pepper(pw string) string {
	if c.Pepper != "" {
		return pw + c.Pepper
	}
	return pw
}

// Credentials is the single configured login. Only the bcrypt hash of the
// password is kept in memory.
type Credentials struct {
	Username     string
	PasswordHash string
	passwords    *PasswordConfig
}

// NewCredentials reads DREAMBIG_USERNAME and DREAMBIG_PASSWORD (falling back
// to the kiosk defaults) and hashes the password with the given config.
func NewCredentials(passwords *PasswordConfig) (*Credentials, error) {
	if passwords == nil {
		return nil, fmt.Errorf("password config is required")
	}

	username := envOr("DREAMBIG_USERNAME", DefaultUsername)
	password := envOr("DREAMBIG_PASSWORD", DefaultPassword)

	hash, err := passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		Username:     username,
		PasswordHash: hash,
		passwords:    passwords,
	}, nil
}

// Check reports whether the username and password match the configured login.
func (c *Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := c.passwords.VerifyPassword(password, c.PasswordHash)
	return userOK && passOK
}
