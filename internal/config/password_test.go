package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		wantCost   int
		wantErr    bool
	}{
		{name: "default cost", bcryptCost: "", wantCost: 12},
		{name: "boundary cost 10", bcryptCost: "10", wantCost: 10},
		{name: "boundary cost 14", bcryptCost: "14", wantCost: 14},
		{name: "cost too low", bcryptCost: "9", wantErr: true},
		{name: "cost too high", bcryptCost: "15", wantErr: true},
		{name: "invalid cost", bcryptCost: "invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)
			t.Setenv("PASSWORD_PEPPER", "")

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("buildSG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, cfg.VerifyPassword("buildSG", hash))
	assert.False(t, cfg.VerifyPassword("buildsg", hash))
	assert.False(t, cfg.VerifyPassword("", hash))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "pepper"}
	plain := &PasswordConfig{BcryptCost: 10}

	hash, err := peppered.HashPassword("buildSG")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("buildSG", hash))
	assert.False(t, plain.VerifyPassword("buildSG", hash), "pepper must be applied on verify")
}

func TestNewCredentials_Defaults(t *testing.T) {
	t.Setenv("DREAMBIG_USERNAME", "")
	t.Setenv("DREAMBIG_PASSWORD", "")

	creds, err := NewCredentials(&PasswordConfig{BcryptCost: 10})
	require.NoError(t, err)

	assert.Equal(t, DefaultUsername, creds.Username)
	assert.NotContains(t, creds.PasswordHash, DefaultPassword)
	assert.True(t, creds.Check("superkid", "buildSG"))
	assert.False(t, creds.Check("superkid", "wrong"))
	assert.False(t, creds.Check("superkid2", "buildSG"))
}

func TestNewCredentials_FromEnv(t *testing.T) {
	t.Setenv("DREAMBIG_USERNAME", "captain")
	t.Setenv("DREAMBIG_PASSWORD", "merlion")

	creds, err := NewCredentials(&PasswordConfig{BcryptCost: 10})
	require.NoError(t, err)

	assert.True(t, creds.Check("captain", "merlion"))
	assert.False(t, creds.Check("superkid", "buildSG"))
}

func TestNewCredentials_NilConfig(t *testing.T) {
	creds, err := NewCredentials(nil)
	assert.Error(t, err)
	assert.Nil(t, creds)
}
