package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Defaults for the poster generation limit.
const (
	DefaultLimit           = 5
	DefaultWindow          = time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Name            string // distinguishes limiters that share a Redis instance
	Limit           int    // requests allowed per window
	Window          time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool

	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns an enabled in-memory configuration allowing
// DefaultLimit requests per DefaultWindow.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Name:            "imagen",
		Limit:           DefaultLimit,
		Window:          DefaultWindow,
		CleanupInterval: DefaultCleanupInterval,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		Backend:         BackendMemory,
	}
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", true)
	cfg.Limit = getEnvInt("RATE_LIMIT_MAX_REQUESTS", DefaultLimit)
	cfg.Window = getEnvDuration("RATE_LIMIT_WINDOW", DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval)
	cfg.Whitelist = parseKeyList(getEnvString("RATE_LIMIT_WHITELIST", ""))
	cfg.Blacklist = parseKeyList(getEnvString("RATE_LIMIT_BLACKLIST", ""))
	cfg.Backend = strings.ToLower(getEnvString("RATE_LIMIT_BACKEND", BackendMemory))
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	return cfg
}

// Derive returns a copy of c with its own name and limit, sharing the
// backend, whitelist and blacklist settings.
func (c *Config) Derive(name string, limit int, window time.Duration) *Config {
	out := *c
	out.Name = name
	out.Limit = limit
	out.Window = window
	return &out
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
// Bare integers are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// parseKeyList parses a comma-separated list of client keys into a set.
func parseKeyList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, key := range strings.Split(list, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			result[key] = true
		}
	}
	return result
}
