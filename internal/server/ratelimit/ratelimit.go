// Package ratelimit provides per-client sliding-window rate limiting with
// an in-process backend and a Redis backend for multi-instance deployments.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether a client may make another request.
type Limiter interface {
	// Allow records a request for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) bool
	// Remaining returns how many more requests key may make in the current window.
	Remaining(ctx context.Context, key string) int
	// Limit returns the configured number of requests per window.
	Limit() int
	// Stop releases background resources.
	Stop()
}

// New builds the limiter selected by config.Backend. A nil config uses
// DefaultConfig.
func New(ctx context.Context, config *Config) (Limiter, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Backend {
	case "", BackendMemory:
		return NewMemoryLimiter(config), nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, config)
		if err != nil {
			return nil, err
		}
		limiter := NewRedisLimiter(client, config)
		limiter.ownsClient = true
		return limiter, nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", config.Backend)
	}
}

// policy is the whitelist/blacklist/enabled decision shared by every backend.
type policy struct {
	config *Config
}

// decide returns (allowed, true) when the request is settled without
// consulting the window.
func (p policy) decide(key string) (allowed bool, settled bool) {
	switch {
	case !p.config.Enabled:
		return true, true
	case p.config.Whitelist[key]:
		return true, true
	case p.config.Blacklist[key]:
		return false, true
	case p.config.Limit <= 0:
		return true, true
	}
	return false, false
}

// remaining settles Remaining for keys decide would settle.
func (p policy) remaining(key string) (int, bool) {
	allowed, settled := p.decide(key)
	if !settled {
		return 0, false
	}
	if !allowed {
		return 0, true
	}
	return p.config.Limit, true
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}
