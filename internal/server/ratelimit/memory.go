package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a log of request timestamps per client in process.
// Requests older than the window fall out of the log.
type MemoryLimiter struct {
	policy
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewMemoryLimiter creates an in-memory limiter. A nil config uses DefaultConfig.
func NewMemoryLimiter(config *Config) *MemoryLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryLimiter{
		policy:   policy{config: config},
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}

	// Start cleanup goroutine if enabled
	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if allowed, settled := l.decide(key); settled {
		return allowed
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	log := l.prune(key, now)
	if len(log) >= l.config.Limit {
		return false
	}
	l.requests[key] = append(log, now)
	return true
}

// Remaining implements Limiter.
func (l *MemoryLimiter) Remaining(_ context.Context, key string) int {
	if n, settled := l.remaining(key); settled {
		return n
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return max(0, l.config.Limit-len(l.prune(key, l.now())))
}

// Limit implements Limiter.
func (l *MemoryLimiter) Limit() int {
	return l.config.Limit
}

// prune drops timestamps outside the window. The caller holds l.mu.
func (l *MemoryLimiter) prune(key string, now time.Time) []time.Time {
	log := l.requests[key]
	start := windowStart(now, l.config.Window)

	i := 0
	for i < len(log) && !log[i].After(start) {
		i++
	}
	if i == len(log) {
		delete(l.requests, key)
		return nil
	}
	if i > 0 {
		log = log[i:]
		l.requests[key] = log
	}
	return log
}

// cleanup removes idle clients to prevent memory leaks.
func (l *MemoryLimiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupKeys()
		case <-l.cleanupStop:
			return
		}
	}
}

func (l *MemoryLimiter) cleanupKeys() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.requests {
		l.prune(key, now)
	}
}

// size returns the number of tracked clients.
func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
