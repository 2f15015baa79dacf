package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	limiter := NewRedisLimiter(client, testConfig(limit))
	limiter.now = clock.Now
	return limiter, mr, clock
}

func TestRedisLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	limiter, _, _ := newTestRedisLimiter(t, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "203.0.113.7"), "request %d", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "203.0.113.7"))
	assert.Equal(t, 0, limiter.Remaining(ctx, "203.0.113.7"))
	assert.Equal(t, 5, limiter.Remaining(ctx, "anonymous"))
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	limiter, _, clock := newTestRedisLimiter(t, 2)

	require.True(t, limiter.Allow(ctx, "a"))
	clock.Advance(30 * time.Second)
	require.True(t, limiter.Allow(ctx, "a"))
	require.False(t, limiter.Allow(ctx, "a"))

	clock.Advance(31 * time.Second)
	assert.Equal(t, 1, limiter.Remaining(ctx, "a"))
	assert.True(t, limiter.Allow(ctx, "a"))
	assert.False(t, limiter.Allow(ctx, "a"))
}

func TestRedisLimiter_KeysAreNamespacedAndExpire(t *testing.T) {
	ctx := context.Background()
	limiter, mr, _ := newTestRedisLimiter(t, 3)

	limiter.Allow(ctx, "a")

	key := "dreambig:ratelimit:imagen:a"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	members, err := mr.ZMembers(key)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	first, mr, clock := newTestRedisLimiter(t, 2)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	second := NewRedisLimiter(client, testConfig(2))
	second.now = clock.Now

	assert.True(t, first.Allow(ctx, "a"))
	assert.True(t, second.Allow(ctx, "a"))
	assert.False(t, first.Allow(ctx, "a"))
	assert.False(t, second.Allow(ctx, "a"))
}

func TestRedisLimiter_DerivedLimitersDoNotShareWindows(t *testing.T) {
	ctx := context.Background()
	imagen, mr, _ := newTestRedisLimiter(t, 1)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	login := NewRedisLimiter(client, testConfig(1).Derive("login", 1, time.Minute))

	assert.True(t, imagen.Allow(ctx, "a"))
	assert.True(t, login.Allow(ctx, "a"))
	assert.False(t, imagen.Allow(ctx, "a"))
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	ctx := context.Background()
	limiter, mr, _ := newTestRedisLimiter(t, 1)

	mr.Close()

	assert.True(t, limiter.Allow(ctx, "a"))
	assert.True(t, limiter.Allow(ctx, "a"))
	assert.Equal(t, 1, limiter.Remaining(ctx, "a"))
}

func TestRedisLimiter_Blacklist(t *testing.T) {
	ctx := context.Background()
	limiter, mr, _ := newTestRedisLimiter(t, 5)
	limiter.config.Blacklist = map[string]bool{"bad": true}

	assert.False(t, limiter.Allow(ctx, "bad"))
	assert.False(t, mr.Exists("dreambig:ratelimit:imagen:bad"))
}

func TestNew_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	config := testConfig(1)
	config.Backend = BackendRedis
	config.RedisAddr = mr.Addr()

	limiter, err := New(context.Background(), config)
	require.NoError(t, err)
	defer limiter.Stop()

	assert.IsType(t, &RedisLimiter{}, limiter)
	assert.True(t, limiter.Allow(context.Background(), "a"))
	assert.False(t, limiter.Allow(context.Background(), "a"))
}

func TestNew_RedisUnreachable(t *testing.T) {
	config := testConfig(1)
	config.Backend = BackendRedis
	config.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), config)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "30")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")

	config := LoadConfig()
	assert.True(t, config.Enabled)
	assert.Equal(t, 7, config.Limit)
	assert.Equal(t, 30*time.Second, config.Window)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, config.Whitelist)
	assert.Empty(t, config.Blacklist)
	assert.Equal(t, BackendRedis, config.Backend)
	assert.Equal(t, 3, config.RedisDB)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW", "RATE_LIMIT_BACKEND"} {
		t.Setenv(key, "")
	}

	config := LoadConfig()
	assert.True(t, config.Enabled)
	assert.Equal(t, DefaultLimit, config.Limit)
	assert.Equal(t, DefaultWindow, config.Window)
	assert.Equal(t, BackendMemory, config.Backend)

	t.Setenv("RATE_LIMIT_WINDOW", "2m")
	assert.Equal(t, 2*time.Minute, LoadConfig().Window)
}
