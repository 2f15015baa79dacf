package ratelimit

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dreambig:ratelimit:"

// RedisLimiter keeps the request log in a Redis sorted set per client,
// scored by request time in nanoseconds, so several server instances share
// one window. Redis errors fail open.
type RedisLimiter struct {
	policy
	client     *redis.Client
	now        func() time.Time
	ownsClient bool
}

// NewRedisClient connects to the Redis server named by config and pings it.
func NewRedisClient(ctx context.Context, config *Config) (*redis.Client, error) {
	log.Printf("[rate-limit] connecting to Redis at %s", config.RedisAddr)

	client := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
	}
	return client, nil
}

// NewRedisLimiter creates a limiter on an existing client. The caller keeps
// ownership of client.
func NewRedisLimiter(client *redis.Client, config *Config) *RedisLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &RedisLimiter{
		policy: policy{config: config},
		client: client,
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if allowed, settled := l.decide(key); settled {
		return allowed
	}

	now := l.now()
	count, err := l.count(ctx, key, now)
	if err != nil {
		log.Printf("[rate-limit] redis error, allowing request: %v", err)
		return true
	}
	if count >= int64(l.config.Limit) {
		return false
	}

	redisKey := l.redisKey(key)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixNano()),
			Member: strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString(),
		})
		pipe.Expire(ctx, redisKey, l.config.Window)
		return nil
	})
	if err != nil {
		log.Printf("[rate-limit] redis error recording request: %v", err)
	}
	return true
}

// Remaining implements Limiter.
func (l *RedisLimiter) Remaining(ctx context.Context, key string) int {
	if n, settled := l.remaining(key); settled {
		return n
	}

	count, err := l.count(ctx, key, l.now())
	if err != nil {
		log.Printf("[rate-limit] redis error: %v", err)
		return l.config.Limit
	}
	return max(0, l.config.Limit-int(count))
}

// Limit implements Limiter.
func (l *RedisLimiter) Limit() int {
	return l.config.Limit
}

// Stop closes the client when the limiter created it.
func (l *RedisLimiter) Stop() {
	if l.ownsClient {
		_ = l.client.Close()
	}
}

// count trims entries outside the window and returns what is left.
func (l *RedisLimiter) count(ctx context.Context, key string, now time.Time) (int64, error) {
	redisKey := l.redisKey(key)
	cutoff := strconv.FormatInt(windowStart(now, l.config.Window).UnixNano(), 10)

	var card *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
		card = pipe.ZCard(ctx, redisKey)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return card.Val(), nil
}

func (l *RedisLimiter) redisKey(key string) string {
	return redisKeyPrefix + l.config.Name + ":" + key
}
