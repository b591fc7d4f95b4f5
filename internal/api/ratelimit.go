package api

import (
	"context"
	"time"

	"github.com/go-redis/redis_rate/v10"
)

const rateLimitKeyPrefix = "relay:ratelimit:"

// RateLimiter decides whether a client identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisRateLimiter is a GCRA limiter shared by all relay instances.
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

func NewRedisRateLimiter(limiter *redis_rate.Limiter, perMinute int) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: limiter,
		limit:   redis_rate.PerMinute(perMinute),
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := l.limiter.Allow(ctx, rateLimitKeyPrefix+key, l.limit)
	if err != nil {
		return false, 0, err
	}

	return res.Allowed > 0, res.RetryAfter, nil
}

// Unlimited lets every request through. It is used without redis.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}
