// Package ratelimit implements a fixed-window request limiter backed by
// Redis, used to throttle the public authentication endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows. The window key expires
// on its own, so no sweep job is needed.
type Limiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter creates a new rate limiter.
// limit is the maximum number of requests allowed per window per key.
func NewLimiter(redisClient *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow records a hit for key and reports whether the request is within
// the limit. The first hit in a window sets the TTL.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

// Remaining returns how many requests the key has left in the current
// window. The middleware reports it in the X-RateLimit-Remaining header.
func (l *Limiter) Remaining(ctx context.Context, key string) (int, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.redis.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return l.limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}
