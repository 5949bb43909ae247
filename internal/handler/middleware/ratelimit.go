package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// RequestLimiter is the throttling surface the middleware needs. Satisfied
// by the Redis-backed ratelimit.Limiter.
type RequestLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Remaining(ctx context.Context, key string) (int, error)
}

// RateLimitMiddleware throttles requests per client IP and route. A
// limiter outage fails open: auth availability beats throttling accuracy.
func RateLimitMiddleware(limiter RequestLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s", c.IP(), c.Path())

		allowed, err := limiter.Allow(c.Context(), key)
		if err != nil {
			log.Printf("[RATELIMIT] Limiter unavailable for %s: %v", key, err)
			return c.Next()
		}

		if remaining, err := limiter.Remaining(c.Context(), key); err == nil {
			c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "too many requests, try again later",
			})
		}

		return c.Next()
	}
}

// NoopMiddleware passes every request through. Used when rate limiting is
// disabled by configuration.
func NoopMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
