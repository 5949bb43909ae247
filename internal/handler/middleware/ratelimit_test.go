package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter is an in-memory RequestLimiter with a fixed budget.
type countingLimiter struct {
	limit    int
	counts   map[string]int
	allowErr error
}

func (l *countingLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.allowErr != nil {
		return false, l.allowErr
	}
	l.counts[key]++
	return l.counts[key] <= l.limit, nil
}

func (l *countingLimiter) Remaining(ctx context.Context, key string) (int, error) {
	remaining := l.limit - l.counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func newLimitedApp(limiter RequestLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/signin", RateLimitMiddleware(limiter), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success"})
	})
	return app
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("throttles past the limit and reports the budget", func(t *testing.T) {
		limiter := &countingLimiter{limit: 2, counts: make(map[string]int)}
		app := newLimitedApp(limiter)

		resp, err := app.Test(httptest.NewRequest("POST", "/signin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))

		resp, err = app.Test(httptest.NewRequest("POST", "/signin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

		resp, err = app.Test(httptest.NewRequest("POST", "/signin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("fails open when the limiter is unavailable", func(t *testing.T) {
		limiter := &countingLimiter{limit: 0, counts: make(map[string]int), allowErr: assert.AnError}
		app := newLimitedApp(limiter)

		resp, err := app.Test(httptest.NewRequest("POST", "/signin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
