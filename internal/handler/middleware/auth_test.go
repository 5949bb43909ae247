package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnhnc176/empathy-auth-service/internal/config"
	"github.com/hnhnc176/empathy-auth-service/internal/domain"
	"github.com/hnhnc176/empathy-auth-service/internal/repository"
	"github.com/hnhnc176/empathy-auth-service/internal/service"
)

// sessionRepo is a single-user UserRepository stub; only the session
// lookups matter to the middleware.
type sessionRepo struct {
	user         *domain.User
	clearedCalls int
}

func (r *sessionRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (r *sessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *sessionRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *sessionRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *sessionRepo) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if r.user != nil && r.user.SessionToken != nil && *r.user.SessionToken == token {
		copied := *r.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *sessionRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *sessionRepo) Update(ctx context.Context, user *domain.User) error { return nil }

func (r *sessionRepo) ClearSession(ctx context.Context, id uuid.UUID) error {
	r.clearedCalls++
	if r.user != nil && r.user.ID == id {
		r.user.ClearSession()
	}
	return nil
}

func (r *sessionRepo) IncrementLoginAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	return 0, nil
}

func (r *sessionRepo) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	return 0, nil
}

func newTestApp(repo repository.UserRepository) *fiber.App {
	cfg := &config.Config{
		Auth: config.AuthConfig{SessionTTL: 24 * time.Hour, MinPasswordLength: 8},
	}
	authService := service.NewAuthService(repo, nil, cfg)

	app := fiber.New()
	app.Get("/protected", SessionMiddleware(authService), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "success",
			"data": fiber.Map{
				"user_id":  c.Locals("user_id").(uuid.UUID).String(),
				"username": c.Locals("username"),
			},
		})
	})
	return app
}

func sessionUser(token string, expiresAt time.Time) *domain.User {
	return &domain.User{
		ID:                 uuid.New(),
		Email:              "carol@empathy.social",
		Username:           "carol",
		IsActive:           true,
		VerificationStatus: true,
		SessionToken:       &token,
		SessionExpiresAt:   &expiresAt,
	}
}

func TestSessionMiddleware(t *testing.T) {
	validToken := "aaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccdddd"

	t.Run("valid session passes through", func(t *testing.T) {
		repo := &sessionRepo{user: sessionUser(validToken, time.Now().Add(time.Hour))}
		app := newTestApp(repo)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Status string `json:"status"`
			Data   struct {
				UserID   string `json:"user_id"`
				Username string `json:"username"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "success", body.Status)
		assert.Equal(t, repo.user.ID.String(), body.Data.UserID)
		assert.Equal(t, "carol", body.Data.Username)
	})

	t.Run("missing header", func(t *testing.T) {
		app := newTestApp(&sessionRepo{})

		resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		app := newTestApp(&sessionRepo{})

		for _, header := range []string{"Basic abc", "Bearer", "Bearer "} {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", header)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "header %q", header)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		app := newTestApp(&sessionRepo{})

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "invalid session", body.Message)
	})

	t.Run("expired session is cleared and then invalid", func(t *testing.T) {
		repo := &sessionRepo{user: sessionUser(validToken, time.Now().Add(-time.Minute))}
		app := newTestApp(repo)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 1, repo.clearedCalls)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "session has expired", body.Message)

		// The stored session is gone, so the same token now resolves to
		// an invalid session rather than an expired one.
		req = httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)

		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "invalid session", body.Message)
	})
}
