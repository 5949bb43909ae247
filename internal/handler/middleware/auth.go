package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hnhnc176/empathy-auth-service/internal/service"
)

// SessionMiddleware resolves the bearer token to a user via the credential
// store and rejects missing, unknown or expired sessions. On success it
// exposes the caller's id, email and username to downstream handlers.
func SessionMiddleware(authService *service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "invalid authorization header format",
			})
		}

		user, err := authService.Authenticate(c.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionExpired):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  "error",
					"message": "session has expired",
				})
			case errors.Is(err, service.ErrInvalidSession):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  "error",
					"message": "invalid session",
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"status":  "error",
					"message": "failed to verify session",
				})
			}
		}

		c.Locals("user_id", user.ID)
		c.Locals("email", user.Email)
		c.Locals("username", user.Username)
		c.Locals("session_token", parts[1])

		return c.Next()
	}
}
