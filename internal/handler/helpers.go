package handler

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hnhnc176/empathy-auth-service/internal/service"
)

// pathUserID parses the :id path parameter.
func pathUserID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// authenticatedUserID reads the caller identity installed by the session
// middleware.
func authenticatedUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("user_id").(uuid.UUID)
	return id, ok
}

// bearerToken extracts the token from an Authorization: Bearer header,
// or "" when the header is missing or malformed.
func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Every response uses the same envelope: {status, message, data?}.

func respondSuccess(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Unknown errors become an opaque 500; the cause is logged by the fiber
// error handler, never echoed to the client.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return respondError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
		return respondError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrSessionExpired):
		return respondError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountDeactivated):
		return respondError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAccountLocked):
		return respondError(c, fiber.StatusLocked, err.Error())
	case errors.Is(err, service.ErrOTPAttemptsExceeded):
		return respondError(c, fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrNoOTPPending),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrPasswordTooShort):
		return respondError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailDelivery):
		return respondError(c, fiber.StatusInternalServerError, err.Error())
	default:
		log.Printf("[HANDLER] Unexpected error [%s %s]: %v", c.Method(), c.Path(), err)
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
