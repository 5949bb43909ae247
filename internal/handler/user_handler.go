package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hnhnc176/empathy-auth-service/internal/service"
	"github.com/hnhnc176/empathy-auth-service/pkg/validator"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
	}
}

// Register handles user registration
// POST /api/v1/users/register
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := h.userService.Register(c.Context(), req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusCreated, "registered, please verify your email", fiber.Map{"user": user})
}

// GetMe returns the authenticated user
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "not authenticated")
	}

	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "ok", fiber.Map{"user": user})
}

// VerifyEmail confirms email ownership with the emailed token
// POST /api/v1/users/:id/verify
func (h *UserHandler) VerifyEmail(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.userService.VerifyEmail(c.Context(), userID, req.Token); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "email verified", nil)
}

// ResendVerification reissues and redispatches the verification token
// POST /api/v1/users/resend-verification
func (h *UserHandler) ResendVerification(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.userService.ResendVerification(c.Context(), req.Email); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "verification email sent", nil)
}

// ResetPassword is dual-mode: with only an email it issues a reset token;
// with email, token and new_password it completes the reset.
// POST /api/v1/users/reset-password
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req service.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if req.Token == "" && req.NewPassword == "" {
		resp, err := h.userService.IssueResetToken(c.Context(), req.Email)
		if err != nil {
			return respondServiceError(c, err)
		}
		return respondSuccess(c, fiber.StatusOK, "reset token issued", resp)
	}

	if req.Token == "" || req.NewPassword == "" {
		return respondError(c, fiber.StatusBadRequest, "token and new_password must be provided together")
	}

	if err := h.userService.ResetPasswordWithToken(c.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "password updated, please sign in", nil)
}
