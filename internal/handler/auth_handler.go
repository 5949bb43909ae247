package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hnhnc176/empathy-auth-service/internal/service"
	"github.com/hnhnc176/empathy-auth-service/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// SignIn handles password sign-in
// POST /api/v1/users/signin
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req service.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.SignIn(c.Context(), req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "signed in", resp)
}

// RequestOTP handles the OTP sign-in challenge
// POST /api/v1/users/request-otp
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req service.OTPRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.RequestOTP(c.Context(), req); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "verification code sent", nil)
}

// VerifyOTP completes the OTP sign-in challenge
// POST /api/v1/users/verify-otp
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req service.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.authService.VerifyOTP(c.Context(), req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "signed in", resp)
}

// ForgotPassword starts the OTP-based password reset
// POST /api/v1/users/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.ForgotPassword(c.Context(), req.Email); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "password reset code sent", nil)
}

// VerifyResetOTP completes the OTP-based password reset
// POST /api/v1/users/verify-reset-otp
func (h *AuthHandler) VerifyResetOTP(c *fiber.Ctx) error {
	var req service.VerifyResetOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.VerifyResetOTP(c.Context(), req); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "password updated, please sign in", nil)
}

// SignOut clears the caller's session. Best effort: a missing, stale or
// unknown token is still a success.
// POST /api/v1/users/signout
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	sessionToken := bearerToken(c)
	if sessionToken != "" {
		if err := h.authService.SignOut(c.Context(), sessionToken); err != nil {
			return respondServiceError(c, err)
		}
	}

	return respondSuccess(c, fiber.StatusOK, "signed out", nil)
}

// ChangePassword rotates the password for the path user, who must also be
// the authenticated caller.
// POST /api/v1/users/:id/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := pathUserID(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if callerID, ok := authenticatedUserID(c); !ok || callerID != userID {
		return respondError(c, fiber.StatusForbidden, "cannot change another user's password")
	}

	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Context(), userID, req); err != nil {
		return respondServiceError(c, err)
	}

	return respondSuccess(c, fiber.StatusOK, "password changed", nil)
}
