package handler

import (
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	healthHandler *HealthHandler,
	sessionMiddleware fiber.Handler,
	rateLimitMiddleware fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	// API v1
	api := app.Group("/api/v1")

	users := api.Group("/users")

	// Public auth flows (rate limited)
	users.Post("/register", rateLimitMiddleware, userHandler.Register)
	users.Post("/signin", rateLimitMiddleware, authHandler.SignIn)
	users.Post("/request-otp", rateLimitMiddleware, authHandler.RequestOTP)
	users.Post("/verify-otp", rateLimitMiddleware, authHandler.VerifyOTP)
	users.Post("/forgot-password", rateLimitMiddleware, authHandler.ForgotPassword)
	users.Post("/verify-reset-otp", rateLimitMiddleware, authHandler.VerifyResetOTP)
	users.Post("/resend-verification", rateLimitMiddleware, userHandler.ResendVerification)
	users.Post("/reset-password", rateLimitMiddleware, userHandler.ResetPassword)
	users.Post("/:id/verify", rateLimitMiddleware, userHandler.VerifyEmail)

	// Sign-out is best effort: it reads the bearer token itself so a
	// stale token still gets a success response
	users.Post("/signout", authHandler.SignOut)

	// Protected routes (bearer session)
	users.Post("/:id/change-password", sessionMiddleware, authHandler.ChangePassword)
	users.Get("/me", sessionMiddleware, userHandler.GetMe)
}
