package service

import "errors"

// Error taxonomy shared by the auth and user services. Handlers map these
// to HTTP statuses; anything else is reported as an internal error.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDeactivated  = errors.New("account is deactivated")
	ErrAccountLocked       = errors.New("account is locked, too many failed sign-in attempts")
	ErrNoOTPPending        = errors.New("no verification code pending, request a new one")
	ErrOTPExpired          = errors.New("verification code has expired, request a new one")
	ErrOTPAttemptsExceeded = errors.New("too many wrong codes, request a new one")
	ErrInvalidSession      = errors.New("invalid session")
	ErrSessionExpired      = errors.New("session has expired")
	ErrTokenInvalid        = errors.New("invalid or expired token")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrEmailDelivery       = errors.New("failed to deliver email")
)
