package email

import (
	"context"
	"time"
)

// Dispatcher delivers verification links and one-time passcodes out of
// band. Callers decide per operation whether a delivery failure is fatal.
type Dispatcher interface {
	// SendVerificationEmail sends an email ownership confirmation link.
	// The link embeds both the user ID and the verification token.
	SendVerificationEmail(ctx context.Context, to, username, token, userID string) error

	// SendOTP sends a sign-in one-time passcode
	SendOTP(ctx context.Context, to, username, code string) error

	// SendPasswordResetOTP sends a password reset one-time passcode
	SendPasswordResetOTP(ctx context.Context, to, username, code string) error

	// SendPasswordChangedEmail notifies the user after a password change
	SendPasswordChangedEmail(ctx context.Context, to, username string) error

	// SendWelcomeEmail greets a newly verified user
	SendWelcomeEmail(ctx context.Context, to, username string) error
}

// Config holds email dispatcher configuration
type Config struct {
	APIKey          string
	FromName        string
	FromEmail       string
	VerificationURL string        // frontend page that calls the verify endpoint
	Timeout         time.Duration // HTTP request timeout
}
