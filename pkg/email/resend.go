package email

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendDispatcher implements Dispatcher using Resend
type ResendDispatcher struct {
	client *resend.Client
	config *Config
}

// NewResendDispatcher creates a new Resend email dispatcher
func NewResendDispatcher(config *Config) (*ResendDispatcher, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	client := resend.NewClient(config.APIKey)

	return &ResendDispatcher{
		client: client,
		config: config,
	}, nil
}

func (s *ResendDispatcher) send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Printf("[EMAIL] Failed to send %q to %s: %v", subject, to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("[EMAIL] Sent %q to %s (ID: %s)", subject, to, sent.Id)
	return nil
}

// SendVerificationEmail sends an email ownership confirmation link
func (s *ResendDispatcher) SendVerificationEmail(ctx context.Context, to, username, token, userID string) error {
	verificationURL := fmt.Sprintf("%s?id=%s&token=%s", s.config.VerificationURL, userID, token)
	return s.send(ctx, to, "Verify Your Email Address", VerificationEmailTemplate(username, verificationURL))
}

// SendOTP sends a sign-in one-time passcode
func (s *ResendDispatcher) SendOTP(ctx context.Context, to, username, code string) error {
	return s.send(ctx, to, "Your Sign-In Code", OTPEmailTemplate(username, code, "sign in"))
}

// SendPasswordResetOTP sends a password reset one-time passcode
func (s *ResendDispatcher) SendPasswordResetOTP(ctx context.Context, to, username, code string) error {
	return s.send(ctx, to, "Your Password Reset Code", OTPEmailTemplate(username, code, "reset your password"))
}

// SendPasswordChangedEmail notifies the user after a password change
func (s *ResendDispatcher) SendPasswordChangedEmail(ctx context.Context, to, username string) error {
	return s.send(ctx, to, "Password Changed Successfully", PasswordChangedEmailTemplate(username))
}

// SendWelcomeEmail greets a newly verified user
func (s *ResendDispatcher) SendWelcomeEmail(ctx context.Context, to, username string) error {
	return s.send(ctx, to, "Welcome to Empathy!", WelcomeEmailTemplate(username))
}
