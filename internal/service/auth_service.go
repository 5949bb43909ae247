package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hnhnc176/empathy-auth-service/internal/config"
	"github.com/hnhnc176/empathy-auth-service/internal/domain"
	"github.com/hnhnc176/empathy-auth-service/internal/repository"
	"github.com/hnhnc176/empathy-auth-service/pkg/email"
	"github.com/hnhnc176/empathy-auth-service/pkg/hash"
	"github.com/hnhnc176/empathy-auth-service/pkg/token"
)

// dispatchPolicy decides what an email delivery failure does to the
// surrounding operation.
type dispatchPolicy int

const (
	// dispatchLogOnly logs the failure and lets the operation succeed
	dispatchLogOnly dispatchPolicy = iota
	// dispatchFatal fails the operation with ErrEmailDelivery
	dispatchFatal
)

type AuthService struct {
	userRepo repository.UserRepository
	email    email.Dispatcher
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, emailDispatcher email.Dispatcher, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		email:    emailDispatcher,
		cfg:      cfg,
	}
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type VerifyResetOTPRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// SessionResponse is returned by the operations that establish a session.
type SessionResponse struct {
	User      *domain.PublicUser `json:"user"`
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// SignIn authenticates by email and password and issues a fresh session.
// The lockout check runs before password verification, in both SignIn and
// RequestOTP, so a locked account never leaks whether a guess was right.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Unverified accounts may still sign in; only deactivation and
	// lockout block the flow.
	switch user.State() {
	case domain.AccountStateDeactivated:
		return nil, ErrAccountDeactivated
	case domain.AccountStateLocked:
		return nil, ErrAccountLocked
	}

	valid, err := hash.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("password verification failed: %w", err)
	}

	if !valid {
		if _, err := s.userRepo.IncrementLoginAttempts(ctx, user.ID); err != nil {
			log.Printf("[AUTH_SERVICE] Failed to record failed sign-in for %s: %v", user.ID, err)
		}
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user, false)
}

// RequestOTP starts the second-factor sign-in path. The password is checked
// up front; the code itself is delivered out of band and delivery failure
// is fatal because there is no other way for the caller to obtain it.
func (s *AuthService) RequestOTP(ctx context.Context, req OTPRequest) error {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	switch user.State() {
	case domain.AccountStateDeactivated:
		return ErrAccountDeactivated
	case domain.AccountStateLocked:
		return ErrAccountLocked
	}

	valid, err := hash.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("password verification failed: %w", err)
	}

	if !valid {
		if _, err := s.userRepo.IncrementLoginAttempts(ctx, user.ID); err != nil {
			log.Printf("[AUTH_SERVICE] Failed to record failed sign-in for %s: %v", user.ID, err)
		}
		return ErrInvalidCredentials
	}

	return s.startOTPChallenge(ctx, user, func(dispatchCtx context.Context, code string) error {
		return s.email.SendOTP(dispatchCtx, user.Email, user.Username, code)
	})
}

// VerifyOTP completes the second-factor sign-in path and issues a session.
func (s *AuthService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*SessionResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.State() == domain.AccountStateDeactivated {
		return nil, ErrAccountDeactivated
	}

	if err := s.checkOTP(ctx, user, req.OTP); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, true)
}

// ForgotPassword starts the OTP-based reset path. The same otp_* fields
// carry the challenge; a reset code and a sign-in code are never pending
// at the same time.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.State() == domain.AccountStateDeactivated {
		return ErrAccountDeactivated
	}

	return s.startOTPChallenge(ctx, user, func(dispatchCtx context.Context, code string) error {
		return s.email.SendPasswordResetOTP(dispatchCtx, user.Email, user.Username, code)
	})
}

// VerifyResetOTP validates a reset code and replaces the password. No
// session is issued; the caller signs in separately.
func (s *AuthService) VerifyResetOTP(ctx context.Context, req VerifyResetOTPRequest) error {
	if len(req.NewPassword) < s.cfg.Auth.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.State() == domain.AccountStateDeactivated {
		return ErrAccountDeactivated
	}

	if err := s.checkOTP(ctx, user, req.OTP); err != nil {
		return err
	}

	passwordHash, err := hash.Password(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = passwordHash
	user.ClearOTP()
	user.LoginAttempts = 0

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.dispatch(ctx, dispatchLogOnly, "password changed notice", func(dispatchCtx context.Context) error {
		return s.email.SendPasswordChangedEmail(dispatchCtx, user.Email, user.Username)
	})

	return nil
}

// SignOut clears the session matching the token. Idempotent: an unknown or
// already-cleared token still succeeds.
func (s *AuthService) SignOut(ctx context.Context, sessionToken string) error {
	user, err := s.userRepo.GetBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.userRepo.ClearSession(ctx, user.ID); err != nil {
		return err
	}

	log.Printf("[AUTH_SERVICE] User %s signed out", user.ID)
	return nil
}

// ChangePassword replaces the password after verifying the current one.
// A mismatch here does not count towards lockout.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if len(req.NewPassword) < s.cfg.Auth.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	valid, err := hash.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("password verification failed: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	passwordHash, err := hash.Password(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = passwordHash

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.dispatch(ctx, dispatchLogOnly, "password changed notice", func(dispatchCtx context.Context) error {
		return s.email.SendPasswordChangedEmail(dispatchCtx, user.Email, user.Username)
	})

	return nil
}

// Authenticate resolves a bearer token to the credential record. An
// expired session is cleared on the spot, so a retry with the same token
// reports an invalid session rather than an expired one.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*domain.User, error) {
	user, err := s.userRepo.GetBySessionToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if user.SessionExpiresAt == nil || time.Now().After(*user.SessionExpiresAt) {
		if err := s.userRepo.ClearSession(ctx, user.ID); err != nil {
			log.Printf("[AUTH_SERVICE] Failed to clear expired session for %s: %v", user.ID, err)
		}
		return nil, ErrSessionExpired
	}

	return user, nil
}

// issueSession installs a fresh session token on the record, replacing any
// previous one. Session issuance always clears OTP state and the failed
// sign-in counter. otpVerified marks sessions established through the
// second-factor path; it is informational, not enforced per request.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User, otpVerified bool) (*SessionResponse, error) {
	sessionToken, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.Auth.SessionTTL)

	user.ClearOTP()
	user.SessionToken = &sessionToken
	user.SessionExpiresAt = &expiresAt
	user.LoginAttempts = 0
	user.LastLoginAt = &now
	user.IsOTPVerified = otpVerified

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[AUTH_SERVICE] Session issued for user %s (expires %s)", user.ID, expiresAt.Format(time.RFC3339))

	return &SessionResponse{
		User:      user.Public(),
		Token:     sessionToken,
		ExpiresAt: expiresAt,
	}, nil
}

// startOTPChallenge generates a fresh code, persists it, and dispatches it
// with the given sender. Delivery failure is fatal on this path.
func (s *AuthService) startOTPChallenge(ctx context.Context, user *domain.User, send func(context.Context, string) error) error {
	code, err := token.NewOTP()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.cfg.Auth.OTPTTL)

	user.OTPCode = &code
	user.OTPExpiresAt = &expiresAt
	user.OTPAttempts = 0
	user.IsOTPVerified = false

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	return s.dispatch(ctx, dispatchFatal, "one-time code", func(dispatchCtx context.Context) error {
		return send(dispatchCtx, code)
	})
}

// checkOTP runs the shared OTP validation algorithm: pending, unexpired,
// under the attempt cap, and matching. Expiry and exhausted attempts clear
// the challenge as a side effect; a plain mismatch only bumps the counter.
func (s *AuthService) checkOTP(ctx context.Context, user *domain.User, code string) error {
	if !user.HasPendingOTP() {
		return ErrNoOTPPending
	}

	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		user.ClearOTP()
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Printf("[AUTH_SERVICE] Failed to clear expired OTP for %s: %v", user.ID, err)
		}
		return ErrOTPExpired
	}

	if user.OTPAttempts >= domain.MaxOTPAttempts {
		user.ClearOTP()
		if err := s.userRepo.Update(ctx, user); err != nil {
			log.Printf("[AUTH_SERVICE] Failed to clear exhausted OTP for %s: %v", user.ID, err)
		}
		return ErrOTPAttemptsExceeded
	}

	if *user.OTPCode != code {
		attempts, err := s.userRepo.IncrementOTPAttempts(ctx, user.ID)
		if err != nil {
			return err
		}
		remaining := domain.MaxOTPAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Errorf("%w: %d attempts remaining", ErrInvalidCredentials, remaining)
	}

	return nil
}

// dispatch runs an email send under the given failure policy. A nil
// dispatcher (email disabled) is tolerated outside production so local
// environments can read codes from the database; in production a fatal
// send with no dispatcher fails the operation.
func (s *AuthService) dispatch(ctx context.Context, policy dispatchPolicy, what string, send func(context.Context) error) error {
	if s.email == nil {
		if policy == dispatchFatal && s.cfg.Server.Environment == "production" {
			log.Printf("[AUTH_SERVICE] Email disabled, cannot deliver %s", what)
			return ErrEmailDelivery
		}
		log.Printf("[AUTH_SERVICE] Email disabled, skipping %s", what)
		return nil
	}

	if err := send(ctx); err != nil {
		log.Printf("[AUTH_SERVICE] Failed to dispatch %s: %v", what, err)
		if policy == dispatchFatal {
			return ErrEmailDelivery
		}
	}

	return nil
}
