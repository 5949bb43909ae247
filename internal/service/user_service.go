package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hnhnc176/empathy-auth-service/internal/config"
	"github.com/hnhnc176/empathy-auth-service/internal/domain"
	"github.com/hnhnc176/empathy-auth-service/internal/repository"
	"github.com/hnhnc176/empathy-auth-service/pkg/email"
	"github.com/hnhnc176/empathy-auth-service/pkg/hash"
	"github.com/hnhnc176/empathy-auth-service/pkg/preferences"
	"github.com/hnhnc176/empathy-auth-service/pkg/token"
)

type UserService struct {
	userRepo    repository.UserRepository
	email       email.Dispatcher
	preferences preferences.Initializer
	cfg         *config.Config
}

func NewUserService(userRepo repository.UserRepository, emailDispatcher email.Dispatcher, prefs preferences.Initializer, cfg *config.Config) *UserService {
	return &UserService{
		userRepo:    userRepo,
		email:       emailDispatcher,
		preferences: prefs,
		cfg:         cfg,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

// ResetTokenResponse is returned when ResetPassword is called in its
// token-issuing mode.
type ResetTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates a credential record with a hashed password and a
// pending verification token. Email and username are stored lowercased.
// Verification email and default-settings initialization failures are
// logged, never fatal: the registration stands either way.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*domain.PublicUser, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if existing, err := s.userRepo.GetByEmail(ctx, emailAddr); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tokenExpiry := now.Add(s.cfg.Auth.VerificationTokenTTL)

	user := &domain.User{
		ID:                         uuid.New(),
		Email:                      emailAddr,
		Username:                   username,
		PasswordHash:               passwordHash,
		FullName:                   req.FullName,
		IsActive:                   true,
		VerificationStatus:         false,
		VerificationToken:          &verificationToken,
		VerificationTokenExpiresAt: &tokenExpiry,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index is the backstop for the pre-check race
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.email != nil {
		if err := s.email.SendVerificationEmail(ctx, user.Email, user.Username, verificationToken, user.ID.String()); err != nil {
			log.Printf("[USER_SERVICE] Failed to send verification email to %s: %v", user.Email, err)
		}
	} else {
		log.Printf("[USER_SERVICE] Email disabled, skipping verification email for %s", user.Email)
	}

	if s.preferences != nil {
		if err := s.preferences.CreateDefaultSettings(ctx, user.ID); err != nil {
			log.Printf("[USER_SERVICE] Failed to initialize default settings for %s: %v", user.ID, err)
		}
	}

	log.Printf("[USER_SERVICE] Registered user %s (%s)", user.Username, user.ID)
	return user.Public(), nil
}

// GetByID returns the public view of a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user.Public(), nil
}

// VerifyEmail confirms email ownership. The record must match the id, the
// token, and an unexpired validity window; anything else is a uniform
// not-found. The token is single-use and cleared on success.
func (s *UserService) VerifyEmail(ctx context.Context, userID uuid.UUID, verificationToken string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.VerificationToken == nil || *user.VerificationToken != verificationToken {
		return ErrUserNotFound
	}

	if user.VerificationTokenExpiresAt == nil || time.Now().After(*user.VerificationTokenExpiresAt) {
		return ErrUserNotFound
	}

	user.VerificationStatus = true
	user.VerificationToken = nil
	user.VerificationTokenExpiresAt = nil

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
			log.Printf("[USER_SERVICE] Failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	log.Printf("[USER_SERVICE] Email verified for user %s", user.ID)
	return nil
}

// ResendVerification reissues the verification token for an unverified
// account and redispatches the email. Delivery failure is fatal here; a
// resend that sends nothing is useless to the caller.
func (s *UserService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.VerificationStatus {
		return ErrAlreadyVerified
	}

	verificationToken, err := token.NewOpaque()
	if err != nil {
		return err
	}

	tokenExpiry := time.Now().Add(s.cfg.Auth.VerificationTokenTTL)

	user.VerificationToken = &verificationToken
	user.VerificationTokenExpiresAt = &tokenExpiry

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if s.email == nil {
		// Tolerated outside production; the token is readable from
		// the database there
		if s.cfg.Server.Environment == "production" {
			return ErrEmailDelivery
		}
		log.Printf("[USER_SERVICE] Email disabled, skipping verification email for %s", user.Email)
		return nil
	}

	if err := s.email.SendVerificationEmail(ctx, user.Email, user.Username, verificationToken, user.ID.String()); err != nil {
		log.Printf("[USER_SERVICE] Failed to resend verification email to %s: %v", user.Email, err)
		return ErrEmailDelivery
	}

	return nil
}

// IssueResetToken starts the token-based reset path: a one-hour reset
// token stored on the record and returned to the caller.
func (s *UserService) IssueResetToken(ctx context.Context, emailAddr string) (*ResetTokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resetToken, err := token.NewOpaque()
	if err != nil {
		return nil, err
	}

	tokenExpiry := time.Now().Add(s.cfg.Auth.ResetTokenTTL)

	user.ResetToken = &resetToken
	user.ResetTokenExpiresAt = &tokenExpiry

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &ResetTokenResponse{
		Token:     resetToken,
		ExpiresAt: tokenExpiry,
	}, nil
}

// ResetPasswordWithToken completes the token-based reset path. The token
// resolves the record directly; it must belong to the given email and be
// unexpired, and is cleared on use.
func (s *UserService) ResetPasswordWithToken(ctx context.Context, emailAddr, resetToken, newPassword string) error {
	if len(newPassword) < s.cfg.Auth.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.GetByResetToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}

	if user.Email != strings.ToLower(strings.TrimSpace(emailAddr)) {
		return ErrTokenInvalid
	}

	if user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		return ErrTokenInvalid
	}

	passwordHash, err := hash.Password(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil
	user.LoginAttempts = 0

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if s.email != nil {
		if err := s.email.SendPasswordChangedEmail(ctx, user.Email, user.Username); err != nil {
			log.Printf("[USER_SERVICE] Failed to send password changed email to %s: %v", user.Email, err)
		}
	}

	return nil
}
