package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hnhnc176/empathy-auth-service/internal/domain"
	"github.com/hnhnc176/empathy-auth-service/internal/repository"
)

const userColumns = `id, email, username, password_hash, full_name, phone, is_active,
	   login_attempts,
	   verification_status, verification_token, verification_token_expires_at,
	   reset_token, reset_token_expires_at,
	   otp_code, otp_expires_at, otp_attempts, is_otp_verified,
	   session_token, session_expires_at,
	   last_login_at, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new credential record. Unique violations on email or
// username surface as repository.ErrDuplicate (the backstop behind the
// service-level pre-check).
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, email, username, password_hash, full_name, phone, is_active,
			login_attempts,
			verification_status, verification_token, verification_token_expires_at,
			reset_token, reset_token_expires_at,
			otp_code, otp_expires_at, otp_attempts, is_otp_verified,
			session_token, session_expires_at,
			last_login_at, created_at, updated_at
		) VALUES (
			:id, :email, :username, :password_hash, :full_name, :phone, :is_active,
			:login_attempts,
			:verification_status, :verification_token, :verification_token_expires_at,
			:reset_token, :reset_token_expires_at,
			:otp_code, :otp_expires_at, :otp_attempts, :is_otp_verified,
			:session_token, :session_expires_at,
			:last_login_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email, compared case-insensitively.
// Emails are stored lowercased; the LOWER on the input side covers callers
// that pass through raw user input.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by username, compared case-insensitively.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = LOWER($1)`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// GetBySessionToken retrieves a user by their active session token
func (r *userRepository) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE session_token = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by session token: %w", err)
	}

	return &user, nil
}

// GetByResetToken retrieves a user by their password reset token
func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return &user, nil
}

// Update persists all mutable fields of an existing record
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET password_hash = :password_hash,
			full_name = :full_name,
			phone = :phone,
			is_active = :is_active,
			login_attempts = :login_attempts,
			verification_status = :verification_status,
			verification_token = :verification_token,
			verification_token_expires_at = :verification_token_expires_at,
			reset_token = :reset_token,
			reset_token_expires_at = :reset_token_expires_at,
			otp_code = :otp_code,
			otp_expires_at = :otp_expires_at,
			otp_attempts = :otp_attempts,
			is_otp_verified = :is_otp_verified,
			session_token = :session_token,
			session_expires_at = :session_expires_at,
			updated_at = :updated_at,
			last_login_at = :last_login_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearSession nulls the session credential fields for a user
func (r *userRepository) ClearSession(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET session_token = NULL,
			session_expires_at = NULL,
			is_otp_verified = FALSE,
			updated_at = $1
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IncrementLoginAttempts bumps the failed sign-in counter atomically and
// returns the post-increment value. Deliberately does not touch updated_at.
func (r *userRepository) IncrementLoginAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1
		WHERE id = $1
		RETURNING login_attempts`

	var attempts int
	err := r.db.GetContext(ctx, &attempts, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}

	return attempts, nil
}

// IncrementOTPAttempts bumps the OTP attempt counter atomically and
// returns the post-increment value.
func (r *userRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET otp_attempts = otp_attempts + 1
		WHERE id = $1
		RETURNING otp_attempts`

	var attempts int
	err := r.db.GetContext(ctx, &attempts, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment otp attempts: %w", err)
	}

	return attempts, nil
}
