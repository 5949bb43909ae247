package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hnhnc176/empathy-auth-service/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a unique constraint on email or
	// username rejects an insert.
	ErrDuplicate = errors.New("email or username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ClearSession(ctx context.Context, id uuid.UUID) error

	// IncrementLoginAttempts and IncrementOTPAttempts bump their counter in
	// a single statement and return the new value, so two concurrent failed
	// attempts cannot both observe the pre-increment count.
	IncrementLoginAttempts(ctx context.Context, id uuid.UUID) (int, error)
	IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error)
}
