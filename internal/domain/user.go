package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountState is derived from the credential record rather than stored.
// OTP state is orthogonal and carried by the otp_* fields.
type AccountState string

const (
	AccountStateUnverified  AccountState = "unverified"
	AccountStateActive      AccountState = "active"
	AccountStateLocked      AccountState = "locked"
	AccountStateDeactivated AccountState = "deactivated"
)

// MaxLoginAttempts is the failed sign-in threshold after which an account
// is locked until administratively cleared.
const MaxLoginAttempts = 5

// MaxOTPAttempts is the number of wrong codes allowed before a pending OTP
// is invalidated.
const MaxOTPAttempts = 3

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	IsActive     bool      `json:"is_active" db:"is_active"`

	LoginAttempts int `json:"-" db:"login_attempts"`

	VerificationStatus         bool       `json:"verification_status" db:"verification_status"`
	VerificationToken          *string    `json:"-" db:"verification_token"`
	VerificationTokenExpiresAt *time.Time `json:"-" db:"verification_token_expires_at"`

	ResetToken          *string    `json:"-" db:"reset_token"`
	ResetTokenExpiresAt *time.Time `json:"-" db:"reset_token_expires_at"`

	OTPCode       *string    `json:"-" db:"otp_code"`
	OTPExpiresAt  *time.Time `json:"-" db:"otp_expires_at"`
	OTPAttempts   int        `json:"-" db:"otp_attempts"`
	IsOTPVerified bool       `json:"-" db:"is_otp_verified"`

	SessionToken     *string    `json:"-" db:"session_token"`
	SessionExpiresAt *time.Time `json:"-" db:"session_expires_at"`

	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// State computes the account state from the record. Deactivation wins over
// lockout; verification only matters for an otherwise active account.
func (u *User) State() AccountState {
	switch {
	case !u.IsActive:
		return AccountStateDeactivated
	case u.LoginAttempts >= MaxLoginAttempts:
		return AccountStateLocked
	case !u.VerificationStatus:
		return AccountStateUnverified
	default:
		return AccountStateActive
	}
}

// HasPendingOTP reports whether an OTP challenge is outstanding.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != nil
}

// ClearOTP nulls out the one-time-passcode state. Called after a code is
// consumed, expired, or invalidated by too many attempts.
func (u *User) ClearOTP() {
	u.OTPCode = nil
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
	u.IsOTPVerified = false
}

// ClearSession nulls out the active session credential.
func (u *User) ClearSession() {
	u.SessionToken = nil
	u.SessionExpiresAt = nil
	u.IsOTPVerified = false
}

// PublicUser is the sanitized projection returned to clients. It is built
// deliberately field by field; secret columns never pass through it.
type PublicUser struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	Username           string     `json:"username"`
	FullName           string     `json:"full_name"`
	Phone              *string    `json:"phone,omitempty"`
	IsActive           bool       `json:"is_active"`
	VerificationStatus bool       `json:"verification_status"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Public returns the client-safe view of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:                 u.ID,
		Email:              u.Email,
		Username:           u.Username,
		FullName:           u.FullName,
		Phone:              u.Phone,
		IsActive:           u.IsActive,
		VerificationStatus: u.VerificationStatus,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
	}
}
