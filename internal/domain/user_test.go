package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserState(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*User)
		expected AccountState
	}{
		{"active", func(u *User) {}, AccountStateActive},
		{"unverified", func(u *User) { u.VerificationStatus = false }, AccountStateUnverified},
		{"locked", func(u *User) { u.LoginAttempts = MaxLoginAttempts }, AccountStateLocked},
		{"deactivated", func(u *User) { u.IsActive = false }, AccountStateDeactivated},
		// Deactivation wins over lockout
		{"deactivated and locked", func(u *User) {
			u.IsActive = false
			u.LoginAttempts = MaxLoginAttempts
		}, AccountStateDeactivated},
		// Lockout wins over verification
		{"locked and unverified", func(u *User) {
			u.LoginAttempts = MaxLoginAttempts
			u.VerificationStatus = false
		}, AccountStateLocked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{IsActive: true, VerificationStatus: true}
			tc.mutate(u)
			assert.Equal(t, tc.expected, u.State())
		})
	}
}

func TestClearOTP(t *testing.T) {
	code := "123456"
	expiry := time.Now().Add(10 * time.Minute)
	u := &User{OTPCode: &code, OTPExpiresAt: &expiry, OTPAttempts: 2, IsOTPVerified: true}

	require.True(t, u.HasPendingOTP())
	u.ClearOTP()

	assert.False(t, u.HasPendingOTP())
	assert.Nil(t, u.OTPCode)
	assert.Nil(t, u.OTPExpiresAt)
	assert.Zero(t, u.OTPAttempts)
	assert.False(t, u.IsOTPVerified)
}

func TestClearSession(t *testing.T) {
	sessionToken := "opaque"
	expiry := time.Now().Add(24 * time.Hour)
	u := &User{SessionToken: &sessionToken, SessionExpiresAt: &expiry, IsOTPVerified: true}

	u.ClearSession()

	assert.Nil(t, u.SessionToken)
	assert.Nil(t, u.SessionExpiresAt)
	assert.False(t, u.IsOTPVerified)
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	secret := "secret-value"
	now := time.Now()
	u := &User{
		ID:                 uuid.New(),
		Email:              "carol@empathy.social",
		Username:           "carol",
		PasswordHash:       "$argon2id$...",
		FullName:           "Carol Danvers",
		IsActive:           true,
		VerificationStatus: true,
		VerificationToken:  &secret,
		ResetToken:         &secret,
		OTPCode:            &secret,
		SessionToken:       &secret,
		CreatedAt:          now,
	}

	payload, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.NotContains(t, string(payload), "secret-value")
	assert.NotContains(t, string(payload), "argon2id")
	assert.Contains(t, string(payload), "carol@empathy.social")
}
