// Package token generates the opaque credentials used throughout the auth
// flows: random hex tokens for verification, session and reset purposes,
// and short numeric one-time passcodes.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// OpaqueLength is the number of random bytes in an opaque token
// (32 bytes = 256 bits of entropy, 64 hex characters). With this much
// entropy no uniqueness check against storage is needed.
const OpaqueLength = 32

// NewOpaque generates a cryptographically secure random token.
func NewOpaque() (string, error) {
	bytes := make([]byte, OpaqueLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// NewOTP generates a 6-digit numeric code uniformly sampled from
// 100000-999999. The range excludes leading zeros so no padding is needed.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
