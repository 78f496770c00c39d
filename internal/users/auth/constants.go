// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Token Lifetimes

const (
	// AccessTokenTTL is the duration an access token remains valid.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the duration a refresh token remains valid.
	RefreshTokenTTL = 365 * 24 * time.Hour

	// RevocationRetention is how long after issuance a revocation record is kept.
	// It must cover [RefreshTokenTTL], the longest-lived token sharing the jti.
	RevocationRetention = RefreshTokenTTL
)

// # OTP Policies

// OTPPolicy configures one OTP flow.
type OTPPolicy struct {
	// TTL is how long an issued code stays valid.
	TTL time.Duration

	// MaxResends is the number of resends allowed before a block. Zero disables throttling.
	MaxResends int

	// BlockFor is the lockout applied once MaxResends is exceeded.
	BlockFor time.Duration
}

var (
	// ConfirmEmailPolicy governs sign-up confirmation codes.
	ConfirmEmailPolicy = OTPPolicy{
		TTL:        2 * time.Minute,
		MaxResends: 5,
		BlockFor:   5 * time.Minute,
	}

	// ForgotPasswordPolicy governs password reset codes.
	ForgotPasswordPolicy = OTPPolicy{
		TTL: 10 * time.Minute,
	}
)
