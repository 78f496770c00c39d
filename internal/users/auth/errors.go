// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/secretbox/internal/platform/apperr"
)

// # Credential Errors
//
// Every failure the credential subsystem reports to a caller. Match them with
// errors.Is; the HTTP status is carried by the error itself.

var (
	// Sign-up and confirmation
	ErrEmailTaken      = apperr.New("EMAIL_TAKEN", "Email is already registered", http.StatusConflict)
	ErrAccountNotFound = apperr.New("ACCOUNT_NOT_FOUND", "Invalid account", http.StatusNotFound)
	ErrOTPExpired      = apperr.New("OTP_EXPIRED", "Your OTP has expired, request a new one", http.StatusBadRequest)
	ErrInvalidOTP      = apperr.New("INVALID_OTP", "Invalid OTP code", http.StatusConflict)
	ErrWrongOTP        = apperr.New("WRONG_OTP", "Wrong OTP code", http.StatusConflict)
	ErrCoolDown        = apperr.New("OTP_COOL_DOWN", "Please wait until the block period ends", http.StatusConflict)
	ErrTooManyResends  = apperr.New("OTP_TOO_MANY_RESENDS", "Too many resends, try again in 5 minutes", http.StatusConflict)

	// Google sign-in
	ErrInvalidGoogleToken      = apperr.New("INVALID_GOOGLE_TOKEN", "Invalid Google ID token", http.StatusBadRequest)
	ErrUnverifiedGoogleAccount = apperr.New("UNVERIFIED_GOOGLE_ACCOUNT", "Google account email is not verified", http.StatusBadRequest)
	ErrProviderConflict        = apperr.New("PROVIDER_CONFLICT", "Account is registered with another provider", http.StatusConflict)

	// Login
	ErrEmailNotConfirmed  = apperr.New("EMAIL_NOT_CONFIRMED", "Please confirm your email first", http.StatusBadRequest)
	ErrAccountFrozen      = apperr.New("ACCOUNT_FROZEN", "Your account is frozen", http.StatusBadRequest)
	ErrInvalidCredentials = apperr.New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusConflict)

	// Password change
	ErrWrongOldPassword = apperr.New("WRONG_OLD_PASSWORD", "Invalid old password", http.StatusBadRequest)
	ErrPasswordReused   = apperr.New("PASSWORD_REUSED", "You already used this password before", http.StatusConflict)

	// Token checks
	ErrMalformedAuthHeader    = apperr.New("MALFORMED_AUTH_HEADER", "Missing token parts", http.StatusUnauthorized)
	ErrInvalidToken           = apperr.New("INVALID_TOKEN", "Invalid or expired token", http.StatusUnauthorized)
	ErrTokenRevoked           = apperr.New("TOKEN_REVOKED", "Invalid login credentials", http.StatusUnauthorized)
	ErrCredentialsInvalidated = apperr.New("CREDENTIALS_INVALIDATED", "Invalid login credentials", http.StatusUnauthorized)
	ErrMalformedToken         = apperr.New("MALFORMED_TOKEN", "Invalid token payload", http.StatusBadRequest)

	// Authorization
	ErrForbidden = apperr.New("FORBIDDEN", "You are not allowed to perform this action", http.StatusForbidden)

	// ErrDuplicateRevocation is returned by a [RevocationRepository] when the jti
	// is already recorded. Callers treat it as "already revoked".
	ErrDuplicateRevocation = apperr.New("DUPLICATE_REVOCATION", "Token already revoked", http.StatusConflict)
)
