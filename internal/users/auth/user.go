// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and session lifecycle of SecretBox.

It covers sign-up with email confirmation, login, Google sign-in, token pair
issuance and rotation, logout, password change and the forgot-password flow.

# Architecture

  - Entities: [User] and [RevokedToken].
  - OTP Engine: issue, resend throttling and verification of one-time codes.
  - Service: orchestrates every credential use case.
  - Gate: request middleware turning an Authorization header into a [Principal].
  - Reaper: daily sweep of expired revocation records.
  - Repositories: PostgreSQL for durable state, Redis as the revocation cache.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/taibuivan/secretbox/internal/platform/sec"
)

// # Enumerations

// Provider identifies who owns the credential of an account.
type Provider string

const (
	// ProviderSystem accounts sign in with a local password.
	ProviderSystem Provider = "system"

	// ProviderGoogle accounts sign in with a Google ID token and have no password.
	ProviderGoogle Provider = "google"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderSystem || p == ProviderGoogle
}

// Gender is the self-declared gender of a user.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// LogoutFlag selects how a logout or password change treats existing sessions.
type LogoutFlag string

const (
	// FlagFromAll invalidates every token issued before now.
	FlagFromAll LogoutFlag = "fromAll"

	// FlagLogout revokes the token pair presented with the request.
	FlagLogout LogoutFlag = "logout"

	// FlagStayLoggedIn leaves sessions alone where the operation allows it.
	FlagStayLoggedIn LogoutFlag = "stayLoggedIn"
)

// ParseLogoutFlag resolves a request value. An empty value means [FlagStayLoggedIn].
func ParseLogoutFlag(value string) (LogoutFlag, bool) {
	switch LogoutFlag(value) {
	case "":
		return FlagStayLoggedIn, true
	case FlagFromAll, FlagLogout, FlagStayLoggedIn:
		return LogoutFlag(value), true
	default:
		return "", false
	}
}

// # Domain Entities

// OTPState is the persisted state of one OTP session.
//
// The zero value means no code is outstanding.
type OTPState struct {
	Hash         string
	ExpiresAt    *time.Time
	Count        int
	BlockedUntil *time.Time
}

// Active reports whether a code has been issued and not yet consumed.
func (state OTPState) Active() bool {
	return state.Hash != ""
}

// User represents a registered member of SecretBox.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string

	// PasswordHash is empty for Google accounts.
	PasswordHash string
	OldPasswords []string

	// Phone holds ciphertext produced by [sec.Cipher].
	Phone    string
	Gender   Gender
	Role     sec.UserRole
	Provider Provider
	Picture  string

	ConfirmedAt *time.Time
	ConfirmOTP  OTPState
	ForgotOTP   OTPState

	// ChangeCredentialsAt invalidates every token issued before it.
	ChangeCredentialsAt *time.Time

	DeletedAt  *time.Time
	DeletedBy  *string
	RestoredAt *time.Time
	RestoredBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserName is the display name derived from the first and last names.
func (u *User) UserName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsConfirmed reports whether the email address has been confirmed.
func (u *User) IsConfirmed() bool {
	return u.ConfirmedAt != nil
}

// IsFrozen reports whether the account is soft-deleted.
func (u *User) IsFrozen() bool {
	return u.DeletedAt != nil
}

// TokensInvalidatedFor reports whether a token issued at issuedAt predates the
// last global credential change. Token timestamps carry whole seconds, so the
// change instant is compared at the same precision.
func (u *User) TokensInvalidatedFor(issuedAt time.Time) bool {
	if u.ChangeCredentialsAt == nil {
		return false
	}
	return u.ChangeCredentialsAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

// RevokedToken is a revocation record keyed by jti.
type RevokedToken struct {
	JTI    string
	UserID string

	// ExpiresIn is the epoch second after which the record may be purged.
	ExpiresIn int64
	CreatedAt time.Time
}

// # Helpers

var emailFolder = cases.Fold()

// CanonicalEmail trims and case-folds an email address for storage and lookup.
func CanonicalEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// SplitUserName splits "First Last" into its two parts. Extra words go to the
// last name.
func SplitUserName(userName string) (string, string) {
	fields := strings.Fields(userName)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// # Field Identifiers

// JSON field names used in requests, validation details and responses.
const (
	FieldUserName           = "userName"
	FieldEmail              = "email"
	FieldPassword           = "password"
	FieldConfirmPassword    = "confirmPassword"
	FieldPhone              = "phone"
	FieldGender             = "gender"
	FieldOTP                = "OTP"
	FieldIDToken            = "idToken"
	FieldOldPassword        = "oldPassword"
	FieldNewPassword        = "newPassword"
	FieldConfirmNewPassword = "confirmNewPassword"
	FieldFlag               = "flag"
)
