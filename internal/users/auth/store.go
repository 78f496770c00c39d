// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts used by
// the credential flows.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: ErrEmailTaken on a duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID, frozen or not.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrAccountNotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given canonical email, frozen or not.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrAccountNotFound or retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		SaveConfirmOTP replaces the confirmation OTP state.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - state: OTPState
	*/
	SaveConfirmOTP(context context.Context, userID string, state OTPState) error

	/*
		ConfirmEmail sets the confirmation timestamp and clears every
		confirmation OTP field.
	*/
	ConfirmEmail(context context.Context, userID string, confirmedAt time.Time) error

	/*
		SaveForgotOTP replaces the forgot-password OTP state.
	*/
	SaveForgotOTP(context context.Context, userID string, state OTPState) error

	/*
		ReplacePassword sets newHash, appends previousHash to the password
		history and, when changeCredentialsAt is non-nil, records it. The
		forgot-password OTP is cleared when clearForgotOTP is set.

		Returns:
		  - error: ErrAccountNotFound or persistence failures
	*/
	ReplacePassword(context context.Context, userID string, change PasswordChange) error

	/*
		InvalidateCredentials records at as the instant before which every
		token of the user is rejected.
	*/
	InvalidateCredentials(context context.Context, userID string, at time.Time) error
}

// PasswordChange describes a password replacement.
type PasswordChange struct {
	NewHash             string
	PreviousHash        string
	ChangeCredentialsAt *time.Time
	ClearForgotOTP      bool
}

// # Revocation Data Access

// RevocationRepository is the append-only store of revoked token identifiers.
type RevocationRepository interface {

	/*
		Revoke inserts a revocation record.

		Returns:
		  - error: ErrDuplicateRevocation when the jti is already recorded
	*/
	Revoke(context context.Context, record RevokedToken) error

	/*
		IsRevoked reports whether jti has been revoked.
	*/
	IsRevoked(context context.Context, jti string) (bool, error)

	/*
		Find returns the record of jti, or nil when absent.
	*/
	Find(context context.Context, jti string) (*RevokedToken, error)

	/*
		PurgeExpired deletes every record whose ExpiresIn is before now.

		Returns:
		  - int64: Number of deleted records
	*/
	PurgeExpired(context context.Context, now time.Time) (int64, error)
}
