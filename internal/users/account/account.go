// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management and the account lifecycle after sign-up.

It lets users view and edit their own identity data, look up other members and
freeze their own account, and gives administrators the restore and hard-delete
operations.

# Architecture

  - Entities: Profile (view-model), BasicInfoChange.
  - Domain: This package depends on the auth package for the User entity.
  - Lifecycle: active -> frozen (soft-delete) -> restored, or frozen -> deleted.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
)

// # View Models

// Profile is the outward view of an account. Secrets and OTP state never
// leave the service.
type Profile struct {
	ID        string        `json:"_id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	UserName  string        `json:"userName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Gender    auth.Gender   `json:"gender"`
	Role      string        `json:"role,omitempty"`
	Picture   string        `json:"picture,omitempty"`
	Provider  auth.Provider `json:"provider,omitempty"`
}

// SearchResult is one page of a member search.
type SearchResult struct {
	Users []Profile `json:"users"`
	pagination.Meta
}

// # Mutations

// BasicInfoChange holds the editable identity fields. Nil fields are left untouched.
//
// Phone carries ciphertext by the time it reaches the repository.
type BasicInfoChange struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Gender    *auth.Gender
}

// Empty reports whether the change touches no field.
func (change BasicInfoChange) Empty() bool {
	return change.FirstName == nil && change.LastName == nil && change.Phone == nil && change.Gender == nil
}

// # Repository Contracts

// AccountRepository defines the persistence contract for the account lifecycle.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID, frozen or not.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: auth.ErrAccountNotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateBasicInfo applies change to an active account and returns the result.

		Returns:
		  - *auth.User: The updated account
		  - error: auth.ErrAccountNotFound when the account is missing or frozen
	*/
	UpdateBasicInfo(context context.Context, id string, change BasicInfoChange) (*auth.User, error)

	/*
		Search lists active accounts whose names or email contain term.

		Returns:
		  - []*auth.User: The requested page
		  - int: Total number of matches
		  - error: Retrieval failures
	*/
	Search(context context.Context, term string, params pagination.Params) ([]*auth.User, int, error)

	/*
		Freeze soft-deletes an active account and clears its restore markers.

		Returns:
		  - error: auth.ErrAccountNotFound when the account is missing or already frozen
	*/
	Freeze(context context.Context, id, actorID string, at time.Time) error

	/*
		Restore reactivates a frozen account unless the account froze itself.

		Returns:
		  - error: auth.ErrAccountNotFound when no account qualifies
	*/
	Restore(context context.Context, id, actorID string, at time.Time) error

	/*
		Delete removes a frozen account. purge runs inside the same transaction
		after the row is gone; its failure rolls the deletion back.

		Returns:
		  - error: auth.ErrAccountNotFound when the account is missing or active
	*/
	Delete(context context.Context, id string, purge func(context.Context) error) error
}

// MediaStore removes the stored media of an account.
type MediaStore interface {
	RemovePrefix(context context.Context, prefix string) (int, error)
}
