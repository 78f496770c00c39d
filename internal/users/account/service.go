// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
)

// # Service Layer

// PhoneCipher protects the phone number at rest.
type PhoneCipher interface {
	Encrypt(plainText string) (string, error)
	Decrypt(cipherText string) (string, error)
}

// Service orchestrates business logic for profiles and the account lifecycle.
type Service struct {
	accountRepository AccountRepository
	media             MediaStore
	cipher            PhoneCipher
	logger            *slog.Logger
	now               func() time.Time
}

// Option customizes a [Service].
type Option func(*Service)

// WithClock replaces the wall clock used for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		service.now = now
	}
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, media MediaStore, cipher PhoneCipher, logger *slog.Logger, opts ...Option) *Service {
	service := &Service{
		accountRepository: accountRepo,
		media:             media,
		cipher:            cipher,
		logger:            logger,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// # Profile Management

/*
Profile renders the private view of the caller's own account.

Parameters:
  - context: context.Context
  - user: *auth.User (The authenticated caller)

Returns:
  - *Profile: View-model with the decrypted phone
  - error: Decryption failures
*/
func (service *Service) Profile(context context.Context, user *auth.User) (*Profile, error) {
	profile, err := service.present(user, true)
	if err != nil {
		return nil, fmt.Errorf("account_service_profile_failed: %w", err)
	}
	return profile, nil
}

/*
ShareProfile renders the view of another member.

Returns:
  - *Profile: View-model with the decrypted phone
  - error: auth.ErrAccountNotFound (missing or frozen) or decryption failures
*/
func (service *Service) ShareProfile(context context.Context, userID string) (*Profile, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_share_profile_failed: %w", err)
	}
	if user.IsFrozen() {
		return nil, auth.ErrAccountNotFound
	}

	profile, err := service.present(user, false)
	if err != nil {
		return nil, fmt.Errorf("account_service_share_profile_failed: %w", err)
	}
	return profile, nil
}

// UpdateBasicInfoInput carries the plain-text editable fields.
type UpdateBasicInfoInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Gender    *auth.Gender
}

/*
UpdateBasicInfo applies a partial change to the caller's identity fields.

Description: The phone number is encrypted before it reaches storage. Frozen
accounts cannot be edited.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateBasicInfoInput

Returns:
  - *Profile: The updated view-model
  - error: ErrNothingToUpdate, auth.ErrAccountNotFound or storage failures
*/
func (service *Service) UpdateBasicInfo(context context.Context, userID string, input UpdateBasicInfoInput) (*Profile, error) {
	change := BasicInfoChange{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Gender:    input.Gender,
	}

	if change.Empty() && input.Phone == nil {
		return nil, ErrNothingToUpdate
	}

	if input.Phone != nil {
		cipherText, err := service.cipher.Encrypt(*input.Phone)
		if err != nil {
			return nil, fmt.Errorf("account_service_encrypt_phone_failed: %w", err)
		}
		change.Phone = &cipherText
	}

	user, err := service.accountRepository.UpdateBasicInfo(context, userID, change)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_basic_info_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_profile_updated", slog.String("user_id", userID))

	return service.present(user, false)
}

/*
Search lists active members whose first name, last name or email contains term.

Returns:
  - *SearchResult: The page and its pagination metadata
  - error: Storage failures
*/
func (service *Service) Search(context context.Context, term string, params pagination.Params) (*SearchResult, error) {
	users, total, err := service.accountRepository.Search(context, strings.TrimSpace(term), params)
	if err != nil {
		return nil, fmt.Errorf("account_service_search_failed: %w", err)
	}

	result := &SearchResult{
		Users: make([]Profile, 0, len(users)),
		Meta:  pagination.NewMeta(params, total),
	}

	// Search results never expose the phone number
	for _, user := range users {
		result.Users = append(result.Users, Profile{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			UserName:  user.UserName(),
			Email:     user.Email,
		})
	}

	return result, nil
}

// # Lifecycle

/*
Freeze soft-deletes an account.

Description: With an empty targetID the caller freezes their own account.
Freezing anyone by id, including oneself, requires the admin role.

Parameters:
  - context: context.Context
  - actor: *auth.User (The authenticated caller)
  - targetID: string (Optional)

Returns:
  - error: auth.ErrForbidden, auth.ErrAccountNotFound or storage failures
*/
func (service *Service) Freeze(context context.Context, actor *auth.User, targetID string) error {
	if targetID != "" && !actor.Role.AtLeast(sec.RoleAdmin) {
		return auth.ErrForbidden
	}

	if targetID == "" {
		targetID = actor.ID
	}

	if err := service.accountRepository.Freeze(context, targetID, actor.ID, service.now()); err != nil {
		return fmt.Errorf("account_service_freeze_failed: %w", err)
	}

	service.logger.WarnContext(context, "user_account_frozen",
		slog.String("user_id", targetID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Restore reactivates a frozen account. Accounts frozen by their own owner stay frozen.

Returns:
  - error: auth.ErrForbidden, auth.ErrAccountNotFound or storage failures
*/
func (service *Service) Restore(context context.Context, actor *auth.User, targetID string) error {
	if !actor.Role.AtLeast(sec.RoleAdmin) {
		return auth.ErrForbidden
	}

	if err := service.accountRepository.Restore(context, targetID, actor.ID, service.now()); err != nil {
		return fmt.Errorf("account_service_restore_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_account_restored",
		slog.String("user_id", targetID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Delete permanently removes a frozen account together with its stored media.

Description: The row deletion and the media purge share one transaction, so a
failed purge leaves the account frozen and the call can be retried.

Returns:
  - error: auth.ErrForbidden, auth.ErrAccountNotFound, storage or purge failures
*/
func (service *Service) Delete(ctx context.Context, actor *auth.User, targetID string) error {
	if !actor.Role.AtLeast(sec.RoleAdmin) {
		return auth.ErrForbidden
	}

	var removed int
	err := service.accountRepository.Delete(ctx, targetID, func(txContext context.Context) error {
		count, err := service.media.RemovePrefix(txContext, constants.MediaPrefixUsers+targetID+"/")
		removed = count
		return err
	})
	if err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.WarnContext(ctx, "user_account_deleted",
		slog.String("user_id", targetID),
		slog.String("actor_id", actor.ID),
		slog.Int("media_removed", removed),
	)

	return nil
}

// # Helpers

// present maps a user to its view-model, decrypting the phone.
func (service *Service) present(user *auth.User, private bool) (*Profile, error) {
	profile := &Profile{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserName:  user.UserName(),
		Email:     user.Email,
		Gender:    user.Gender,
		Picture:   user.Picture,
	}

	if private {
		profile.Role = string(user.Role)
		profile.Provider = user.Provider
	}

	// Google accounts have no phone
	if user.Phone != "" {
		phone, err := service.cipher.Decrypt(user.Phone)
		if err != nil {
			return nil, fmt.Errorf("account_decrypt_phone_failed: %w", err)
		}
		profile.Phone = phone
	}

	return profile, nil
}
