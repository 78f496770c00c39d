// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/postgres/postgrestest"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/account"
	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
	"github.com/taibuivan/secretbox/pkg/pointer"
	"github.com/taibuivan/secretbox/pkg/uuid"
)

/*
TestPostgresAccountRepository exercises the lifecycle queries against a real database.
*/
func TestPostgresAccountRepository(t *testing.T) {
	pool := postgrestest.Start(t)
	users := auth.NewUserRepository(pool)
	repository := account.NewAccountRepository(pool)
	ctx := context.Background()

	create := func(first, email string) *auth.User {
		user := &auth.User{
			ID:           uuid.New(),
			FirstName:    first,
			LastName:     "Doe",
			Email:        email,
			PasswordHash: "$2a$04$hash",
			Phone:        "ciphertext",
			Gender:       auth.GenderFemale,
			Role:         sec.RoleUser,
			Provider:     auth.ProviderSystem,
			ConfirmedAt:  pointer.To(time.Now()),
		}
		require.NoError(t, users.Create(ctx, user))
		return user
	}

	jane := create("Jane", "jane@b.com")
	john := create("John", "john@b.com")
	create("Under_score", "under@b.com")

	t.Run("update_basic_info", func(t *testing.T) {
		updated, err := repository.UpdateBasicInfo(ctx, jane.ID, account.BasicInfoChange{
			LastName: pointer.To("Smith"),
			Gender:   pointer.To(auth.GenderMale),
		})
		require.NoError(t, err)
		assert.Equal(t, "Jane", updated.FirstName)
		assert.Equal(t, "Smith", updated.LastName)
		assert.Equal(t, auth.GenderMale, updated.Gender)
		assert.Equal(t, "ciphertext", updated.Phone)
	})

	t.Run("search", func(t *testing.T) {
		found, total, err := repository.Search(ctx, "DOE", pagination.Params{Page: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, found, 1)

		// Underscores match literally
		found, total, err = repository.Search(ctx, "r_s", pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, found, 1)
		assert.Equal(t, "Under_score", found[0].FirstName)
	})

	t.Run("freeze_restore", func(t *testing.T) {
		admin := uuid.New()

		require.NoError(t, repository.Freeze(ctx, john.ID, admin, time.Now()))
		assert.ErrorIs(t, repository.Freeze(ctx, john.ID, admin, time.Now()), auth.ErrAccountNotFound)

		_, err := repository.UpdateBasicInfo(ctx, john.ID, account.BasicInfoChange{FirstName: pointer.To("Jack")})
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)

		_, total, err := repository.Search(ctx, "john", pagination.Params{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)

		require.NoError(t, repository.Restore(ctx, john.ID, admin, time.Now()))
		stored, err := repository.FindByID(ctx, john.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsFrozen())
		assert.Equal(t, admin, pointer.Val(stored.RestoredBy))

		// Self-frozen accounts cannot be restored
		require.NoError(t, repository.Freeze(ctx, john.ID, john.ID, time.Now()))
		assert.ErrorIs(t, repository.Restore(ctx, john.ID, admin, time.Now()), auth.ErrAccountNotFound)

		stored, err = repository.FindByID(ctx, john.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.RestoredBy)
	})

	t.Run("delete", func(t *testing.T) {
		noop := func(context.Context) error { return nil }
		assert.ErrorIs(t, repository.Delete(ctx, jane.ID, noop), auth.ErrAccountNotFound)

		// john is frozen by the previous subtest
		purgeErr := errors.New("purge failed")
		err := repository.Delete(ctx, john.ID, func(context.Context) error { return purgeErr })
		assert.ErrorIs(t, err, purgeErr)

		_, err = repository.FindByID(ctx, john.ID)
		require.NoError(t, err, "a failed purge rolls the deletion back")

		require.NoError(t, repository.Delete(ctx, john.ID, noop))
		_, err = repository.FindByID(ctx, john.ID)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})
}
