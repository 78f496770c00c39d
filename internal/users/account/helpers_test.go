// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/account"
	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
	"github.com/taibuivan/secretbox/pkg/uuid"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// # Accounts

// memoryAccounts backs both the account service and the authentication gate.
// The embedded interface is nil; the gate only calls FindByID.
type memoryAccounts struct {
	auth.UserRepository

	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{users: map[string]*auth.User{}}
}

func (store *memoryAccounts) add(user auth.User) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.users[user.ID] = &user
}

func (store *memoryAccounts) get(t *testing.T, id string) auth.User {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	require.True(t, ok, "user %s not stored", id)
	return *user
}

func (store *memoryAccounts) exists(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.users[id]
	return ok
}

func (store *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	clone := *user
	return &clone, nil
}

func (store *memoryAccounts) UpdateBasicInfo(_ context.Context, id string, change account.BasicInfoChange) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok || user.IsFrozen() {
		return nil, auth.ErrAccountNotFound
	}
	if change.FirstName != nil {
		user.FirstName = *change.FirstName
	}
	if change.LastName != nil {
		user.LastName = *change.LastName
	}
	if change.Phone != nil {
		user.Phone = *change.Phone
	}
	if change.Gender != nil {
		user.Gender = *change.Gender
	}
	clone := *user
	return &clone, nil
}

func (store *memoryAccounts) Search(_ context.Context, term string, params pagination.Params) ([]*auth.User, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	needle := strings.ToLower(term)
	var matches []*auth.User
	for _, user := range store.users {
		if user.IsFrozen() {
			continue
		}
		for _, field := range []string{user.FirstName, user.LastName, user.Email} {
			if strings.Contains(strings.ToLower(field), needle) {
				clone := *user
				matches = append(matches, &clone)
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })

	total := len(matches)
	start := min(params.Offset(), total)
	end := min(start+params.Limit, total)
	return matches[start:end], total, nil
}

func (store *memoryAccounts) Freeze(_ context.Context, id, actorID string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok || user.IsFrozen() {
		return auth.ErrAccountNotFound
	}
	user.DeletedAt, user.DeletedBy = &at, &actorID
	user.RestoredAt, user.RestoredBy = nil, nil
	return nil
}

func (store *memoryAccounts) Restore(_ context.Context, id, actorID string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok || !user.IsFrozen() || (user.DeletedBy != nil && *user.DeletedBy == id) {
		return auth.ErrAccountNotFound
	}
	user.DeletedAt, user.DeletedBy = nil, nil
	user.RestoredAt, user.RestoredBy = &at, &actorID
	return nil
}

func (store *memoryAccounts) Delete(ctx context.Context, id string, purge func(context.Context) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok || !user.IsFrozen() {
		return auth.ErrAccountNotFound
	}
	delete(store.users, id)
	if err := purge(ctx); err != nil {
		store.users[id] = user
		return err
	}
	return nil
}

// # Revocations

type noRevocations struct {
	auth.RevocationRepository
}

func (noRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, nil
}

// # Media

type fakeMedia struct {
	mu       sync.Mutex
	prefixes []string
	err      error
}

func (media *fakeMedia) RemovePrefix(_ context.Context, prefix string) (int, error) {
	media.mu.Lock()
	defer media.mu.Unlock()
	if media.err != nil {
		return 0, media.err
	}
	media.prefixes = append(media.prefixes, prefix)
	return 2, nil
}

var errMediaDown = errors.New("media store unavailable")

// # Fixture

const testPhone = "01012345678"

type fixture struct {
	accounts *memoryAccounts
	media    *fakeMedia
	cipher   *sec.Cipher
	tokens   *sec.TokenService
	service  *account.Service
	gate     *auth.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cipher, err := sec.NewCipher("account-test-passphrase")
	require.NoError(t, err)

	tokens, err := sec.NewTokenService(sec.Keyring{
		BearerAccess:  []byte("bearer-access"),
		BearerRefresh: []byte("bearer-refresh"),
		SystemAccess:  []byte("system-access"),
		SystemRefresh: []byte("system-refresh"),
	}, "secretbox.test")
	require.NoError(t, err)

	accounts := newMemoryAccounts()
	media := &fakeMedia{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		accounts: accounts,
		media:    media,
		cipher:   cipher,
		tokens:   tokens,
		service:  account.NewService(accounts, media, cipher, logger, account.WithClock(func() time.Time { return testNow })),
		gate:     auth.NewGate(tokens, noRevocations{}, accounts),
	}
}

// member stores a confirmed system account and returns it.
func (f *fixture) member(t *testing.T, first, last, email string, role sec.UserRole) auth.User {
	t.Helper()

	phone, err := f.cipher.Encrypt(testPhone)
	require.NoError(t, err)

	user := auth.User{
		ID:           uuid.New(),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Phone:        phone,
		Gender:       auth.GenderFemale,
		Role:         role,
		Provider:     auth.ProviderSystem,
		ConfirmedAt:  &testNow,
		CreatedAt:    testNow,
	}
	f.accounts.add(user)
	return user
}

// authorization issues an access token for user in the matching tier.
func (f *fixture) authorization(t *testing.T, user auth.User) string {
	t.Helper()

	tier := user.Role.Tier()
	token, err := f.tokens.Issue(user.ID, uuid.Random(), tier, sec.UseAccess, time.Hour)
	require.NoError(t, err)
	return string(tier) + " " + token
}
