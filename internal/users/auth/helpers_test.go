// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/mailer"
	"github.com/taibuivan/secretbox/internal/platform/metrics"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

// # Clock

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// # Users

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]auth.User

	// replaceErr, when set, fails every ReplacePassword call.
	replaceErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]auth.User{}}
}

func (store *memoryUsers) Create(_ context.Context, user *auth.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, existing := range store.users {
		if existing.Email == user.Email {
			return auth.ErrEmailTaken
		}
	}
	store.users[user.ID] = clone(*user)
	return nil
}

func (store *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	copied := clone(user)
	return &copied, nil
}

func (store *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, user := range store.users {
		if user.Email == email {
			copied := clone(user)
			return &copied, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (store *memoryUsers) SaveConfirmOTP(_ context.Context, userID string, state auth.OTPState) error {
	return store.update(userID, func(user *auth.User) { user.ConfirmOTP = state })
}

func (store *memoryUsers) ConfirmEmail(_ context.Context, userID string, confirmedAt time.Time) error {
	return store.update(userID, func(user *auth.User) {
		user.ConfirmedAt = &confirmedAt
		user.ConfirmOTP = auth.OTPState{}
	})
}

func (store *memoryUsers) SaveForgotOTP(_ context.Context, userID string, state auth.OTPState) error {
	return store.update(userID, func(user *auth.User) {
		user.ForgotOTP.Hash = state.Hash
		user.ForgotOTP.ExpiresAt = state.ExpiresAt
	})
}

func (store *memoryUsers) ReplacePassword(_ context.Context, userID string, change auth.PasswordChange) error {
	store.mu.Lock()
	failure := store.replaceErr
	store.mu.Unlock()
	if failure != nil {
		return failure
	}
	return store.update(userID, func(user *auth.User) {
		if change.PreviousHash != "" {
			user.OldPasswords = append(user.OldPasswords, change.PreviousHash)
		}
		user.PasswordHash = change.NewHash
		if change.ChangeCredentialsAt != nil {
			user.ChangeCredentialsAt = change.ChangeCredentialsAt
		}
		if change.ClearForgotOTP {
			user.ForgotOTP = auth.OTPState{}
		}
	})
}

func (store *memoryUsers) InvalidateCredentials(_ context.Context, userID string, at time.Time) error {
	return store.update(userID, func(user *auth.User) { user.ChangeCredentialsAt = &at })
}

func (store *memoryUsers) update(userID string, mutate func(*auth.User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[userID]
	if !ok {
		return auth.ErrAccountNotFound
	}
	mutate(&user)
	store.users[userID] = user
	return nil
}

// mutate lets tests force states that have no use case of their own.
func (store *memoryUsers) mutate(t *testing.T, userID string, mutate func(*auth.User)) {
	t.Helper()
	require.NoError(t, store.update(userID, mutate))
}

func (store *memoryUsers) get(t *testing.T, userID string) auth.User {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	user, ok := store.users[userID]
	require.True(t, ok, "user %s not stored", userID)
	return clone(user)
}

func clone(user auth.User) auth.User {
	user.OldPasswords = append([]string(nil), user.OldPasswords...)
	return user
}

// # Revocations

type memoryRevocations struct {
	mu      sync.Mutex
	records map[string]auth.RevokedToken
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{records: map[string]auth.RevokedToken{}}
}

func (store *memoryRevocations) Revoke(_ context.Context, record auth.RevokedToken) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.records[record.JTI]; exists {
		return auth.ErrDuplicateRevocation
	}
	store.records[record.JTI] = record
	return nil
}

func (store *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, exists := store.records[jti]
	return exists, nil
}

func (store *memoryRevocations) Find(_ context.Context, jti string) (*auth.RevokedToken, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	record, exists := store.records[jti]
	if !exists {
		return nil, nil
	}
	return &record, nil
}

func (store *memoryRevocations) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var deleted int64
	for jti, record := range store.records {
		if record.ExpiresIn < now.Unix() {
			delete(store.records, jti)
			deleted++
		}
	}
	return deleted, nil
}

func (store *memoryRevocations) jtis() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	jtis := make([]string, 0, len(store.records))
	for jti := range store.records {
		jtis = append(jtis, jti)
	}
	sort.Strings(jtis)
	return jtis
}

// # Mailer

var codePattern = regexp.MustCompile(`>(\d{6})</div>`)

type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (capture *captureMailer) Send(_ context.Context, message mailer.Message) error {
	capture.mu.Lock()
	defer capture.mu.Unlock()
	capture.messages = append(capture.messages, message)
	return nil
}

// lastCode returns the one-time code of the most recent message.
func (capture *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	capture.mu.Lock()
	defer capture.mu.Unlock()
	require.NotEmpty(t, capture.messages, "no email was sent")
	match := codePattern.FindStringSubmatch(capture.messages[len(capture.messages)-1].HTML)
	require.Len(t, match, 2, "no code in email body")
	return match[1]
}

func (capture *captureMailer) count() int {
	capture.mu.Lock()
	defer capture.mu.Unlock()
	return len(capture.messages)
}

// # Google

type fakeGoogle struct {
	identities map[string]auth.GoogleIdentity
}

func (google *fakeGoogle) Verify(_ context.Context, idToken string) (*auth.GoogleIdentity, error) {
	identity, ok := google.identities[idToken]
	if !ok {
		return nil, auth.ErrInvalidGoogleToken
	}
	return &identity, nil
}

// # Fixture

const (
	testPassword  = "Secret#123"
	otherPassword = "Another$456"
	testPhone     = "01012345678"
)

type fixture struct {
	clock       *fakeClock
	users       *memoryUsers
	revocations *memoryRevocations
	mail        *captureMailer
	google      *fakeGoogle
	tokens      *sec.TokenService
	service     *auth.Service
	gate        *auth.Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock()

	tokens, err := sec.NewTokenService(sec.Keyring{
		BearerAccess:  []byte("bearer-access-key"),
		BearerRefresh: []byte("bearer-refresh-key"),
		SystemAccess:  []byte("system-access-key"),
		SystemRefresh: []byte("system-refresh-key"),
	}, "secretbox.test", sec.WithClock(clock.Now))
	require.NoError(t, err)

	cipher, err := sec.NewCipher("test-passphrase")
	require.NoError(t, err)

	f := &fixture{
		clock:       clock,
		users:       newMemoryUsers(),
		revocations: newMemoryRevocations(),
		mail:        &captureMailer{},
		google:      &fakeGoogle{identities: map[string]auth.GoogleIdentity{}},
		tokens:      tokens,
	}

	f.service = auth.NewService(auth.Dependencies{
		Users:       f.users,
		Revocations: f.revocations,
		Tokens:      tokens,
		Hasher:      sec.NewHasher(4),
		Cipher:      cipher,
		Mailer:      f.mail,
		Google:      f.google,
		Metrics:     metrics.NewUnregistered("secretbox-test"),
	}, auth.WithClock(clock.Now))

	f.gate = auth.NewGate(tokens, f.revocations, f.users)
	return f
}

// signup registers email and returns the account id and its confirmation code.
func (f *fixture) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	user, err := f.service.Signup(context.Background(), auth.SignupInput{
		UserName: "Jane Doe",
		Email:    email,
		Password: testPassword,
		Phone:    testPhone,
		Gender:   auth.GenderFemale,
	})
	require.NoError(t, err)
	return user.ID, f.mail.lastCode(t)
}

// confirmedSession registers, confirms and logs in email.
func (f *fixture) confirmedSession(t *testing.T, email string) *auth.Session {
	t.Helper()
	_, code := f.signup(t, email)
	require.NoError(t, f.service.ConfirmEmail(context.Background(), email, code))

	session, err := f.service.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return session
}

// principal authenticates token the way the HTTP gate would.
func (f *fixture) principal(t *testing.T, tier sec.Tier, token string, use sec.TokenUse) *auth.Principal {
	t.Helper()
	principal, err := f.gate.Authenticate(context.Background(), string(tier)+" "+token, use)
	require.NoError(t, err)
	return principal
}
