// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

/*
TestGate_Authenticate covers each rejection step of the gate.
*/
func TestGate_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.confirmedSession(t, "a@b.com")
	access := session.Credentials.AccessToken

	noSubject, err := f.tokens.Issue("", "jti-no-subject", sec.TierBearer, sec.UseAccess, time.Hour)
	require.NoError(t, err)

	ghost, err := f.tokens.Issue("0190a1b2-0000-7000-8000-000000000000", "jti-ghost", sec.TierBearer, sec.UseAccess, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		use    sec.TokenUse
		want   error
	}{
		{"empty", "", sec.UseAccess, auth.ErrMalformedAuthHeader},
		{"no_token", "Bearer", sec.UseAccess, auth.ErrMalformedAuthHeader},
		{"unknown_tier", "Basic " + access, sec.UseAccess, auth.ErrMalformedAuthHeader},
		{"garbage", "Bearer not.a.jwt", sec.UseAccess, auth.ErrInvalidToken},
		{"wrong_use", "Bearer " + access, sec.UseRefresh, auth.ErrInvalidToken},
		{"wrong_tier", "System " + access, sec.UseAccess, auth.ErrInvalidToken},
		{"no_subject", "Bearer " + noSubject, sec.UseAccess, auth.ErrMalformedToken},
		{"unknown_subject", "Bearer " + ghost, sec.UseAccess, auth.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gate.Authenticate(ctx, tt.header, tt.use)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

/*
TestGate_Expired rejects an access token past its lifetime.
*/
func TestGate_Expired(t *testing.T) {
	f := newFixture(t)
	session := f.confirmedSession(t, "a@b.com")

	f.clock.Advance(auth.AccessTokenTTL + time.Second)
	_, err := f.gate.Authenticate(context.Background(), "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// The refresh token of the same pair is still good
	_, err = f.gate.Authenticate(context.Background(), "Bearer "+session.Credentials.RefreshToken, sec.UseRefresh)
	assert.NoError(t, err)
}

/*
TestGate_RoleChangeInvalidates rejects a token whose tier no longer matches the role.
*/
func TestGate_RoleChangeInvalidates(t *testing.T) {
	f := newFixture(t)
	session := f.confirmedSession(t, "a@b.com")
	f.users.mutate(t, session.User.ID, func(user *auth.User) { user.Role = sec.RoleAdmin })

	_, err := f.gate.Authenticate(context.Background(), "Bearer "+session.Credentials.AccessToken, sec.UseAccess)
	assert.ErrorIs(t, err, auth.ErrCredentialsInvalidated)
}

/*
TestGate_Middleware checks Require and RequireRole wiring.
*/
func TestGate_Middleware(t *testing.T) {
	f := newFixture(t)
	session := f.confirmedSession(t, "a@b.com")

	var seen *auth.Principal
	final := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = auth.PrincipalFrom(request.Context())
		writer.WriteHeader(http.StatusNoContent)
	})

	t.Run("authenticated", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer "+session.Credentials.AccessToken)
		recorder := httptest.NewRecorder()

		f.gate.Require(sec.UseAccess)(final).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		require.NotNil(t, seen)
		assert.Equal(t, session.User.ID, seen.User.ID)
	})

	t.Run("missing_header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		f.gate.Require(sec.UseAccess)(final).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("admin_only", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer "+session.Credentials.AccessToken)
		recorder := httptest.NewRecorder()

		f.gate.Require(sec.UseAccess)(auth.RequireRole(sec.RoleAdmin)(final)).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
