// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/ctxkey"
	"github.com/taibuivan/secretbox/internal/platform/ctxutil"
	"github.com/taibuivan/secretbox/internal/platform/respond"
	"github.com/taibuivan/secretbox/internal/platform/sec"
)

// # Principal

// Principal is the authenticated caller: the loaded account plus the decoded
// token it presented.
type Principal struct {
	User   *User
	Claims *sec.TokenClaims
	Tier   sec.Tier
}

// WithPrincipal returns a copy of ctx carrying principal.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, ctxkey.KeyPrincipal, principal)
}

// PrincipalFrom returns the principal attached by [Gate.Require], or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	principal, _ := ctx.Value(ctxkey.KeyPrincipal).(*Principal)
	return principal
}

// # Gate

// Gate turns an Authorization header into a [Principal].
type Gate struct {
	tokens      TokenCodec
	revocations RevocationRepository
	users       UserRepository
}

// NewGate creates a new Gate.
func NewGate(tokens TokenCodec, revocations RevocationRepository, users UserRepository) *Gate {
	return &Gate{tokens: tokens, revocations: revocations, users: users}
}

/*
Authenticate resolves header into a principal for a token of the given use.

Description: Steps, in order:
 1. Parse "<tier> <token>".
 2. Verify signature and expiry with the key of (tier, use).
 3. Reject a revoked jti.
 4. Reject a payload without subject id.
 5. Load the subject.
 6. Reject a token issued before the subject's credential change.
 7. Reject a tier that does not match the subject's role.

Parameters:
  - context: context.Context
  - header: string (Authorization value)
  - use: sec.TokenUse

Returns:
  - *Principal: Caller identity
  - error: ErrMalformedAuthHeader, ErrInvalidToken, ErrTokenRevoked, ErrMalformedToken,
    ErrAccountNotFound or ErrCredentialsInvalidated
*/
func (gate *Gate) Authenticate(context context.Context, header string, use sec.TokenUse) (*Principal, error) {
	tier, token, err := sec.ParseAuthorization(header)
	if err != nil {
		return nil, ErrMalformedAuthHeader
	}

	claims, err := gate.tokens.Verify(token, tier, use)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	if claims.ID != "" {
		revoked, err := gate.revocations.IsRevoked(context, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("auth_gate_revocation_lookup_failed: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	if claims.UserID == "" {
		return nil, ErrMalformedToken
	}

	user, err := gate.users.FindByID(context, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("auth_gate_load_user_failed: %w", err)
	}

	if claims.IssuedAt == nil || user.TokensInvalidatedFor(claims.IssuedAt.Time) {
		return nil, ErrCredentialsInvalidated
	}

	// A role change after issuance moves the subject to the other key pair.
	if user.Role.Tier() != tier {
		return nil, ErrCredentialsInvalidated
	}

	return &Principal{User: user, Claims: claims, Tier: tier}, nil
}

// Require is a middleware that admits only requests carrying a valid token of use.
func (gate *Gate) Require(use sec.TokenUse) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal, err := gate.Authenticate(request.Context(), request.Header.Get(constants.HeaderAuthorization), use)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctxutil.SetActor(request.Context(), principal.User.ID, string(principal.User.Role))
			next.ServeHTTP(writer, request.WithContext(WithPrincipal(request.Context(), principal)))
		})
	}
}

// RequireRole rejects principals below role. It must run after [Gate.Require].
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := PrincipalFrom(request.Context())
			if principal == nil {
				respond.Error(writer, request, ErrMalformedAuthHeader)
				return
			}

			if !principal.User.Role.AtLeast(role) {
				respond.Error(writer, request, ErrForbidden)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
