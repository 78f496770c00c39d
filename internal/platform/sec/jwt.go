// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, PII encryption, JWT
// signing) from the domain logic. It acts as an Infrastructure service injected
// into the Application layer via small interfaces.
//
// # Key Tiers
//
// Tokens are signed with one of four HMAC keys: one per (tier, use) pair. The
// tier is chosen by the role of the subject at issuance time and announced by
// the client as the authorization scheme when the token is presented.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers bad signatures, wrong keys, expiry and malformed JWTs.
	ErrInvalidToken = errors.New("sec: invalid token")

	// ErrMalformedAuthHeader is returned when "<tier> <token>" cannot be parsed.
	ErrMalformedAuthHeader = errors.New("sec: malformed authorization header")
)

// TokenClaims represents the payload embedded inside every signed token.
//
// The subject id travels as "id"; the jti, issued-at and expiry live in the
// registered claims.
type TokenClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"id"`
}

// Keyring holds the raw key material of both tiers.
type Keyring struct {
	BearerAccess  []byte
	BearerRefresh []byte
	SystemAccess  []byte
	SystemRefresh []byte
}

// TokenService signs and verifies tokens using HS256 and a [Keyring].
type TokenService struct {
	keys   map[Tier]map[TokenUse][]byte
	issuer string
	now    func() time.Time
}

// TokenOption customizes a [TokenService].
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issued-at and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a new TokenService.
// Every key must be non-empty; distinct keys are enforced by the config layer.
func NewTokenService(keyring Keyring, issuer string, opts ...TokenOption) (*TokenService, error) {
	for name, key := range map[string][]byte{
		"bearer access":  keyring.BearerAccess,
		"bearer refresh": keyring.BearerRefresh,
		"system access":  keyring.SystemAccess,
		"system refresh": keyring.SystemRefresh,
	} {
		if len(key) == 0 {
			return nil, fmt.Errorf("sec: %s key is empty", name)
		}
	}

	service := &TokenService{
		keys: map[Tier]map[TokenUse][]byte{
			TierBearer: {UseAccess: keyring.BearerAccess, UseRefresh: keyring.BearerRefresh},
			TierSystem: {UseAccess: keyring.SystemAccess, UseRefresh: keyring.SystemRefresh},
		},
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue signs a token for subjectID carrying jti, valid for timeToLive.
func (service *TokenService) Issue(subjectID, jti string, tier Tier, use TokenUse, timeToLive time.Duration) (string, error) {
	key, err := service.key(tier, use)
	if err != nil {
		return "", err
	}

	currentTime := service.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: subjectID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of tokenString against the key of
// (tier, use). It does not consult the revocation store.
func (service *TokenService) Verify(tokenString string, tier Tier, use TokenUse) (*TokenClaims, error) {
	key, err := service.key(tier, use)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// key resolves the signing key of (tier, use).
func (service *TokenService) key(tier Tier, use TokenUse) ([]byte, error) {
	byUse, ok := service.keys[tier]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidToken, tier)
	}
	key, ok := byUse[use]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token use %q", ErrInvalidToken, use)
	}
	return key, nil
}

// ParseAuthorization splits a presented "<tier> <token>" header value.
func ParseAuthorization(header string) (Tier, string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || scheme == "" || token == "" || strings.ContainsRune(token, ' ') {
		return "", "", ErrMalformedAuthHeader
	}

	tier, ok := ParseTier(scheme)
	if !ok {
		return "", "", ErrMalformedAuthHeader
	}

	return tier, token, nil
}
