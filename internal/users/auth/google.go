// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// # Google Identity

// GoogleIdentity is the subset of a verified Google ID token used for sign-in.
type GoogleIdentity struct {
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier validates a Google ID token and extracts the identity it asserts.
type GoogleVerifier interface {
	Verify(context context.Context, idToken string) (*GoogleIdentity, error)
}

// IDTokenVerifier validates tokens against Google's published keys.
//
// A token is accepted when its audience matches any configured web client id.
type IDTokenVerifier struct {
	audiences []string
	validate  func(context.Context, string, string) (*idtoken.Payload, error)
}

// NewIDTokenVerifier creates a verifier for the given OAuth client ids.
func NewIDTokenVerifier(audiences []string) *IDTokenVerifier {
	return &IDTokenVerifier{
		audiences: audiences,
		validate:  idtoken.Validate,
	}
}

/*
Verify checks signature, expiry and audience of idToken.

Parameters:
  - context: context.Context
  - idToken: string (Raw JWT from the client)

Returns:
  - *GoogleIdentity: Claims of the first audience that validates
  - error: ErrInvalidGoogleToken when no audience accepts the token
*/
func (verifier *IDTokenVerifier) Verify(context context.Context, idToken string) (*GoogleIdentity, error) {
	if len(verifier.audiences) == 0 {
		return nil, ErrInvalidGoogleToken.WithCause(errors.New("no google client ids configured"))
	}

	var lastErr error
	for _, audience := range verifier.audiences {
		payload, err := verifier.validate(context, idToken, audience)
		if err != nil {
			lastErr = err
			continue
		}
		return identityFromClaims(payload.Claims), nil
	}

	return nil, ErrInvalidGoogleToken.WithCause(fmt.Errorf("google_id_token_rejected: %w", lastErr))
}

// identityFromClaims reads the standard OpenID profile claims.
func identityFromClaims(claims map[string]interface{}) *GoogleIdentity {
	identity := &GoogleIdentity{}
	identity.Email, _ = claims["email"].(string)
	identity.Name, _ = claims["name"].(string)
	identity.Picture, _ = claims["picture"].(string)

	// Google has historically sent email_verified both as a bool and as a string.
	switch verified := claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = verified
	case string:
		identity.EmailVerified = verified == "true"
	}

	return identity
}
