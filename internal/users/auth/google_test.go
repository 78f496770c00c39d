// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/secretbox/internal/users/auth"
)

/*
TestIDTokenVerifier_Rejects covers configurations and tokens that never reach Google.
*/
func TestIDTokenVerifier_Rejects(t *testing.T) {
	t.Run("no_audiences", func(t *testing.T) {
		_, err := auth.NewIDTokenVerifier(nil).Verify(context.Background(), "a.b.c")
		assert.ErrorIs(t, err, auth.ErrInvalidGoogleToken)
	})

	t.Run("malformed_token", func(t *testing.T) {
		_, err := auth.NewIDTokenVerifier([]string{"web-client.apps.googleusercontent.com"}).Verify(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidGoogleToken)
	})
}
