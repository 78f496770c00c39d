// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/secretbox/internal/platform/sec"
)

/*
TestHasher_HashAndVerify checks that hashes are salted and verifiable.
*/
func TestHasher_HashAndVerify(t *testing.T) {
	hasher := sec.NewHasher(4)

	first, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	second, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)

	// 1. Same input, different output
	assert.NotEqual(t, first, second)

	// 2. Both verify
	assert.True(t, hasher.Verify("Passw0rd!", first))
	assert.True(t, hasher.Verify("Passw0rd!", second))

	// 3. Wrong secret and empty hash fail
	assert.False(t, hasher.Verify("passw0rd!", first))
	assert.False(t, hasher.Verify("Passw0rd!", ""))
}

/*
TestCipher_RoundTrip checks PII encryption is reversible and nonce-randomized.
*/
func TestCipher_RoundTrip(t *testing.T) {
	cipher, err := sec.NewCipher("unit-test-passphrase")
	require.NoError(t, err)

	first, err := cipher.Encrypt("01012345678")
	require.NoError(t, err)
	second, err := cipher.Encrypt("01012345678")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	plain, err := cipher.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, "01012345678", plain)
}

/*
TestCipher_Decrypt_Rejects covers tampered and foreign ciphertexts.
*/
func TestCipher_Decrypt_Rejects(t *testing.T) {
	cipher, err := sec.NewCipher("unit-test-passphrase")
	require.NoError(t, err)
	other, err := sec.NewCipher("another-passphrase")
	require.NoError(t, err)

	sealed, err := cipher.Encrypt("01012345678")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		using *sec.Cipher
	}{
		{"not_base64", "%%%", cipher},
		{"too_short", "AAAA", cipher},
		{"wrong_key", sealed, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.using.Decrypt(tt.input)
			assert.ErrorIs(t, err, sec.ErrMalformedCiphertext)
		})
	}

	_, err = sec.NewCipher("")
	assert.Error(t, err)
}

/*
TestGenerateNumericCode checks length and alphabet of OTP codes.
*/
func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := sec.GenerateNumericCode(sec.OTPDigits)
		require.NoError(t, err)
		assert.Len(t, code, sec.OTPDigits)
		assert.Empty(t, strings.Trim(code, "0123456789"))
	}
}

/*
TestUserRole_Tier checks the role to signing tier mapping.
*/
func TestUserRole_Tier(t *testing.T) {
	assert.Equal(t, sec.TierBearer, sec.RoleUser.Tier())
	assert.Equal(t, sec.TierSystem, sec.RoleAdmin.Tier())
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleUser))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("root").Valid())
}
