// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformedCiphertext is returned by [Cipher.Decrypt] for input it did not produce.
var ErrMalformedCiphertext = errors.New("sec: malformed ciphertext")

// keySalt is a fixed domain separator for deriving the PII key from its passphrase.
var keySalt = []byte("secretbox/pii/v1")

// Cipher is the symmetric, reversible transform used for PII such as phone numbers.
//
// Passwords and OTP codes must never use this path; see [Hasher].
//
// # Format
//
// The output is base64(nonce || XChaCha20-Poly1305 ciphertext). A fresh random
// nonce is drawn per call, so encrypting the same value twice differs.
type Cipher struct {
	key []byte
}

// NewCipher derives a 256-bit key from passphrase with Argon2id.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("sec: encryption passphrase is empty")
	}
	key := argon2.IDKey([]byte(passphrase), keySalt, 1, 64*1024, 4, chacha20poly1305.KeySize)
	return &Cipher{key: key}, nil
}

// Encrypt seals plainText and returns a printable ciphertext.
func (c *Cipher) Encrypt(plainText string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plainText)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sec: failed to draw nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by [Cipher.Encrypt].
func (c *Cipher) Decrypt(cipherText string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("sec: failed to init cipher: %w", err)
	}

	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	return string(plain), nil
}
