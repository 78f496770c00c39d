// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces one-way adaptive hashes for passwords and OTP codes.
//
// Neither passwords nor OTP codes are ever stored in plain text; both go through
// the same bcrypt cost factor.
type Hasher struct {
	cost int
}

// NewHasher creates a [Hasher] using the given bcrypt cost.
// Out-of-range costs fall back to [bcrypt.DefaultCost].
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes a plain-text secret using the bcrypt algorithm.
func (hasher *Hasher) Hash(plainText string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainText), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text secret with its hashed version.
func (hasher *Hasher) Verify(plainText, existingHash string) bool {
	if existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainText))
	return err == nil
}
