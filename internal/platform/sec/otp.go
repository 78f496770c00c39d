// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of every one-time code.
const OTPDigits = 6

// GenerateNumericCode returns a uniformly random decimal string of n digits.
// Leading zeros are kept, so "004821" is a valid 6-digit code.
func GenerateNumericCode(n int) (string, error) {
	code := make([]byte, n)
	ten := big.NewInt(10)
	for i := range code {
		digit, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("sec: failed to draw otp digit: %w", err)
		}
		code[i] = byte('0' + digit.Int64())
	}
	return string(code), nil
}
