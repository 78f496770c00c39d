// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"
	"time"

	"github.com/taibuivan/secretbox/internal/platform/sec"
)

// OTPEngine issues, throttles and verifies one-time codes.
//
// # State Machine
//
//	NoOTP -> Active(expiry, count) -> Verified | Expired | Blocked(until)
//
// The engine only mutates the [OTPState] it is handed; persisting it is the
// caller's job. Codes are stored as bcrypt hashes and never in plain text.
type OTPEngine struct {
	hasher   *sec.Hasher
	now      func() time.Time
	generate func() (string, error)
}

// NewOTPEngine creates a new OTPEngine.
func NewOTPEngine(hasher *sec.Hasher, now func() time.Time) *OTPEngine {
	return &OTPEngine{
		hasher: hasher,
		now:    now,
		generate: func() (string, error) {
			return sec.GenerateNumericCode(sec.OTPDigits)
		},
	}
}

/*
Issue starts a fresh OTP session and returns the plain code to deliver.

Description: Overwrites any outstanding code, resets the resend counter and
clears a block.

Parameters:
  - state: *OTPState (mutated in place)
  - policy: OTPPolicy

Returns:
  - string: The plain 6-digit code
  - error: Generation or hashing failures
*/
func (engine *OTPEngine) Issue(state *OTPState, policy OTPPolicy) (string, error) {
	code, err := engine.reissue(state, policy)
	if err != nil {
		return "", err
	}
	state.Count = 0
	state.BlockedUntil = nil
	return code, nil
}

/*
Resend replaces the outstanding code, enforcing the resend throttle.

Description:
  - A block still in the future fails with [ErrCoolDown] and leaves state untouched.
  - An elapsed block resets the counter and clears the block.
  - Once the counter reaches policy.MaxResends a block of policy.BlockFor is set
    and [ErrTooManyResends] is returned. The state has changed and must be persisted.
  - Otherwise a new code is issued and the counter incremented.

Parameters:
  - state: *OTPState (mutated in place)
  - policy: OTPPolicy

Returns:
  - string: The plain code on success
  - error: ErrCoolDown, ErrTooManyResends or generation failures
*/
func (engine *OTPEngine) Resend(state *OTPState, policy OTPPolicy) (string, error) {
	currentTime := engine.now()

	if state.BlockedUntil != nil {
		if state.BlockedUntil.After(currentTime) {
			return "", ErrCoolDown
		}
		state.Count = 0
		state.BlockedUntil = nil
	}

	if policy.MaxResends > 0 && state.Count >= policy.MaxResends {
		blockedUntil := currentTime.Add(policy.BlockFor)
		state.BlockedUntil = &blockedUntil
		return "", ErrTooManyResends
	}

	code, err := engine.reissue(state, policy)
	if err != nil {
		return "", err
	}
	state.Count++
	return code, nil
}

/*
Verify checks code against state without mutating it.

Returns:
  - error: ErrOTPExpired if past expiry, ErrInvalidOTP on mismatch or when no code is outstanding
*/
func (engine *OTPEngine) Verify(state OTPState, code string) error {
	if !state.Active() {
		return ErrInvalidOTP
	}

	if state.ExpiresAt != nil && state.ExpiresAt.Before(engine.now()) {
		return ErrOTPExpired
	}

	if !engine.hasher.Verify(code, state.Hash) {
		return ErrInvalidOTP
	}

	return nil
}

// reissue draws a new code and stores its hash and expiry.
func (engine *OTPEngine) reissue(state *OTPState, policy OTPPolicy) (string, error) {
	code, err := engine.generate()
	if err != nil {
		return "", fmt.Errorf("auth_otp_generate_failed: %w", err)
	}

	hash, err := engine.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("auth_otp_hash_failed: %w", err)
	}

	expiresAt := engine.now().Add(policy.TTL)
	state.Hash = hash
	state.ExpiresAt = &expiresAt
	return code, nil
}
