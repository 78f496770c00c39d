// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access; tokens are signed with the System tier.
	RoleAdmin UserRole = "admin"

	// Default role for standard registered users.
	RoleUser UserRole = "user"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// Tier returns the signing tier used for tokens of a subject with this role.
//
// Anything other than a plain user is elevated, so a compromised Bearer key can
// never mint a token that verifies as System.
func (r UserRole) Tier() Tier {
	if r == RoleUser {
		return TierBearer
	}
	return TierSystem
}

// # Signing Tiers

// Tier selects a signing-key pair. Its label doubles as the authorization scheme
// presented by clients ("Bearer <token>" / "System <token>").
type Tier string

const (
	TierBearer Tier = "Bearer"
	TierSystem Tier = "System"
)

// ParseTier resolves a presented scheme label, case-insensitively.
func ParseTier(label string) (Tier, bool) {
	switch {
	case strings.EqualFold(label, string(TierBearer)):
		return TierBearer, true
	case strings.EqualFold(label, string(TierSystem)):
		return TierSystem, true
	default:
		return "", false
	}
}

// # Token Uses

// TokenUse distinguishes access from refresh tokens; each has its own key per tier.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)
