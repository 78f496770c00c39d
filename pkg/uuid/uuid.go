// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the identifier generators used across SecretBox.

  - New: Version 7, time-ordered. Used for primary keys so B-tree inserts stay
    append-mostly in PostgreSQL.
  - Random: Version 4. Used for token identifiers (jti) and request ids, where
    ordering must not leak issuance time.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Entropy failure is an unrecoverable system-level error
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate v7: " + err.Error())
	}

	return id.String()
}

// Random generates a new UUIDv4 string.
func Random() string {
	return uuid.NewString()
}

// Valid reports whether value parses as a UUID of any version.
func Valid(value string) bool {
	return uuid.Validate(value) == nil
}
