// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Handlers run the chain right after decoding the body, so the service layer
// only ever sees semantically valid input.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taibuivan/secretbox/internal/platform/apperr"
)

var (
	// userNameRegex matches "First Last", 2-20 ASCII letters each.
	userNameRegex = regexp.MustCompile(`^[a-zA-Z]{2,20}\s[a-zA-Z]{2,20}$`)
	// nameRegex matches a capitalized single name of 3-20 letters.
	nameRegex = regexp.MustCompile(`^[A-Z][a-z]{2,19}$`)
	// phoneRegex matches an Egyptian mobile number with optional country prefix.
	phoneRegex = regexp.MustCompile(`^(002|\+20)?01[0125][0-9]{8}$`)
	// otpRegex matches a 6-digit one-time code.
	otpRegex = regexp.MustCompile(`^\d{6}$`)
	// uuidRegex matches a UUIDv4 or UUIDv7 string.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Pattern fails if the value does not match re.
func (v *Validator) Pattern(field, value string, re *regexp.Regexp, message string) *Validator {
	if !re.MatchString(value) {
		v.add(field, message)
	}
	return v
}

// UserName fails unless the value is two space-separated words of 2-20 letters.
func (v *Validator) UserName(field, value string) *Validator {
	return v.Pattern(field, value, userNameRegex, "Must be a first and last name of 2-20 letters each")
}

// Name fails unless the value is a capitalized word of 3-20 letters.
func (v *Validator) Name(field, value string) *Validator {
	return v.Pattern(field, value, nameRegex, "Must start with a capital letter and contain 3 to 20 letters")
}

// Phone fails if the value is not a valid mobile number.
func (v *Validator) Phone(field, value string) *Validator {
	return v.Pattern(field, value, phoneRegex, "Must be a valid mobile number")
}

// OTP fails if the value is not a 6-digit code.
func (v *Validator) OTP(field, value string) *Validator {
	return v.Pattern(field, value, otpRegex, "Must be a 6-digit code")
}

// Password fails unless the value is 8-16 characters long and contains a
// lowercase letter, an uppercase letter, a digit and one of "!@#$%^&*".
func (v *Validator) Password(field, value string) *Validator {
	var lower, upper, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("!@#$%^&*", r):
			special = true
		}
	}

	length := utf8.RuneCountInString(value)
	if length < 8 || length > 16 || !lower || !upper || !digit || !special {
		v.add(field, "Must be 8-16 characters with upper and lower case letters, a digit and one of !@#$%^&*")
	}
	return v
}

// Equal fails if value differs from other.
func (v *Validator) Equal(field, value, other, message string) *Validator {
	if value != other {
		v.add(field, message)
	}
	return v
}

// NotEqual fails if value equals other.
func (v *Validator) NotEqual(field, value, other, message string) *Validator {
	if value == other {
		v.add(field, message)
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	lower := strings.ToLower(value)
	if !uuidRegex.MatchString(lower) {
		v.add(field, "Must be a valid UUID")
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom adds a failure with a custom message if the condition is true.
//
// # Example
//
//	v.Custom ("score", score < 1 || score > 10, "Must be between 1 and 10")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method; call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// add appends a [apperr.FieldError] to the internal slice.
func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// RequiredError is a shortcut to create a single-field validation error.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
