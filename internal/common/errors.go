// Package common defines shared sentinel errors and small error types used
// across the VaultScribe auth core. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("email already registered")

	// Sign-in flow errors. ErrInvalidCredentials deliberately covers both
	// unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTOTPNotConfigured  = errors.New("second factor not configured")

	// Second-factor errors.
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many failed attempts")

	// Enrollment / challenge handle lifecycle errors.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExpired   = errors.New("challenge expired")

	// Session lifecycle errors.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Input validation errors.
	ErrInvalidEmail = errors.New("invalid email format")
)

// ValidationError reports input rejected before any state change. Violations
// holds one human-readable message per broken rule.
type ValidationError struct {
	Field      string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.Violations, "; "))
}

// PersistenceError wraps a failed store write so the cause is never silently
// swallowed. Op names the logical operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SchemaError reports a failed schema migration. It is fatal: callers must
// not proceed into auth flows after receiving one.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema migration failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
