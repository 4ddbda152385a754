// Package common defines shared sentinel errors used across Keyfold
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Registration conflicts. Safe to surface to the caller as-is: the
	// caller already attested the email/username it tried to register.
	ErrExistingEmail = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials covers every login failure cause: unknown email,
	// inactive account, wrong password. The causes are indistinguishable
	// from the outside.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode covers every recovery failure cause: unknown email,
	// no outstanding code, expired code, wrong code.
	ErrInvalidCode = errors.New("invalid reset code")

	// Session token errors.
	ErrTokenInvalid   = errors.New("invalid token")
	ErrSubjectMissing = errors.New("token subject missing")
)
