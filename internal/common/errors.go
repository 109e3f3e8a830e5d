// Package common defines shared constants and sentinel errors used across
// the admin console. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Authentication errors surfaced to the user.
	ErrConfigMissing      = errors.New("admin configuration not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingInput       = errors.New("please enter both username and password")
	ErrLoginInProgress    = errors.New("login already in progress")

	// ErrStoreUnavailable wraps any transport or remote failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Session errors, recovered locally by forcing a logout.
	ErrDecryption     = errors.New("decryption failed")
	ErrExpiredSession = errors.New("session expired")
	ErrInvalidSession = errors.New("invalid session")

	// Player record validation.
	ErrUsernameRequired = errors.New("username is required")
)
