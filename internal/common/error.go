// Package common defines shared constants and sentinel errors used across
// lockbox components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Directory errors.
	ErrValidation         = errors.New("validation error")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrLocked       = errors.New("vault locked")

	// Vault errors (wrong master secret, or a tampered/corrupted record).
	ErrDecryptionFailed = errors.New("decryption failed")
)
