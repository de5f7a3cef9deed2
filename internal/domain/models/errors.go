package models

import "errors"

var (
	// ErrStoreCorrupt indicates the persisted inventory file could not be decoded.
	ErrStoreCorrupt = errors.New("inventory store is corrupt")

	// ErrValidation indicates a record failed input validation.
	ErrValidation = errors.New("validation failed")

	// ErrIndexOutOfRange indicates a positional mutation targeted a missing row.
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrNotFound indicates no row carries the requested id.
	ErrNotFound = errors.New("product not found")

	// ErrUnauthorized indicates a mutation was attempted without an admin session.
	ErrUnauthorized = errors.New("admin session required")

	// ErrAuth indicates the supplied credentials were rejected.
	ErrAuth = errors.New("invalid credentials")

	// ErrConflict indicates the store changed since the table was loaded.
	ErrConflict = errors.New("inventory was modified concurrently")
)
