package store

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("canopy: record not found")

	// ErrConflict is returned when a uniqueness or version condition failed
	// (duplicate slug, duplicate tenant id, stale version).
	ErrConflict = errors.New("canopy: conflict")

	// ErrInvalidInput is returned for malformed or missing required input.
	// Operations reject input before any store access happens.
	ErrInvalidInput = errors.New("canopy: invalid input")

	// ErrUnavailable is returned when the underlying store failed for reasons
	// unrelated to application invariants. Every multi-item write is an
	// all-or-nothing transaction, so the whole operation is safe to retry.
	ErrUnavailable = errors.New("canopy: store unavailable")
)
