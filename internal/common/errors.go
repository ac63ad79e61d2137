// Package common defines the sentinel errors shared across pastecove
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Coordinator-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrEditConflict = errors.New("edit conflict")

	// Transient failures of the relational or object store. Operations that
	// surface this error have already rolled back any partial writes and are
	// safe to retry from the caller's side.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Identifier/token minting failed because the randomness source is
	// unavailable. Raised before any store write.
	ErrEntropyUnavailable = errors.New("entropy unavailable")

	// Admission denied by the rate limiter.
	ErrRateLimited = errors.New("rate limited")
)
