package domain

import "errors"

var (
	ErrNotFound     = errors.New("store: not found")
	ErrUnauthorized = errors.New("store: unauthorized")
	ErrForbidden    = errors.New("store: forbidden")
	// ErrConflict signals a store-side uniqueness violation on insert.
	// The ingest path counts it as a duplicate skip, not a failure.
	ErrConflict = errors.New("store: conflict")
)
