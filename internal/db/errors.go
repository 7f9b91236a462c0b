package db

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a concurrent structural change invalidated
	// the write (transaction aborted, document already exists, stale parent).
	ErrConflict = errors.New("conflicting concurrent write")
)
