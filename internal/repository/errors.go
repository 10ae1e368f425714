package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a guarded update lost to a concurrent writer.
	ErrConflict = errors.New("repository: conflict")
)
