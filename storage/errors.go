package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a plan is not found.
	ErrNotFound = errors.New("plan not found")
)
