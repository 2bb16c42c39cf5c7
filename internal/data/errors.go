package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrProfileNotFound is returned when no profile exists for a subject.
	ErrProfileNotFound = errors.New("profile not found")
)
