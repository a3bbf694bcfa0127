// Package domain defines the hydration entities, their storage contracts and the error taxonomy
// shared by every service.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input rejected before any mutation took place.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned by storage when a uniqueness constraint is violated.
	ErrConflict = errors.New("conflict")
)

// NotFound builds an ErrNotFound for the named resource.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s with id %s %w", resource, id, ErrNotFound)
}

// Invalid builds an ErrValidation carrying a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict builds an ErrConflict carrying a human readable reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
