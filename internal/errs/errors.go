// Package errs holds the sentinel errors shared across the service and API
// layers.
package errs

import "errors"

var (
	// ErrNotFound is returned for an unknown page or project identity.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a caller touches another owner's
	// project.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition is returned when an operation is illegal in the
	// page's current state, e.g. retrying a completed page.
	ErrInvalidTransition = errors.New("invalid status transition")
)
