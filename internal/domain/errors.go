package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is the root of the validation error category. Every
	// entity validation sentinel wraps it, so errors.Is(err, ErrValidation)
	// matches any of them.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")
)
