// Package app provides application services that orchestrate domain logic.
package app

import "errors"

// Sentinel errors returned across the app boundary. The HTTP layer maps
// these onto status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries a machine-readable reason for a rejected input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validation wraps a domain validation reason into an error.
func Validation(reason string) error {
	return ValidationError{Reason: reason}
}
