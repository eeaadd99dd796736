package model

import "errors"

// Sentinel errors shared across the domain. Adapters and services wrap these
// with fmt.Errorf("...: %w", err) so callers can classify with errors.Is.
var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the caller. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when caller input is malformed or a required
	// field is missing. No side effect has occurred when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// e.g. registering an email that is already taken.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned on failed authentication: wrong
	// credentials, an inactive account, or a bad access token. The message
	// never says which.
	ErrUnauthorized = errors.New("unauthorized")
)
