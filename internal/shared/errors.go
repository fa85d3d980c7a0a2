package shared

import "errors"

var (
	// ErrUnauthorized indicates missing or unusable credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a failed permission check or a protected-entity mutation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput indicates a malformed payload or an unresolved reference.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariant indicates a mutation that would break a system safety
	// property, such as leaving zero enabled administrators.
	ErrInvariant = errors.New("invariant violation")
)
