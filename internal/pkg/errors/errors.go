package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden marks an action the acting user may not perform.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a lost optimistic update or a duplicate row.
	ErrConflict = errors.New("conflict")
)
