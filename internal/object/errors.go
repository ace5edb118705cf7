package object

import "errors"

var (
	// ErrUnknownField is returned when an attribute path's head token does
	// not name a field on the object's type.
	ErrUnknownField = errors.New("object: unknown field")

	// ErrInvalidArgument is returned when ModifyAttribute walks through an
	// intermediate path segment that already holds a non-mapping value.
	ErrInvalidArgument = errors.New("object: invalid argument")

	// ErrValidationFailed wraps a Validator rejection.
	ErrValidationFailed = errors.New("object: validation failed")

	// ErrAlreadyActive is the precondition violation for Activate.
	ErrAlreadyActive = errors.New("object: already active")
)
