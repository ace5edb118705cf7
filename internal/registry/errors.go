package registry

import "errors"

var (
	// ErrUnknownType is returned when a type name has no registered descriptor.
	ErrUnknownType = errors.New("registry: unknown type")

	// ErrDuplicateType is returned by RegisterType for an already-registered name.
	ErrDuplicateType = errors.New("registry: type already registered")

	// ErrDuplicateObject is returned when an object's fully-qualified name
	// already exists in its type's instance index.
	ErrDuplicateObject = errors.New("registry: object already registered")

	// ErrUnknownObject is returned by Lookup/Unregister for a name with no
	// matching object.
	ErrUnknownObject = errors.New("registry: unknown object")
)
