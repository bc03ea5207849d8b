package docstore

import "errors"

var (
	// ErrStorage wraps every failure reported by a backend.
	ErrStorage = errors.New("storage error")

	// ErrInvalidField is returned when a field name cannot be used in a filter or index.
	ErrInvalidField = errors.New("invalid field name")

	// ErrFieldType is returned when a stored value has an unexpected type.
	ErrFieldType = errors.New("unexpected field type")
)
