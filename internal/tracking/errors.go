package tracking

import "errors"

var (
	// ErrMetadataUnavailable wraps a failed provider lookup. The operation
	// that needed the metadata wrote nothing.
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	// ErrValidation is returned for input that cannot be clamped into range:
	// an unknown status, a score outside [0,10], or an operation applied to
	// the wrong kind of record.
	ErrValidation = errors.New("validation failed")
)
