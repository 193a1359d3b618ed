// internal/importer/errors.go
package importer

import "errors"

var (
	// ErrInvalidEntry indicates an entry is missing or has malformed fields.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrUnknownFormat indicates an export or import format that is not supported.
	ErrUnknownFormat = errors.New("unknown format")
)
