package registry

import "errors"

var (
	// ErrUnknownTable indicates a table ID not present in the registry.
	ErrUnknownTable = errors.New("unknown table")

	// ErrNoActiveTable indicates an operation that needs an active table
	// while none is loaded.
	ErrNoActiveTable = errors.New("no active table")

	// ErrReadOnlyTable indicates a write against a table without a
	// backing workbook, such as an in-memory join result.
	ErrReadOnlyTable = errors.New("table is read-only")
)
