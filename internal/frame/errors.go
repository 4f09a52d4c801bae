package frame

import "errors"

// Frame errors.
var (
	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnknownOperator is returned for a filter operator outside the
	// closed set.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnknownAggregate is returned for an unsupported aggregate
	// function name.
	ErrUnknownAggregate = errors.New("unknown aggregate function")

	// ErrInvalidJoin is returned for bad join arguments (key mismatch,
	// unknown join type, missing keys).
	ErrInvalidJoin = errors.New("invalid join")
)
