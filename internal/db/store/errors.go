package store

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoRowsUpdated is returned when an update that must affect exactly
	// one row affected none. This indicates the row vanished mid-operation
	// and is treated as an internal error by callers.
	ErrNoRowsUpdated = errors.New("update affected no rows")
)
