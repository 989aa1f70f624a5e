package entities

import "errors"

// Sentinel errors distinguishing caller mistakes from missing records.
// Anything else bubbling up from an adapter is an upstream failure and is
// wrapped with context at the call site.
var (
	// ErrNotFound indicates a lookup by id matched no record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed or missing request parameter.
	ErrInvalidArgument = errors.New("invalid argument")
)
