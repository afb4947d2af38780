package training

import "errors"

var (
	// ErrInvalidInput marks a reading outside its valid range.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownActivity marks a packet code outside the dispatch table.
	ErrUnknownActivity = errors.New("unrecognized activity type")
	// ErrMalformedInput marks a packet whose fields do not fit its code.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNotImplemented is returned by the base session's calorie formula.
	ErrNotImplemented = errors.New("not implemented")
)
