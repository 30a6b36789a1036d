package models

import "errors"

// Domain errors returned by the stores and services. Callers discriminate
// with errors.Is; each one maps to a distinct operator-visible outcome.
var (
	// ErrNotFound - the id does not resolve in the targeted store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition - the requested status is not the immediate
	// successor of the current one, or another request got there first.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState - conversion attempted on a listing that is not
	// approved (including one that is already converted).
	ErrInvalidState = errors.New("invalid listing state")

	// ErrValidation - malformed input, e.g. min_price above max_price or
	// unrecognized source vocabulary at conversion time.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable - the backing store failed. The only class a
	// caller may reasonably retry; the core itself never does.
	ErrStoreUnavailable = errors.New("store unavailable")
)
