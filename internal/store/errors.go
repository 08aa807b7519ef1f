package store

import "errors"

// Sentinel errors callers branch on with errors.Is. Per-item allocation
// failures are reported inside the result instead of being returned.
var (
	// ErrNotFound marks an invalid dealer, request, or other reference.
	// Fatal to the whole call.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock marks a line item that asked for more units
	// than are available at the source location.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidStateTransition marks an operation on a unit whose
	// status or location forbids it (already sold, already at target).
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNoUnitsToRecall is reported when a recall matches zero units.
	// Recall treats it as a zero-effect success.
	ErrNoUnitsToRecall = errors.New("no units to recall")
)
