package graph

import "errors"

var (
	// ErrInvalidOperation covers self-targeting and malformed user ids.
	ErrInvalidOperation = errors.New("invalid relation operation")
	// ErrNotFound means the target uid has no profile record.
	ErrNotFound = errors.New("user not found")
	// ErrStoreUnavailable means the submission could not be delivered.
	// Retrying the same operation is safe: every write-set fully
	// re-expresses the target state of the paths it touches.
	ErrStoreUnavailable = errors.New("relation store unavailable")
	// ErrPermissionDenied means a standing block forbids the operation.
	ErrPermissionDenied = errors.New("permission denied")
)
