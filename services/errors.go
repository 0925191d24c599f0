package services

import "errors"

// ErrNotFound reports that the referenced post, comment or notification does
// not exist.
var ErrNotFound = errors.New("resource not found")

// ErrConflict reports that an atomic toggle lost a race with a concurrent
// request for the same tuple. The toggle is idempotent by construction, so a
// single retry is safe.
var ErrConflict = errors.New("concurrent update conflict")

// ValidationError rejects malformed input with the specific reason. It is
// never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// PermissionDeniedError rejects a mutating action from an actor who is not
// allowed to perform it (banned, or not the owner).
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return "permission denied: " + e.Reason
}
