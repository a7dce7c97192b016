package errors

import "errors"

// Shared application errors
var (
	// ErrNotFound is returned when a record or resource does not exist,
	// or exists but is not visible to the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned for malformed input, before any store access.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts (e.g. a concurrent writer
	// won a race this operation lost).
	ErrConflict = errors.New("resource state conflict")

	// ErrAttemptRejected is the single collapsed failure class of the submit
	// path. Attempt missing, attempt owned by another user, attempt already
	// submitted, and a lost concurrent-submit race all map here so the
	// endpoint cannot be used to probe attempt existence or state.
	ErrAttemptRejected = errors.New("attempt submission rejected")
)
