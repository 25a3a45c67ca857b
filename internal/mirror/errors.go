package mirror

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that the requested record does not exist, either at the
// source (a clean not-found response) or in the local store. It is a terminal,
// expected outcome, not a failure.
var ErrNotFound = errors.New("record not found")

// ErrEmpty signals that the store holds no records yet.
var ErrEmpty = errors.New("store is empty")

// TransientCause classifies a retryable failure.
type TransientCause string

// Transient failure causes.
const (
	CauseNetwork   TransientCause = "network"
	CauseMalformed TransientCause = "malformed-response"
)

// TransientError wraps a failure expected to be retry-recoverable: timeouts,
// connection resets, 5xx responses, or page shapes the extractor cannot parse
// (usually site-template drift rather than a permanent absence of the id).
type TransientError struct {
	Cause TransientCause
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s error: %v", e.Cause, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// StorageError tags any store failure with enough context (operation, id) to
// resume manually. It is fatal to the current job and never silently swallowed.
type StorageError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("storage %s failed for id %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
