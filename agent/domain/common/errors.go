package common

import (
	"errors"
	"fmt"
)

var (
	// ErrPostNotFound is returned by the repository for unknown post ids.
	ErrPostNotFound = errors.New("scheduled post not found")

	// ErrAuth means the platform rejected our credentials. It is fatal to the
	// whole process, not to a single post: the dispatch loop stops instead of
	// spinning on a call guaranteed to fail.
	ErrAuth = errors.New("platform authentication failed")

	// ErrDailyQuotaReached and ErrReplyQuotaReached are normal early exits,
	// not failures.
	ErrDailyQuotaReached = errors.New("daily post quota reached")
	ErrReplyQuotaReached = errors.New("per-user reply quota reached")

	// ErrDuplicateEvent marks an inbound event id already processed.
	ErrDuplicateEvent = errors.New("inbound event already processed")
)

// TransientError wraps provider/platform hiccups worth retrying with backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError wraps failures that must never be retried, e.g. the platform
// rejecting the text itself.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return "fatal: " + e.Reason
	}
	return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
}
func (e *FatalError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Fatal(reason string, err error) error {
	return &FatalError{Reason: reason, Err: err}
}

// IsTransient reports whether err should go through the retry/backoff path.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err must mark the item failed without retry.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
