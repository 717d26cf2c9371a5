package uploads

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEventNotFound is returned when the target event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrGuestNotFound is returned when the uploading guest does not exist.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrGuestNotInEvent is returned when the guest exists but is registered
	// to a different event.
	ErrGuestNotInEvent = errors.New("guest does not belong to this event")
)

// WindowClosedError rejects a whole batch because the event's upload window
// is not open at the time of the request.
type WindowClosedError struct {
	From  time.Time
	Until time.Time
}

func (e *WindowClosedError) Error() string {
	if e.Until.IsZero() {
		return "upload window is closed"
	}
	return fmt.Sprintf("upload window is closed (open %s to %s)",
		e.From.Format(time.RFC3339), e.Until.Format(time.RFC3339))
}

// QuotaExceededError rejects a whole batch that is larger than the per-batch
// image limit.
type QuotaExceededError struct {
	Limit int
	Got   int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("batch of %d images exceeds the limit of %d per upload", e.Got, e.Limit)
}

// StorageError marks a blob store write failure. It aborts the remainder of
// the batch; files committed before it stay committed.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage write failed for key %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
