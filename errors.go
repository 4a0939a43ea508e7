package courier

import (
	"errors"
	"fmt"
)

// StatusError reports a response whose status code the transport treated as
// a failure (anything outside 2xx). The response body, if any, stays on the
// RawResponse so the classifier can try to recover a backend error payload.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}

// BackendError carries a structured error payload the server returned in the
// response body, decoded into the caller-declared shape E. Callers should
// show the server-authored message; transport failures carry no payload and
// warrant a generic connectivity message instead.
type BackendError[E any] struct {
	StatusCode int
	Payload    E
}

func (e *BackendError[E]) Error() string {
	return fmt.Sprintf("backend error (status %d): %+v", e.StatusCode, e.Payload)
}

// AsBackendError extracts a *BackendError[E] from err, if present.
func AsBackendError[E any](err error) (*BackendError[E], bool) {
	var be *BackendError[E]
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsStatusError checks if the error is a failure-status transport error.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// ErrInvalidOutcome is returned when an outcome carries neither a value nor
// an error. Classify never produces it; it guards against delivering a
// zero-value Outcome.
var ErrInvalidOutcome = errors.New("invalid outcome: no value and no error")

// ErrDispatcherClosed is returned for calls issued through a dispatcher that
// has been closed.
var ErrDispatcherClosed = errors.New("dispatcher is closed")
