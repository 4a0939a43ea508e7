package courier

import (
	"encoding/json"
	"errors"
	"net/http"
)

// RawResponse is what a Transport hands back: the status code, headers, and
// the response body bytes, whether or not the call succeeded.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OutcomeKind tags the variant populated in an Outcome.
type OutcomeKind uint8

const (
	// OutcomeInvalid is the zero value. A well-formed outcome never carries
	// it; matching on an invalid outcome degrades to ErrInvalidOutcome.
	OutcomeInvalid OutcomeKind = iota
	OutcomeSuccess
	OutcomeBackendError
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeBackendError:
		return "backend_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "invalid"
	}
}

// Outcome is the classified result of one API call. Exactly one variant is
// populated, selected by Kind.
type Outcome[T, E any] struct {
	Kind      OutcomeKind
	Value     T     // set when Kind == OutcomeSuccess
	Backend   E     // set when Kind == OutcomeBackendError
	Status    int   // HTTP status for backend errors, when known
	Transport error // set when Kind == OutcomeTransportError
}

// Classify turns a raw response body and the transport's outcome into exactly
// one of success, backend error, or transport error.
//
// When the transport reports a failure, the body (if any) is decoded as the
// backend error shape E; a successful decode recovers the structured payload
// the server put in the failure response. When no payload can be recovered,
// the original transport error is preserved unmodified. Classification itself
// never fails.
//
// The success path is not re-decoded here: value is whatever the transport
// layer already produced for the declared success shape.
func Classify[T, E any](body []byte, value T, transportErr error) Outcome[T, E] {
	if transportErr == nil {
		return Outcome[T, E]{Kind: OutcomeSuccess, Value: value}
	}

	if len(body) > 0 {
		var payload E
		if err := json.Unmarshal(body, &payload); err == nil {
			return Outcome[T, E]{
				Kind:    OutcomeBackendError,
				Backend: payload,
				Status:  statusOf(transportErr),
			}
		}
	}

	return Outcome[T, E]{Kind: OutcomeTransportError, Transport: transportErr}
}

func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Err resolves the outcome to Go's standard error-signaling mechanism: nil
// for success, *BackendError[E] for a decoded backend payload, and the
// original transport error, verbatim, for transport failures.
func (o Outcome[T, E]) Err() error {
	switch o.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeBackendError:
		return &BackendError[E]{StatusCode: o.Status, Payload: o.Backend}
	case OutcomeTransportError:
		if o.Transport == nil {
			return ErrInvalidOutcome
		}
		return o.Transport
	default:
		return ErrInvalidOutcome
	}
}

// Match dispatches exhaustively over the outcome variants. The impossible
// zero-value case routes to onTransport with ErrInvalidOutcome rather than
// crashing. Nil handlers are skipped.
func (o Outcome[T, E]) Match(onSuccess func(T), onBackend func(*BackendError[E]), onTransport func(error)) {
	switch o.Kind {
	case OutcomeSuccess:
		if onSuccess != nil {
			onSuccess(o.Value)
		}
	case OutcomeBackendError:
		if onBackend != nil {
			onBackend(&BackendError[E]{StatusCode: o.Status, Payload: o.Backend})
		}
	default:
		if onTransport != nil {
			onTransport(o.Err())
		}
	}
}
