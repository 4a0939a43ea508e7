package courier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Dispatcher issues transport calls and delivers classified outcomes. It owns
// a pending-call registry for the non-blocking calling conventions and a
// single delivery goroutine, so every callback runs on one consistent
// goroutine regardless of which worker completed the call.
//
// The registry is owned exclusively by the dispatcher; CancelAll is the only
// way to mutate it from the outside.
type Dispatcher struct {
	transport   Transport
	pending     *registry
	completions chan func()
	done        chan struct{}
	closeOnce   sync.Once
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) DispatcherOption {
	return func(dp *Dispatcher) { dp.transport = t }
}

// NewDispatcher creates a dispatcher backed by a default HTTPTransport and
// starts its delivery goroutine. Call Close when done with it.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	dp := &Dispatcher{
		transport:   NewHTTPTransport(),
		pending:     newRegistry(),
		completions: make(chan func(), 16),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(dp)
	}
	go dp.deliverLoop()
	return dp
}

func (dp *Dispatcher) deliverLoop() {
	for {
		select {
		case <-dp.done:
			return
		case fn := <-dp.completions:
			fn()
		}
	}
}

// enqueue hands a completion to the delivery goroutine. Completions enqueued
// after Close are dropped.
func (dp *Dispatcher) enqueue(fn func()) {
	select {
	case <-dp.done:
	case dp.completions <- fn:
	}
}

func (dp *Dispatcher) isClosed() bool {
	select {
	case <-dp.done:
		return true
	default:
		return false
	}
}

// CancelAll requests cancellation of every pending non-blocking call and
// empties the registry. No callback or stream emission occurs for calls
// registered before the cancellation, even if their transport response
// arrives afterwards. The in-flight network operation is aborted via context
// cancellation on a best-effort basis.
func (dp *Dispatcher) CancelAll() {
	dp.pending.cancelAll()
}

// PendingCount returns the number of in-flight non-blocking calls.
func (dp *Dispatcher) PendingCount() int {
	return dp.pending.len()
}

// Close cancels all pending calls and stops the delivery goroutine. A closed
// dispatcher fails non-blocking calls with ErrDispatcherClosed; the blocking
// form keeps working since it owns no dispatcher lifetime.
func (dp *Dispatcher) Close() {
	dp.closeOnce.Do(func() {
		dp.pending.cancelAll()
		close(dp.done)
	})
}

// dispatch runs the shared pipeline all calling conventions wrap: execute the
// transport call, decode the success body into T, and classify.
func dispatch[T, E any](ctx context.Context, dp *Dispatcher, d *Descriptor, files map[string]FormFile) Outcome[T, E] {
	var raw *RawResponse
	var err error
	if files != nil {
		raw, err = dp.transport.ExecuteMultipart(ctx, d, files)
	} else {
		raw, err = dp.transport.Execute(ctx, d)
	}

	var value T
	if err == nil && raw != nil && len(raw.Body) > 0 {
		if derr := json.Unmarshal(raw.Body, &value); derr != nil {
			err = fmt.Errorf("unexpected API response format (JSON decode failed): %w", derr)
		}
	}

	var body []byte
	if raw != nil {
		body = raw.Body
	}
	return Classify[T, E](body, value, err)
}

// Do issues the endpoint's call and blocks until the classified outcome is
// known. It returns the decoded value or one of the two error categories:
// *BackendError[E] when the server returned a decodable error payload, or the
// transport's own error otherwise. The blocking form registers nothing in the
// pending-call registry; its lifetime is the caller's ctx.
func Do[T, E any](ctx context.Context, dp *Dispatcher, ep Endpoint[T, E]) (T, error) {
	out := dispatch[T, E](ctx, dp, ep.Descriptor(), nil)
	return out.Value, out.Err()
}

// DoMultipart is Do with a multipart request body built from files and the
// descriptor's effective parameters.
func DoMultipart[T, E any](ctx context.Context, dp *Dispatcher, ep Endpoint[T, E], files map[string]FormFile) (T, error) {
	out := dispatch[T, E](ctx, dp, ep.Descriptor(), files)
	return out.Value, out.Err()
}

// DoAsync issues the endpoint's call without blocking the caller and invokes
// exactly one of the two callbacks exactly once when the outcome is known.
// The call is tracked in the pending-call registry until it completes or
// CancelAll suppresses it. Callbacks run on the dispatcher's delivery
// goroutine.
func DoAsync[T, E any](dp *Dispatcher, ep Endpoint[T, E], onSuccess func(T), onError func(error)) {
	doAsync[T, E](dp, ep.Descriptor(), nil, onSuccess, onError)
}

// DoAsyncMultipart is DoAsync with a multipart request body.
func DoAsyncMultipart[T, E any](dp *Dispatcher, ep Endpoint[T, E], files map[string]FormFile, onSuccess func(T), onError func(error)) {
	doAsync[T, E](dp, ep.Descriptor(), files, onSuccess, onError)
}

func doAsync[T, E any](dp *Dispatcher, d *Descriptor, files map[string]FormFile, onSuccess func(T), onError func(error)) {
	if dp.isClosed() {
		if onError != nil {
			go onError(ErrDispatcherClosed)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := dp.pending.add(cancel)

	go func() {
		defer cancel()
		out := dispatch[T, E](ctx, dp, d, files)
		dp.enqueue(func() {
			if !dp.pending.remove(id) {
				return // cancelled; outcome is suppressed
			}
			if err := out.Err(); err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			if onSuccess != nil {
				onSuccess(out.Value)
			}
		})
	}()
}

// Single is a lazily-started, single-result producer over one endpoint.
// Nothing happens until Subscribe; each subscription issues a fresh transport
// call, so a Single is reusable but never restarts a call in flight.
type Single[T, E any] struct {
	dp    *Dispatcher
	desc  *Descriptor
	files map[string]FormFile
}

// Stream returns a single-result producer for the endpoint's call.
func Stream[T, E any](dp *Dispatcher, ep Endpoint[T, E]) *Single[T, E] {
	return &Single[T, E]{dp: dp, desc: ep.Descriptor()}
}

// StreamMultipart is Stream with a multipart request body.
func StreamMultipart[T, E any](dp *Dispatcher, ep Endpoint[T, E], files map[string]FormFile) *Single[T, E] {
	return &Single[T, E]{dp: dp, desc: ep.Descriptor(), files: files}
}

// Subscribe triggers the transport call and returns a channel that emits
// exactly one classified outcome and then closes. The call is tracked in the
// pending-call registry; if CancelAll runs first, the channel closes without
// emitting. Cancelling ctx aborts the call and emits a transport error.
func (s *Single[T, E]) Subscribe(ctx context.Context) <-chan Outcome[T, E] {
	ch := make(chan Outcome[T, E], 1)

	if s.dp.isClosed() {
		ch <- Outcome[T, E]{Kind: OutcomeTransportError, Transport: ErrDispatcherClosed}
		close(ch)
		return ch
	}

	callCtx, cancel := context.WithCancel(ctx)
	id := s.dp.pending.add(cancel)

	go func() {
		defer cancel()
		out := dispatch[T, E](callCtx, s.dp, s.desc, s.files)
		if s.dp.pending.remove(id) {
			ch <- out
		}
		close(ch)
	}()

	return ch
}
