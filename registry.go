package courier

import (
	"context"
	"sync"
)

// registry is the set of in-flight cancellable calls owned by one Dispatcher.
// Entries are added when a non-blocking call is issued and claimed back at
// the delivery boundary; cancelAll empties the set so later delivery attempts
// find nothing to claim and stay silent. The mutex makes the registry safe
// for the dispatcher's worker goroutines.
type registry struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{pending: make(map[uint64]context.CancelFunc)}
}

// add tracks a new in-flight call and returns its id.
func (r *registry) add(cancel context.CancelFunc) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.pending[id] = cancel
	return id
}

// remove claims the call for delivery. It reports whether the call was still
// tracked; false means the call was cancelled and its outcome must not be
// delivered.
func (r *registry) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return ok
}

// cancelAll requests cancellation of every tracked call and empties the set.
// The underlying network operation is aborted cooperatively via its context;
// the hard guarantee is only that no outcome is delivered afterwards.
func (r *registry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.pending {
		cancel()
		delete(r.pending, id)
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
