package chatsdk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Outcome is the terminal result of a correlated operation: either the
// matching postback event or a typed error.
type Outcome struct {
	Event DecodedEvent
	Err   error
}

// pendingOp holds one outstanding correlated request.
type pendingOp struct {
	ch    chan Outcome
	timer *time.Timer
}

// Registry correlates client-generated event ids with their asynchronous
// postbacks. It is the one structure accessed by both sender goroutines
// (Register, Cancel) and the dispatch worker (Resolve, Reject, RejectAll),
// so all state lives behind its mutex.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*pendingOp
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = discardLogger()
	}
	return &Registry{
		pending: make(map[string]*pendingOp),
		logger:  logger,
	}
}

// Register creates a pending operation for eventID with the given deadline.
// The returned channel yields exactly one Outcome: the matching postback, a
// TimeoutError when the deadline fires first, or a ConnectionLostError when
// the connection drops. Registering an id that is already outstanding is a
// programmer error and fails fast.
func (r *Registry) Register(eventID string, timeout time.Duration) (<-chan Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pending[eventID]; exists {
		return nil, fmt.Errorf("duplicate registration for event id %s", eventID)
	}

	op := &pendingOp{ch: make(chan Outcome, 1)}
	op.timer = time.AfterFunc(timeout, func() {
		r.complete(eventID, Outcome{Err: &TimeoutError{EventID: eventID}})
	})
	r.pending[eventID] = op
	return op.ch, nil
}

// Resolve completes the pending operation for eventID with the given event.
// Returns false when no operation is outstanding for the id; late or
// unexpected postbacks are dropped at this layer.
func (r *Registry) Resolve(eventID string, ev DecodedEvent) bool {
	return r.complete(eventID, Outcome{Event: ev})
}

// Reject completes the pending operation for eventID with an error.
func (r *Registry) Reject(eventID string, err error) bool {
	return r.complete(eventID, Outcome{Err: err})
}

// Cancel removes the pending operation without delivering an outcome. Used
// when the caller abandons the wait; the command already on the wire stays
// sent.
func (r *Registry) Cancel(eventID string) {
	r.mu.Lock()
	op, ok := r.pending[eventID]
	if ok {
		delete(r.pending, eventID)
	}
	r.mu.Unlock()
	if ok {
		op.timer.Stop()
	}
}

// RejectAll completes every outstanding operation with the given error and
// leaves the registry empty. Called on disconnect so no caller hangs.
func (r *Registry) RejectAll(err error) {
	r.mu.Lock()
	drained := r.pending
	r.pending = make(map[string]*pendingOp)
	r.mu.Unlock()

	for id, op := range drained {
		op.timer.Stop()
		op.ch <- Outcome{Err: err}
		r.logger.Debug("pending operation rejected on disconnect", "eventId", id)
	}
}

// Len reports the number of outstanding operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// complete claims the entry under the lock via delete, then sends outside the
// lock. The delete-then-send pattern guarantees at most one resolution per id
// even when a postback and the timeout race.
func (r *Registry) complete(eventID string, outcome Outcome) bool {
	r.mu.Lock()
	op, ok := r.pending[eventID]
	if ok {
		delete(r.pending, eventID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	op.timer.Stop()
	op.ch <- outcome // safe: buffer 1, single sender claims via delete
	return true
}
