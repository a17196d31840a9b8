package router

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/metrics"
)

// Handler receives one event per dispatch.
type Handler func(event.Event)

// Subscription is one registered callback.
type Subscription struct {
	ID uuid.UUID

	fn Handler

	// mu is held for the duration of a delivery. Unsubscribe takes it too,
	// so it returns only after any in-flight delivery has finished.
	mu     sync.Mutex
	active bool
}

// deliver calls the handler unless the subscription was removed.
func (s *Subscription) deliver(ev event.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.fn(ev)
	return true
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	Subscribers int
	Dispatched  int64
	Deliveries  int64
	Skipped     int64
}

// Router is the subscription registry. The zero value is not usable; call New.
type Router struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	subs []*Subscription

	dispatched atomic.Int64
	deliveries atomic.Int64
	skipped    atomic.Int64
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics counts deliveries in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates an empty Router.
func New(logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		logger: logger.With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn and returns its unsubscribe function.
//
// Unsubscribe is idempotent and blocks until an in-flight delivery to fn has
// returned. A handler must not call its own unsubscribe.
func (r *Router) Subscribe(fn Handler) (unsubscribe func()) {
	sub := &Subscription{
		ID:     uuid.New(),
		fn:     fn,
		active: true,
	}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	count := len(r.subs)
	r.mu.Unlock()

	r.logger.Debug("subscriber added", "id", sub.ID, "subscribers", count)

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(sub) })
	}
}

func (r *Router) remove(sub *Subscription) {
	r.mu.Lock()
	for i, s := range r.subs {
		if s == sub {
			// Copy rather than shift in place; in-flight snapshots share the old array.
			next := make([]*Subscription, 0, len(r.subs)-1)
			next = append(next, r.subs[:i]...)
			next = append(next, r.subs[i+1:]...)
			r.subs = next
			break
		}
	}
	count := len(r.subs)
	r.mu.Unlock()

	sub.mu.Lock()
	sub.active = false
	sub.mu.Unlock()

	r.logger.Debug("subscriber removed", "id", sub.ID, "subscribers", count)
}

// Dispatch delivers ev to every subscriber registered when the call starts,
// in registration order. Subscribers added during the call are not invoked
// and subscribers removed before their turn are skipped.
func (r *Router) Dispatch(ev event.Event) {
	r.mu.RLock()
	snapshot := r.subs
	r.mu.RUnlock()

	r.dispatched.Add(1)

	delivered := 0
	for _, sub := range snapshot {
		if sub.deliver(ev) {
			delivered++
		} else {
			r.skipped.Add(1)
		}
	}
	r.deliveries.Add(int64(delivered))
	r.metrics.AddDeliveries(delivered)
}

// Len returns the number of current subscribers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		Subscribers: r.Len(),
		Dispatched:  r.dispatched.Load(),
		Deliveries:  r.deliveries.Load(),
		Skipped:     r.skipped.Load(),
	}
}
