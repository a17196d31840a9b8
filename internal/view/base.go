package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/metrics"
	"github.com/partsportal/catalog-sync/internal/router"
)

const inboxCapacity = 64

// Option configures a view.
type Option func(*base)

// WithMetrics records reloads, merges and query errors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *base) {
		b.metrics = m
	}
}

// base is the lifecycle shared by List and Detail.
type base struct {
	kind    string
	sub     Subscriber
	logger  *slog.Logger
	metrics *metrics.Metrics

	inbox   *router.GrowableBuffer[command]
	changes chan struct{}
	handle  func(command)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards the flags below and the embedding view's state.
	mu          sync.Mutex
	mounted     bool
	closed      bool
	unsubscribe func()
	version     uint64
}

func newBase(kind string, sub Subscriber, logger *slog.Logger, opts []Option) *base {
	if logger == nil {
		logger = slog.Default()
	}
	b := &base{
		kind:    kind,
		sub:     sub,
		logger:  logger,
		inbox:   router.NewGrowableBuffer[command](inboxCapacity),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// mount subscribes and starts the worker. initial is processed first.
func (b *base) mount(ctx context.Context, initial command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.mounted {
		return nil
	}
	b.mounted = true
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.inbox.Send(initial)
	b.unsubscribe = b.sub.Subscribe(b.onEvent)

	b.wg.Add(1)
	go b.run()

	b.logger.Debug("view mounted")
	return nil
}

// onEvent runs on the connection read goroutine and must not block.
func (b *base) onEvent(ev event.Event) {
	batch, ok := ev.(event.UpdateBatch)
	if !ok {
		b.logger.Debug("ignoring stream event", "variant", ev.Variant())
		return
	}
	b.inbox.Send(command{kind: cmdEvent, batch: batch.Items})
}

func (b *base) run() {
	defer b.wg.Done()

	for {
		cmd, ok := b.inbox.Receive()
		if !ok {
			return
		}
		b.handle(cmd)
	}
}

// send queues a command for the worker.
func (b *base) send(cmd command) error {
	if !b.inbox.Send(cmd) {
		return ErrClosed
	}
	return nil
}

// close unsubscribes, cancels in-flight loads, drops queued work and waits
// for the worker. Safe to call more than once.
func (b *base) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if n := b.inbox.CloseAndDiscard(); n > 0 {
		b.logger.Debug("dropped queued work on close", "count", n)
	}
	b.wg.Wait()
	close(b.changes)

	b.logger.Debug("view closed")
}

// changedLocked bumps the version and wakes watchers. Must be called with mu held.
func (b *base) changedLocked() {
	b.version++
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// Changes signals after every state change. Signals coalesce; the channel is
// closed by Close.
func (b *base) Changes() <-chan struct{} {
	return b.changes
}
