package connection

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/metrics"
)

// ManagerOption configures optional Manager dependencies.
type ManagerOption func(*Manager)

// WithClock replaces the wall clock used for reconnect timers.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithMetrics records connection metrics.
func WithMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// Manager owns the single stream to the update endpoint.
type Manager struct {
	cfg        ManagerConfig
	transport  Transport
	dispatcher Dispatcher
	logger     *slog.Logger
	clock      Clock
	metrics    *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards everything below.
	mu       sync.Mutex
	state    State
	started  bool
	disposed bool
	stream   Stream
	timer    Timer
	gen      uint64
	lastErr  error

	closing    atomic.Bool
	connects   atomic.Int64
	reconnects atomic.Int64
	frames     atomic.Int64
	rawFrames  atomic.Int64
}

// NewManager creates a Connection Manager. Nothing happens until Start.
func NewManager(cfg ManagerConfig, transport Transport, dispatcher Dispatcher, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "stream"
	}

	m := &Manager{
		cfg:        cfg,
		transport:  transport,
		dispatcher: dispatcher,
		logger:     logger.With("component", "connection", "transport", cfg.Name),
		clock:      realClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens the stream unless one is already active. Calling Start on a
// running manager is a no-op. A disabled manager logs and stays idle.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return ErrAlreadyClosed
	}
	if m.started {
		return nil
	}
	if m.cfg.Disabled {
		m.logger.Info("streaming disabled, staying idle")
		return nil
	}

	m.started = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.connectLocked()

	m.logger.Info("connection manager started")
	return nil
}

// Dispose closes the stream, cancels any pending reconnect and waits for the
// read goroutine to exit. It is safe to call more than once.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.closing.Store(true)

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	stream := m.stream
	m.stream = nil
	if m.cancel != nil {
		m.cancel()
	}
	if m.started {
		m.setStateLocked(StateClosed)
	}
	m.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			m.logger.Debug("stream close", "error", err)
		}
	}

	m.wg.Wait()
	m.logger.Info("connection manager stopped")
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	state := m.state
	var lastErr string
	if m.lastErr != nil {
		lastErr = m.lastErr.Error()
	}
	m.mu.Unlock()

	return ManagerStats{
		State:      state,
		Connects:   m.connects.Load(),
		Reconnects: m.reconnects.Load(),
		Frames:     m.frames.Load(),
		RawFrames:  m.rawFrames.Load(),
		LastError:  lastErr,
	}
}

// connectLocked starts a new connection attempt. Must be called with mu held.
func (m *Manager) connectLocked() {
	m.gen++
	m.setStateLocked(StateConnecting)

	m.wg.Add(1)
	go m.run(m.gen)
}

// run opens one stream and reads it until it fails.
func (m *Manager) run(gen uint64) {
	defer m.wg.Done()

	stream, err := m.transport.Open(m.ctx)

	m.mu.Lock()
	if m.disposed || gen != m.gen {
		m.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		return
	}
	if err != nil {
		m.failLocked(err)
		m.mu.Unlock()
		return
	}
	m.stream = stream
	m.setStateLocked(StateOpen)
	m.mu.Unlock()

	m.connects.Add(1)
	m.logger.Info("stream connected")

	// Cancelling the Start context closes the stream so Next unblocks.
	stop := context.AfterFunc(m.ctx, func() { stream.Close() })
	defer stop()

	for {
		data, err := stream.Next()
		if err != nil {
			m.mu.Lock()
			if m.disposed {
				m.mu.Unlock()
				return
			}
			m.stream = nil
			m.failLocked(err)
			m.mu.Unlock()

			stream.Close()
			return
		}

		m.handleFrame(data)
	}
}

// handleFrame decodes and dispatches one frame on the read goroutine.
func (m *Manager) handleFrame(data []byte) {
	if m.closing.Load() {
		return
	}

	ev := event.Decode(data)
	m.frames.Add(1)
	m.metrics.IncFrames(ev.Variant())

	if _, ok := ev.(event.Raw); ok {
		m.rawFrames.Add(1)
		m.logger.Debug("frame is not json, delivering raw", "bytes", len(data))
	}

	m.dispatcher.Dispatch(ev)
}

// failLocked records a transport failure and schedules a reconnect unless
// the Start context is done. Must be called with mu held.
func (m *Manager) failLocked(err error) {
	m.lastErr = err
	m.setStateLocked(StateClosed)

	if m.ctx.Err() != nil {
		m.logger.Debug("context done, not reconnecting", "error", err)
		return
	}

	m.logger.Warn("stream error, will reconnect",
		"error", err,
		"delay", ReconnectDelay,
	)

	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the reconnect timer unless one is pending.
// Must be called with mu held.
func (m *Manager) scheduleReconnectLocked() {
	if m.timer != nil || m.disposed {
		return
	}

	m.reconnects.Add(1)
	m.metrics.IncReconnects()
	m.timer = m.clock.AfterFunc(ReconnectDelay, m.onReconnectTimer)
}

func (m *Manager) onReconnectTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timer = nil
	if m.disposed {
		return
	}
	if m.ctx.Err() != nil {
		m.logger.Debug("context done, skipping reconnection")
		return
	}

	m.logger.Info("attempting reconnection")
	m.connectLocked()
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("state change", "from", m.state, "to", s)
	m.state = s
	m.metrics.SetConnectionState(int(s))
}
