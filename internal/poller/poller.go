package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/partsportal/catalog-sync/internal/metrics"
	"github.com/partsportal/catalog-sync/internal/view"
)

// Target is anything that can be asked to reload. *view.List and
// *view.Detail satisfy it.
type Target interface {
	Reload() error
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // 0 disables refresh
	Concurrency int           // max reloads requested at once
}

// DefaultConfig returns the defaults: refresh disabled, concurrency 4.
func DefaultConfig() Config {
	return Config{Concurrency: 4}
}

// Poller periodically reloads registered targets.
type Poller struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	targets map[string]Target

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Poller. m may be nil.
func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Poller{
		cfg:     cfg,
		logger:  logger.With("component", "poller"),
		metrics: m,
		targets: make(map[string]Target),
	}
}

// Add registers a target under name, replacing any previous one.
func (p *Poller) Add(name string, t Target) {
	p.mu.Lock()
	p.targets[name] = t
	p.mu.Unlock()
}

// Remove unregisters name.
func (p *Poller) Remove(name string) {
	p.mu.Lock()
	delete(p.targets, name)
	p.mu.Unlock()
}

// Start begins the refresh loop. It does nothing when Interval is zero.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		p.logger.Debug("view refresh disabled")
		return nil
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("view refresh started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.refreshAll(p.ctx)
		}
	}
}

// refreshAll asks every target to reload, at most Concurrency at a time.
// Targets that are already closed are dropped.
func (p *Poller) refreshAll(ctx context.Context) {
	p.mu.Lock()
	targets := make(map[string]Target, len(p.targets))
	for name, t := range p.targets {
		targets[name] = t
	}
	p.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	sem := semaphore.NewWeighted(int64(p.cfg.Concurrency))
	var wg sync.WaitGroup
	var requested, failed atomic.Int64

	for name, t := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(name string, t Target) {
			defer wg.Done()
			defer sem.Release(1)

			if err := t.Reload(); err != nil {
				failed.Add(1)
				if errors.Is(err, view.ErrClosed) {
					p.Remove(name)
					return
				}
				p.logger.Warn("refresh failed", "view", name, "err", err)
				return
			}
			requested.Add(1)
			p.metrics.IncRefreshes()
		}(name, t)
	}
	wg.Wait()

	p.logger.Debug("refresh cycle complete",
		"targets", len(targets),
		"requested", requested.Load(),
		"failed", failed.Load(),
	)
}
