package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsportal/catalog-sync/internal/catalog"
	"github.com/partsportal/catalog-sync/internal/config"
	"github.com/partsportal/catalog-sync/internal/connection"
	"github.com/partsportal/catalog-sync/internal/database"
	"github.com/partsportal/catalog-sync/internal/journal"
	"github.com/partsportal/catalog-sync/internal/metrics"
	"github.com/partsportal/catalog-sync/internal/poller"
	"github.com/partsportal/catalog-sync/internal/router"
)

const shutdownTimeout = 10 * time.Second

// app wires the long-lived components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	metrics *metrics.Metrics
	router  *router.Router
	manager *connection.Manager
	client  *catalog.Client
	poller  *poller.Poller

	pool         *pgxpool.Pool
	journal      *journal.Writer
	unsubJournal func()
}

func newApp(ctx context.Context, cfg *config.Config, noStream bool, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}
	a.router = router.New(logger, router.WithMetrics(a.metrics))

	a.client = catalog.NewClient(cfg.API.BaseURL,
		catalog.WithLogger(logger),
		catalog.WithTimeout(cfg.API.Timeout),
		catalog.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		catalog.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)

	transport, err := newTransport(cfg, logger)
	disabled := noStream
	if errors.Is(err, connection.ErrStreamingDisabled) {
		disabled = true
	} else if err != nil {
		return nil, err
	}
	a.manager = connection.NewManager(
		connection.ManagerConfig{Name: cfg.Stream.Transport, Disabled: disabled},
		transport, a.router, logger,
		connection.WithMetrics(a.metrics),
	)

	a.poller = poller.New(poller.Config{
		Interval:    cfg.Views.RefreshInterval,
		Concurrency: cfg.Views.RefreshConcurrency,
	}, a.metrics, logger)

	if cfg.Journal.Enabled {
		if err := a.openJournal(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func newTransport(cfg *config.Config, logger *slog.Logger) (connection.Transport, error) {
	switch cfg.Stream.Transport {
	case "websocket":
		wsCfg := connection.DefaultWebSocketConfig()
		wsCfg.URL = cfg.WebSocketURL()
		wsCfg.PingInterval = cfg.Stream.PingInterval
		wsCfg.PingTimeout = cfg.Stream.PingTimeout
		return connection.NewWebSocketTransport(wsCfg, logger)
	default:
		return connection.NewSSETransport(cfg.API.BaseURL, cfg.Stream.SSEPath, nil)
	}
}

func (a *app) openJournal(ctx context.Context) error {
	db := a.cfg.Database
	a.logger.Info("connecting to database", "host", db.Host, "port", db.Port, "database", db.Name)

	pool, err := database.Connect(ctx, db)
	if err != nil {
		return fmt.Errorf("connect journal database: %w", err)
	}
	if err := database.Migrate(ctx, pool, journal.Schema...); err != nil {
		pool.Close()
		return fmt.Errorf("migrate journal: %w", err)
	}

	a.pool = pool
	a.journal = journal.NewWriter(journal.Config{
		BatchSize:     a.cfg.Journal.BatchSize,
		FlushInterval: a.cfg.Journal.FlushInterval,
		BufferSize:    a.cfg.Journal.BufferSize,
	}, pool, a.metrics, a.logger)
	return nil
}

// start brings up the journal first so it sees the first batch, then the
// stream and the refresh loop.
func (a *app) start(ctx context.Context) error {
	if a.journal != nil {
		if err := a.journal.Start(ctx); err != nil {
			return err
		}
		a.unsubJournal = a.router.Subscribe(a.journal.Handle)
	}
	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	return a.poller.Start(ctx)
}

// stop tears components down in reverse order.
func (a *app) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.poller.Stop(ctx); err != nil {
		a.logger.Warn("poller stop", "error", err)
	}
	a.manager.Dispose()

	if a.journal != nil {
		if a.unsubJournal != nil {
			a.unsubJournal()
		}
		if err := a.journal.Stop(ctx); err != nil {
			a.logger.Warn("journal stop", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}
