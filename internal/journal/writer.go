package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/metrics"
	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/router"
)

// Batcher sends a pgx batch. *pgxpool.Pool satisfies it.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config holds writer settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultConfig returns the writer defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    1000,
	}
}

// Stats are cumulative writer counters.
type Stats struct {
	Received  int64
	Inserted  int64
	Conflicts int64
	Flushes   int64
	Errors    int64
	Dropped   int64
}

type entry struct {
	batchID    uuid.UUID
	receivedAt time.Time
	item       model.UpdateItem
}

type row struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	ReceivedAt  time.Time
	SKU         string
	ProviderID  int64
	Change      string
	PriceValue  *string
	Currency    *string
	StockQty    *int
	StockStatus *string
}

// Writer consumes update items and appends them to the journal table.
type Writer struct {
	cfg     Config
	db      Batcher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	input *router.GrowableBuffer[entry]

	batch   []row
	batchMu sync.Mutex
	stats   Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWriter creates a Writer. m may be nil.
func NewWriter(cfg Config, db Batcher, m *metrics.Metrics, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Writer{
		cfg:     cfg,
		db:      db,
		logger:  logger.With("component", "journal"),
		metrics: m,
		now:     time.Now,
		input:   router.NewGrowableBuffer[entry](cfg.BufferSize),
		batch:   make([]row, 0, cfg.BatchSize),
	}
}

// Handle is a router.Handler. Only update batches are journaled.
func (w *Writer) Handle(ev event.Event) {
	ub, ok := ev.(event.UpdateBatch)
	if !ok || len(ub.Items) == 0 {
		return
	}

	batchID := uuid.New()
	at := w.now()
	for _, item := range ub.Items {
		if !w.input.Send(entry{batchID: batchID, receivedAt: at, item: item}) {
			w.batchMu.Lock()
			w.stats.Dropped++
			w.batchMu.Unlock()
			continue
		}
		w.batchMu.Lock()
		w.stats.Received++
		w.batchMu.Unlock()
	}
}

// Start begins consuming and flushing.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop closes the input, writes whatever is queued and waits for the
// goroutines, bounded by ctx.
func (w *Writer) Stop(ctx context.Context) error {
	w.input.Close()
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		w.logger.Warn("journal writer stop timed out")
	}

	if err == nil {
		w.logger.Info("journal writer stopped", "inserted", w.Stats().Inserted)
	}
	return err
}

// Stats returns a copy of the counters.
func (w *Writer) Stats() Stats {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.stats
}

// consumeLoop moves queued entries into the pending batch until the input
// is closed and drained, then flushes once more.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		e, ok := w.input.Receive()
		if !ok {
			w.flush()
			return
		}
		w.add(e)
	}
}

func (w *Writer) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Writer) add(e entry) {
	r := transform(e)

	w.batchMu.Lock()
	w.batch = append(w.batch, r)
	full := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if full {
		w.flush()
	}
}

func transform(e entry) row {
	r := row{
		ID:          uuid.New(),
		BatchID:     e.batchID,
		ReceivedAt:  e.receivedAt.UTC(),
		SKU:         e.item.SKU,
		ProviderID:  e.item.ProviderID,
		Change:      string(e.item.Change),
		Currency:    e.item.Currency,
		StockQty:    e.item.StockQty,
		StockStatus: e.item.StockStatus,
	}
	if e.item.PriceValue != nil {
		s := e.item.PriceValue.String()
		r.PriceValue = &s
	}
	if r.Change == "" {
		r.Change = string(model.ChangeOfferUpdated)
	}
	return r
}

// flush writes the pending batch. A failed batch is logged and dropped.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	rows := w.batch
	w.batch = make([]row, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()
	conflicts, err := w.batchInsert(rows)
	took := time.Since(start)
	w.metrics.ObserveJournalFlush(len(rows), took, err)

	w.batchMu.Lock()
	if err != nil {
		w.stats.Errors++
	} else {
		w.stats.Inserted += int64(len(rows) - conflicts)
		w.stats.Conflicts += int64(conflicts)
		w.stats.Flushes++
	}
	w.batchMu.Unlock()

	if err != nil {
		w.logger.Error("journal insert failed", "error", err, "count", len(rows))
		return
	}
	w.logger.Debug("journal flushed", "count", len(rows), "duration", took)
}

func (w *Writer) batchInsert(rows []row) (conflicts int, err error) {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(insertSQL, r.ID, r.BatchID, r.ReceivedAt, r.SKU, r.ProviderID, r.Change,
			r.PriceValue, r.Currency, r.StockQty, r.StockStatus)
	}

	// Detached so the final flush during shutdown still runs.
	ctx := context.Background()
	if w.ctx != nil {
		ctx = context.WithoutCancel(w.ctx)
	}
	results := w.db.SendBatch(ctx, b)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}
