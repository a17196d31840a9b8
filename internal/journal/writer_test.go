package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/model"
)

type fakeResults struct {
	n   int
	err error
	i   int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	r.i++
	if r.i > r.n {
		return pgconn.CommandTag{}, errors.New("no more results")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }

type fakeDB struct {
	mu      sync.Mutex
	err     error
	batches [][][]any
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	args := make([][]any, 0, b.Len())
	for _, q := range b.QueuedQueries {
		args = append(args, q.Arguments)
	}
	f.batches = append(f.batches, args)
	return &fakeResults{n: b.Len(), err: f.err}
}

func (f *fakeDB) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func (f *fakeDB) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func ptr[T any](v T) *T { return &v }

func updateBatch(items ...model.UpdateItem) event.Event {
	return event.UpdateBatch{Items: items}
}

func TestTransform(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CLT", -3*3600))
	batchID := uuid.New()
	price := decimal.RequireFromString("12990.50")

	r := transform(entry{
		batchID:    batchID,
		receivedAt: at,
		item: model.UpdateItem{
			SKU:        "BRK-001",
			ProviderID: 7,
			Change:     model.ChangeOfferUpdated,
			PriceValue: &price,
			StockQty:   ptr(3),
		},
	})

	if r.ID == uuid.Nil {
		t.Error("ID should be generated")
	}
	if r.BatchID != batchID {
		t.Errorf("BatchID = %v, want %v", r.BatchID, batchID)
	}
	if !r.ReceivedAt.Equal(at) || r.ReceivedAt.Location() != time.UTC {
		t.Errorf("ReceivedAt = %v, want %v in UTC", r.ReceivedAt, at)
	}
	if r.SKU != "BRK-001" || r.ProviderID != 7 || r.Change != "offer_updated" {
		t.Errorf("row = %+v", r)
	}
	if r.PriceValue == nil || *r.PriceValue != "12990.5" {
		t.Errorf("PriceValue = %v, want 12990.5", r.PriceValue)
	}
	if r.StockQty == nil || *r.StockQty != 3 {
		t.Errorf("StockQty = %v, want 3", r.StockQty)
	}
	if r.Currency != nil || r.StockStatus != nil {
		t.Error("absent fields should stay nil")
	}
}

func TestTransform_EmptyChange(t *testing.T) {
	r := transform(entry{item: model.UpdateItem{SKU: "X"}})
	if r.Change != string(model.ChangeOfferUpdated) {
		t.Errorf("Change = %q, want offer_updated", r.Change)
	}
	if r.PriceValue != nil {
		t.Error("PriceValue should be nil")
	}
}

func TestWriter_HandleIgnoresOtherEvents(t *testing.T) {
	w := NewWriter(DefaultConfig(), &fakeDB{}, nil, nil)

	w.Handle(event.Unknown{Type: "catalog:other"})
	w.Handle(event.Raw{Data: []byte("x")})
	w.Handle(updateBatch())

	if got := w.Stats().Received; got != 0 {
		t.Errorf("Received = %d, want 0", got)
	}
}

func TestWriter_FlushOnBatchSize(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(Config{BatchSize: 2, FlushInterval: time.Hour, BufferSize: 8}, db, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	w.Handle(updateBatch(
		model.UpdateItem{SKU: "A", ProviderID: 1},
		model.UpdateItem{SKU: "B", ProviderID: 2},
	))

	deadline := time.Now().Add(2 * time.Second)
	for db.rows() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := db.rows(); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}

	db.mu.Lock()
	args := db.batches[0]
	db.mu.Unlock()
	if args[0][1] != args[1][1] {
		t.Error("items of one event should share a batch id")
	}
	if args[0][3] != "A" || args[1][3] != "B" {
		t.Errorf("skus = %v, %v; want A, B in order", args[0][3], args[1][3])
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	s := w.Stats()
	if s.Received != 2 || s.Inserted != 2 || s.Flushes != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestWriter_StopFlushesPending(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(Config{BatchSize: 100, FlushInterval: time.Hour, BufferSize: 8}, db, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	w.Handle(updateBatch(model.UpdateItem{SKU: "A", ProviderID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := db.rows(); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}

	w.Handle(updateBatch(model.UpdateItem{SKU: "late"}))
	if got := w.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestWriter_FlushInterval(t *testing.T) {
	db := &fakeDB{}
	w := NewWriter(Config{BatchSize: 100, FlushInterval: 20 * time.Millisecond, BufferSize: 8}, db, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(context.Background())

	w.Handle(updateBatch(model.UpdateItem{SKU: "A", ProviderID: 1}))

	deadline := time.Now().Add(2 * time.Second)
	for db.batchCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if db.batchCount() == 0 {
		t.Fatal("pending row was never flushed by the interval")
	}
}

func TestWriter_InsertErrorCounted(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	w := NewWriter(Config{BatchSize: 1, FlushInterval: time.Hour, BufferSize: 8}, db, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	w.Handle(updateBatch(model.UpdateItem{SKU: "A"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	s := w.Stats()
	if s.Errors != 1 || s.Inserted != 0 {
		t.Errorf("stats = %+v, want 1 error and 0 inserted", s)
	}
}
