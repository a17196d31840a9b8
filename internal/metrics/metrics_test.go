package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncFrames("update_batch")
	m.IncFrames("update_batch")
	m.IncFrames("raw")
	m.IncReconnects()
	m.IncReloads("list", "offer_created")
	m.AddMerges("detail", 3)
	m.AddMerges("detail", 0)
	m.IncQueryErrors("list")
	m.SetConnectionState(2)

	if got := testutil.ToFloat64(m.frames.WithLabelValues("update_batch")); got != 2 {
		t.Errorf("frames{update_batch} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.frames.WithLabelValues("raw")); got != 1 {
		t.Errorf("frames{raw} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reconnects); got != 1 {
		t.Errorf("reconnects = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reloads.WithLabelValues("list", "offer_created")); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.merges.WithLabelValues("detail")); got != 3 {
		t.Errorf("merges = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.queryErrors.WithLabelValues("list")); got != 1 {
		t.Errorf("query errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.connectionState); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
}

func TestMetrics_JournalFlush(t *testing.T) {
	m := New()

	m.ObserveJournalFlush(10, 5*time.Millisecond, nil)
	m.ObserveJournalFlush(4, time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(m.journalRows); got != 10 {
		t.Errorf("journal rows = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.journalErrors); got != 1 {
		t.Errorf("journal errors = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.IncFrames("raw")
	m.IncReconnects()
	m.AddDeliveries(2)
	m.IncReloads("list", "x")
	m.ObserveJournalFlush(1, time.Second, nil)
	m.SetConnectionState(1)

	if m.Registry() != nil {
		t.Error("Registry() on nil Metrics should be nil")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncReconnects()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "catalogsync_stream_reconnects_total 1") {
		t.Error("exposition output missing reconnect counter")
	}
}
