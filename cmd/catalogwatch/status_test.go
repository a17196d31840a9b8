package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/partsportal/catalog-sync/internal/connection"
	"github.com/partsportal/catalog-sync/internal/metrics"
	"github.com/partsportal/catalog-sync/internal/router"
	"github.com/partsportal/catalog-sync/internal/view"
)

func testDeps(state connection.State, ping func(context.Context) error) statusDeps {
	m := metrics.New()
	return statusDeps{
		Stream: func() connection.ManagerStats {
			return connection.ManagerStats{State: state, Connects: 2, Reconnects: 1, LastError: "stream read: EOF"}
		},
		Router:      func() router.RouterStats { return router.RouterStats{Subscribers: 1, Dispatched: 4} },
		Ping:        ping,
		View:        func() any { return listDebugOf(view.ListState{TotalPages: 3, Err: errors.New("boom")}) },
		Metrics:     m.Handler(),
		MetricsPath: "/metrics",
	}
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s: invalid json: %v (%q)", path, err, rec.Body.String())
	}
	return rec.Code, body
}

func TestStatus_HealthOpen(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateOpen, nil))

	code, body := getJSON(t, h, "/health")
	if code != http.StatusOK {
		t.Errorf("code = %d, want 200", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	comps := body["components"].(map[string]any)
	stream := comps["stream"].(map[string]any)
	if stream["state"] != "open" {
		t.Errorf("stream.state = %v, want open", stream["state"])
	}
	if _, ok := comps["journal_db"]; ok {
		t.Error("journal_db reported without a journal")
	}
}

func TestStatus_HealthDegradedWhileReconnecting(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateClosed, nil))

	code, body := getJSON(t, h, "/health")
	if code != http.StatusOK {
		t.Errorf("code = %d, want 200", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func TestStatus_HealthUnhealthyDatabase(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateOpen, func(context.Context) error {
		return errors.New("connection refused")
	}))

	code, body := getJSON(t, h, "/health")
	if code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status = %v, want unhealthy", body["status"])
	}
}

func TestStatus_DebugView(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateOpen, nil))

	_, body := getJSON(t, h, "/debug/view")
	if body["total_pages"] != float64(3) {
		t.Errorf("total_pages = %v, want 3", body["total_pages"])
	}
	if body["error"] != "boom" {
		t.Errorf("error = %v, want boom", body["error"])
	}
}

func TestStatus_Metrics(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateOpen, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "catalogsync_stream_state") {
		t.Error("metrics output missing catalogsync_stream_state")
	}
}

func TestStatus_MethodNotAllowed(t *testing.T) {
	h := newStatusHandler(testDeps(connection.StateOpen, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", rec.Code)
	}
}
