package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/partsportal/catalog-sync/internal/connection"
	"github.com/partsportal/catalog-sync/internal/router"
)

// statusDeps is what the status endpoints read from.
type statusDeps struct {
	Stream      func() connection.ManagerStats
	Router      func() router.RouterStats
	Ping        func(ctx context.Context) error
	View        func() any
	Metrics     http.Handler
	MetricsPath string
}

func newStatusHandler(d statusDeps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		stream := d.Stream()
		streamInfo := map[string]any{
			"state":      stream.State.String(),
			"connects":   stream.Connects,
			"reconnects": stream.Reconnects,
			"frames":     stream.Frames,
		}
		if stream.LastError != "" {
			streamInfo["last_error"] = stream.LastError
		}
		health.Components["stream"] = streamInfo
		if stream.State != connection.StateOpen && stream.State != connection.StateIdle {
			health.Status = "degraded"
		}

		rs := d.Router()
		health.Components["router"] = map[string]any{
			"subscribers": rs.Subscribers,
			"dispatched":  rs.Dispatched,
		}

		if d.Ping != nil {
			if err := d.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["journal_db"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["journal_db"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/view", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d.View())
	}).Methods(http.MethodGet)

	if d.Metrics != nil {
		r.Handle(d.MetricsPath, d.Metrics).Methods(http.MethodGet)
	}
	return r
}

// serveStatus runs the status server until ctx is done.
func serveStatus(ctx context.Context, port int, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting status server", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
