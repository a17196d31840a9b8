package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/partsportal/catalog-sync/internal/connection"
	"github.com/partsportal/catalog-sync/internal/event"
	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/router"
)

const wsWriteTimeout = 5 * time.Second

// server serves the catalog endpoints and fans update batches out to every
// connected stream client through a router.
type server struct {
	store  *store
	hub    *router.Router
	logger *slog.Logger

	upgrader websocket.Upgrader
}

func newServer(s *store, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		store:  s,
		hub:    router.New(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *server) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/offers", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/offers/{sku}", s.handleDetail).Methods(http.MethodGet)
	r.HandleFunc(connection.DefaultSSEPath, s.handleSSE).Methods(http.MethodGet)
	r.HandleFunc(connection.DefaultWSPath, s.handleWS).Methods(http.MethodGet)
	return r
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := model.ListQuery{
		Page:  atoi(v.Get("page")),
		Limit: atoi(v.Get("limit")),
		Q:     v.Get("q"),
		Brand: v.Get("brand"),
		Make:  v.Get("make"),
		Model: v.Get("model"),
		Year:  atoi(v.Get("year")),
	}
	writeJSON(w, http.StatusOK, s.store.list(q))
}

func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	p, ok := s.store.get(sku)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "offer " + sku + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// subscribe queues every frame dispatched on the hub until ctx is done.
func (s *server) subscribe(ctx context.Context) *router.GrowableBuffer[[]byte] {
	buf := router.NewGrowableBuffer[[]byte](16)
	unsub := s.hub.Subscribe(func(ev event.Event) {
		buf.Send(ev.Payload())
	})
	go func() {
		<-ctx.Done()
		unsub()
		buf.Close()
	}()
	return buf
}

func (s *server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	buf := s.subscribe(r.Context())
	s.logger.Info("sse client connected", "remote", r.RemoteAddr)
	defer s.logger.Info("sse client disconnected", "remote", r.RemoteAddr)

	for {
		data, ok := buf.Receive()
		if !ok {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reading drives the default ping handler and notices client close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	buf := s.subscribe(ctx)
	s.logger.Info("websocket client connected", "remote", r.RemoteAddr)
	defer s.logger.Info("websocket client disconnected", "remote", r.RemoteAddr)

	for {
		data, ok := buf.Receive()
		if !ok {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// publish encodes items as an update batch frame and sends it to every
// stream client.
func (s *server) publish(items []model.UpdateItem) error {
	if len(items) == 0 {
		return nil
	}
	frame, err := json.Marshal(struct {
		Type  string             `json:"type"`
		Items []model.UpdateItem `json:"items"`
	}{event.TypeUpdateBatch, items})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	s.hub.Dispatch(event.UpdateBatch{Items: items, Data: frame})
	return nil
}

// emit mutates the store and publishes a batch every interval.
func (s *server) emit(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			items := s.store.mutate()
			if err := s.publish(items); err != nil {
				s.logger.Error("publish failed", "error", err)
				continue
			}
			s.logger.Debug("batch published", "items", len(items), "clients", s.hub.Len())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
