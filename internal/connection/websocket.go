package connection

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWSPath is the WebSocket variant of the update stream.
const DefaultWSPath = "/ws/events"

// WebSocketConfig configures the WebSocket transport.
type WebSocketConfig struct {
	URL              string        // e.g. ws://localhost:8080/ws/events
	PingInterval     time.Duration // How often we ping the server
	PingTimeout      time.Duration // Max time without ping/pong before the stream is stale
	WriteTimeout     time.Duration // Deadline for control frames
	HandshakeTimeout time.Duration
}

// DefaultWebSocketConfig returns sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// WebSocketTransport opens WebSocket streams. Each text message is one frame.
type WebSocketTransport struct {
	cfg    WebSocketConfig
	logger *slog.Logger
	dialer websocket.Dialer
}

// NewWebSocketTransport creates the transport. An empty URL returns
// ErrStreamingDisabled. Zero durations fall back to the defaults.
func NewWebSocketTransport(cfg WebSocketConfig, logger *slog.Logger) (*WebSocketTransport, error) {
	if cfg.URL == "" {
		return nil, ErrStreamingDisabled
	}
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultWebSocketConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}

	return &WebSocketTransport{
		cfg:    cfg,
		logger: logger,
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}, nil
}

// Open dials the endpoint and starts the heartbeat.
func (t *WebSocketTransport) Open(ctx context.Context) (Stream, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	conn, resp, err := t.dialer.DialContext(ctx, t.cfg.URL, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &TransportError{Op: "status", Err: err}
		}
		return nil, &TransportError{Op: "dial", Err: err}
	}

	s := &wsStream{
		cfg:      t.cfg,
		logger:   t.logger,
		conn:     conn,
		done:     make(chan struct{}),
		lastSeen: time.Now(),
	}

	// Server pings are answered and count as liveness.
	conn.SetPingHandler(func(data string) error {
		s.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})

	go s.heartbeatLoop()

	t.logger.Debug("websocket connected", "url", t.cfg.URL)
	return s, nil
}

type wsStream struct {
	cfg    WebSocketConfig
	logger *slog.Logger
	conn   *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once

	// Write serialization for control frames.
	writeMu sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
	stale    bool
}

func (s *wsStream) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Next returns the next text message. Binary messages are skipped.
func (s *wsStream) Next() ([]byte, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			stale := s.stale
			s.mu.Unlock()
			if stale {
				err = ErrStaleConnection
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
		s.touch()

		if msgType != websocket.TextMessage {
			s.logger.Debug("skipping non-text message", "type", msgType)
			continue
		}
		return data, nil
	}
}

// Close sends a close frame and closes the connection.
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.writeMu.Lock()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()

		err = s.conn.Close()
	})
	return err
}

// heartbeatLoop pings the server and closes the stream when it goes quiet.
func (s *wsStream) heartbeatLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				s.logger.Debug("failed to send ping", "error", err)
			}
			s.writeMu.Unlock()

			s.mu.Lock()
			lastSeen := s.lastSeen
			stale := time.Since(lastSeen) > s.cfg.PingTimeout
			if stale {
				s.stale = true
			}
			s.mu.Unlock()

			if stale {
				s.logger.Warn("no ping received, connection stale",
					"last_seen", lastSeen,
					"timeout", s.cfg.PingTimeout,
				)
				// Unblocks Next, which reports ErrStaleConnection.
				s.conn.Close()
				return
			}
		}
	}
}
