package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + DefaultWSPath
}

func TestNewWebSocketTransport_Defaults(t *testing.T) {
	if _, err := NewWebSocketTransport(WebSocketConfig{}, nil); !errors.Is(err, ErrStreamingDisabled) {
		t.Errorf("empty URL err = %v, want ErrStreamingDisabled", err)
	}

	tr, err := NewWebSocketTransport(WebSocketConfig{URL: "ws://localhost/ws/events"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultWebSocketConfig()
	if tr.cfg.PingInterval != def.PingInterval || tr.cfg.PingTimeout != def.PingTimeout {
		t.Errorf("cfg = %+v, want defaults", tr.cfg)
	}
}

func TestWebSocketTransport_ReceivesTextFrames(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"catalog:update_batch","items":[]}`))
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02})
		conn.WriteMessage(websocket.TextMessage, []byte(`second`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr, err := NewWebSocketTransport(WebSocketConfig{URL: wsURL(server)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	stream, err := tr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	data, err := stream.Next()
	if err != nil || string(data) != `{"type":"catalog:update_batch","items":[]}` {
		t.Fatalf("Next() = %q, %v", data, err)
	}

	// Binary frame is skipped.
	data, err = stream.Next()
	if err != nil || string(data) != "second" {
		t.Fatalf("Next() = %q, %v; want second", data, err)
	}
}

func TestWebSocketTransport_ServerCloseIsReadError(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	})
	defer server.Close()

	tr, _ := NewWebSocketTransport(WebSocketConfig{URL: wsURL(server)}, nil)
	stream, err := tr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	_, err = stream.Next()
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "read" {
		t.Errorf("err = %v, want read TransportError", err)
	}
}

func TestWebSocketTransport_DialErrors(t *testing.T) {
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer plain.Close()

	tr, _ := NewWebSocketTransport(WebSocketConfig{URL: wsURL(plain)}, nil)
	_, err := tr.Open(context.Background())
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "status" {
		t.Errorf("handshake rejection err = %v, want status TransportError", err)
	}

	tr, _ = NewWebSocketTransport(WebSocketConfig{URL: "ws://127.0.0.1:1/ws/events"}, nil)
	_, err = tr.Open(context.Background())
	if !errors.As(err, &te) || te.Op != "dial" {
		t.Errorf("refused err = %v, want dial TransportError", err)
	}
}

func TestWebSocketTransport_StaleConnection(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Never read, so our pings are never answered with pongs.
		time.Sleep(500 * time.Millisecond)
	})
	defer server.Close()

	cfg := WebSocketConfig{
		URL:          wsURL(server),
		PingInterval: 20 * time.Millisecond,
		PingTimeout:  50 * time.Millisecond,
	}
	tr, _ := NewWebSocketTransport(cfg, nil)

	stream, err := tr.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrStaleConnection) {
			t.Errorf("err = %v, want ErrStaleConnection", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale connection not detected")
	}
}

func TestManager_WithWebSocketTransport(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"catalog:update_batch","items":[]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	tr, _ := NewWebSocketTransport(WebSocketConfig{URL: wsURL(server)}, nil)
	rec := newRecorder()
	m := NewManager(ManagerConfig{Name: "websocket"}, tr, rec, nil, WithClock(newFakeClock()))
	m.Start(context.Background())
	defer m.Dispose()

	if v := rec.next(t).Variant(); v != "update_batch" {
		t.Errorf("variant = %q, want update_batch", v)
	}
}
