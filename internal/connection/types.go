package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/partsportal/catalog-sync/internal/event"
)

// ReconnectDelay is the fixed wait between a stream failure and the next
// connection attempt. There is no backoff and no jitter.
const ReconnectDelay = 2000 * time.Millisecond

// Errors
var (
	ErrStreamingDisabled = errors.New("streaming disabled: no base url configured")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrStaleConnection   = errors.New("connection stale (no pong)")
)

// State is the lifecycle state of a Manager.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TransportError is a failure of the underlying stream. All transport errors
// are treated as transient.
type TransportError struct {
	Op  string // "dial", "status" or "read"
	Err error
}

func (e *TransportError) Error() string {
	return "stream " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetriable always reports true; the manager retries every transport failure.
func (e *TransportError) IsRetriable() bool {
	return true
}

// Transport opens streams to the update endpoint.
type Transport interface {
	// Open establishes a new stream. It must honour ctx cancellation.
	Open(ctx context.Context) (Stream, error)
}

// Stream is one open connection.
type Stream interface {
	// Next blocks until the next complete frame arrives. Any error ends the stream.
	Next() ([]byte, error)

	// Close releases the stream and unblocks a pending Next.
	Close() error
}

// Dispatcher receives decoded events. *router.Router satisfies it.
type Dispatcher interface {
	Dispatch(ev event.Event)
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	Name     string // Used in logs, e.g. "sse" or "websocket"
	Disabled bool   // Start logs and stays idle
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	State      State
	Connects   int64
	Reconnects int64
	Frames     int64
	RawFrames  int64
	LastError  string
}
