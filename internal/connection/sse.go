package connection

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// DefaultSSEPath is the update stream endpoint relative to the API base URL.
const DefaultSSEPath = "/sse/events"

// SSETransport opens Server-Sent Events streams.
type SSETransport struct {
	url    string
	client *http.Client
}

// NewSSETransport builds a transport for <baseURL><path>. An empty baseURL
// returns ErrStreamingDisabled. The client must not carry a Timeout, since
// that bounds the whole stream; nil uses a dedicated client without one.
func NewSSETransport(baseURL, path string, client *http.Client) (*SSETransport, error) {
	if baseURL == "" {
		return nil, ErrStreamingDisabled
	}
	if path == "" {
		path = DefaultSSEPath
	}
	if client == nil {
		client = &http.Client{}
	}

	return &SSETransport{
		url:    strings.TrimRight(baseURL, "/") + path,
		client: client,
	}, nil
}

// URL returns the stream endpoint.
func (t *SSETransport) URL() string {
	return t.url
}

// Open issues the GET and validates the response.
func (t *SSETransport) Open(ctx context.Context) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &TransportError{Op: "status", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		resp.Body.Close()
		return nil, &TransportError{
			Op:  "status",
			Err: fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type")),
		}
	}

	return newSSEStream(resp.Body), nil
}

// sseStream parses the event-stream format. Only unnamed events and events
// named "message" are returned; id and retry fields are ignored.
type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader

	closeOnce sync.Once
}

func newSSEStream(body io.ReadCloser) *sseStream {
	return &sseStream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next returns the data of the next complete message event.
func (s *sseStream) Next() ([]byte, error) {
	var (
		data      bytes.Buffer
		hasData   bool
		eventName string
	)

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			// A partial event without its terminating blank line is dropped.
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &TransportError{Op: "read", Err: err}
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			// An empty data buffer dispatches nothing.
			if hasData && data.Len() > 0 && (eventName == "" || eventName == "message") {
				return data.Bytes(), nil
			}
			data.Reset()
			hasData = false
			eventName = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			eventName = value
		}
	}
}

func (s *sseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
