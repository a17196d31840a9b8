package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Client provides access to the Catalog Query Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	// limiter paces outgoing requests; nil means unlimited.
	limiter *rate.Limiter

	// detail coalesces concurrent GetOffer calls for the same SKU.
	detail singleflight.Group

	// waitMu guards waiting.
	waitMu  sync.Mutex
	waiting map[string]*detailFlight
}

// detailFlight is the request context shared by the GetOffer callers of one
// SKU. It is cancelled when the last caller leaves.
type detailFlight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	callers int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new catalog client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   0,
		retryBackoff: time.Second,
		waiting:      make(map[string]*detailFlight),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries enables retrying 5xx and 429 responses.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst. rps <= 0 leaves the client unlimited.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
