package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout         = 30 * time.Second
	DefaultRetryBackoff       = 1 * time.Second
	DefaultRateBurst          = 5
	DefaultTransport          = "sse"
	DefaultSSEPath            = "/sse/events"
	DefaultWSPath             = "/ws/events"
	DefaultPingInterval       = 30 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultPageLimit          = 20
	DefaultRefreshConcurrency = 4
	DefaultJournalBatchSize   = 500
	DefaultFlushInterval      = 1 * time.Second
	DefaultJournalBufferSize  = 1000
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultLogMaxSizeMB       = 100
	DefaultLogMaxBackups      = 3
	DefaultLogMaxAgeDays      = 28
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
)

func (c *Config) applyDefaults() {
	// API defaults; max_retries stays 0 so query errors are not retried.
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Stream defaults
	if c.Stream.Transport == "" {
		c.Stream.Transport = DefaultTransport
	}
	if c.Stream.SSEPath == "" {
		c.Stream.SSEPath = DefaultSSEPath
	}
	if c.Stream.WSPath == "" {
		c.Stream.WSPath = DefaultWSPath
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}

	// View defaults
	if c.Views.PageLimit == 0 {
		c.Views.PageLimit = DefaultPageLimit
	}
	if c.Views.RefreshConcurrency == 0 {
		c.Views.RefreshConcurrency = DefaultRefreshConcurrency
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultJournalBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
