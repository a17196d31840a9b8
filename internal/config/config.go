package config

import (
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration for catalog-sync binaries.
type Config struct {
	API      APIConfig     `yaml:"api"`
	Stream   StreamConfig  `yaml:"stream"`
	Views    ViewsConfig   `yaml:"views"`
	Journal  JournalConfig `yaml:"journal"`
	Database DBConfig      `yaml:"database"`
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// APIConfig holds catalog service settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst    int           `yaml:"rate_burst"`
}

// StreamConfig holds update stream settings.
type StreamConfig struct {
	Transport    string        `yaml:"transport"` // "sse" or "websocket"
	SSEPath      string        `yaml:"sse_path"`
	WSPath       string        `yaml:"ws_path"`
	PingInterval time.Duration `yaml:"ping_interval"` // websocket only
	PingTimeout  time.Duration `yaml:"ping_timeout"`  // websocket only
}

// ViewsConfig holds list/detail view settings.
type ViewsConfig struct {
	PageLimit          int           `yaml:"page_limit"`
	RefreshInterval    time.Duration `yaml:"refresh_interval"` // 0 disables periodic refresh
	RefreshConcurrency int           `yaml:"refresh_concurrency"`
}

// JournalConfig holds update journal writer settings.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig holds the status server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// StreamingEnabled reports whether a base URL is configured.
func (c APIConfig) StreamingEnabled() bool {
	return c.BaseURL != ""
}

// WebSocketURL derives the WebSocket stream URL from the API base URL by
// swapping http(s) for ws(s). Returns "" when streaming is disabled.
func (c *Config) WebSocketURL() string {
	if c.API.BaseURL == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimRight(c.API.BaseURL, "/"))
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String() + c.Stream.WSPath
}
