package servicelog

import (
	"log/slog"
	"time"
)

// Config holds service logging configuration.
type Config struct {
	// Logger receives one record per handled request.
	Logger *slog.Logger

	// SlowThreshold raises successful requests slower than this to Warn. Zero disables it.
	SlowThreshold time.Duration

	// RequestIDHeader is the message header carrying a correlation id.
	RequestIDHeader string

	// Skip lists services that are passed through without logging.
	Skip map[string]bool
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Logger:          slog.Default(),
		SlowThreshold:   500 * time.Millisecond,
		RequestIDHeader: "X-Request-ID",
		Skip:            make(map[string]bool),
	}
}

// Option configures the middleware.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithSlowThreshold sets the slow request threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *Config) {
		c.SlowThreshold = d
	}
}

// WithRequestIDHeader sets the correlation id header name.
func WithRequestIDHeader(header string) Option {
	return func(c *Config) {
		c.RequestIDHeader = header
	}
}

// WithSkip excludes services from logging.
func WithSkip(services ...string) Option {
	return func(c *Config) {
		for _, s := range services {
			c.Skip[s] = true
		}
	}
}
