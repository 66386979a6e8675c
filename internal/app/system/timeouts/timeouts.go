// Package timeouts holds the deadlines handlers put on store operations.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultProbe   = 5 * time.Second
	DefaultRead    = 10 * time.Second
	DefaultPublish = 30 * time.Second
)

var mu sync.RWMutex

var (
	probe   = DefaultProbe
	read    = DefaultRead
	publish = DefaultPublish
)

// Probe returns the timeout for a single health check.
func Probe() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return probe
}

// Read returns the timeout for loading the site document or revisions.
func Read() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return read
}

// Publish returns the timeout for compressing and storing a new revision.
func Publish() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return publish
}

// Config holds timeout configuration values. Zero fields keep the
// current value.
type Config struct {
	Probe   time.Duration
	Read    time.Duration
	Publish time.Duration
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Probe > 0 {
		probe = cfg.Probe
	}
	if cfg.Read > 0 {
		read = cfg.Read
	}
	if cfg.Publish > 0 {
		publish = cfg.Publish
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	probe = DefaultProbe
	read = DefaultRead
	publish = DefaultPublish
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Probe: probe, Read: read, Publish: publish}
}

// WithTimeout derives a context with the given deadline. The returned cancel
// logs a warning when the operation ran out of time.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
