// Package resilience wraps calls to flaky external services with
// timeouts, bounded retries, and a typed fallback. Callers only ever
// see a resolved value; the scoring core never blocks on a provider
// outage.
package resilience

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

// Status reports which path produced the returned value.
type Status string

const (
	StatusPrimary  Status = "primary"
	StatusFallback Status = "fallback"
)

// Config bounds one resilient call.
type Config struct {
	// Timeout is the hard per-attempt limit.
	Timeout time.Duration

	// MaxRetries is the number of attempts against the primary.
	MaxRetries int

	// BaseDelay seeds the exponential backoff. Doubled per attempt,
	// with up to one extra BaseDelay of jitter.
	BaseDelay time.Duration
}

// DefaultConfig mirrors the service defaults: 25s per attempt, three
// attempts, one-second backoff seed.
func DefaultConfig() Config {
	return Config{
		Timeout:    25 * time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 25 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	return c
}

// Call runs primary with retries and a per-attempt timeout. When every
// attempt fails and a fallback is provided, the fallback value is
// returned with StatusFallback and a nil error. Rate-limit style
// errors back off exponentially with jitter; other errors wait one
// BaseDelay and retry.
func Call[T any](ctx context.Context, cfg Config, primary func(ctx context.Context) (T, error), fallback func() T) (T, Status, error) {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		value, err := primary(attemptCtx)
		cancel()

		if err == nil {
			return value, StatusPrimary, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}

		delay := cfg.BaseDelay
		if isRateLimited(err) {
			delay = cfg.BaseDelay << attempt
			delay += time.Duration(rand.Int63n(int64(cfg.BaseDelay) + 1))
		}
		slog.Warn("resilient call attempt failed",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"backoff", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	if fallback != nil {
		slog.Warn("resilient call exhausted, using fallback", "error", lastErr)
		return fallback(), StatusFallback, nil
	}

	var zero T
	return zero, StatusFallback, lastErr
}

// isRateLimited matches the error signatures providers use for
// throttling.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate_limit", "rate limit", "429", "overloaded", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
