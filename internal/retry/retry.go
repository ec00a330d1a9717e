// Package retry provides a small exponential-backoff helper for transient
// upstream failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

type config struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// Option configures retry behavior.
type Option func(*config)

// WithMaxRetries sets the maximum number of retry attempts (default 3).
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry (default 1s).
func WithInitialDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay caps the delay between retries (default 30s).
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// Do runs fn, retrying with exponential backoff until it succeeds, the
// retries are exhausted, or ctx is done. The last error is returned wrapped
// when all attempts fail.
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: nil function")
	}
	cfg := &config{maxRetries: 3, initialDelay: time.Second, maxDelay: 30 * time.Second, multiplier: 2.0}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	if lastErr = fn(); lastErr == nil {
		return nil
	}

	for attempt := 1; attempt <= cfg.maxRetries; attempt++ {
		timer := time.NewTimer(delay(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted on attempt %d: %w", attempt, ctx.Err())
		case <-timer.C:
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

func delay(attempt int, cfg *config) time.Duration {
	d := float64(cfg.initialDelay) * math.Pow(cfg.multiplier, float64(attempt-1))
	if time.Duration(d) > cfg.maxDelay {
		return cfg.maxDelay
	}
	return time.Duration(d)
}
