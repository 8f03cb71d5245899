// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Config configures retry behavior with exponential backoff.
type Config struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses the server supplied delay when the error carries one
	RespectRetryAfter bool

	// ShouldRetry reports whether err is transient. Nil retries every error.
	ShouldRetry func(err error) bool

	// Logger receives one debug line per failed attempt. Optional.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults for retry behavior.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// Once returns a config that retries a single time after delay, only for
// errors accepted by shouldRetry.
func Once(delay time.Duration, shouldRetry func(error) bool) Config {
	return Config{
		MaxRetries:   1,
		InitialDelay: delay,
		MaxDelay:     delay,
		Multiplier:   1,
		ShouldRetry:  shouldRetry,
	}
}

// RetryAfterer is implemented by errors that carry a server supplied delay,
// such as an HTTP 429 with a Retry-After header.
type RetryAfterer interface {
	RetryAfterDelay() time.Duration
}

// Func is a function that can be retried.
type Func func() error

// WithBackoff executes fn with exponential backoff retry logic.
//
// Example usage:
//
//	err := retry.WithBackoff(ctx, retry.DefaultConfig(), func() error {
//	    return client.Ping(ctx)
//	})
func WithBackoff(ctx context.Context, cfg Config, fn Func) error {
	_, err := WithBackoffResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// WithBackoffResult executes fn with exponential backoff and returns its result.
// A non-retryable error is returned immediately, unwrapped.
func WithBackoffResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return result, err
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("attempt failed",
				"attempt", attempt+1,
				"max_attempts", cfg.MaxRetries+1,
				"error", err)
		}

		if attempt == cfg.MaxRetries {
			break
		}

		// delay = min(InitialDelay * Multiplier^attempt, MaxDelay)
		nextDelay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if cfg.MaxDelay > 0 && nextDelay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		} else {
			delay = nextDelay
		}

		var ra RetryAfterer
		if cfg.RespectRetryAfter && errors.As(err, &ra) {
			if d := ra.RetryAfterDelay(); d > 0 {
				delay = d
			}
		}
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
