package db

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/retry"
)

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
// This provides resilience against temporary database outages at startup.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - cfg: Database configuration
//   - maxRetries: Maximum number of reconnection attempts after the first
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *slog.Logger) (*DB, error) {
	logger = orDefault(logger)
	rc := retry.DefaultConfig()
	rc.MaxRetries = maxRetries
	rc.InitialDelay = initialDelay
	rc.Logger = logger

	attempt := 0
	return retry.WithBackoffResult(ctx, rc, func() (*DB, error) {
		attempt++
		logger.Info("database connection attempt", "attempt", attempt, "driver", cfg.Driver)
		db, err := Connect(cfg)
		if err != nil {
			logger.Warn("database connection failed", "attempt", attempt, "error", err)
			return nil, err
		}
		return db, nil
	})
}

// EnsureConnection checks if the database connection is alive and reconnects if needed.
//
// Returns: Active database connection (either original or new) and error
func EnsureConnection(ctx context.Context, db *DB, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger = orDefault(logger)
	if db == nil {
		logger.Warn("database connection is nil, attempting to reconnect")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, logger)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database connection lost, attempting to reconnect", "error", err)
		db.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second, logger)
	}

	return db, nil
}

// HealthCheck reports whether the database answers a ping and a trivial query.
func HealthCheck(ctx context.Context, db *DB, logger *slog.Logger) bool {
	if db == nil {
		return false
	}
	logger = orDefault(logger)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Warn("health check failed", "stage", "ping", "error", err)
		return false
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		logger.Warn("health check failed", "stage", "query", "error", err)
		return false
	}
	if result != 1 {
		logger.Warn("health check failed", "stage", "query", "result", result)
		return false
	}

	return true
}

// connErrors are substrings of driver errors worth retrying.
var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"database is locked",
	"eof",
	"timeout",
}

// IsConnectionError reports whether err looks like a transient connection failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation, retrying connection failures.
// Other errors are returned immediately.
func WithRetry(ctx context.Context, maxRetries int, operation func() error) error {
	rc := retry.DefaultConfig()
	rc.MaxRetries = maxRetries
	rc.ShouldRetry = IsConnectionError
	return retry.WithBackoff(ctx, rc, operation)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
