// Package hexdb provides a client for the hexdb.io aircraft registry.
//
// hexdb.io serves static airframe records keyed by Mode S hex code, callsign
// routes, airport metadata and aircraft photo thumbnails. This client covers
// the lookups the spotting pipeline needs for enrichment.
//
// API Documentation: https://hexdb.io/
package hexdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the public hexdb.io endpoint
	BaseURL = "https://hexdb.io"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond paces the per-aircraft fan-out
	DefaultRequestsPerSecond = 50

	// DefaultBurst is the limiter bucket size
	DefaultBurst = 10

	// maxBodyBytes caps how much of a response body is read
	maxBodyBytes = 1 << 20
)

var (
	// ErrNotFound means the registry has no record for the key.
	ErrNotFound = errors.New("hexdb: not found")

	// ErrServerError marks an HTTP 500, which the thumbnail endpoint returns transiently.
	ErrServerError = errors.New("hexdb: server error")

	// ErrUnexpectedStatus covers every other non-2xx response.
	ErrUnexpectedStatus = errors.New("hexdb: unexpected status")
)

// Client represents a hexdb.io API client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// Config contains configuration for the hexdb client.
type Config struct {
	// BaseURL overrides BaseURL (tests, mirrors)
	BaseURL string

	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration

	// Logger receives enrichment-miss diagnostics at debug level
	Logger *slog.Logger
}

// NewClient creates a new hexdb client.
//
// The client includes:
// - Rate limiting shared by every lookup
// - Configurable timeout for requests
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      cfg.Logger,
	}
}

// get issues a paced GET and returns the body of a 2xx response.
// Status failures map onto ErrNotFound, ErrServerError or ErrUnexpectedStatus.
func (c *Client) get(ctx context.Context, path, accept string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s", ErrServerError, path)
	default:
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}
}

// miss logs an enrichment miss; misses degrade a field and are never surfaced.
func (c *Client) miss(kind, key string, err error) {
	c.logger.Debug("enrichment miss", "lookup", kind, "key", key, "error", err)
}
