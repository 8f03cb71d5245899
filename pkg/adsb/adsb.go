// Package adsb fetches live aircraft snapshots from ADS-B traffic feeds.
package adsb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

// DefaultTimeout bounds every feed request.
const DefaultTimeout = 10 * time.Second

// ErrFeedUnavailable marks a network, status or decode failure of the feed.
// It is logged by FetchAircraftInRegion and never returned to the caller.
var ErrFeedUnavailable = errors.New("traffic feed unavailable")

// Snapshot is one aircraft as reported by a single feed poll.
// It is consumed by the enrichment pipeline and not retained.
type Snapshot struct {
	// Identifier is the 24-bit ICAO transponder address (e.g., "a12345")
	Identifier string

	// Callsign is the raw broadcast callsign, often whitespace-padded
	Callsign string

	// Position is nil when the aircraft reported no lat/lon
	Position *coordinates.Geographic
}

// Feed is the interface that all live-traffic providers implement.
// Failures yield an empty slice; the feed logs its own diagnostics so a
// transient hiccup never aborts a polling cycle.
type Feed interface {
	FetchAircraftInRegion(ctx context.Context, region coordinates.Region) []Snapshot
}

// Option configures a feed client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient replaces the default 10s-timeout HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the logger used for feed diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// feedResponse is the {"ac": [...]} body shared by the supported providers.
type feedResponse struct {
	// Aircraft is the array of aircraft data; nil when the key is absent
	Aircraft []feedAircraft `json:"ac"`

	// Total number of aircraft
	Total int `json:"total"`

	// Current timestamp in milliseconds
	Now float64 `json:"now"`
}

// feedAircraft is a single aircraft in the feed response.
// Field documentation: https://airplanes.live/adsb-field-explanations/
type feedAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number, space padded to 8 characters
	Flight *string `json:"flight"`

	// Lat is latitude in decimal degrees
	Lat *float64 `json:"lat"`

	// Lon is longitude in decimal degrees
	Lon *float64 `json:"lon"`
}

// toSnapshot converts a feed aircraft, reporting false for records without an identifier.
func toSnapshot(ac feedAircraft) (Snapshot, bool) {
	hex := strings.TrimSpace(ac.Hex)
	if hex == "" {
		return Snapshot{}, false
	}

	snap := Snapshot{Identifier: hex}
	if ac.Flight != nil {
		snap.Callsign = *ac.Flight
	}
	if ac.Lat != nil && ac.Lon != nil {
		snap.Position = &coordinates.Geographic{Latitude: *ac.Lat, Longitude: *ac.Lon}
	}
	return snap, true
}

// getSnapshots performs one GET and decodes the aircraft list.
func getSnapshots(ctx context.Context, client *http.Client, url string) ([]Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFeedUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var apiResp feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrFeedUnavailable, err)
	}
	if apiResp.Aircraft == nil {
		return nil, fmt.Errorf("%w: response has no aircraft list", ErrFeedUnavailable)
	}

	snapshots := make([]Snapshot, 0, len(apiResp.Aircraft))
	for _, ac := range apiResp.Aircraft {
		if snap, ok := toSnapshot(ac); ok {
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

// logFeedError writes the diagnostic for a failed poll.
func logFeedError(logger *slog.Logger, provider string, region coordinates.Region, err error) {
	if rle, ok := IsRateLimitError(err); ok {
		logger.Warn("traffic feed rate limited",
			"provider", provider,
			"retry_after", rle.RetryAfter,
			"remaining", rle.Headers.Remaining)
		return
	}
	logger.Warn("traffic feed poll failed",
		"provider", provider,
		"center", region.Center.String(),
		"radius_km", region.RadiusKm,
		"error", err)
}
