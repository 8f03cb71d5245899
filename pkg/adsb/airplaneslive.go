package adsb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

// DefaultAirplanesLiveURL is the public airplanes.live v2 API.
const DefaultAirplanesLiveURL = "https://api.airplanes.live/v2"

// MaxAirplanesLiveRadiusNM is the largest radius the point endpoint accepts.
const MaxAirplanesLiveRadiusNM = 250.0

// AirplanesLiveClient implements Feed for the airplanes.live API.
// API Documentation: https://airplanes.live/api-guide/
// Rate Limit: 1 request per second
type AirplanesLiveClient struct {
	// baseURL is the API base URL (default: https://api.airplanes.live/v2)
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	logger *slog.Logger

	// limiter paces requests; polls from the refresh and tracking loops share it
	limiter *rate.Limiter
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
// baseURL should be DefaultAirplanesLiveURL (or custom for testing)
func NewAirplanesLiveClient(baseURL string, opts ...Option) *AirplanesLiveClient {
	o := buildOptions(opts)
	return &AirplanesLiveClient{
		baseURL:    baseURL,
		httpClient: o.httpClient,
		logger:     o.logger,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// GetAircraft returns all aircraft within the region radius.
// Uses the /point/[lat]/[lon]/[radius] endpoint with the radius in nautical
// miles, capped at 250.
func (c *AirplanesLiveClient) GetAircraft(ctx context.Context, region coordinates.Region) ([]Snapshot, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}

	radiusNM := region.RadiusNM()
	if radiusNM > MaxAirplanesLiveRadiusNM {
		radiusNM = MaxAirplanesLiveRadiusNM
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f",
		c.baseURL, region.Center.Latitude, region.Center.Longitude, radiusNM)
	return getSnapshots(ctx, c.httpClient, endpoint)
}

// FetchAircraftInRegion implements Feed.
func (c *AirplanesLiveClient) FetchAircraftInRegion(ctx context.Context, region coordinates.Region) []Snapshot {
	snapshots, err := c.GetAircraft(ctx, region)
	if err != nil {
		logFeedError(c.logger, "airplanes.live", region, err)
		return []Snapshot{}
	}
	return snapshots
}

// GetAircraftByICAO returns a specific aircraft by its ICAO hex code.
// Uses the /hex/[hex] endpoint. Returns nil, nil when the aircraft is not
// currently tracked.
func (c *AirplanesLiveClient) GetAircraftByICAO(ctx context.Context, icao string) (*Snapshot, error) {
	icao = strings.ToLower(strings.TrimSpace(icao))
	if icao == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}

	snapshots, err := getSnapshots(ctx, c.httpClient, fmt.Sprintf("%s/hex/%s", c.baseURL, url.PathEscape(icao)))
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}
