package adsb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

// RegionClient queries a feed exposing GET /region?lat=..&lon=..&radius=..
// with the radius in kilometers.
type RegionClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRegionClient creates a client for a center+radius region endpoint.
func NewRegionClient(baseURL string, opts ...Option) *RegionClient {
	o := buildOptions(opts)
	return &RegionClient{
		baseURL:    baseURL,
		httpClient: o.httpClient,
		logger:     o.logger,
	}
}

// GetAircraft returns the aircraft inside region or the failure that prevented it.
// An invalid region is rejected before any request is built.
func (c *RegionClient) GetAircraft(ctx context.Context, region coordinates.Region) ([]Snapshot, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(region.Center.Latitude, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(region.Center.Longitude, 'f', 4, 64))
	q.Set("radius", strconv.FormatFloat(region.RadiusKm, 'f', 1, 64))

	return getSnapshots(ctx, c.httpClient, fmt.Sprintf("%s/region?%s", c.baseURL, q.Encode()))
}

// FetchAircraftInRegion implements Feed.
func (c *RegionClient) FetchAircraftInRegion(ctx context.Context, region coordinates.Region) []Snapshot {
	snapshots, err := c.GetAircraft(ctx, region)
	if err != nil {
		logFeedError(c.logger, "region", region, err)
		return []Snapshot{}
	}
	return snapshots
}
