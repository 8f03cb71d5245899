package hexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Unknown is the sentinel stored in airport fields the registry left out.
const Unknown = "Unknown"

// AirportInfo is always fully populated: missing strings hold Unknown and
// missing coordinates hold 0.
type AirportInfo struct {
	ICAO        string  `json:"icao"`
	IATA        string  `json:"iata"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RegionName  string  `json:"region_name"`
}

type airportResponse struct {
	ICAO        *string  `json:"icao"`
	IATA        *string  `json:"iata"`
	Airport     *string  `json:"airport"`
	CountryCode *string  `json:"country_code"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RegionName  *string  `json:"region_name"`
}

// UnknownAirport returns an AirportInfo holding only sentinels.
func UnknownAirport() AirportInfo {
	return AirportInfo{
		ICAO:        Unknown,
		IATA:        Unknown,
		Name:        Unknown,
		CountryCode: Unknown,
		RegionName:  Unknown,
	}
}

func (r airportResponse) toInfo() AirportInfo {
	info := UnknownAirport()
	setString(&info.ICAO, r.ICAO)
	setString(&info.IATA, r.IATA)
	setString(&info.Name, r.Airport)
	setString(&info.CountryCode, r.CountryCode)
	setString(&info.RegionName, r.RegionName)
	if r.Latitude != nil {
		info.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		info.Longitude = *r.Longitude
	}
	return info
}

func setString(dst *string, src *string) {
	if src != nil && strings.TrimSpace(*src) != "" {
		*dst = *src
	}
}

// LookupAirport fetches /api/v1/airport/icao/{code}.
func (c *Client) LookupAirport(ctx context.Context, icao string) (*AirportInfo, error) {
	icao = strings.TrimSpace(icao)
	if icao == "" {
		return nil, fmt.Errorf("%w: empty airport code", ErrNotFound)
	}

	body, err := c.get(ctx, "/api/v1/airport/icao/"+url.PathEscape(icao), "application/json")
	if err != nil {
		return nil, err
	}

	var resp airportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse airport: %w", err)
	}

	info := resp.toInfo()
	return &info, nil
}

// ResolveAirport returns airport metadata or nil when the status is outside
// [200,299] or the body cannot be decoded.
func (c *Client) ResolveAirport(ctx context.Context, icao string) *AirportInfo {
	info, err := c.LookupAirport(ctx, icao)
	if err != nil {
		c.miss("airport", icao, err)
		return nil
	}
	return info
}
