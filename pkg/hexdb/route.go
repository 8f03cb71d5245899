package hexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Route is a resolved city pair.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// ParseRoute splits a hyphen-delimited route string.
//
// Two or three components are accepted and the first two are used; a third
// component is a technical stop and is dropped. Any other count, or an empty
// component, leaves the route unresolved.
func ParseRoute(s string) (Route, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Route{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Route{}, false
		}
	}
	return Route{Origin: parts[0], Destination: parts[1]}, true
}

// LookupRoute fetches /api/v1/route/icao/{callsign} and parses the route field.
func (c *Client) LookupRoute(ctx context.Context, callsign string) (*Route, error) {
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return nil, fmt.Errorf("%w: empty callsign", ErrNotFound)
	}

	body, err := c.get(ctx, "/api/v1/route/icao/"+url.PathEscape(callsign), "application/json")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Route string `json:"route"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse route: %w", err)
	}

	route, ok := ParseRoute(resp.Route)
	if !ok {
		return nil, fmt.Errorf("%w: malformed route %q", ErrNotFound, resp.Route)
	}
	return &route, nil
}

// ResolveRoute returns the route for callsign or nil when unresolved.
func (c *Client) ResolveRoute(ctx context.Context, callsign string) *Route {
	route, err := c.LookupRoute(ctx, callsign)
	if err != nil {
		c.miss("route", callsign, err)
		return nil
	}
	return route
}
