package hexdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// AirframeInfo is the static registry record for one airframe.
// Every field except ModeS may be missing.
type AirframeInfo struct {
	ModeS            string  `json:"ModeS"`
	Manufacturer     *string `json:"Manufacturer,omitempty"`
	RegisteredOwners *string `json:"RegisteredOwners,omitempty"`
	Registration     *string `json:"Registration,omitempty"`
	Type             *string `json:"Type,omitempty"`
	ICAOTypeCode     *string `json:"ICAOTypeCode,omitempty"`
	OperatorFlagCode *string `json:"OperatorFlagCode,omitempty"`
}

// HasRelevantInfo reports whether at least one displayable field is present.
func (a *AirframeInfo) HasRelevantInfo() bool {
	return a.Manufacturer != nil ||
		a.RegisteredOwners != nil ||
		a.Registration != nil ||
		a.Type != nil ||
		a.ICAOTypeCode != nil ||
		a.OperatorFlagCode != nil
}

// LookupAirframe fetches /api/v1/aircraft/{hex}.
// A record with an empty ModeS is reported as ErrNotFound.
func (c *Client) LookupAirframe(ctx context.Context, hex string) (*AirframeInfo, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	body, err := c.get(ctx, "/api/v1/aircraft/"+url.PathEscape(hex), "application/json")
	if err != nil {
		return nil, err
	}

	var info AirframeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse airframe: %w", err)
	}
	if strings.TrimSpace(info.ModeS) == "" {
		return nil, fmt.Errorf("%w: record for %s has no ModeS", ErrNotFound, hex)
	}

	return &info, nil
}

// ResolveAirframe returns the airframe for hex, or nil when the lookup fails,
// the record lacks a ModeS, or it carries nothing worth showing. No retry.
func (c *Client) ResolveAirframe(ctx context.Context, hex string) *AirframeInfo {
	info, err := c.LookupAirframe(ctx, hex)
	if err != nil {
		c.miss("airframe", hex, err)
		return nil
	}
	if !info.HasRelevantInfo() {
		c.miss("airframe", hex, fmt.Errorf("%w: no relevant fields", ErrNotFound))
		return nil
	}
	return info
}
