// Package spotting implements the enrichment pipeline that turns raw feed
// snapshots into an ordered collection of resolved flights.
package spotting

import (
	"math"
	"strings"
	"time"

	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/hexdb"
)

// ResolvedFlight is one enriched aircraft in the output collection.
// Optional fields are nil when the corresponding lookup missed.
type ResolvedFlight struct {
	// Identifier is the ModeS hex code, uppercase. Primary key.
	Identifier string `json:"identifier"`

	// Callsign is the whitespace-trimmed transponder callsign
	Callsign string `json:"callsign"`

	Registration     *string `json:"registration,omitempty"`
	ModelType        *string `json:"model_type,omitempty"`
	ICAOTypeCode     *string `json:"icao_type_code,omitempty"`
	RegisteredOwners *string `json:"registered_owners,omitempty"`

	Origin      *hexdb.AirportInfo `json:"origin,omitempty"`
	Destination *hexdb.AirportInfo `json:"destination,omitempty"`

	// OperatorCode is the operator flag code, or OperatorPlaceholder when no
	// asset exists for it
	OperatorCode string `json:"operator_code"`

	// Position is the latest known position. Mutated in place by the store.
	Position *coordinates.Geographic `json:"position,omitempty"`

	PhotoURL *string `json:"photo_url,omitempty"`

	// FirstSeenAt is set once when the flight is first built
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// Clone returns a deep copy so callers can never alias store-owned memory.
func (f ResolvedFlight) Clone() ResolvedFlight {
	c := f
	c.Registration = cloneString(f.Registration)
	c.ModelType = cloneString(f.ModelType)
	c.ICAOTypeCode = cloneString(f.ICAOTypeCode)
	c.RegisteredOwners = cloneString(f.RegisteredOwners)
	c.PhotoURL = cloneString(f.PhotoURL)
	if f.Origin != nil {
		o := *f.Origin
		c.Origin = &o
	}
	if f.Destination != nil {
		d := *f.Destination
		c.Destination = &d
	}
	if f.Position != nil {
		p := *f.Position
		c.Position = &p
	}
	return c
}

// DistanceFrom returns the great-circle distance in km from ref, or +Inf
// when the flight has no position.
func (f ResolvedFlight) DistanceFrom(ref coordinates.Geographic) float64 {
	if f.Position == nil {
		return math.Inf(1)
	}
	return coordinates.DistanceKm(ref, *f.Position)
}

// CanonicalIdentifier uppercases and trims a ModeS code.
func CanonicalIdentifier(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
