package spotting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/unklstewy/spotty/pkg/adsb"
)

// ErrNotFound is returned when a search query resolves to no airframe.
var ErrNotFound = errors.New("flight not found")

// RegistrationLookup maps a registration to its ModeS hex code.
type RegistrationLookup interface {
	HexForRegistration(ctx context.Context, registration string) (string, error)
}

// PositionLookup returns the live snapshot for a hex code, or nil when the
// aircraft is not currently tracked.
type PositionLookup interface {
	GetAircraftByICAO(ctx context.Context, icao string) (*adsb.Snapshot, error)
}

// Searcher resolves a single flight by hex code or registration, outside of
// any polling cycle.
type Searcher struct {
	sources       Sources
	registrations RegistrationLookup
	positions     PositionLookup
	logger        *slog.Logger
}

// NewSearcher creates a Searcher. registrations and positions are optional.
func NewSearcher(sources Sources, registrations RegistrationLookup, positions PositionLookup, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Searcher{
		sources:       sources,
		registrations: registrations,
		positions:     positions,
		logger:        logger,
	}
}

// Search treats a query made only of hex digits as a ModeS code and anything
// else as a registration.
func (s *Searcher) Search(ctx context.Context, query string) (*ResolvedFlight, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	hex := q
	if !IsHexIdentifier(q) {
		if s.registrations == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, q)
		}
		h, err := s.registrations.HexForRegistration(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%w: registration %s: %w", ErrNotFound, q, err)
		}
		hex = CanonicalIdentifier(h)
	}

	if s.sources.Airframes == nil {
		return nil, fmt.Errorf("%w: no airframe source", ErrNotFound)
	}
	air := s.sources.Airframes.ResolveAirframe(ctx, hex)
	if air == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hex)
	}

	in := enrichment{
		identifier: hex,
		callsign:   hex,
		routeKey:   hex,
		airframe:   air,
	}
	if snap := s.livePosition(ctx, hex); snap != nil {
		in.position = snap.Position
		if cs := NormalizeCallsign(snap.Callsign); cs != "" {
			in.callsign = cs
			in.routeKey = cs
		}
	}

	flight := s.sources.build(ctx, in)
	return &flight, nil
}

func (s *Searcher) livePosition(ctx context.Context, hex string) *adsb.Snapshot {
	if s.positions == nil {
		return nil
	}
	snap, err := s.positions.GetAircraftByICAO(ctx, hex)
	if err != nil {
		s.logger.Debug("live position lookup failed", "hex", hex, "error", err)
		return nil
	}
	return snap
}

// IsHexIdentifier reports whether s consists only of hexadecimal digits.
func IsHexIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
