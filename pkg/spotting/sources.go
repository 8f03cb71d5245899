package spotting

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/hexdb"
)

// AirframeResolver returns static airframe data, or nil on any miss.
type AirframeResolver interface {
	ResolveAirframe(ctx context.Context, hex string) *hexdb.AirframeInfo
}

// RouteResolver returns the city pair for a key, or nil when unresolved.
type RouteResolver interface {
	ResolveRoute(ctx context.Context, key string) *hexdb.Route
}

// AirportResolver returns airport metadata, or nil on any miss.
type AirportResolver interface {
	ResolveAirport(ctx context.Context, icao string) *hexdb.AirportInfo
}

// PhotoResolver returns a photo URL, or "" when none was found.
type PhotoResolver interface {
	ResolvePhoto(ctx context.Context, identifier, fallbackKey string) string
}

// Sources bundles the enrichment collaborators. Any resolver except
// Airframes may be nil, in which case its fields stay empty.
type Sources struct {
	Airframes AirframeResolver
	Routes    RouteResolver
	Airports  AirportResolver
	Photos    PhotoResolver

	// Assets decides whether an operator code keeps its value
	Assets OperatorAssets

	// Now stamps FirstSeenAt (default time.Now)
	Now func() time.Time
}

// enrichment is the input to one fan-out.
type enrichment struct {
	identifier string
	callsign   string
	routeKey   string
	airframe   *hexdb.AirframeInfo
	position   *coordinates.Geographic
}

// build runs the route chain and the photo lookup concurrently and joins
// both before assembling the flight. Every initiated lookup finishes before
// build returns.
func (s Sources) build(ctx context.Context, in enrichment) ResolvedFlight {
	var (
		wg          sync.WaitGroup
		origin      *hexdb.AirportInfo
		destination *hexdb.AirportInfo
		photoURL    string
	)

	if s.Routes != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			route := s.Routes.ResolveRoute(ctx, in.routeKey)
			if route == nil || s.Airports == nil {
				return
			}

			var airports sync.WaitGroup
			airports.Add(2)
			go func() {
				defer airports.Done()
				origin = s.Airports.ResolveAirport(ctx, route.Origin)
			}()
			go func() {
				defer airports.Done()
				destination = s.Airports.ResolveAirport(ctx, route.Destination)
			}()
			airports.Wait()
		}()
	}

	if s.Photos != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			photoURL = s.Photos.ResolvePhoto(ctx, photoKey(in), fallbackKey(in))
		}()
	}

	wg.Wait()

	air := in.airframe
	flight := ResolvedFlight{
		Identifier:       in.identifier,
		Callsign:         in.callsign,
		Registration:     air.Registration,
		ModelType:        air.Type,
		ICAOTypeCode:     air.ICAOTypeCode,
		RegisteredOwners: air.RegisteredOwners,
		Origin:           origin,
		Destination:      destination,
		OperatorCode:     ResolveOperatorCode(s.Assets, air.OperatorFlagCode),
		Position:         in.position,
		FirstSeenAt:      s.now(),
	}
	if photoURL != "" {
		flight.PhotoURL = &photoURL
	}
	return flight
}

func (s Sources) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func photoKey(in enrichment) string {
	if in.airframe.ModeS != "" {
		return CanonicalIdentifier(in.airframe.ModeS)
	}
	return in.identifier
}

// fallbackKey is the registration when known, else the callsign.
func fallbackKey(in enrichment) string {
	if r := in.airframe.Registration; r != nil && strings.TrimSpace(*r) != "" {
		return strings.TrimSpace(*r)
	}
	return in.callsign
}
