package spotting

import (
	"context"
	"sync"

	"github.com/unklstewy/spotty/pkg/adsb"
	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/hexdb"
)

func strPtr(s string) *string { return &s }

type fakeFeed struct {
	mu        sync.Mutex
	responses [][]adsb.Snapshot
	regions   []coordinates.Region
}

func (f *fakeFeed) FetchAircraftInRegion(_ context.Context, region coordinates.Region) []adsb.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, region)
	if len(f.responses) == 0 {
		return []adsb.Snapshot{}
	}
	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next
}

func (f *fakeFeed) calls() []coordinates.Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]coordinates.Region(nil), f.regions...)
}

// fakeAirframes answers from a map and records every lookup. When gate is
// set each lookup blocks until it is closed.
type fakeAirframes struct {
	mu      sync.Mutex
	records map[string]*hexdb.AirframeInfo
	lookups []string
	gate    chan struct{}
	started chan string
}

func (f *fakeAirframes) ResolveAirframe(_ context.Context, hex string) *hexdb.AirframeInfo {
	f.mu.Lock()
	f.lookups = append(f.lookups, hex)
	rec := f.records[hex]
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- hex
	}
	if gate != nil {
		<-gate
	}
	return rec
}

func (f *fakeAirframes) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookups...)
}

type fakeRoutes map[string]*hexdb.Route

func (f fakeRoutes) ResolveRoute(_ context.Context, key string) *hexdb.Route {
	return f[key]
}

type fakeAirports map[string]*hexdb.AirportInfo

func (f fakeAirports) ResolveAirport(_ context.Context, icao string) *hexdb.AirportInfo {
	return f[icao]
}

type fakePhotos struct {
	mu   sync.Mutex
	urls map[string]string
	keys [][2]string
}

func (f *fakePhotos) ResolvePhoto(_ context.Context, identifier, fallbackKey string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, [2]string{identifier, fallbackKey})
	return f.urls[identifier]
}

type staticSettings config.UserSettings

func (s staticSettings) Current() config.UserSettings { return config.UserSettings(s) }

func airframe(hex, reg string) *hexdb.AirframeInfo {
	return &hexdb.AirframeInfo{
		ModeS:            hex,
		Registration:     strPtr(reg),
		Type:             strPtr("A320"),
		ICAOTypeCode:     strPtr("A320"),
		OperatorFlagCode: strPtr("UAL"),
	}
}

func snapshot(hex, callsign string, km float64) adsb.Snapshot {
	return adsb.Snapshot{Identifier: hex, Callsign: callsign, Position: atKm(km)}
}
