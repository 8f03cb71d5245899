package spotting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/unklstewy/spotty/pkg/adsb"
	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
)

// ErrNoLocation is returned by Refresh before any center point is known.
var ErrNoLocation = errors.New("no observer location")

// SettingsSource supplies the user settings read at the start of each cycle.
type SettingsSource interface {
	Current() config.UserSettings
}

// FetcherConfig wires a Fetcher.
type FetcherConfig struct {
	Feed     adsb.Feed
	Sources  Sources
	Store    *Store
	Settings SettingsSource

	Logger *slog.Logger

	// LevelVar, when set, is switched to Debug while the debug setting is
	// on and back to BaseLevel otherwise
	LevelVar  *slog.LevelVar
	BaseLevel slog.Level

	// Now stamps the last-updated time (default time.Now)
	Now func() time.Time
}

// Fetcher drives polling cycles: one feed request per cycle, then one
// detached enrichment goroutine per accepted aircraft.
type Fetcher struct {
	feed     adsb.Feed
	sources  Sources
	store    *Store
	settings SettingsSource
	logger   *slog.Logger
	levelVar *slog.LevelVar
	base     slog.Level
	now      func() time.Time

	mu       sync.Mutex
	location *coordinates.Geographic
	stopped  bool

	// inflight tracks enrichment goroutines across cycles. Add happens under
	// mu so it never races the final Wait in Stop.
	inflight sync.WaitGroup
}

// NewFetcher creates a Fetcher. Feed, Store and Settings are required, as is
// Sources.Airframes.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Feed == nil || cfg.Store == nil || cfg.Settings == nil || cfg.Sources.Airframes == nil {
		return nil, fmt.Errorf("fetcher requires a feed, store, settings and airframe resolver")
	}

	f := &Fetcher{
		feed:     cfg.Feed,
		sources:  cfg.Sources,
		store:    cfg.Store,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		levelVar: cfg.LevelVar,
		base:     cfg.BaseLevel,
		now:      cfg.Now,
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f, nil
}

// Store returns the collection this fetcher merges into.
func (f *Fetcher) Store() *Store {
	return f.store
}

// SetLocation records the center point for the next cycle.
func (f *Fetcher) SetLocation(loc coordinates.Geographic) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = &loc
	return nil
}

// Location returns the current center point, if any.
func (f *Fetcher) Location() (coordinates.Geographic, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.location == nil {
		return coordinates.Geographic{}, false
	}
	return *f.location, true
}

// UpdateLocation handles a location change: it stores the new center and
// starts a fresh cycle around it.
func (f *Fetcher) UpdateLocation(ctx context.Context, loc coordinates.Geographic) error {
	if err := f.SetLocation(loc); err != nil {
		return err
	}
	return f.Refresh(ctx)
}

// Refresh clears the store and seen set, polls the feed and dispatches
// enrichments. It returns once dispatch completes; enrichments keep running
// in the background and are not cancelled by later cycles.
func (f *Fetcher) Refresh(ctx context.Context) error {
	settings := f.settings.Current()
	f.applyDebug(settings.Debug)

	ref, region, err := f.region(settings)
	if err != nil {
		return err
	}

	gen := f.store.RemoveAll()
	snapshots := f.feed.FetchAircraftInRegion(ctx, region)
	f.logger.Debug("feed returned aircraft",
		"count", len(snapshots), "generation", gen, "radius_km", region.RadiusKm)

	dispatched := 0
	for _, snap := range snapshots {
		if f.dispatch(ctx, gen, snap, ref) {
			dispatched++
		}
	}

	f.store.MarkUpdated(f.now())
	f.logger.Debug("refresh dispatched", "generation", gen, "enrichments", dispatched)
	return nil
}

// TrackPositions polls the same region without clearing. Identifiers already
// present only get their position updated; new aircraft are enriched as in
// Refresh.
func (f *Fetcher) TrackPositions(ctx context.Context) error {
	settings := f.settings.Current()
	f.applyDebug(settings.Debug)

	ref, region, err := f.region(settings)
	if err != nil {
		return err
	}

	gen := f.store.Generation()
	updated := 0
	for _, snap := range f.feed.FetchAircraftInRegion(ctx, region) {
		id := CanonicalIdentifier(snap.Identifier)
		if _, ok := f.store.Get(id); ok {
			if f.store.UpdatePosition(id, snap.Position) {
				updated++
			}
			continue
		}
		f.dispatch(ctx, gen, snap, ref)
	}

	f.store.MarkUpdated(f.now())
	f.logger.Debug("positions tracked", "generation", gen, "updated", updated)
	return nil
}

// Wait blocks until every dispatched enrichment has merged. It must not run
// concurrently with a cycle; use Stop at shutdown.
func (f *Fetcher) Wait() {
	f.inflight.Wait()
}

// Stop refuses new enrichments, then waits for the ones already dispatched.
// Cycles still running afterwards fetch but dispatch nothing.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()

	f.inflight.Wait()
}

// Run refreshes immediately, then on every refreshEvery tick, and tracks
// positions on every trackEvery tick. A zero interval disables that loop.
func (f *Fetcher) Run(ctx context.Context, refreshEvery, trackEvery time.Duration) {
	var refreshC <-chan time.Time
	if refreshEvery > 0 {
		ticker := time.NewTicker(refreshEvery)
		defer ticker.Stop()
		refreshC = ticker.C
	}

	var trackC <-chan time.Time
	if trackEvery > 0 {
		trackTicker := time.NewTicker(trackEvery)
		defer trackTicker.Stop()
		trackC = trackTicker.C
	}

	f.cycle(ctx, "refresh", f.Refresh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshC:
			f.cycle(ctx, "refresh", f.Refresh)
		case <-trackC:
			f.cycle(ctx, "track", f.TrackPositions)
		}
	}
}

func (f *Fetcher) cycle(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("panic in polling cycle", "cycle", name, "panic", r)
		}
	}()

	if err := fn(ctx); err != nil {
		if errors.Is(err, ErrNoLocation) {
			f.logger.Debug("skipping cycle until a location is known", "cycle", name)
			return
		}
		f.logger.Warn("polling cycle failed", "cycle", name, "error", err)
	}
}

func (f *Fetcher) region(settings config.UserSettings) (coordinates.Geographic, coordinates.Region, error) {
	ref, ok := f.Location()
	if !ok {
		return ref, coordinates.Region{}, ErrNoLocation
	}
	region, err := coordinates.NewRegion(ref, settings.RadiusKm)
	if err != nil {
		return ref, coordinates.Region{}, err
	}
	return ref, region, nil
}

// dispatch applies the synchronous dedup gate and, if the snapshot passes,
// starts its enrichment.
func (f *Fetcher) dispatch(ctx context.Context, gen uint64, snap adsb.Snapshot, ref coordinates.Geographic) bool {
	key := NormalizeCallsign(snap.Callsign)
	if err := checkCallsign(key); err != nil {
		f.logger.Debug("snapshot discarded", "hex", snap.Identifier, "reason", err)
		return false
	}
	if !f.store.MarkSeen(key) {
		f.logger.Debug("duplicate callsign in cycle", "callsign", key, "hex", snap.Identifier)
		return false
	}

	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		f.logger.Debug("fetcher stopped, snapshot not enriched", "hex", snap.Identifier)
		return false
	}
	f.inflight.Add(1)
	f.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer f.inflight.Done()
		f.enrich(detached, gen, snap, key, ref)
	}()
	return true
}

func (f *Fetcher) enrich(ctx context.Context, gen uint64, snap adsb.Snapshot, key string, ref coordinates.Geographic) {
	id := CanonicalIdentifier(snap.Identifier)

	air := f.sources.Airframes.ResolveAirframe(ctx, id)
	if air == nil {
		f.logger.Debug("aircraft dropped",
			"reason", fmt.Errorf("%w: no airframe record for %s", ErrRejected, id))
		return
	}

	flight := f.sources.build(ctx, enrichment{
		identifier: id,
		callsign:   key,
		routeKey:   key,
		airframe:   air,
		position:   snap.Position,
	})

	result := f.store.Merge(gen, flight, &ref)
	f.logger.Debug("flight merged", "hex", id, "callsign", key, "result", result, "generation", gen)
}

func (f *Fetcher) applyDebug(debug bool) {
	if f.levelVar == nil {
		return
	}
	if debug {
		f.levelVar.Set(slog.LevelDebug)
	} else {
		f.levelVar.Set(f.base)
	}
}
