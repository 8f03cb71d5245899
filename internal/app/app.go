// Package app wires the pipeline from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/unklstewy/spotty/internal/db"
	"github.com/unklstewy/spotty/pkg/adsb"
	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/hexdb"
	"github.com/unklstewy/spotty/pkg/photo"
	"github.com/unklstewy/spotty/pkg/spotting"
)

// App holds the wired pipeline.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *spotting.Store
	Fetcher  *spotting.Fetcher
	Searcher *spotting.Searcher
	Settings *config.SettingsStore
	Spotted  spotting.SpottedStore

	repo    *db.SpottedRepository
	runDone chan struct{}
}

// New builds every client and the fetcher from cfg. levelVar is switched by
// the debug user setting.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, levelVar *slog.LevelVar, baseLevel slog.Level) (*App, error) {
	settings, err := config.LoadSettings(cfg.Spotting.SettingsPath, cfg.Spotting.UserSettings())
	if err != nil {
		return nil, err
	}

	registry := hexdb.NewClient(hexdb.Config{
		BaseURL:           cfg.HexDB.BaseURL,
		RequestsPerSecond: cfg.HexDB.RequestsPerSecond,
		Burst:             cfg.HexDB.Burst,
		Timeout:           cfg.HexDB.Timeout(),
		Logger:            logger,
	})

	var finder photo.Finder
	if cfg.Photos.ScrapeEnabled {
		finder = photo.NewScraper(cfg.Photos.ScrapeBaseURL, cfg.HexDB.Timeout())
	}
	photos := photo.NewResolver(registry, finder, cfg.Photos.RetryDelay(), logger)

	var assets spotting.OperatorAssets
	if cfg.Spotting.AssetsDir != "" {
		set, err := spotting.LoadAssetSet(cfg.Spotting.AssetsDir)
		if err != nil {
			return nil, err
		}
		assets = set
		logger.Info("operator assets loaded", "count", len(set), "dir", cfg.Spotting.AssetsDir)
	}

	sources := spotting.Sources{
		Airframes: registry,
		Routes:    registry,
		Airports:  registry,
		Photos:    photos,
		Assets:    assets,
	}

	feedOpts := []adsb.Option{
		adsb.WithHTTPClient(&http.Client{Timeout: cfg.Feed.Timeout()}),
		adsb.WithLogger(logger),
	}
	var (
		feed      adsb.Feed
		positions spotting.PositionLookup
	)
	switch cfg.Feed.Provider {
	case "region":
		feed = adsb.NewRegionClient(cfg.Feed.BaseURL, feedOpts...)
	default:
		live := adsb.NewAirplanesLiveClient(cfg.Feed.BaseURL, feedOpts...)
		feed = live
		positions = live
	}

	var storeOpts []spotting.StoreOption
	if cfg.Spotting.DiscardStaleGenerations {
		storeOpts = append(storeOpts, spotting.WithStaleGenerationDiscard())
	}
	store := spotting.NewStore(storeOpts...)

	fetcher, err := spotting.NewFetcher(spotting.FetcherConfig{
		Feed:      feed,
		Sources:   sources,
		Store:     store,
		Settings:  settings,
		Logger:    logger,
		LevelVar:  levelVar,
		BaseLevel: baseLevel,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Observer.Enabled {
		loc := coordinates.Geographic{Latitude: cfg.Observer.Latitude, Longitude: cfg.Observer.Longitude}
		if err := fetcher.SetLocation(loc); err != nil {
			return nil, fmt.Errorf("invalid observer location: %w", err)
		}
		logger.Info("observer location set", "name", cfg.Observer.Name, "location", loc.String())
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Fetcher:  fetcher,
		Searcher: spotting.NewSearcher(sources, registry, positions, logger),
		Settings: settings,
		Spotted:  spotting.NewMemorySpottedStore(),
	}

	if cfg.Database.Enabled {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 3, time.Second, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.InitSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Info("database connected", "driver", database.Driver())
		a.repo = db.NewSpottedRepository(database, logger)
		a.Spotted = a.repo
	}

	return a, nil
}

// Repository returns the SQL spotted store, or nil when persistence is off.
func (a *App) Repository() *db.SpottedRepository {
	return a.repo
}

// EnableDebug turns the debug user setting on, over whatever the settings
// file holds. The fetcher applies it at the start of the next cycle.
func (a *App) EnableDebug() error {
	next := a.Settings.Current()
	next.Debug = true
	return a.Settings.Update(next)
}

// Start runs the polling loop in the background until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	done := make(chan struct{})
	a.runDone = done
	go func() {
		defer close(done)
		a.Fetcher.Run(ctx, a.Config.Spotting.RefreshInterval(), a.Config.Spotting.TrackInterval())
	}()
}

// Close stops new enrichments, waits for in-flight ones, joins the polling
// loop and closes the database. The context passed to Start must already be
// cancelled.
func (a *App) Close() error {
	a.Fetcher.Stop()
	if a.runDone != nil {
		<-a.runDone
	}
	if a.repo != nil {
		return a.repo.Close()
	}
	return nil
}
