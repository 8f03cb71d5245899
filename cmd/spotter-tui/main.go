// Spotty terminal viewer
// Shows the resolved flight list around the observer and reacts to store changes
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/unklstewy/spotty/internal/app"
	"github.com/unklstewy/spotty/internal/logging"
	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
)

var (
	configPath = pflag.StringP("config", "c", "", "Path to configuration file (JSON or YAML)")
	lat        = pflag.Float64("lat", 0, "Observer latitude (overrides config)")
	lon        = pflag.Float64("lon", 0, "Observer longitude (overrides config)")
	logFile    = pflag.String("log-file", "", "Write logs to this file (default: discard)")
	notifyKm   = pflag.Float64("notify-km", 0, "Desktop notification when a flight comes within this many km (0 = off)")
)

func main() {
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(cfg, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, out io.Writer) error {
	logger, levelVar := logging.New(cfg.Log, out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger, levelVar, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	defer func() {
		cancel()
		a.Close()
	}()

	if pflag.CommandLine.Changed("lat") || pflag.CommandLine.Changed("lon") {
		loc := coordinates.Geographic{Latitude: *lat, Longitude: *lon}
		if err := a.Fetcher.SetLocation(loc); err != nil {
			return fmt.Errorf("invalid --lat/--lon: %w", err)
		}
	}

	events, unsubscribe := a.Store.Subscribe()
	defer unsubscribe()

	a.Start(ctx)

	m := newModel(ctx, a.Store, events, a.Fetcher.Refresh, a.Fetcher.Location, a.Settings, a.Spotted)
	if *notifyKm > 0 {
		m.alert = newProximityAlert(*notifyKm)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
