// Spotty server
// Runs the polling pipeline and serves it over REST + WebSocket
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/unklstewy/spotty/internal/api"
	"github.com/unklstewy/spotty/internal/app"
	"github.com/unklstewy/spotty/internal/logging"
	"github.com/unklstewy/spotty/pkg/config"
)

var (
	configPath = pflag.StringP("config", "c", "", "Path to configuration file (JSON or YAML)")
	port       = pflag.StringP("port", "p", "", "HTTP server port (overrides config)")
	debug      = pflag.Bool("debug", false, "Start with debug diagnostics enabled")
)

func main() {
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, levelVar := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger, levelVar); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, levelVar *slog.LevelVar) error {
	logger.Info("starting spotty server",
		"feed", cfg.Feed.Provider,
		"radius_km", cfg.Spotting.RadiusKm,
		"refresh", cfg.Spotting.RefreshInterval(),
		"track", cfg.Spotting.TrackInterval(),
		"persistence", cfg.Database.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, levelVar, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	defer func() {
		stop()
		a.Close()
	}()

	// --debug overrides the saved settings file
	if *debug {
		if err := a.EnableDebug(); err != nil {
			return fmt.Errorf("failed to enable debug: %w", err)
		}
	}

	var dbHealth api.DatabaseHealth
	if repo := a.Repository(); repo != nil {
		dbHealth = repo
	}

	srv := api.NewServer(api.Config{
		Pipeline:       a.Fetcher,
		Store:          a.Store,
		Settings:       a.Settings,
		Searcher:       a.Searcher,
		Spotted:        a.Spotted,
		Database:       dbHealth,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
