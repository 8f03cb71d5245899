package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPOTTY_DATABASE_PASSWORD.
const EnvPrefix = "SPOTTY"

// Config represents the complete application configuration.
// Values come from defaults, then an optional JSON/YAML file, then the
// environment (a .env file in the working directory is loaded first).
type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Feed     FeedConfig     `json:"feed" mapstructure:"feed"`
	HexDB    HexDBConfig    `json:"hexdb" mapstructure:"hexdb"`
	Photos   PhotoConfig    `json:"photos" mapstructure:"photos"`
	Observer ObserverConfig `json:"observer" mapstructure:"observer"`
	Spotting SpottingConfig `json:"spotting" mapstructure:"spotting"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port" mapstructure:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host" mapstructure:"host"`

	// AllowedOrigins lists CORS origins for the UI (default: "*")
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// DatabaseConfig contains database connection settings for the spotted-flights store.
type DatabaseConfig struct {
	// Enabled turns on persistence; when false spotted flights live in memory
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Driver is the database driver (postgres, mysql, sqlite3)
	Driver string `json:"driver" mapstructure:"driver"`

	// Host is the database server hostname
	Host string `json:"host" mapstructure:"host"`

	// Port is the database server port
	Port int `json:"port" mapstructure:"port"`

	// Database is the database name (or file path for sqlite3)
	Database string `json:"database" mapstructure:"database"`

	// Username for database authentication
	Username string `json:"username" mapstructure:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password,omitempty" mapstructure:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" mapstructure:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// FeedConfig selects the live-traffic provider.
type FeedConfig struct {
	// Provider is "airplanes.live" (point endpoint) or "region" (/region endpoint)
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base URL
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds each feed request
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// HexDBConfig configures the airframe/route/airport registry.
type HexDBConfig struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// RequestsPerSecond and Burst pace the per-aircraft fan-out
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" mapstructure:"burst"`

	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// PhotoConfig configures the photo resolution chain.
type PhotoConfig struct {
	// ScrapeEnabled turns on the HTML fallback when the thumbnail index misses
	ScrapeEnabled bool `json:"scrape_enabled" mapstructure:"scrape_enabled"`

	// ScrapeBaseURL is the photo site searched by registration
	ScrapeBaseURL string `json:"scrape_base_url" mapstructure:"scrape_base_url"`

	// RetryDelayMillis is the pause before retrying a thumbnail HTTP 500
	RetryDelayMillis int `json:"retry_delay_millis" mapstructure:"retry_delay_millis"`
}

// ObserverConfig contains the spotter's starting location.
// When Enabled is false the location must be supplied at runtime.
type ObserverConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Name is a friendly identifier for this observer location
	Name string `json:"name" mapstructure:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude" mapstructure:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

// SpottingConfig controls the polling pipeline.
type SpottingConfig struct {
	// RadiusKm is the initial search radius; users change it at runtime
	RadiusKm float64 `json:"radius_km" mapstructure:"radius_km"`

	// Debug enables debug diagnostics at startup
	Debug bool `json:"debug" mapstructure:"debug"`

	// RefreshIntervalSeconds is how often the list is cleared and repolled (0 = manual only)
	RefreshIntervalSeconds int `json:"refresh_interval_seconds" mapstructure:"refresh_interval_seconds"`

	// TrackIntervalSeconds is how often positions are refreshed without clearing (0 = off)
	TrackIntervalSeconds int `json:"track_interval_seconds" mapstructure:"track_interval_seconds"`

	// DiscardStaleGenerations drops enrichments that finish after a newer refresh began
	DiscardStaleGenerations bool `json:"discard_stale_generations" mapstructure:"discard_stale_generations"`

	// AssetsDir holds operator logo files named by operator code
	AssetsDir string `json:"assets_dir" mapstructure:"assets_dir"`

	// SettingsPath persists user settings between runs (empty = memory only)
	SettingsPath string `json:"settings_path" mapstructure:"settings_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" mapstructure:"level"`

	// Format is text or json
	Format string `json:"format" mapstructure:"format"`
}

// Load reads configuration from a JSON or YAML file.
// If the file doesn't exist, defaults plus environment overrides are returned.
// An empty path searches ./spotty.{json,yaml} and /etc/spotty.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	} else {
		v.SetConfigName("spotty")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/spotty")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path into the environment.
// Existing variables win, and a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.username", d.Database.Username)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("feed.provider", d.Feed.Provider)
	v.SetDefault("feed.base_url", d.Feed.BaseURL)
	v.SetDefault("feed.timeout_seconds", d.Feed.TimeoutSeconds)

	v.SetDefault("hexdb.base_url", d.HexDB.BaseURL)
	v.SetDefault("hexdb.requests_per_second", d.HexDB.RequestsPerSecond)
	v.SetDefault("hexdb.burst", d.HexDB.Burst)
	v.SetDefault("hexdb.timeout_seconds", d.HexDB.TimeoutSeconds)

	v.SetDefault("photos.scrape_enabled", d.Photos.ScrapeEnabled)
	v.SetDefault("photos.scrape_base_url", d.Photos.ScrapeBaseURL)
	v.SetDefault("photos.retry_delay_millis", d.Photos.RetryDelayMillis)

	v.SetDefault("observer.enabled", d.Observer.Enabled)
	v.SetDefault("observer.name", d.Observer.Name)
	v.SetDefault("observer.latitude", d.Observer.Latitude)
	v.SetDefault("observer.longitude", d.Observer.Longitude)

	v.SetDefault("spotting.radius_km", d.Spotting.RadiusKm)
	v.SetDefault("spotting.debug", d.Spotting.Debug)
	v.SetDefault("spotting.refresh_interval_seconds", d.Spotting.RefreshIntervalSeconds)
	v.SetDefault("spotting.track_interval_seconds", d.Spotting.TrackIntervalSeconds)
	v.SetDefault("spotting.discard_stale_generations", d.Spotting.DiscardStaleGenerations)
	v.SetDefault("spotting.assets_dir", d.Spotting.AssetsDir)
	v.SetDefault("spotting.settings_path", d.Spotting.SettingsPath)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "sqlite3",
			Host:         "localhost",
			Port:         5432,
			Database:     "spotty.db",
			Username:     "spotty",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Feed: FeedConfig{
			Provider:       "airplanes.live",
			BaseURL:        "https://api.airplanes.live/v2",
			TimeoutSeconds: 10,
		},
		HexDB: HexDBConfig{
			BaseURL:           "https://hexdb.io",
			RequestsPerSecond: 50,
			Burst:             10,
			TimeoutSeconds:    10,
		},
		Photos: PhotoConfig{
			ScrapeEnabled:    true,
			ScrapeBaseURL:    "https://www.jetphotos.com",
			RetryDelayMillis: 500,
		},
		Observer: ObserverConfig{
			Enabled: false,
			Name:    "Primary Observer",
		},
		Spotting: SpottingConfig{
			RadiusKm:               30,
			RefreshIntervalSeconds: 60,
			TrackIntervalSeconds:   10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres", "mysql", "sqlite3":
		default:
			return fmt.Errorf("invalid database driver: %s (must be postgres, mysql, or sqlite3)", c.Database.Driver)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	}

	switch c.Feed.Provider {
	case "airplanes.live", "region":
	default:
		return fmt.Errorf("invalid feed provider: %s (must be airplanes.live or region)", c.Feed.Provider)
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url is required")
	}

	if c.HexDB.RequestsPerSecond <= 0 {
		return fmt.Errorf("hexdb.requests_per_second must be greater than 0")
	}
	if c.HexDB.Burst <= 0 {
		return fmt.Errorf("hexdb.burst must be greater than 0")
	}

	if c.Observer.Enabled {
		if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
			return fmt.Errorf("observer.latitude %v out of range", c.Observer.Latitude)
		}
		if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
			return fmt.Errorf("observer.longitude %v out of range", c.Observer.Longitude)
		}
	}

	if err := c.Spotting.UserSettings().Validate(); err != nil {
		return err
	}
	if c.Spotting.RefreshIntervalSeconds < 0 || c.Spotting.TrackIntervalSeconds < 0 {
		return fmt.Errorf("spotting intervals must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

// Timeout returns the feed request timeout.
func (c FeedConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds, 10)
}

// Timeout returns the registry request timeout.
func (c HexDBConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds, 10)
}

// RetryDelay returns the pause before a thumbnail retry.
func (c PhotoConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// RefreshInterval returns the full repoll period (0 = manual only).
func (c SpottingConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// TrackInterval returns the position refresh period (0 = off).
func (c SpottingConfig) TrackInterval() time.Duration {
	return time.Duration(c.TrackIntervalSeconds) * time.Second
}

// UserSettings returns the startup values of the user-mutable settings.
func (c SpottingConfig) UserSettings() UserSettings {
	return UserSettings{RadiusKm: c.RadiusKm, Debug: c.Debug}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
