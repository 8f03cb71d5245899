package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got: %v", err)
	}

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	// Database defaults
	if cfg.Database.Enabled {
		t.Error("Expected persistence disabled by default")
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}

	// Feed and registry defaults
	if cfg.Feed.Provider != "airplanes.live" {
		t.Errorf("Expected airplanes.live provider, got %s", cfg.Feed.Provider)
	}
	if cfg.Feed.Timeout() != 10*time.Second {
		t.Errorf("Expected feed timeout 10s, got %v", cfg.Feed.Timeout())
	}
	if cfg.HexDB.RequestsPerSecond != 50 || cfg.HexDB.Burst != 10 {
		t.Errorf("Expected hexdb pacing 50/10, got %v/%d", cfg.HexDB.RequestsPerSecond, cfg.HexDB.Burst)
	}

	// Spotting defaults
	if cfg.Spotting.RadiusKm != 30 {
		t.Errorf("Expected radius 30km, got %v", cfg.Spotting.RadiusKm)
	}
	if cfg.Spotting.DiscardStaleGenerations {
		t.Error("Expected stale completions to be accepted by default")
	}
	if cfg.Spotting.RefreshInterval() != time.Minute {
		t.Errorf("Expected refresh interval 1m, got %v", cfg.Spotting.RefreshInterval())
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading a valid configuration file.
func TestLoadValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.json")

	testConfig := DefaultConfig()
	testConfig.Server.Port = "9090"
	testConfig.Database = DatabaseConfig{
		Enabled:  true,
		Driver:   "postgres",
		Host:     "db.example.com",
		Port:     5433,
		Database: "testdb",
		Username: "testuser",
	}
	testConfig.Observer = ObserverConfig{Enabled: true, Name: "Heathrow", Latitude: 51.47, Longitude: -0.4543}
	testConfig.Spotting.RadiusKm = 45

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
	if cfg.Observer.Latitude != 51.47 {
		t.Errorf("Expected latitude 51.47, got %f", cfg.Observer.Latitude)
	}
	if cfg.Spotting.RadiusKm != 45 {
		t.Errorf("Expected radius 45, got %v", cfg.Spotting.RadiusKm)
	}
	// untouched keys keep their defaults
	if cfg.HexDB.BaseURL != "https://hexdb.io" {
		t.Errorf("Expected default hexdb URL, got %s", cfg.HexDB.BaseURL)
	}
}

// TestLoadYAML tests that YAML files are accepted.
func TestLoadYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "spotty.yaml")
	yaml := "feed:\n  provider: region\n  base_url: http://feed.local\nlog:\n  level: debug\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Feed.Provider != "region" || cfg.Feed.BaseURL != "http://feed.local" {
		t.Errorf("Expected region feed at http://feed.local, got %+v", cfg.Feed)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.Log.Level)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected read error, got: %v", err)
	}
}

// TestLoadInvalidValues tests that Validate runs on load.
func TestLoadInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(configPath, []byte(`{"feed":{"provider":"opensky"}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid feed provider") {
		t.Errorf("Expected invalid provider error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file.
func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "saved-config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Observer.Name = "Test Save"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Observer.Name != "Test Save" {
		t.Errorf("Expected observer name 'Test Save', got %s", loaded.Observer.Name)
	}
}

// TestEnvironmentOverrides tests SPOTTY_* environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SPOTTY_SERVER_PORT", "7777")
	t.Setenv("SPOTTY_DATABASE_PASSWORD", "env-password")
	t.Setenv("SPOTTY_SPOTTING_RADIUS_KM", "12.5")
	t.Setenv("SPOTTY_HEXDB_BASE_URL", "http://hexdb.local")

	configPath := filepath.Join(t.TempDir(), "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Password = "original-password"
	data, _ := json.Marshal(testCfg)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port 7777 from env, got %s", cfg.Server.Port)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Spotting.RadiusKm != 12.5 {
		t.Errorf("Expected radius 12.5 from env, got %v", cfg.Spotting.RadiusKm)
	}
	if cfg.HexDB.BaseURL != "http://hexdb.local" {
		t.Errorf("Expected hexdb URL from env, got %s", cfg.HexDB.BaseURL)
	}
}

// TestValidate tests rejection of bad values.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Empty port", func(c *Config) { c.Server.Port = "" }},
		{"Unknown driver", func(c *Config) { c.Database.Enabled = true; c.Database.Driver = "oracle" }},
		{"Zero radius", func(c *Config) { c.Spotting.RadiusKm = 0 }},
		{"Huge radius", func(c *Config) { c.Spotting.RadiusKm = 5000 }},
		{"Observer out of range", func(c *Config) { c.Observer.Enabled = true; c.Observer.Latitude = 95 }},
		{"Bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"Bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"Zero hexdb rate", func(c *Config) { c.HexDB.RequestsPerSecond = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
