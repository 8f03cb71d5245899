package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// MaxRadiusKm bounds the user search radius.
const MaxRadiusKm = 500.0

// UserSettings are the values a user changes while the pipeline runs.
// The pipeline reads them once at the start of each refresh.
type UserSettings struct {
	// RadiusKm is the search radius around the observer
	RadiusKm float64 `json:"radius_km"`

	// Debug enables debug-level diagnostics
	Debug bool `json:"debug"`
}

// Validate rejects radii the region builder cannot use.
func (s UserSettings) Validate() error {
	if math.IsNaN(s.RadiusKm) || s.RadiusKm <= 0 || s.RadiusKm > MaxRadiusKm {
		return fmt.Errorf("radius_km %v must be in (0, %v]", s.RadiusKm, MaxRadiusKm)
	}
	return nil
}

// SettingsStore holds the current UserSettings behind a lock, optionally
// persisting every update to a JSON file.
type SettingsStore struct {
	mu      sync.RWMutex
	current UserSettings
	path    string
}

// NewSettingsStore returns an in-memory store seeded with initial.
func NewSettingsStore(initial UserSettings) *SettingsStore {
	return &SettingsStore{current: initial}
}

// LoadSettings returns a store persisted at path. A missing file yields defaults.
func LoadSettings(path string, defaults UserSettings) (*SettingsStore, error) {
	s := &SettingsStore{current: defaults, path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	loaded := defaults
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file: %w", err)
	}
	s.current = loaded
	return s, nil
}

// Current returns a copy of the settings.
func (s *SettingsStore) Current() UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the settings after validation. Cycles already running keep
// the values they started with.
func (s *SettingsStore) Update(next UserSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeSettings(s.path, next); err != nil {
			return err
		}
	}
	s.current = next
	return nil
}

func writeSettings(path string, settings UserSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
