package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TestSettingsStore tests in-memory updates.
func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(UserSettings{RadiusKm: 30})

	if got := store.Current(); got.RadiusKm != 30 || got.Debug {
		t.Errorf("Expected initial settings, got %+v", got)
	}

	if err := store.Update(UserSettings{RadiusKm: 80, Debug: true}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := store.Current(); got.RadiusKm != 80 || !got.Debug {
		t.Errorf("Expected updated settings, got %+v", got)
	}

	if err := store.Update(UserSettings{RadiusKm: -1}); err == nil {
		t.Error("Expected error for negative radius")
	}
	if got := store.Current(); got.RadiusKm != 80 {
		t.Errorf("Expected rejected update to leave radius at 80, got %v", got.RadiusKm)
	}
}

// TestSettingsStoreConcurrent exercises concurrent readers and writers.
func TestSettingsStoreConcurrent(t *testing.T) {
	store := NewSettingsStore(UserSettings{RadiusKm: 10})

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(r float64) {
			defer wg.Done()
			_ = store.Update(UserSettings{RadiusKm: r})
		}(float64(i))
		go func() {
			defer wg.Done()
			if s := store.Current(); s.RadiusKm <= 0 {
				t.Errorf("Observed invalid radius %v", s.RadiusKm)
			}
		}()
	}
	wg.Wait()
}

// TestLoadSettingsPersists tests file round trips and missing files.
func TestLoadSettingsPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings", "user.json")

	store, err := LoadSettings(path, UserSettings{RadiusKm: 30})
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got: %v", err)
	}
	if store.Current().RadiusKm != 30 {
		t.Errorf("Expected default radius, got %v", store.Current().RadiusKm)
	}

	if err := store.Update(UserSettings{RadiusKm: 55, Debug: true}); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	reloaded, err := LoadSettings(path, UserSettings{RadiusKm: 30})
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if got := reloaded.Current(); got.RadiusKm != 55 || !got.Debug {
		t.Errorf("Expected persisted settings, got %+v", got)
	}
}

// TestLoadSettingsInvalidFile tests error handling for a corrupt settings file.
func TestLoadSettingsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	if err := os.WriteFile(path, []byte(`{"radius_km": 0}`), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}

	if _, err := LoadSettings(path, UserSettings{RadiusKm: 30}); err == nil {
		t.Error("Expected error for zero radius in file")
	}
}
