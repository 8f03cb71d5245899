package adsb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

func mustRegion(t *testing.T, lat, lon, radiusKm float64) coordinates.Region {
	t.Helper()
	region, err := coordinates.NewRegion(coordinates.Geographic{Latitude: lat, Longitude: lon}, radiusKm)
	if err != nil {
		t.Fatalf("Expected valid region, got: %v", err)
	}
	return region
}

// TestNewAirplanesLiveClient tests client construction.
func TestNewAirplanesLiveClient(t *testing.T) {
	client := NewAirplanesLiveClient("https://api.test.com")

	if client == nil {
		t.Fatal("Expected client, got nil")
	}
	if client.baseURL != "https://api.test.com" {
		t.Errorf("Expected baseURL https://api.test.com, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", client.httpClient.Timeout)
	}
}

// TestAirplanesLiveGetAircraft tests fetching aircraft within a radius.
func TestAirplanesLiveGetAircraft(t *testing.T) {
	t.Run("Successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expectedPath := "/point/35.0000/-80.0000/100"
			if r.URL.Path != expectedPath {
				t.Errorf("Expected path %s, got %s", expectedPath, r.URL.Path)
			}

			response := feedResponse{
				Aircraft: []feedAircraft{
					{
						Hex:    "a12345",
						Flight: strPtr("UAL123  "),
						Lat:    floatPtr(35.5),
						Lon:    floatPtr(-80.5),
					},
				},
				Total: 1,
			}
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		aircraft, err := client.GetAircraft(context.Background(), mustRegion(t, 35.0, -80.0, 100*coordinates.KmPerNauticalMile))

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(aircraft) != 1 {
			t.Fatalf("Expected 1 aircraft, got %d", len(aircraft))
		}

		ac := aircraft[0]
		if ac.Identifier != "a12345" {
			t.Errorf("Expected identifier a12345, got %s", ac.Identifier)
		}
		// callsign is passed through raw
		if ac.Callsign != "UAL123  " {
			t.Errorf("Expected raw callsign %q, got %q", "UAL123  ", ac.Callsign)
		}
		if ac.Position == nil || ac.Position.Latitude != 35.5 {
			t.Errorf("Expected latitude 35.5, got %v", ac.Position)
		}
	})

	t.Run("Caps radius at 250 NM", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/point/35.0000/-80.0000/250" {
				t.Errorf("Expected radius capped at 250, got path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(feedResponse{Aircraft: []feedAircraft{}})
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		_, err := client.GetAircraft(context.Background(), mustRegion(t, 35.0, -80.0, 500*coordinates.KmPerNauticalMile))

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	})

	t.Run("Handles rate limit error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.Header().Set("X-Rate-Limit-Limit", "100")
			w.Header().Set("X-Rate-Limit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded"))
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		_, err := client.GetAircraft(context.Background(), mustRegion(t, 35.0, -80.0, 100))

		rle, ok := IsRateLimitError(err)
		if !ok {
			t.Fatalf("Expected RateLimitError type, got %v", err)
		}
		if rle.RetryAfter != 30*time.Second {
			t.Errorf("Expected retry after 30s, got %v", rle.RetryAfter)
		}
		if rle.Headers.Limit != 100 {
			t.Errorf("Expected limit 100, got %d", rle.Headers.Limit)
		}
		if !errors.Is(err, ErrFeedUnavailable) {
			t.Errorf("Expected rate limit to match ErrFeedUnavailable, got %v", err)
		}
	})

	t.Run("Keeps aircraft with missing position", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			response := feedResponse{
				Aircraft: []feedAircraft{
					{Hex: "a11111", Lat: floatPtr(35.0), Lon: floatPtr(-80.0)},
					{Hex: "a22222", Lat: nil, Lon: floatPtr(-80.0)},
					{Hex: "", Lat: floatPtr(35.0), Lon: floatPtr(-80.0)},
				},
			}
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		aircraft, err := client.GetAircraft(context.Background(), mustRegion(t, 35.0, -80.0, 100))

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(aircraft) != 2 {
			t.Fatalf("Expected 2 aircraft (empty hex skipped), got %d", len(aircraft))
		}
		if aircraft[1].Position != nil {
			t.Errorf("Expected nil position for a22222, got %v", aircraft[1].Position)
		}
	})

	t.Run("Invalid region issues no request", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		_, err := client.GetAircraft(context.Background(), coordinates.Region{})

		if !errors.Is(err, coordinates.ErrInvalidRegion) {
			t.Errorf("Expected ErrInvalidRegion, got %v", err)
		}
		if calls != 0 {
			t.Errorf("Expected no request, got %d", calls)
		}
	})
}

// TestAirplanesLiveFetchAircraftInRegion tests that failures collapse to an empty result.
func TestAirplanesLiveFetchAircraftInRegion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal error"))
	}))
	defer server.Close()

	client := NewAirplanesLiveClient(server.URL)
	aircraft := client.FetchAircraftInRegion(context.Background(), mustRegion(t, 35.0, -80.0, 100))

	if aircraft == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(aircraft) != 0 {
		t.Errorf("Expected 0 aircraft, got %d", len(aircraft))
	}
}

// TestGetAircraftByICAO tests fetching a specific aircraft.
func TestGetAircraftByICAO(t *testing.T) {
	t.Run("Found aircraft", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/hex/a12345" {
				t.Errorf("Expected path /hex/a12345, got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(feedResponse{
				Aircraft: []feedAircraft{
					{Hex: "a12345", Flight: strPtr("DAL456"), Lat: floatPtr(40.0), Lon: floatPtr(-75.0)},
				},
			})
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		aircraft, err := client.GetAircraftByICAO(context.Background(), "A12345")

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if aircraft == nil {
			t.Fatal("Expected aircraft, got nil")
		}
		if aircraft.Callsign != "DAL456" {
			t.Errorf("Expected callsign DAL456, got %s", aircraft.Callsign)
		}
	})

	t.Run("Aircraft not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(feedResponse{Aircraft: []feedAircraft{}})
		}))
		defer server.Close()

		client := NewAirplanesLiveClient(server.URL)
		aircraft, err := client.GetAircraftByICAO(context.Background(), "abcdef")

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if aircraft != nil {
			t.Error("Expected nil for not found aircraft")
		}
	})
}

// TestRequestPacing tests that consecutive requests share the 1 rps budget.
func TestRequestPacing(t *testing.T) {
	var hits []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, time.Now())
		w.Write([]byte(`{"ac":[]}`))
	}))
	defer server.Close()

	client := NewAirplanesLiveClient(server.URL)
	client.limiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	region := mustRegion(t, 51.47, -0.45, 20)

	start := time.Now()
	if _, err := client.GetAircraft(context.Background(), region); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("First request should be immediate, took %v", elapsed)
	}

	if _, err := client.GetAircraftByICAO(context.Background(), "abcdef"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(hits))
	}
	if gap := hits[1].Sub(hits[0]); gap < 150*time.Millisecond {
		t.Errorf("Expected ~200ms between requests, got %v", gap)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetAircraft(ctx, region)
	if !errors.Is(err, ErrFeedUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected ErrFeedUnavailable wrapping context.Canceled, got %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("Expected no request after cancellation, got %d", len(hits))
	}
}

// TestDefaultPacing tests the client starts at one request per second.
func TestDefaultPacing(t *testing.T) {
	client := NewAirplanesLiveClient("https://api.test.com")
	if got := client.limiter.Limit(); got != rate.Every(time.Second) {
		t.Errorf("Expected 1 rps limit, got %v", got)
	}
	if got := client.limiter.Burst(); got != 1 {
		t.Errorf("Expected burst 1, got %d", got)
	}
}

// Helper functions
func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
