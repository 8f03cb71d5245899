package adsb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unklstewy/spotty/pkg/coordinates"
)

// TestRegionClientGetAircraft tests the center+radius region endpoint.
func TestRegionClientGetAircraft(t *testing.T) {
	t.Run("Query parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/region" {
				t.Errorf("Expected path /region, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("lat") != "51.4700" || q.Get("lon") != "-0.4543" || q.Get("radius") != "30.0" {
				t.Errorf("Unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"ac":[{"hex":"4ca7b1","flight":"RYR82LH ","lat":51.5,"lon":-0.4},{"hex":"400abc","flight":"BAW12"}]}`))
		}))
		defer server.Close()

		client := NewRegionClient(server.URL)
		aircraft, err := client.GetAircraft(context.Background(), mustRegion(t, 51.47, -0.4543, 30))

		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(aircraft) != 2 {
			t.Fatalf("Expected 2 aircraft, got %d", len(aircraft))
		}
		if aircraft[0].Position == nil {
			t.Error("Expected a position for 4ca7b1")
		}
		if aircraft[1].Position != nil {
			t.Errorf("Expected nil position for 400abc, got %v", aircraft[1].Position)
		}
	})

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"Malformed body", http.StatusOK, `{"ac": [`, ErrFeedUnavailable},
		{"Absent aircraft list", http.StatusOK, `{"total": 0}`, ErrFeedUnavailable},
		{"Server error", http.StatusBadGateway, "upstream", ErrFeedUnavailable},
		{"Rate limited", http.StatusTooManyRequests, "", ErrFeedUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewRegionClient(server.URL)
			region := mustRegion(t, 10, 10, 50)

			_, err := client.GetAircraft(context.Background(), region)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}

			if got := client.FetchAircraftInRegion(context.Background(), region); len(got) != 0 {
				t.Errorf("Expected empty result, got %d aircraft", len(got))
			}
		})
	}

	t.Run("Network failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewRegionClient(server.URL)
		_, err := client.GetAircraft(context.Background(), mustRegion(t, 10, 10, 50))
		if !errors.Is(err, ErrFeedUnavailable) {
			t.Errorf("Expected ErrFeedUnavailable, got %v", err)
		}
	})

	t.Run("Invalid region", func(t *testing.T) {
		client := NewRegionClient("http://127.0.0.1:0")
		got := client.FetchAircraftInRegion(context.Background(), coordinates.Region{})
		if len(got) != 0 {
			t.Errorf("Expected empty result, got %d", len(got))
		}
	})
}
