package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/spotting"
)

// FlightsResponse is the body of GET /api/v1/flights and of stream messages.
type FlightsResponse struct {
	Type        string                    `json:"type,omitempty"`
	Flights     []spotting.ResolvedFlight `json:"flights"`
	Count       int                       `json:"count"`
	LastUpdated *time.Time                `json:"last_updated,omitempty"`
	Generation  uint64                    `json:"generation"`
}

func (s *Server) flightsResponse() FlightsResponse {
	flights := s.store.Snapshot()
	resp := FlightsResponse{
		Flights:    flights,
		Count:      len(flights),
		Generation: s.store.Generation(),
	}
	if t := s.store.LastUpdated(); !t.IsZero() {
		resp.LastUpdated = &t
	}
	return resp
}

// handleHealth answers 503 when the database is configured but unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"flights":  s.store.Len(),
		"database": "disabled",
	}
	if s.database == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	report, ok := s.database.Health(r.Context())
	resp["database"] = report
	if !ok {
		resp["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFlights(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.flightsResponse())
}

func (s *Server) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	id := spotting.CanonicalIdentifier(chi.URLParam(r, "id"))
	flight, ok := s.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "flight not found")
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Refresh(r.Context()); err != nil {
		s.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"generation": s.store.Generation(),
	})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.pipeline.Location()
	if !ok {
		respondError(w, http.StatusNotFound, "location not set")
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		respondError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	loc := coordinates.Geographic{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := s.pipeline.UpdateLocation(r.Context(), loc); err != nil {
		s.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"location":   loc,
		"generation": s.store.Generation(),
	})
}

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinates.ErrInvalidRegion):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, spotting.ErrNoLocation):
		respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("pipeline command failed", "error", err)
		respondError(w, http.StatusInternalServerError, "refresh failed")
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.settings.Current())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	next := s.settings.Current()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := next.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.settings.Update(next); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, next)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		respondError(w, http.StatusNotImplemented, "search is not configured")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	flight, err := s.searcher.Search(r.Context(), q)
	if errors.Is(err, spotting.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no flight found for "+q)
		return
	}
	if err != nil {
		s.logger.Error("search failed", "query", q, "error", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

func (s *Server) handleListSpotted(w http.ResponseWriter, r *http.Request) {
	if s.spotted == nil {
		respondError(w, http.StatusNotImplemented, "spotted flights are not configured")
		return
	}
	flights, err := s.spotted.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list spotted flights", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list spotted flights")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flights": flights,
		"count":   len(flights),
	})
}

// handleAddSpotted bookmarks a flight currently in the collection, or the
// full flight given in the body.
func (s *Server) handleAddSpotted(w http.ResponseWriter, r *http.Request) {
	if s.spotted == nil {
		respondError(w, http.StatusNotImplemented, "spotted flights are not configured")
		return
	}

	var req spotting.ResolvedFlight
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Identifier) == "" {
		respondError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	flight, ok := s.store.Get(spotting.CanonicalIdentifier(req.Identifier))
	if !ok {
		if req.Callsign == "" {
			respondError(w, http.StatusNotFound, "flight not found")
			return
		}
		flight = req
	}

	if err := s.spotted.Add(r.Context(), flight); err != nil {
		s.logger.Error("failed to spot flight", "hex", flight.Identifier, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to spot flight")
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

func (s *Server) handleRemoveSpotted(w http.ResponseWriter, r *http.Request) {
	if s.spotted == nil {
		respondError(w, http.StatusNotImplemented, "spotted flights are not configured")
		return
	}
	if err := s.spotted.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.logger.Error("failed to remove spotted flight", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to remove spotted flight")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSpotted(w http.ResponseWriter, r *http.Request) {
	if s.spotted == nil {
		respondError(w, http.StatusNotImplemented, "spotted flights are not configured")
		return
	}
	if err := s.spotted.Clear(r.Context()); err != nil {
		s.logger.Error("failed to clear spotted flights", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear spotted flights")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ Settings = (*config.SettingsStore)(nil)
