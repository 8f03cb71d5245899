// Package api serves the flight pipeline to UI clients over REST and a
// WebSocket stream.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/spotting"
)

// Pipeline is the command surface of the fetcher.
type Pipeline interface {
	Refresh(ctx context.Context) error
	UpdateLocation(ctx context.Context, loc coordinates.Geographic) error
	Location() (coordinates.Geographic, bool)
}

// Settings holds the mutable user settings.
type Settings interface {
	Current() config.UserSettings
	Update(next config.UserSettings) error
}

// Searcher resolves one flight by hex or registration.
type Searcher interface {
	Search(ctx context.Context, query string) (*spotting.ResolvedFlight, error)
}

// DatabaseHealth reports the state of the persistence layer.
type DatabaseHealth interface {
	Health(ctx context.Context) (map[string]interface{}, bool)
}

// Config wires a Server. Searcher and Spotted are optional; their routes
// answer 501 when unset. Database is nil when persistence is off.
type Config struct {
	Pipeline Pipeline
	Store    *spotting.Store
	Settings Settings
	Searcher Searcher
	Spotted  spotting.SpottedStore
	Database DatabaseHealth

	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server holds the HTTP router and its dependencies
type Server struct {
	router   *chi.Mux
	pipeline Pipeline
	store    *spotting.Store
	settings Settings
	searcher Searcher
	spotted  spotting.SpottedStore
	database DatabaseHealth
	origins  []string
	logger   *slog.Logger
}

// NewServer builds the router.
func NewServer(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		pipeline: cfg.Pipeline,
		store:    cfg.Store,
		settings: cfg.Settings,
		searcher: cfg.Searcher,
		spotted:  cfg.Spotted,
		database: cfg.Database,
		origins:  cfg.AllowedOrigins,
		logger:   cfg.Logger,
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// the stream hijacks the connection, so it stays outside compression
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			// Flights
			r.Get("/flights", s.handleGetFlights)
			r.Get("/flights/{id}", s.handleGetFlight)
			r.Post("/flights/refresh", s.handleRefresh)
			r.Put("/location", s.handleUpdateLocation)
			r.Get("/location", s.handleGetLocation)

			// Settings
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			// Search
			r.Get("/search", s.handleSearch)

			// Spotted flights
			r.Get("/spotted", s.handleListSpotted)
			r.Post("/spotted", s.handleAddSpotted)
			r.Delete("/spotted", s.handleClearSpotted)
			r.Delete("/spotted/{id}", s.handleRemoveSpotted)
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
