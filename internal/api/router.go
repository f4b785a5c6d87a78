package api

import (
	"net/http"
	"time"

	"freiburg-transit/internal/api/handlers"
	"freiburg-transit/internal/config"
)

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(cfg *config.Config, provider handlers.TransitProvider) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	rootHandler := handlers.NewRootHandler()
	transitHandler := handlers.NewTransitHandler(provider)

	// Core routes; {$} keeps unknown paths on the mux 404
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Station lookups
	mux.HandleFunc("GET /api/stations", transitHandler.GetStations)
	mux.HandleFunc("GET /api/stations/search", transitHandler.SearchStations)
	mux.HandleFunc("GET /api/stations/nearest", transitHandler.GetNearestStation)

	// Boards and journeys
	mux.HandleFunc("GET /api/departures", transitHandler.GetDepartures)
	mux.HandleFunc("GET /api/arrivals", transitHandler.GetArrivals)
	mux.HandleFunc("GET /api/route", transitHandler.GetRoute)

	// Apply middleware stack; the timeout stays above the upstream client
	// timeout so a slow planner surfaces as a 502, not a cut connection.
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
		Timeout(cfg.HTTPTimeout+5*time.Second),
	)

	return handler
}
