package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "freiburg-transit",
		"description": "Stations, departures and journeys for Freiburg im Breisgau via db.transport.rest",
		"version":     version,
		"endpoints": map[string]string{
			"GET /":                     "API information",
			"GET /api/health":           "Health check",
			"GET /api/stations":         "Stations near a coordinate (lat, lon, radius, limit)",
			"GET /api/stations/search":  "Search stations by name (q, limit)",
			"GET /api/stations/nearest": "Closest station to a coordinate (lat, lon)",
			"GET /api/departures":       "Departure board for a station (station, time, limit, duration)",
			"GET /api/arrivals":         "Arrival board for a station (station, time, limit, duration)",
			"GET /api/route":            "Journey options between two stations (from, to, time, limit)",
		},
	})
}
