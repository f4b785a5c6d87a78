package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"freiburg-transit/internal/transit"
)

type TransitHandler struct {
	provider TransitProvider
}

func NewTransitHandler(provider TransitProvider) *TransitHandler {
	return &TransitHandler{provider: provider}
}

// GetStations returns stations around a coordinate, nearest first
func (h *TransitHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	radius, err := intParam(r, "radius", transit.DefaultRadiusMeters)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	limit, err := intParam(r, "limit", transit.DefaultNearbyLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	stations, err := h.provider.FindStations(r.Context(), lat, lon, radius, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(stations),
		"radius_meters": radius,
		"center":        map[string]float64{"lat": lat, "lon": lon},
		"stations":      stations,
	})
}

// SearchStations returns stations matching a name query
func (h *TransitHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "q query parameter is required"})
		return
	}

	limit, err := intParam(r, "limit", transit.DefaultSearchLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	stations, err := h.provider.SearchStations(r.Context(), query, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":    query,
		"count":    len(stations),
		"stations": stations,
	})
}

// GetNearestStation returns the single closest station to a coordinate
func (h *TransitHandler) GetNearestStation(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	station, err := h.provider.NearestStation(r.Context(), lat, lon)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station": station,
	})
}

// GetDepartures returns the departure board for a station
func (h *TransitHandler) GetDepartures(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station")
	if stationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "station query parameter is required"})
		return
	}

	opts, err := boardParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	departures, err := h.provider.Departures(r.Context(), stationID, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"count":      len(departures),
		"departures": departures,
	})
}

// GetArrivals returns the arrival board for a station
func (h *TransitHandler) GetArrivals(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station")
	if stationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "station query parameter is required"})
		return
	}

	opts, err := boardParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	arrivals, err := h.provider.Arrivals(r.Context(), stationID, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"station_id": stationID,
		"count":      len(arrivals),
		"arrivals":   arrivals,
	})
}

// GetRoute returns journey options between two stations
func (h *TransitHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "from and to query parameters are required"})
		return
	}

	when, err := timeParam(r, "time")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	limit, err := intParam(r, "limit", transit.DefaultRouteLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	routes, err := h.provider.PlanRoute(r.Context(), from, to, transit.RouteOptions{When: when, Limit: limit})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"origin":      from,
		"destination": to,
		"count":       len(routes),
		"routes":      routes,
	})
}

func coordParams(r *http.Request) (float64, float64, error) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		return 0, 0, err
	}
	lon, err := floatParam(r, "lon")
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func boardParams(r *http.Request) (transit.BoardOptions, error) {
	when, err := timeParam(r, "time")
	if err != nil {
		return transit.BoardOptions{}, err
	}
	limit, err := intParam(r, "limit", transit.DefaultBoardLimit)
	if err != nil {
		return transit.BoardOptions{}, err
	}
	duration, err := intParam(r, "duration", transit.DefaultBoardDuration)
	if err != nil {
		return transit.BoardOptions{}, err
	}
	return transit.BoardOptions{When: when, Limit: limit, Duration: duration}, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return 0, fmt.Errorf("%s query parameter is required", name)
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return val, nil
}

func intParam(r *http.Request, name string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return val, nil
}

// timeParam parses an optional timestamp, nil when absent.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return nil, nil
	}
	t, err := transit.ParseTime(str)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter: use an ISO 8601 timestamp", name)
	}
	return &t, nil
}
