package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freiburg-transit/internal/api"
	"freiburg-transit/internal/api/handlers"
	"freiburg-transit/internal/config"
	"freiburg-transit/internal/models"
	"freiburg-transit/internal/transit"
)

// ---------------------------------------------------------------------------
// Mock provider
// ---------------------------------------------------------------------------

type mockTransit struct {
	stations   []models.StationWithDistance
	matches    []models.Station
	nearest    models.StationWithDistance
	departures []models.Departure
	arrivals   []models.Arrival
	routes     []models.Route
	err        error

	calls            int
	lastLat, lastLon float64
	lastRadius       int
	lastLimit        int
	lastQuery        string
	lastStation      string
	lastFrom, lastTo string
	lastBoard        transit.BoardOptions
	lastRoute        transit.RouteOptions
}

func (m *mockTransit) FindStations(ctx context.Context, lat, lon float64, radius, limit int) ([]models.StationWithDistance, error) {
	m.calls++
	m.lastLat, m.lastLon, m.lastRadius, m.lastLimit = lat, lon, radius, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.stations, nil
}

func (m *mockTransit) SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error) {
	m.calls++
	m.lastQuery, m.lastLimit = query, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

func (m *mockTransit) NearestStation(ctx context.Context, lat, lon float64) (models.StationWithDistance, error) {
	m.calls++
	m.lastLat, m.lastLon = lat, lon
	if m.err != nil {
		return models.StationWithDistance{}, m.err
	}
	return m.nearest, nil
}

func (m *mockTransit) Departures(ctx context.Context, stationID string, opts transit.BoardOptions) ([]models.Departure, error) {
	m.calls++
	m.lastStation, m.lastBoard = stationID, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.departures, nil
}

func (m *mockTransit) Arrivals(ctx context.Context, stationID string, opts transit.BoardOptions) ([]models.Arrival, error) {
	m.calls++
	m.lastStation, m.lastBoard = stationID, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.arrivals, nil
}

func (m *mockTransit) PlanRoute(ctx context.Context, originID, destinationID string, opts transit.RouteOptions) ([]models.Route, error) {
	m.calls++
	m.lastFrom, m.lastTo, m.lastRoute = originID, destinationID, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.routes, nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, provider handlers.TransitProvider) *httptest.Server {
	t.Helper()
	cfg := &config.Config{HTTPTimeout: 5 * time.Second}
	return httptest.NewServer(api.NewRouter(cfg, provider))
}

func defaultProvider() *mockTransit {
	hbf := models.Station{ID: "8000107", Name: "Freiburg(Breisgau) Hbf", Lat: 47.9977, Lon: 7.8415}
	bertold := models.Station{ID: "680657", Name: "Bertoldsbrunnen, Freiburg im Breisgau", Lat: 47.9950, Lon: 7.8495}
	delay := 120

	return &mockTransit{
		stations: []models.StationWithDistance{
			{Station: hbf, DistanceMeters: 72.5},
			{Station: bertold, DistanceMeters: 667.3},
		},
		matches: []models.Station{hbf, bertold},
		nearest: models.StationWithDistance{Station: hbf, DistanceMeters: 72.5},
		departures: []models.Departure{
			{
				Line:         "STR 1",
				Direction:    "Littenweiler",
				Destination:  "Littenweiler, Freiburg",
				Mode:         "tram",
				Scheduled:    "2025-03-01T10:03:00+01:00",
				Estimated:    "2025-03-01T10:05:00+01:00",
				DelaySeconds: &delay,
				Platform:     "A",
			},
		},
		arrivals: []models.Arrival{
			{
				Line:      "S1",
				Origin:    "Breisach",
				Mode:      "suburban",
				Scheduled: "2025-03-01T10:00:00+01:00",
				Estimated: "2025-03-01T10:00:00+01:00",
				Platform:  "2",
			},
		},
		routes: []models.Route{
			{
				Departure:       "2025-03-01T10:00:00+01:00",
				Arrival:         "2025-03-01T10:26:00+01:00",
				DurationMinutes: 26,
				Transfers:       1,
				Legs: []models.RouteLeg{
					{Type: "transit", Line: "STR 3", Direction: "Vauban", Mode: "tram", Origin: "Freiburg(Breisgau) Hbf", Destination: "Bertoldsbrunnen", Departure: "2025-03-01T10:06:00+01:00", Arrival: "2025-03-01T10:12:00+01:00"},
				},
			},
		},
	}
}

func get(t *testing.T, server *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("status = %d, want %d", resp.StatusCode, want)
	}
}

func assertField(t *testing.T, body map[string]any, field string) {
	t.Helper()
	if _, ok := body[field]; !ok {
		t.Errorf("missing field %q in response: %v", field, body)
	}
}

// ---------------------------------------------------------------------------
// Health & root
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	resp := get(t, srv, "/api/health")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "service")
	assertField(t, body, "version")
	assertField(t, body, "uptime")

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	resp := get(t, srv, "/")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "endpoints")

	if body["name"] != "freiburg-transit" {
		t.Errorf("name = %v, want freiburg-transit", body["name"])
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	resp := get(t, srv, "/api/unknown")
	assertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = get(t, srv, "/stations")
	assertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

// ---------------------------------------------------------------------------
// Stations
// ---------------------------------------------------------------------------

func TestStations(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/stations?lat=47.9990&lon=7.8421&radius=500&limit=5")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "center")
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	if body["radius_meters"] != float64(500) {
		t.Errorf("radius_meters = %v, want 500", body["radius_meters"])
	}

	stations, ok := body["stations"].([]any)
	if !ok || len(stations) != 2 {
		t.Fatalf("stations = %v, want 2 entries", body["stations"])
	}
	first := stations[0].(map[string]any)
	if first["id"] != "8000107" {
		t.Errorf("first station id = %v, want 8000107", first["id"])
	}
	if first["distance_meters"] != 72.5 {
		t.Errorf("distance_meters = %v, want 72.5", first["distance_meters"])
	}

	if provider.lastLat != 47.9990 || provider.lastLon != 7.8421 {
		t.Errorf("provider saw (%v, %v), want the query coordinates", provider.lastLat, provider.lastLon)
	}
	if provider.lastRadius != 500 || provider.lastLimit != 5 {
		t.Errorf("provider saw radius=%d limit=%d, want 500/5", provider.lastRadius, provider.lastLimit)
	}
}

func TestStationsDefaults(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/stations?lat=47.9990&lon=7.8421")
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if provider.lastRadius != transit.DefaultRadiusMeters {
		t.Errorf("default radius = %d, want %d", provider.lastRadius, transit.DefaultRadiusMeters)
	}
	if provider.lastLimit != transit.DefaultNearbyLimit {
		t.Errorf("default limit = %d, want %d", provider.lastLimit, transit.DefaultNearbyLimit)
	}
}

func TestStationsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing lat", "/api/stations?lon=7.8421"},
		{"missing lon", "/api/stations?lat=47.9990"},
		{"non-numeric lat", "/api/stations?lat=here&lon=7.8421"},
		{"non-numeric radius", "/api/stations?lat=47.9990&lon=7.8421&radius=big"},
		{"non-numeric limit", "/api/stations?lat=47.9990&lon=7.8421&limit=all"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := defaultProvider()
			srv := newTestServer(t, provider)
			defer srv.Close()

			resp := get(t, srv, tc.path)
			assertStatus(t, resp, http.StatusBadRequest)

			body := decodeBody(t, resp)
			assertField(t, body, "error")

			if provider.calls != 0 {
				t.Errorf("provider called %d times for a bad request", provider.calls)
			}
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &transit.ValidationError{Field: "radius", Reason: "must be positive"}, http.StatusBadRequest},
		{"not found", &transit.NotFoundError{Resource: "station"}, http.StatusNotFound},
		{"upstream", &transit.UpstreamError{Status: 503, Message: "overloaded"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := defaultProvider()
			provider.err = tc.err
			srv := newTestServer(t, provider)
			defer srv.Close()

			resp := get(t, srv, "/api/stations?lat=47.9990&lon=7.8421")
			assertStatus(t, resp, tc.status)

			body := decodeBody(t, resp)
			assertField(t, body, "error")
		})
	}
}

// ---------------------------------------------------------------------------
// Search & nearest
// ---------------------------------------------------------------------------

func TestSearch(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/stations/search?q=Freiburg&limit=2")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["query"] != "Freiburg" {
		t.Errorf("query = %v, want Freiburg", body["query"])
	}
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}

	if provider.lastQuery != "Freiburg" || provider.lastLimit != 2 {
		t.Errorf("provider saw query=%q limit=%d", provider.lastQuery, provider.lastLimit)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/stations/search")
	assertStatus(t, resp, http.StatusBadRequest)

	body := decodeBody(t, resp)
	assertField(t, body, "error")

	if provider.calls != 0 {
		t.Error("provider must not be called without a query")
	}
}

func TestNearest(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	resp := get(t, srv, "/api/stations/nearest?lat=47.9990&lon=7.8421")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	station, ok := body["station"].(map[string]any)
	if !ok {
		t.Fatalf("station = %v, want an object", body["station"])
	}
	if station["id"] != "8000107" {
		t.Errorf("station id = %v, want 8000107", station["id"])
	}
}

func TestNearestNotFound(t *testing.T) {
	provider := defaultProvider()
	provider.err = &transit.NotFoundError{Resource: "station"}
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/stations/nearest?lat=0.0&lon=0.0")
	assertStatus(t, resp, http.StatusNotFound)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
}

// ---------------------------------------------------------------------------
// Boards
// ---------------------------------------------------------------------------

func TestDepartures(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/departures?station=8000107&limit=10&duration=30")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["station_id"] != "8000107" {
		t.Errorf("station_id = %v, want 8000107", body["station_id"])
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	departures := body["departures"].([]any)
	dep := departures[0].(map[string]any)
	if dep["line"] != "STR 1" {
		t.Errorf("line = %v, want STR 1", dep["line"])
	}
	if dep["scheduled_time"] != "2025-03-01T10:03:00+01:00" {
		t.Errorf("scheduled_time = %v", dep["scheduled_time"])
	}
	if dep["delay_seconds"] != float64(120) {
		t.Errorf("delay_seconds = %v, want 120", dep["delay_seconds"])
	}

	if provider.lastStation != "8000107" {
		t.Errorf("provider saw station %q", provider.lastStation)
	}
	if provider.lastBoard.Limit != 10 || provider.lastBoard.Duration != 30 {
		t.Errorf("provider saw limit=%d duration=%d, want 10/30", provider.lastBoard.Limit, provider.lastBoard.Duration)
	}
	if provider.lastBoard.When != nil {
		t.Errorf("When = %v, want nil when time is omitted", provider.lastBoard.When)
	}
}

func TestDeparturesTimeParameter(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/departures?station=8000107&time=2025-03-01T10:00")
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if provider.lastBoard.When == nil {
		t.Fatal("When = nil, want the parsed time")
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	if !provider.lastBoard.When.Equal(want) {
		t.Errorf("When = %v, want %v", provider.lastBoard.When, want)
	}
}

func TestDeparturesDefaults(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/departures?station=8000107")
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if provider.lastBoard.Limit != transit.DefaultBoardLimit {
		t.Errorf("default limit = %d, want %d", provider.lastBoard.Limit, transit.DefaultBoardLimit)
	}
	if provider.lastBoard.Duration != transit.DefaultBoardDuration {
		t.Errorf("default duration = %d, want %d", provider.lastBoard.Duration, transit.DefaultBoardDuration)
	}
}

func TestDeparturesBadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing station", "/api/departures"},
		{"bad time", "/api/departures?station=8000107&time=tomorrow"},
		{"bad limit", "/api/departures?station=8000107&limit=many"},
		{"bad duration", "/api/departures?station=8000107&duration=soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := defaultProvider()
			srv := newTestServer(t, provider)
			defer srv.Close()

			resp := get(t, srv, tc.path)
			assertStatus(t, resp, http.StatusBadRequest)
			resp.Body.Close()

			if provider.calls != 0 {
				t.Errorf("provider called %d times for a bad request", provider.calls)
			}
		})
	}
}

func TestArrivals(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/arrivals?station=8000107")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["station_id"] != "8000107" {
		t.Errorf("station_id = %v, want 8000107", body["station_id"])
	}

	arrivals := body["arrivals"].([]any)
	if len(arrivals) != 1 {
		t.Fatalf("got %d arrivals, want 1", len(arrivals))
	}
	arr := arrivals[0].(map[string]any)
	if arr["origin"] != "Breisach" {
		t.Errorf("origin = %v, want Breisach", arr["origin"])
	}
	if _, ok := arr["delay_seconds"]; !ok {
		t.Error("delay_seconds must be present (null) even when unknown")
	}
	if arr["delay_seconds"] != nil {
		t.Errorf("delay_seconds = %v, want null", arr["delay_seconds"])
	}
}

// ---------------------------------------------------------------------------
// Route
// ---------------------------------------------------------------------------

func TestRoute(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/route?from=8000107&to=8000105&limit=2")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["origin"] != "8000107" || body["destination"] != "8000105" {
		t.Errorf("endpoints = %v -> %v", body["origin"], body["destination"])
	}
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}

	routes := body["routes"].([]any)
	route := routes[0].(map[string]any)
	if route["duration_minutes"] != float64(26) {
		t.Errorf("duration_minutes = %v, want 26", route["duration_minutes"])
	}
	if route["num_transfers"] != float64(1) {
		t.Errorf("num_transfers = %v, want 1", route["num_transfers"])
	}

	if provider.lastFrom != "8000107" || provider.lastTo != "8000105" {
		t.Errorf("provider saw %q -> %q", provider.lastFrom, provider.lastTo)
	}
	if provider.lastRoute.Limit != 2 {
		t.Errorf("provider saw limit=%d, want 2", provider.lastRoute.Limit)
	}
}

func TestRouteDefaults(t *testing.T) {
	provider := defaultProvider()
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/route?from=8000107&to=8000105")
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if provider.lastRoute.Limit != transit.DefaultRouteLimit {
		t.Errorf("default limit = %d, want %d", provider.lastRoute.Limit, transit.DefaultRouteLimit)
	}
}

func TestRouteBadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing from", "/api/route?to=8000105"},
		{"missing to", "/api/route?from=8000107"},
		{"bad time", "/api/route?from=8000107&to=8000105&time=later"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := defaultProvider()
			srv := newTestServer(t, provider)
			defer srv.Close()

			resp := get(t, srv, tc.path)
			assertStatus(t, resp, http.StatusBadRequest)
			resp.Body.Close()

			if provider.calls != 0 {
				t.Errorf("provider called %d times for a bad request", provider.calls)
			}
		})
	}
}

func TestRouteUpstreamFailure(t *testing.T) {
	provider := defaultProvider()
	provider.err = &transit.UpstreamError{Status: 500, Message: "HAFAS error"}
	srv := newTestServer(t, provider)
	defer srv.Close()

	resp := get(t, srv, "/api/route?from=8000107&to=8000105")
	assertStatus(t, resp, http.StatusBadGateway)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
	if _, ok := body["routes"]; ok {
		t.Error("a failed route lookup must not return partial routes")
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

type panickingTransit struct{ mockTransit }

func (p *panickingTransit) FindStations(ctx context.Context, lat, lon float64, radius, limit int) ([]models.StationWithDistance, error) {
	panic("projection bug")
}

func TestPanicBecomesJSONError(t *testing.T) {
	srv := newTestServer(t, &panickingTransit{})
	defer srv.Close()

	resp := get(t, srv, "/api/stations?lat=47.9990&lon=7.8421")
	assertStatus(t, resp, http.StatusInternalServerError)

	body := decodeBody(t, resp)
	assertField(t, body, "error")
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	resp := get(t, srv, "/api/health")
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestOptionsRequest(t *testing.T) {
	srv := newTestServer(t, defaultProvider())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/stations", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS request: %v", err)
	}
	defer resp.Body.Close()

	assertStatus(t, resp, http.StatusOK)
}
