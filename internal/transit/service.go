// Package transit answers station, board, and routing queries by calling
// the v6.db.transport.rest journey planner, one upstream request per call.
package transit

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"freiburg-transit/internal/geo"
	"freiburg-transit/internal/models"
)

// Defaults for the optional query knobs, shared by the REST handlers and
// the agent tools.
const (
	DefaultRadiusMeters  = 1000
	DefaultNearbyLimit   = 50
	DefaultSearchLimit   = 10
	DefaultBoardLimit    = 20
	DefaultBoardDuration = 60 // minutes
	DefaultRouteLimit    = 5

	nearestRadiusMeters = 5000
)

// BoardOptions tune a departure or arrival board query.
type BoardOptions struct {
	// When is the start of the board window; nil means now.
	When *time.Time
	// Limit caps the number of entries. Zero yields an empty board.
	Limit int
	// Duration is the length of the window in minutes.
	Duration int
}

// RouteOptions tune a journey planning query.
type RouteOptions struct {
	// When is the desired departure time; nil means now.
	When *time.Time
	// Limit caps the number of journey options. Zero yields none.
	Limit int
}

// Service runs transit queries against the journey planner. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	client *Client
}

// NewService creates a Service talking to the planner at baseURL.
func NewService(baseURL string, timeout time.Duration) *Service {
	return &Service{client: NewClient(baseURL, timeout)}
}

// FindStations returns stations within radius meters of (lat, lon), nearest
// first. Distances are computed locally because the planner does not
// guarantee an ordering.
func (s *Service) FindStations(ctx context.Context, lat, lon float64, radius, limit int) ([]models.StationWithDistance, error) {
	if !geo.ValidCoordinate(lat, lon) {
		return nil, &ValidationError{Field: "coordinates", Reason: "latitude must be in [-90, 90] and longitude in [-180, 180]"}
	}
	if radius <= 0 {
		return nil, &ValidationError{Field: "radius", Reason: "must be positive"}
	}
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if limit == 0 {
		return []models.StationWithDistance{}, nil
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	params.Set("results", fmt.Sprintf("%d", limit))
	params.Set("distance", fmt.Sprintf("%d", radius))

	var locations []upstreamLocation
	if err := s.client.getJSON(ctx, "/locations/nearby", params, &locations); err != nil {
		return nil, err
	}

	stations := make([]models.StationWithDistance, 0, len(locations))
	for _, loc := range locations {
		if !loc.isStation() {
			continue
		}
		stationLat, stationLon := loc.coordinates()
		distance := geo.Haversine(lat, lon, stationLat, stationLon)
		stations = append(stations, models.StationWithDistance{
			Station: models.Station{
				ID:   loc.ID,
				Name: loc.Name,
				Lat:  stationLat,
				Lon:  stationLon,
			},
			DistanceMeters: math.Round(distance*10) / 10,
		})
	}

	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].DistanceMeters < stations[j].DistanceMeters
	})
	if len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

// SearchStations finds stations by name. Results keep the planner's
// relevance order.
func (s *Service) SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if limit == 0 {
		return []models.Station{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("results", fmt.Sprintf("%d", limit))
	params.Set("stops", "true")
	params.Set("addresses", "false")
	params.Set("poi", "false")

	var locations []upstreamLocation
	if err := s.client.getJSON(ctx, "/locations", params, &locations); err != nil {
		return nil, err
	}

	stations := make([]models.Station, 0, len(locations))
	for _, loc := range locations {
		if !loc.isStation() {
			continue
		}
		lat, lon := loc.coordinates()
		stations = append(stations, models.Station{
			ID:   loc.ID,
			Name: loc.Name,
			Lat:  lat,
			Lon:  lon,
		})
	}
	if len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

// NearestStation returns the closest station within 5 km of (lat, lon).
func (s *Service) NearestStation(ctx context.Context, lat, lon float64) (models.StationWithDistance, error) {
	stations, err := s.FindStations(ctx, lat, lon, nearestRadiusMeters, 1)
	if err != nil {
		return models.StationWithDistance{}, err
	}
	if len(stations) == 0 {
		return models.StationWithDistance{}, &NotFoundError{Resource: "station"}
	}
	return stations[0], nil
}

// Departures lists upcoming departures from a station, soonest first.
func (s *Service) Departures(ctx context.Context, stationID string, opts BoardOptions) ([]models.Departure, error) {
	if err := validateBoard(stationID, opts); err != nil {
		return nil, err
	}
	if opts.Limit == 0 {
		return []models.Departure{}, nil
	}

	params := boardParams(opts)
	params.Set("bus", "true")
	params.Set("ferry", "true")
	params.Set("subway", "true")
	params.Set("tram", "true")
	params.Set("taxi", "false")

	var board upstreamBoard
	if err := s.client.getJSON(ctx, "/stops/"+url.PathEscape(stationID)+"/departures", params, &board); err != nil {
		return nil, err
	}

	departures := make([]models.Departure, 0, len(board.entries))
	for _, entry := range board.entries {
		departures = append(departures, entry.toDeparture())
	}

	sort.SliceStable(departures, func(i, j int) bool {
		return boardTime(departures[i].Scheduled).Before(boardTime(departures[j].Scheduled))
	})
	if len(departures) > opts.Limit {
		departures = departures[:opts.Limit]
	}
	return departures, nil
}

// Arrivals lists upcoming arrivals at a station, soonest first.
func (s *Service) Arrivals(ctx context.Context, stationID string, opts BoardOptions) ([]models.Arrival, error) {
	if err := validateBoard(stationID, opts); err != nil {
		return nil, err
	}
	if opts.Limit == 0 {
		return []models.Arrival{}, nil
	}

	var board upstreamBoard
	if err := s.client.getJSON(ctx, "/stops/"+url.PathEscape(stationID)+"/arrivals", boardParams(opts), &board); err != nil {
		return nil, err
	}

	arrivals := make([]models.Arrival, 0, len(board.entries))
	for _, entry := range board.entries {
		arrivals = append(arrivals, entry.toArrival())
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		return boardTime(arrivals[i].Scheduled).Before(boardTime(arrivals[j].Scheduled))
	})
	if len(arrivals) > opts.Limit {
		arrivals = arrivals[:opts.Limit]
	}
	return arrivals, nil
}

// PlanRoute returns journey options from originID to destinationID in the
// planner's ranking order.
func (s *Service) PlanRoute(ctx context.Context, originID, destinationID string, opts RouteOptions) ([]models.Route, error) {
	if originID == "" {
		return nil, &ValidationError{Field: "from", Reason: "must not be empty"}
	}
	if destinationID == "" {
		return nil, &ValidationError{Field: "to", Reason: "must not be empty"}
	}
	if opts.Limit < 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if opts.Limit == 0 {
		return []models.Route{}, nil
	}

	params := url.Values{}
	params.Set("from", originID)
	params.Set("to", destinationID)
	params.Set("results", fmt.Sprintf("%d", opts.Limit))
	params.Set("stopovers", "true")
	params.Set("bus", "true")
	params.Set("ferry", "true")
	params.Set("subway", "true")
	params.Set("tram", "true")
	if opts.When != nil {
		params.Set("departure", opts.When.Format(time.RFC3339))
	}

	var resp upstreamJourneysResponse
	if err := s.client.getJSON(ctx, "/journeys", params, &resp); err != nil {
		return nil, err
	}

	routes := make([]models.Route, 0, len(resp.Journeys))
	for _, journey := range resp.Journeys {
		if route, ok := journey.toRoute(); ok {
			routes = append(routes, route)
		}
	}
	if len(routes) > opts.Limit {
		routes = routes[:opts.Limit]
	}
	return routes, nil
}

func validateBoard(stationID string, opts BoardOptions) error {
	if stationID == "" {
		return &ValidationError{Field: "station", Reason: "must not be empty"}
	}
	if opts.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	if opts.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	return nil
}

func boardParams(opts BoardOptions) url.Values {
	params := url.Values{}
	params.Set("results", fmt.Sprintf("%d", opts.Limit))
	params.Set("duration", fmt.Sprintf("%d", opts.Duration))
	if opts.When != nil {
		params.Set("when", opts.When.Format(time.RFC3339))
	}
	return params
}

// boardTime parses a planner timestamp for sorting. Unparseable values sort
// first and keep their upstream order among themselves.
func boardTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e upstreamBoardEntry) toDeparture() models.Departure {
	destination := ""
	if e.Destination != nil {
		destination = e.Destination.Name
	}
	if destination == "" {
		destination = e.Direction
	}
	if destination == "" {
		destination = "?"
	}

	scheduled := e.PlannedWhen
	estimated := e.When
	if estimated == "" {
		estimated = scheduled
	}

	return models.Departure{
		Line:         e.Line.displayName(),
		Direction:    e.Direction,
		Destination:  destination,
		Mode:         e.Line.productOrMode(),
		Scheduled:    scheduled,
		Estimated:    estimated,
		DelaySeconds: e.Delay,
		Platform:     e.Platform,
	}
}

func (e upstreamBoardEntry) toArrival() models.Arrival {
	origin := e.Provenance
	if origin == "" {
		origin = "?"
	}

	scheduled := e.PlannedWhen
	estimated := e.When
	if estimated == "" {
		estimated = scheduled
	}

	return models.Arrival{
		Line:         e.Line.displayName(),
		Origin:       origin,
		Mode:         e.Line.product(),
		Scheduled:    scheduled,
		Estimated:    estimated,
		DelaySeconds: e.Delay,
		Platform:     e.Platform,
	}
}

// toRoute projects a journey onto the Route model. Journeys without legs
// carry no usable information and are dropped.
func (j upstreamJourney) toRoute() (models.Route, bool) {
	if len(j.Legs) == 0 {
		return models.Route{}, false
	}

	legs := make([]models.RouteLeg, 0, len(j.Legs))
	transitLegs := 0
	for _, leg := range j.Legs {
		projected := leg.toLeg()
		if projected.Type == "transit" {
			transitLegs++
		}
		legs = append(legs, projected)
	}

	departure := legs[0].Departure
	arrival := legs[len(legs)-1].Arrival

	duration := 0
	if start, err := time.Parse(time.RFC3339, departure); err == nil {
		if end, err := time.Parse(time.RFC3339, arrival); err == nil {
			duration = int(end.Sub(start).Minutes())
		}
	}

	transfers := transitLegs - 1
	if transfers < 0 {
		transfers = 0
	}

	return models.Route{
		Departure:       departure,
		Arrival:         arrival,
		DurationMinutes: duration,
		Transfers:       transfers,
		Legs:            legs,
	}, true
}

func (l upstreamLeg) toLeg() models.RouteLeg {
	origin := placeName(l.Origin)
	destination := placeName(l.Destination)

	if l.Walking {
		return models.RouteLeg{
			Type:           "walk",
			Origin:         origin,
			Destination:    destination,
			Departure:      l.Departure,
			Arrival:        l.Arrival,
			DistanceMeters: l.Distance,
		}
	}

	return models.RouteLeg{
		Type:        "transit",
		Line:        l.Line.displayName(),
		Direction:   l.Direction,
		Mode:        l.Line.productOrMode(),
		Origin:      origin,
		Destination: destination,
		Departure:   l.Departure,
		Arrival:     l.Arrival,
	}
}
