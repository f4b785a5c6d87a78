package handlers

import (
	"context"

	"freiburg-transit/internal/models"
	"freiburg-transit/internal/transit"
)

// TransitProvider abstracts the journey planner client for testability.
type TransitProvider interface {
	FindStations(ctx context.Context, lat, lon float64, radius, limit int) ([]models.StationWithDistance, error)
	SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error)
	NearestStation(ctx context.Context, lat, lon float64) (models.StationWithDistance, error)
	Departures(ctx context.Context, stationID string, opts transit.BoardOptions) ([]models.Departure, error)
	Arrivals(ctx context.Context, stationID string, opts transit.BoardOptions) ([]models.Arrival, error)
	PlanRoute(ctx context.Context, originID, destinationID string, opts transit.RouteOptions) ([]models.Route, error)
}
