// Package tools exposes the transit service as MCP tools over stdio.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"freiburg-transit/internal/models"
	"freiburg-transit/internal/transit"
)

// Tool-level limits; the REST façade defaults are wider.
const (
	defaultStationsLimit   = 20
	defaultDeparturesLimit = 10
)

// TransitProvider abstracts the journey planner client for testability.
// The tool surface has no arrivals lookup.
type TransitProvider interface {
	FindStations(ctx context.Context, lat, lon float64, radius, limit int) ([]models.StationWithDistance, error)
	SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error)
	NearestStation(ctx context.Context, lat, lon float64) (models.StationWithDistance, error)
	Departures(ctx context.Context, stationID string, opts transit.BoardOptions) ([]models.Departure, error)
	PlanRoute(ctx context.Context, originID, destinationID string, opts transit.RouteOptions) ([]models.Route, error)
}

// New builds an MCP server with every transit tool registered.
func New(provider TransitProvider) *server.MCPServer {
	s := server.NewMCPServer(
		"Freiburg Transit API",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	Register(s, provider)
	return s
}

// Register adds the transit tools to an MCP server.
func Register(s *server.MCPServer, provider TransitProvider) {
	s.AddTool(mcp.NewTool("get_stations",
		mcp.WithDescription("Find public transit stations around a coordinate, nearest first."),
		mcp.WithNumber("lat",
			mcp.Required(),
			mcp.Description("Latitude of the search center"),
		),
		mcp.WithNumber("lon",
			mcp.Required(),
			mcp.Description("Longitude of the search center"),
		),
		mcp.WithNumber("radius",
			mcp.DefaultNumber(transit.DefaultRadiusMeters),
			mcp.Description("Search radius in meters"),
		),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(defaultStationsLimit),
			mcp.Description("Maximum number of stations"),
		),
	), getStations(provider))

	s.AddTool(mcp.NewTool("search_stations",
		mcp.WithDescription("Search stations by name, e.g. 'Freiburg Hbf'."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Station name or fragment"),
		),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(transit.DefaultSearchLimit),
			mcp.Description("Maximum number of matches"),
		),
	), searchStations(provider))

	s.AddTool(mcp.NewTool("get_nearest_station",
		mcp.WithDescription("Find the single closest station to a coordinate."),
		mcp.WithNumber("lat",
			mcp.Required(),
			mcp.Description("Latitude"),
		),
		mcp.WithNumber("lon",
			mcp.Required(),
			mcp.Description("Longitude"),
		),
	), getNearestStation(provider))

	s.AddTool(mcp.NewTool("get_departures",
		mcp.WithDescription("Fetch the departure board for a station ID."),
		mcp.WithString("station_id",
			mcp.Required(),
			mcp.Description("Station ID, e.g. '8000107' for Freiburg Hbf"),
		),
		mcp.WithString("time_iso",
			mcp.Description("Optional ISO 8601 timestamp; defaults to now"),
		),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(defaultDeparturesLimit),
			mcp.Description("Maximum number of departures"),
		),
	), getDepartures(provider))

	s.AddTool(mcp.NewTool("get_route",
		mcp.WithDescription("Plan journeys between two station IDs."),
		mcp.WithString("origin_id",
			mcp.Required(),
			mcp.Description("Origin station ID"),
		),
		mcp.WithString("destination_id",
			mcp.Required(),
			mcp.Description("Destination station ID"),
		),
		mcp.WithString("time_iso",
			mcp.Description("Optional ISO 8601 departure time; defaults to now"),
		),
	), getRoute(provider))
}

func getStations(provider TransitProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lat, err := req.RequireFloat("lat")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		lon, err := req.RequireFloat("lon")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		radius := req.GetInt("radius", transit.DefaultRadiusMeters)
		limit := req.GetInt("limit", defaultStationsLimit)

		stations, err := provider.FindStations(ctx, lat, lon, radius, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"count":         len(stations),
			"radius_meters": radius,
			"center":        map[string]float64{"lat": lat, "lon": lon},
			"stations":      stations,
		})
	}
}

func searchStations(provider TransitProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := req.GetInt("limit", transit.DefaultSearchLimit)

		stations, err := provider.SearchStations(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"query":    query,
			"count":    len(stations),
			"stations": stations,
		})
	}
}

func getNearestStation(provider TransitProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lat, err := req.RequireFloat("lat")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		lon, err := req.RequireFloat("lon")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		station, err := provider.NearestStation(ctx, lat, lon)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"station": station,
		})
	}
}

func getDepartures(provider TransitProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stationID, err := req.RequireString("station_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		when, err := whenArg(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := req.GetInt("limit", defaultDeparturesLimit)

		opts := transit.BoardOptions{When: when, Limit: limit, Duration: transit.DefaultBoardDuration}
		departures, err := provider.Departures(ctx, stationID, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"station_id": stationID,
			"count":      len(departures),
			"departures": departures,
		})
	}
}

func getRoute(provider TransitProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		originID, err := req.RequireString("origin_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		destinationID, err := req.RequireString("destination_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		when, err := whenArg(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := transit.RouteOptions{When: when, Limit: transit.DefaultRouteLimit}
		routes, err := provider.PlanRoute(ctx, originID, destinationID, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"origin":      originID,
			"destination": destinationID,
			"count":       len(routes),
			"routes":      routes,
		})
	}
}

// whenArg parses the optional time_iso argument, nil when absent.
func whenArg(req mcp.CallToolRequest) (*time.Time, error) {
	value := req.GetString("time_iso", "")
	if value == "" {
		return nil, nil
	}
	t, err := transit.ParseTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
