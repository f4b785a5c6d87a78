// Package models defines shared data types
package models

// Station is a stop or station known to the journey planner.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// StationWithDistance is a Station with distance from a reference point
type StationWithDistance struct {
	Station
	DistanceMeters float64 `json:"distance_meters"`
}

// Departure is one entry on a station departure board. Timestamps are
// ISO-8601 strings, empty when the planner reports none. DelaySeconds is
// nil when no realtime data exists for the trip.
type Departure struct {
	Line         string `json:"line"`
	Direction    string `json:"direction"`
	Destination  string `json:"destination"`
	Mode         string `json:"mode"`
	Scheduled    string `json:"scheduled_time"`
	Estimated    string `json:"estimated_time"`
	DelaySeconds *int   `json:"delay_seconds"`
	Platform     string `json:"platform"`
}

// Arrival is one entry on a station arrival board. Origin is the station
// the run started from.
type Arrival struct {
	Line         string `json:"line"`
	Origin       string `json:"origin"`
	Mode         string `json:"mode"`
	Scheduled    string `json:"scheduled_time"`
	Estimated    string `json:"estimated_time"`
	DelaySeconds *int   `json:"delay_seconds"`
	Platform     string `json:"platform"`
}

// RouteLeg is one segment of a journey: a walk or a ride on a single line.
type RouteLeg struct {
	Type           string  `json:"type"` // "walk" or "transit"
	Line           string  `json:"line,omitempty"`
	Direction      string  `json:"direction,omitempty"`
	Mode           string  `json:"mode,omitempty"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Departure      string  `json:"departure_time"`
	Arrival        string  `json:"arrival_time"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

// Route is one journey option between two stations.
type Route struct {
	Departure       string     `json:"departure_time"`
	Arrival         string     `json:"arrival_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Transfers       int        `json:"num_transfers"`
	Legs            []RouteLeg `json:"legs"`
}
