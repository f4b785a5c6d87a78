package transit

import (
	"bytes"
	"encoding/json"
)

// Response structures of the v6.db.transport.rest API. Only the fields the
// projections need are declared; everything else is ignored on decode.

type upstreamLocation struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Location *upstreamPoint `json:"location"`
}

type upstreamPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// isStation filters out addresses and points of interest, which the
// /locations endpoints return alongside stops.
func (l upstreamLocation) isStation() bool {
	return l.Type == "stop" || l.Type == "station"
}

func (l upstreamLocation) coordinates() (lat, lon float64) {
	if l.Location == nil {
		return 0, 0
	}
	return l.Location.Latitude, l.Location.Longitude
}

type upstreamLine struct {
	Name    string `json:"name"`
	Product string `json:"product"`
	Mode    string `json:"mode"`
}

// displayName returns the line name with the planner's "?" placeholder for
// missing lines.
func (l *upstreamLine) displayName() string {
	if l == nil || l.Name == "" {
		return "?"
	}
	return l.Name
}

// product returns the product category without falling back to the mode.
func (l *upstreamLine) product() string {
	if l == nil {
		return ""
	}
	return l.Product
}

// productOrMode prefers the product category and falls back to the coarser
// mode field when the planner omits it.
func (l *upstreamLine) productOrMode() string {
	if l == nil {
		return ""
	}
	if l.Product != "" {
		return l.Product
	}
	return l.Mode
}

type upstreamPlace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func placeName(p *upstreamPlace) string {
	if p == nil || p.Name == "" {
		return "?"
	}
	return p.Name
}

type upstreamBoardEntry struct {
	Direction   string         `json:"direction"`
	Line        *upstreamLine  `json:"line"`
	Destination *upstreamPlace `json:"destination"`
	Provenance  string         `json:"provenance"`
	When        string         `json:"when"`
	PlannedWhen string         `json:"plannedWhen"`
	Delay       *int           `json:"delay"`
	Platform    string         `json:"platform"`
}

// upstreamBoard tolerates both payload shapes the departures/arrivals
// endpoints have shipped: a bare array, and an object keyed by
// "departures" or "arrivals".
type upstreamBoard struct {
	entries []upstreamBoardEntry
}

func (b *upstreamBoard) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &b.entries)
	}

	var keyed struct {
		Departures []upstreamBoardEntry `json:"departures"`
		Arrivals   []upstreamBoardEntry `json:"arrivals"`
	}
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	if keyed.Departures != nil {
		b.entries = keyed.Departures
	} else {
		b.entries = keyed.Arrivals
	}
	return nil
}

type upstreamJourneysResponse struct {
	Journeys []upstreamJourney `json:"journeys"`
}

type upstreamJourney struct {
	Legs []upstreamLeg `json:"legs"`
}

type upstreamLeg struct {
	Origin      *upstreamPlace `json:"origin"`
	Destination *upstreamPlace `json:"destination"`
	Departure   string         `json:"departure"`
	Arrival     string         `json:"arrival"`
	Walking     bool           `json:"walking"`
	Distance    float64        `json:"distance"`
	Line        *upstreamLine  `json:"line"`
	Direction   string         `json:"direction"`
}
