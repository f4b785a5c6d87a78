// Package main is a CLI driver that exercises a running freiburg-transit
// REST server end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	header  = color.New(color.FgMagenta, color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	request = color.New(color.FgBlue)
	bold    = color.New(color.Bold)
)

type tester struct {
	baseURL string
	client  *http.Client
}

func newTester(baseURL string) *tester {
	return &tester{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *tester) printHeader(text string) {
	line := strings.Repeat("=", 60)
	pad := (60 - len(text)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Println()
	header.Println(line)
	header.Println(strings.Repeat(" ", pad) + text)
	header.Println(line)
	fmt.Println()
}

// get issues the request and reports whether the server answered 200.
func (t *tester) get(endpoint string, params url.Values) (bool, map[string]any) {
	u := t.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	request.Printf("→ GET %s\n", u)

	resp, err := t.client.Get(u)
	if err != nil {
		return false, map[string]any{"error": "no connection to server: " + err.Error()}
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, map[string]any{"error": "invalid response: " + err.Error()}
	}
	return resp.StatusCode == http.StatusOK, data
}

func (t *tester) checkHealth() bool {
	t.printHeader("Health Check")

	ok, data := t.get("/api/health", nil)
	if !ok {
		failure.Printf("✗ server unreachable: %v\n", data["error"])
		return false
	}

	success.Println("✓ server is up")
	printInfo("service", data["service"])
	return true
}

func (t *tester) checkStations(lat, lon float64, radius, limit int) bool {
	t.printHeader("Stations In Radius")

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radius))
	params.Set("limit", strconv.Itoa(limit))

	ok, data := t.get("/api/stations", params)
	if !ok {
		failure.Printf("✗ %v\n", data["error"])
		return false
	}

	success.Printf("✓ found %v stations\n", data["count"])
	printInfo("center", fmt.Sprintf("%v, %v", lat, lon))
	printInfo("radius", fmt.Sprintf("%dm", radius))

	bold.Println("\nStations:")
	for i, raw := range anySlice(data["stations"]) {
		if i >= 10 {
			break
		}
		st := asMap(raw)
		fmt.Printf("  • %v (ID: %v) - %vm\n", st["name"], st["id"], st["distance_meters"])
	}
	return true
}

func (t *tester) checkSearch(query string, limit int) bool {
	t.printHeader("Station Search")

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	ok, data := t.get("/api/stations/search", params)
	if !ok {
		failure.Printf("✗ %v\n", data["error"])
		return false
	}

	success.Printf("✓ found %v stations\n", data["count"])
	printInfo("query", query)

	bold.Println("\nResults:")
	for _, raw := range anySlice(data["stations"]) {
		st := asMap(raw)
		fmt.Printf("  • %v (ID: %v)\n", st["name"], st["id"])
	}
	return true
}

func (t *tester) checkNearest(lat, lon float64) bool {
	t.printHeader("Nearest Station")

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	ok, data := t.get("/api/stations/nearest", params)
	if !ok {
		failure.Printf("✗ %v\n", data["error"])
		return false
	}

	st := asMap(data["station"])
	success.Println("✓ nearest station found")
	printInfo("name", st["name"])
	printInfo("id", st["id"])
	printInfo("distance", fmt.Sprintf("%vm", st["distance_meters"]))
	return true
}

func (t *tester) checkDepartures(station, when string, limit int) bool {
	t.printHeader("Departures")

	params := url.Values{}
	params.Set("station", station)
	params.Set("limit", strconv.Itoa(limit))
	if when != "" {
		params.Set("time", when)
	}

	ok, data := t.get("/api/departures", params)
	if !ok {
		failure.Printf("✗ %v\n", data["error"])
		return false
	}

	success.Printf("✓ found %v departures\n", data["count"])
	printInfo("station", station)

	bold.Println("\nDepartures:")
	for i, raw := range anySlice(data["departures"]) {
		if i >= 10 {
			break
		}
		dep := asMap(raw)
		delayNote := ""
		if secs, ok := dep["delay_seconds"].(float64); ok && secs > 0 {
			delayNote = failure.Sprintf(" (+%ds)", int(secs))
		}
		fmt.Printf("  • %s %s → %v%s\n",
			clockTime(str(dep["scheduled_time"])),
			info.Sprintf("%8v", dep["line"]),
			dep["direction"],
			delayNote,
		)
	}
	return true
}

func (t *tester) checkRoute(origin, destination, when string, limit int) bool {
	t.printHeader("Route Planning")

	params := url.Values{}
	params.Set("from", origin)
	params.Set("to", destination)
	params.Set("limit", strconv.Itoa(limit))
	if when != "" {
		params.Set("time", when)
	}

	ok, data := t.get("/api/route", params)
	if !ok {
		failure.Printf("✗ %v\n", data["error"])
		return false
	}

	success.Printf("✓ found %v routes\n", data["count"])
	printInfo("from", origin)
	printInfo("to", destination)

	bold.Println("\nRoutes:")
	for i, raw := range anySlice(data["routes"]) {
		route := asMap(raw)
		fmt.Printf("\n  %s %s → %s (%v min, %v transfer(s))\n",
			bold.Sprintf("Route %d:", i+1),
			clockTime(str(route["departure_time"])),
			clockTime(str(route["arrival_time"])),
			route["duration_minutes"],
			route["num_transfers"],
		)

		for _, rawLeg := range anySlice(route["legs"]) {
			leg := asMap(rawLeg)
			switch leg["type"] {
			case "transit":
				fmt.Printf("    🚌 %s %v → %v\n", info.Sprintf("%v", leg["line"]), leg["origin"], leg["destination"])
			case "walk":
				fmt.Printf("    🚶 %v → %v\n", leg["origin"], leg["destination"])
			}
		}
	}
	return true
}

func (t *tester) runAll() bool {
	t.printHeader("Running All Checks")

	// Freiburg city center and well-known station IDs
	lat, lon := 47.9990, 7.8421
	stationID := "8000107" // Freiburg(Breisgau) Hbf
	destinationID := "8000105"

	results := []struct {
		name string
		ok   bool
	}{
		{"health", t.checkHealth()},
		{"station search", t.checkSearch("Freiburg", 5)},
		{"stations in radius", t.checkStations(lat, lon, 1000, 10)},
		{"nearest station", t.checkNearest(lat, lon)},
		{"departures", t.checkDepartures(stationID, "", 5)},
		{"route", t.checkRoute(stationID, destinationID, "", 2)},
	}

	t.printHeader("Summary")

	passed := 0
	for _, r := range results {
		if r.ok {
			success.Printf("✓ %s\n", r.name)
			passed++
		} else {
			failure.Printf("✗ %s\n", r.name)
		}
	}

	bold.Printf("\nResult: %d/%d checks passed\n", passed, len(results))
	return passed == len(results)
}

func printInfo(label string, value any) {
	fmt.Printf("  %s %v\n", info.Sprintf("%s:", label), value)
}

// clockTime renders an ISO timestamp as HH:MM for compact listings.
func clockTime(value string) string {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.Format("15:04")
	}
	if len(value) >= 16 {
		return value[11:16]
	}
	return "?"
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: apitest [--url URL] <command> [flags]

Commands:
  health                                    check the health endpoint
  stations   --lat --lon [--radius --limit] stations around a coordinate
  search     --query [--limit]              search stations by name
  nearest    --lat --lon                    closest station to a coordinate
  departures --station [--time --limit]     departure board for a station
  route      --from --to [--time --limit]   journeys between two stations
  all                                       run the full Freiburg scenario

Useful Freiburg station IDs:
  Freiburg(Breisgau) Hbf: 8000107

`)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the running server")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	t := newTester(*baseURL)
	args := flag.Args()[1:]

	var ok bool
	switch flag.Arg(0) {
	case "health":
		ok = t.checkHealth()

	case "stations":
		fs := flag.NewFlagSet("stations", flag.ExitOnError)
		lat := fs.Float64("lat", 0, "latitude (required)")
		lon := fs.Float64("lon", 0, "longitude (required)")
		radius := fs.Int("radius", 1000, "search radius in meters")
		limit := fs.Int("limit", 20, "maximum number of stations")
		fs.Parse(args)
		requireFlags(fs, "lat", "lon")
		ok = t.checkStations(*lat, *lon, *radius, *limit)

	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		query := fs.String("query", "", "station name to search for (required)")
		limit := fs.Int("limit", 10, "maximum number of matches")
		fs.Parse(args)
		requireFlags(fs, "query")
		ok = t.checkSearch(*query, *limit)

	case "nearest":
		fs := flag.NewFlagSet("nearest", flag.ExitOnError)
		lat := fs.Float64("lat", 0, "latitude (required)")
		lon := fs.Float64("lon", 0, "longitude (required)")
		fs.Parse(args)
		requireFlags(fs, "lat", "lon")
		ok = t.checkNearest(*lat, *lon)

	case "departures":
		fs := flag.NewFlagSet("departures", flag.ExitOnError)
		station := fs.String("station", "", "station ID (required)")
		when := fs.String("time", "", "ISO 8601 timestamp, defaults to now")
		limit := fs.Int("limit", 10, "maximum number of departures")
		fs.Parse(args)
		requireFlags(fs, "station")
		ok = t.checkDepartures(*station, *when, *limit)

	case "route":
		fs := flag.NewFlagSet("route", flag.ExitOnError)
		from := fs.String("from", "", "origin station ID (required)")
		to := fs.String("to", "", "destination station ID (required)")
		when := fs.String("time", "", "ISO 8601 departure time, defaults to now")
		limit := fs.Int("limit", 3, "maximum number of routes")
		fs.Parse(args)
		requireFlags(fs, "from", "to")
		ok = t.checkRoute(*from, *to, *when, *limit)

	case "all":
		ok = t.runAll()

	default:
		usage()
		os.Exit(1)
	}

	if !ok {
		os.Exit(1)
	}
}

func requireFlags(fs *flag.FlagSet, names ...string) {
	seen := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })

	for _, name := range names {
		if !seen[name] {
			failure.Printf("✗ missing required flag --%s\n", name)
			fs.Usage()
			os.Exit(2)
		}
	}
}
