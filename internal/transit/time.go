package transit

import (
	"fmt"
	"time"
)

// timeLayouts are the accepted forms for client-supplied timestamps, most
// specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp from a time/time_iso request
// parameter. Timestamps without a zone are taken as local time.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", value)
}
