package domain

import (
	"fmt"
	"strings"
	"time"
)

// clockLayouts are the wall-clock shapes providers use for departure and
// arrival fields.
var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "03:04 PM"}

// ParseClock parses a local wall-clock string.
func ParseClock(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == PlaceholderTime {
		return time.Time{}, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClockFromISO extracts "HH:MM" from an ISO-8601 local timestamp. Returns the
// placeholder when the value does not parse.
func ClockFromISO(value string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04")
		}
	}
	return PlaceholderTime
}

// DurationText renders a human-readable duration between two wall-clock
// strings. Trips crossing midnight wrap forward. When either side does not
// parse the placeholder is returned.
func DurationText(departure, arrival string) string {
	dep, okDep := ParseClock(departure)
	arr, okArr := ParseClock(arrival)
	if !okDep || !okArr {
		return PlaceholderTime
	}

	d := arr.Sub(dep)
	if d < 0 {
		d += 24 * time.Hour
	}
	return FormatDuration(d)
}

// FormatDuration renders a duration as "2h 35m".
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
