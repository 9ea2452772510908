// Package schedule holds the time arithmetic behind scheduled publishing:
// normalizing user-supplied instants to UTC and searching for free
// auto-schedule slots. Everything works on fixed UTC offsets; there is no
// timezone database or DST handling here.
package schedule

import (
	"fmt"
	"time"
)

// wallLayout accepts a clock time with no zone information, the format
// older clients send.
const wallLayout = "2006-01-02T15:04"

// pastBump keeps a normalized instant observable by a sweep that fires at
// minute granularity: anything at or before "now" lands 5s into the future.
const pastBump = 5 * time.Second

// ParseInstant parses a scheduled-time string. The second return reports
// whether the input carried zone information (RFC 3339) or was a bare wall
// clock reading.
func ParseInstant(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(wallLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t, false, nil
}

// Normalize converts a scheduled instant to UTC and guarantees the result
// is strictly after now.
//
// Zoned inputs convert directly. A zoneless wall time is interpreted at
// the user's fixed offset when one is known; with no offset it is taken
// as already UTC, which avoids accidentally applying an offset twice.
func Normalize(t time.Time, zoned bool, now time.Time, offsetMinutes *int) time.Time {
	var utc time.Time
	switch {
	case zoned:
		utc = t.UTC()
	case offsetMinutes != nil:
		// utc = wall - offset
		utc = t.Add(-time.Duration(*offsetMinutes) * time.Minute).UTC()
	default:
		utc = t.UTC()
	}

	if !utc.After(now) {
		utc = now.Add(pastBump)
	}
	return utc
}
