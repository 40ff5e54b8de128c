package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time of day in minutes since midnight. The whole engine
// works in field-local clock time; dates select operating rules only.
type ClockTime int

const minutesPerDay = 24 * 60

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// String renders HH:MM, the canonical form used in grid keys.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// WithSeconds renders HH:MM:SS for downstream booking requests.
func (c ClockTime) WithSeconds() string {
	return c.String() + ":00"
}

// FloorHour rounds down to the previous hour boundary.
func (c ClockTime) FloorHour() ClockTime {
	return ClockTime(c.Hour() * 60)
}

// CeilHour rounds up to the next hour boundary.
func (c ClockTime) CeilHour() ClockTime {
	if c.Minute() == 0 {
		return c
	}
	return ClockTime((c.Hour() + 1) * 60)
}

// MarshalJSON renders the canonical HH:MM wire form.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClock accepts HH:MM and HH:MM:SS, the two formats upstream feeds use.
// Seconds are dropped; the grid is minute-resolution.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	return ClockTime(hour*60 + minute), nil
}
