package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Hours is the bookable window for a date. EndHour is exclusive.
type Hours struct {
	StartHour int
	EndHour   int
}

func (h Hours) Start() string { return fmt.Sprintf("%02d:00", h.StartHour) }
func (h Hours) End() string   { return fmt.Sprintf("%02d:00", h.EndHour) }

// Holiday is a recurring public-holiday date.
type Holiday struct {
	Month time.Month
	Day   int
}

// Override is the operating-hours capability value passed through on
// booking-creation requests when the extended window applies. Upstream
// systems receive it once instead of re-deriving the window per call.
type Override struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Calendar resolves operating hours per date: weekends and configured
// holidays get the extended window, everything else the weekday window.
type Calendar struct {
	weekday  Hours
	extended Hours
	holidays []Holiday
}

var defaultHolidays = []Holiday{
	{time.January, 1},
	{time.March, 21},
	{time.April, 27},
	{time.May, 1},
	{time.June, 16},
	{time.August, 9},
	{time.September, 24},
	{time.December, 16},
	{time.December, 25},
	{time.December, 26},
}

func New(holidays []Holiday) *Calendar {
	if holidays == nil {
		holidays = defaultHolidays
	}
	return &Calendar{
		weekday:  Hours{StartHour: 16, EndHour: 22},
		extended: Hours{StartHour: 9, EndHour: 22},
		holidays: holidays,
	}
}

// ParseHolidays reads a comma-separated MM-DD list. Malformed entries are
// skipped; an empty result falls back to the default table.
func ParseHolidays(raw string) []Holiday {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []Holiday
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("01-02", part)
		if err != nil {
			continue
		}
		out = append(out, Holiday{Month: t.Month(), Day: t.Day()})
	}
	return out
}

// HoursFor returns the bookable hour range for a date.
func (c *Calendar) HoursFor(date time.Time) Hours {
	if c.isWeekend(date) || c.isHoliday(date) {
		return c.extended
	}
	return c.weekday
}

// HoursForDate resolves a YYYY-MM-DD string. Invalid dates default to the
// weekday window rather than erroring.
func (c *Calendar) HoursForDate(dateStr string) Hours {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dateStr), time.Local)
	if err != nil {
		return c.weekday
	}
	return c.HoursFor(date)
}

// OverrideFor returns the operating-hours override for dates on the extended
// window, nil otherwise.
func (c *Calendar) OverrideFor(dateStr string) *Override {
	h := c.HoursForDate(dateStr)
	if h == c.weekday {
		return nil
	}
	return &Override{Start: h.Start(), End: h.End()}
}

func (c *Calendar) isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (c *Calendar) isHoliday(date time.Time) bool {
	for _, h := range c.holidays {
		if date.Month() == h.Month && date.Day() == h.Day {
			return true
		}
	}
	return false
}
