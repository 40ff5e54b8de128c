package calendar

import (
	"testing"
	"time"
)

func TestHoursFor_WeekdayWindow(t *testing.T) {
	cal := New(nil)
	// 2024-01-08 is a Monday.
	h := cal.HoursFor(time.Date(2024, 1, 8, 0, 0, 0, 0, time.Local))
	if h.StartHour != 16 || h.EndHour != 22 {
		t.Fatalf("expected 16-22, got %d-%d", h.StartHour, h.EndHour)
	}
}

func TestHoursFor_Weekend(t *testing.T) {
	cal := New(nil)
	// 2024-01-06 is a Saturday, 2024-01-07 a Sunday.
	for _, day := range []int{6, 7} {
		h := cal.HoursFor(time.Date(2024, 1, day, 0, 0, 0, 0, time.Local))
		if h.StartHour != 9 || h.EndHour != 22 {
			t.Fatalf("day %d: expected 9-22, got %d-%d", day, h.StartHour, h.EndHour)
		}
	}
}

func TestHoursFor_Holiday(t *testing.T) {
	cal := New(nil)
	// 2024-12-25 is a Wednesday but a default holiday.
	h := cal.HoursFor(time.Date(2024, 12, 25, 0, 0, 0, 0, time.Local))
	if h.StartHour != 9 || h.EndHour != 22 {
		t.Fatalf("expected holiday window 9-22, got %d-%d", h.StartHour, h.EndHour)
	}
}

func TestHoursFor_ConfiguredHolidayOverridesDefaults(t *testing.T) {
	cal := New(ParseHolidays("07-04"))
	// With a custom table, 12-25 (a Wednesday in 2024) is a plain weekday.
	h := cal.HoursFor(time.Date(2024, 12, 25, 0, 0, 0, 0, time.Local))
	if h.StartHour != 16 {
		t.Fatalf("expected weekday window, got start %d", h.StartHour)
	}
	// 2024-07-04 is a Thursday, now a holiday.
	h = cal.HoursFor(time.Date(2024, 7, 4, 0, 0, 0, 0, time.Local))
	if h.StartHour != 9 {
		t.Fatalf("expected holiday window, got start %d", h.StartHour)
	}
}

func TestHoursForDate_InvalidDefaultsToWeekday(t *testing.T) {
	cal := New(nil)
	h := cal.HoursForDate("not-a-date")
	if h.StartHour != 16 || h.EndHour != 22 {
		t.Fatalf("expected weekday fallback, got %d-%d", h.StartHour, h.EndHour)
	}
}

func TestOverrideFor(t *testing.T) {
	cal := New(nil)
	if o := cal.OverrideFor("2024-01-08"); o != nil {
		t.Fatalf("weekday should carry no override, got %+v", o)
	}
	o := cal.OverrideFor("2024-01-06")
	if o == nil {
		t.Fatal("weekend should carry an override")
	}
	if o.Start != "09:00" || o.End != "22:00" {
		t.Fatalf("unexpected override %+v", o)
	}
}

func TestParseHolidays_SkipsMalformed(t *testing.T) {
	got := ParseHolidays("01-01, bogus ,12-26")
	if len(got) != 2 {
		t.Fatalf("expected 2 holidays, got %d", len(got))
	}
	if got[0].Month != time.January || got[0].Day != 1 {
		t.Fatalf("unexpected first holiday %+v", got[0])
	}
	if got[1].Month != time.December || got[1].Day != 26 {
		t.Fatalf("unexpected second holiday %+v", got[1])
	}
}
