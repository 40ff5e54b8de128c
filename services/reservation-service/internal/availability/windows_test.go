package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
)

func openSlots(t *testing.T) []Slot {
	t.Helper()
	return Merge(futureDate, calendar.Hours{StartHour: 16, EndHour: 22}, Feed{}, futureNow())
}

func TestFindWindows_ExactCoverage(t *testing.T) {
	windows := FindWindows(openSlots(t), 2, 400)
	if len(windows) != 5 {
		t.Fatalf("expected 5 two-hour windows in 16-22, got %d", len(windows))
	}
	for _, w := range windows {
		if int(w.End-w.Start) != 120 {
			t.Fatalf("window %s-%s does not cover 120 minutes", w.Start, w.End)
		}
		if w.Price != 800 {
			t.Fatalf("window %s-%s priced %v, want 800", w.Start, w.End, w.Price)
		}
	}
	for i := 1; i < len(windows); i++ {
		if windows[i-1].Start >= windows[i].Start {
			t.Fatal("windows must be sorted by start time")
		}
	}
}

func TestFindWindows_BlockedSlotSplitsRuns(t *testing.T) {
	feed := Feed{
		BlockedSlots: []FeedBlock{{StartTime: "18:00", EndTime: "19:00", Status: "maintenance"}},
	}
	slots := Merge(futureDate, calendar.Hours{StartHour: 16, EndHour: 22}, feed, futureNow())
	windows := FindWindows(slots, 2, 400)
	// 16-18, 19-21, 20-22.
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
	for _, w := range windows {
		if w.Start.Hour() == 17 || w.Start.Hour() == 18 {
			t.Fatalf("window %s-%s crosses the blocked slot", w.Start, w.End)
		}
	}
}

func TestFindWindows_SegmentPricesPreferred(t *testing.T) {
	p1, p2 := 350.0, 425.5
	feed := Feed{
		Slots: []FeedSlot{
			{StartTime: "16:00", EndTime: "17:00", Price: &p1},
			{StartTime: "17:00", EndTime: "18:00", Price: &p2},
		},
	}
	slots := Merge(futureDate, calendar.Hours{StartHour: 16, EndHour: 18}, feed, futureNow())
	windows := FindWindows(slots, 2, 400)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].Price != 775.5 {
		t.Fatalf("segment sum should win, got %v", windows[0].Price)
	}
}

func TestFindWindows_PartiallyPricedFallsBackToRate(t *testing.T) {
	p := 350.0
	feed := Feed{
		Slots: []FeedSlot{{StartTime: "16:00", EndTime: "17:00", Price: &p}},
	}
	slots := Merge(futureDate, calendar.Hours{StartHour: 16, EndHour: 18}, feed, futureNow())
	windows := FindWindows(slots, 2, 400)
	if len(windows) != 1 || windows[0].Price != 800 {
		t.Fatalf("mixed pricing must fall back to rate*duration, got %+v", windows)
	}
}

func TestFindWindows_NonCanonicalSequenceRejected(t *testing.T) {
	slots := []Slot{
		{HourSlot: HourSlot{Start: 16 * 60, End: 17 * 60}, Available: true},
		{HourSlot: HourSlot{Start: 18 * 60, End: 19 * 60}, Available: true},
	}
	if windows := FindWindows(slots, 2, 400); len(windows) != 0 {
		t.Fatalf("gapped sequence must yield no windows, got %+v", windows)
	}
}

func TestFindWindows_DurationLongerThanDay(t *testing.T) {
	if windows := FindWindows(openSlots(t), 10, 400); windows != nil {
		t.Fatalf("expected no windows, got %+v", windows)
	}
}

func TestValidateSelection_SpecificReasons(t *testing.T) {
	now := time.Date(2024, 1, 8, 17, 30, 0, 0, time.Local)
	feed := Feed{
		BlockedSlots: []FeedBlock{{StartTime: "19:00", EndTime: "20:00", Status: "maintenance"}},
	}
	no := false
	feed.Slots = []FeedSlot{{StartTime: "21:00", EndTime: "22:00", Available: &no}}
	slots := Merge(now.Format("2006-01-02"), calendar.Hours{StartHour: 16, EndHour: 22}, feed, now)

	cases := []struct {
		name     string
		start    ClockTime
		duration int
		want     error
	}{
		{name: "blocked", start: 19 * 60, duration: 1, want: ErrSlotBlocked},
		{name: "past", start: 16 * 60, duration: 1, want: ErrSlotPast},
		{name: "unavailable", start: 21 * 60, duration: 1, want: ErrSlotUnavailable},
		{name: "too short", start: 21 * 60, duration: 4, want: ErrTooShort},
		{name: "off grid", start: 8 * 60, duration: 1, want: ErrTooShort},
		{name: "ok", start: 20 * 60, duration: 1, want: nil},
	}
	for _, tc := range cases {
		err := ValidateSelection(slots, tc.start, tc.duration)
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestWindowAt(t *testing.T) {
	slots := openSlots(t)
	w, err := WindowAt(slots, 17*60, 2, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != 17*60 || w.End != 19*60 || w.Price != 800 {
		t.Fatalf("unexpected window %+v", w)
	}

	if _, err := WindowAt(slots, 21*60, 2, 400); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected too-short error, got %v", err)
	}
}
