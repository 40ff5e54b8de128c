package availability

import (
	"time"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
)

// Feed is the upstream availability document for one field and date.
// Ranges are not guaranteed to align to the hour grid.
type Feed struct {
	Field        FeedField  `json:"field"`
	Slots        []FeedSlot `json:"slots"`
	BlockedSlots []FeedBlock `json:"blocked_slots"`
}

type FeedField struct {
	HourlyRate float64 `json:"hourly_rate"`
}

type FeedSlot struct {
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Available *bool    `json:"available"`
	Price     *float64 `json:"price"`
}

type FeedBlock struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// OpenFeed is the degraded-mode substitute when the upstream fetch fails:
// every canonical slot stays open at the field's default rate.
func OpenFeed(hourlyRate float64) Feed {
	return Feed{Field: FeedField{HourlyRate: hourlyRate}}
}

// Slot is an HourSlot overlaid with merged availability state.
type Slot struct {
	HourSlot
	Available   bool     `json:"available"`
	Blocked     bool     `json:"blocked"`
	BlockReason string   `json:"block_reason,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Past        bool     `json:"past,omitempty"`
}

type availEntry struct {
	available bool
	price     *float64
}

// Merge overlays the feed onto the canonical grid for date. Every canonical
// slot is populated: missing upstream data means open. Blocked dominates
// availability regardless of what the raw feed claimed. Slots whose start has
// passed are closed only when date is today relative to now.
func Merge(date string, hours calendar.Hours, feed Feed, now time.Time) []Slot {
	grid := Grid(hours)

	blocked := make(map[string]string)
	for _, b := range feed.BlockedSlots {
		reason := b.Reason
		if reason == "" {
			reason = b.Status
		}
		for _, seg := range segments(b.StartTime, b.EndTime) {
			blocked[seg.Key()] = reason
		}
	}

	avail := make(map[string]availEntry)
	for _, s := range feed.Slots {
		open := true
		if s.Available != nil {
			open = *s.Available
		}
		for _, seg := range segments(s.StartTime, s.EndTime) {
			key := seg.Key()
			entry, seen := avail[key]
			if !seen {
				entry = availEntry{available: true}
			}
			// Any overlapping "unavailable" wins; the latest explicit price wins.
			entry.available = entry.available && open
			if s.Price != nil {
				entry.price = s.Price
			}
			avail[key] = entry
		}
	}

	markPast := date == now.Format("2006-01-02")
	nowClock := ClockTime(now.Hour()*60 + now.Minute())

	out := make([]Slot, 0, len(grid))
	for _, hs := range grid {
		slot := Slot{HourSlot: hs, Available: true}
		if entry, ok := avail[hs.Key()]; ok {
			slot.Available = entry.available
			slot.Price = entry.price
		}
		if reason, ok := blocked[hs.Key()]; ok {
			slot.Blocked = true
			slot.BlockReason = reason
			slot.Available = false
		}
		if markPast && hs.Start <= nowClock {
			slot.Past = true
			slot.Available = false
		}
		out = append(out, slot)
	}
	return out
}

// segments decomposes an upstream [start, end) range into hour-aligned
// 60-minute pieces. Misaligned boundaries widen to the enclosing hours
// (start floors, end ceils) so no covered minute is dropped. Unparseable or
// empty ranges yield nothing.
func segments(startRaw, endRaw string) []HourSlot {
	start, err := ParseClock(startRaw)
	if err != nil {
		return nil
	}
	end, err := ParseClock(endRaw)
	if err != nil {
		return nil
	}
	start = start.FloorHour()
	end = end.CeilHour()
	if end <= start || end > minutesPerDay {
		return nil
	}

	segs := make([]HourSlot, 0, (end-start)/60)
	for at := start; at < end; at += 60 {
		segs = append(segs, HourSlot{Start: at, End: at + 60})
	}
	return segs
}
