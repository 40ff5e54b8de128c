package availability

import (
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
)

// HourSlot is one 60-minute cell of the canonical grid. Start < End, never
// crossing midnight.
type HourSlot struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Key is the canonical "HH:MM-HH:MM" identity used by the merge maps.
func (s HourSlot) Key() string {
	return s.Start.String() + "-" + s.End.String()
}

// Grid produces the canonical ordered hour slots for an operating window.
// Slots are contiguous and exhaustive: slots[i].End == slots[i+1].Start, and
// together they cover [StartHour, EndHour) exactly.
func Grid(hours calendar.Hours) []HourSlot {
	if hours.EndHour <= hours.StartHour {
		return nil
	}
	slots := make([]HourSlot, 0, hours.EndHour-hours.StartHour)
	for h := hours.StartHour; h < hours.EndHour; h++ {
		slots = append(slots, HourSlot{
			Start: ClockTime(h * 60),
			End:   ClockTime((h + 1) * 60),
		})
	}
	return slots
}
