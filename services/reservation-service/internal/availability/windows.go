package availability

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/pricing"
)

// Window is a bookable contiguous run of slots totalling exactly the
// requested duration.
type Window struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
	Price float64   `json:"price"`
}

// Selection rejection reasons. Callers distinguish blocked, past,
// unavailable, and too-short so each maps to its own response.
var (
	ErrSlotBlocked     = errors.New("slot is blocked")
	ErrSlotPast        = errors.New("slot start has passed")
	ErrSlotUnavailable = errors.New("slot is unavailable")
	ErrTooShort        = errors.New("not enough slots for requested duration")
)

// FindWindows enumerates every contiguous window of durationHours bookable
// slots, priced by explicit segment prices when all segments carry one and
// the flat hourly rate otherwise. Results are deduplicated by (start, end)
// and sorted by start time; scan order already yields that order, but the
// contract must not depend on it.
func FindWindows(slots []Slot, durationHours int, hourlyRate float64) []Window {
	if durationHours < 1 || len(slots) < durationHours {
		return nil
	}

	seen := make(map[string]struct{})
	var windows []Window
	for i := 0; i+durationHours <= len(slots); i++ {
		run := slots[i : i+durationHours]
		if !runBookable(run) {
			continue
		}

		covered := 0
		priced := true
		var segmentPrices []float64
		for _, s := range run {
			covered += int(s.End - s.Start)
			if s.Price == nil {
				priced = false
				continue
			}
			segmentPrices = append(segmentPrices, *s.Price)
		}
		// Emit only exact coverage, never a partial window.
		if covered != durationHours*60 {
			continue
		}

		w := Window{Start: run[0].Start, End: run[len(run)-1].End}
		if priced {
			w.Price = pricing.SegmentTotal(segmentPrices)
		} else {
			w.Price = pricing.Cost(hourlyRate, durationHours)
		}

		key := w.Start.String() + "-" + w.End.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows
}

func runBookable(run []Slot) bool {
	for i, s := range run {
		if !s.Available || s.Blocked || s.Past {
			return false
		}
		// Guard against non-canonical input sequences.
		if i > 0 && run[i-1].End != s.Start {
			return false
		}
	}
	return true
}

// ValidateSelection checks that the window starting at start and spanning
// durationHours is bookable, reporting the first specific obstacle.
func ValidateSelection(slots []Slot, start ClockTime, durationHours int) error {
	if durationHours < 1 {
		return ErrTooShort
	}
	idx := -1
	for i, s := range slots {
		if s.Start == start {
			idx = i
			break
		}
	}
	if idx < 0 || idx+durationHours > len(slots) {
		return fmt.Errorf("window of %dh from %s: %w", durationHours, start, ErrTooShort)
	}

	for _, s := range slots[idx : idx+durationHours] {
		switch {
		case s.Blocked:
			return fmt.Errorf("slot %s: %w", s.Key(), ErrSlotBlocked)
		case s.Past:
			return fmt.Errorf("slot %s: %w", s.Key(), ErrSlotPast)
		case !s.Available:
			return fmt.Errorf("slot %s: %w", s.Key(), ErrSlotUnavailable)
		}
	}
	return nil
}

// WindowAt returns the priced window starting at start, if bookable.
func WindowAt(slots []Slot, start ClockTime, durationHours int, hourlyRate float64) (Window, error) {
	if err := ValidateSelection(slots, start, durationHours); err != nil {
		return Window{}, err
	}
	for _, w := range FindWindows(slots, durationHours, hourlyRate) {
		if w.Start == start {
			return w, nil
		}
	}
	// Contiguity failed even though each slot was individually clear.
	return Window{}, fmt.Errorf("window of %dh from %s: %w", durationHours, start, ErrTooShort)
}
