package pricing

import "math"

// Cost is the flat-rate fallback price: hourly rate times whole hours.
// Segment-level prices, when the feed carries them, take precedence and are
// summed via SegmentTotal instead.
func Cost(hourlyRate float64, hours int) float64 {
	if hours <= 0 {
		return 0
	}
	return Round(hourlyRate * float64(hours))
}

// SegmentTotal sums explicit per-segment prices.
func SegmentTotal(prices []float64) float64 {
	var total float64
	for _, p := range prices {
		total += p
	}
	return Round(total)
}

// Round clamps to the unit of account's native precision (2 decimals).
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}
