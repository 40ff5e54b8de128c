package model

import "time"

// Field is a bookable physical resource.
type Field struct {
	ID         string
	Name       string
	Surface    string
	HourlyRate float64
	Active     bool
	CreatedAt  time.Time
}
