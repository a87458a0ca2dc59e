package models

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format used on the wire and as grouping key
const DateLayout = "2006-01-02"

// Reading represents a single sensor sample from the meter
type Reading struct {
	Date        time.Time `json:"date"`      // Local calendar date (midnight)
	Timestamp   time.Time `json:"timestamp"` // Sample time, second precision
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Power       float64   `json:"power"`
	Energy      float64   `json:"energy"` // Cumulative meter value in kWh, not an increment
	Frequency   float64   `json:"frequency"`
	PowerFactor float64   `json:"pf"`
}

// DateKey returns the reading's calendar date as YYYY-MM-DD
func (r Reading) DateKey() string {
	return r.Date.Format(DateLayout)
}

// Validate checks that the reading is usable for cost aggregation
func (r Reading) Validate() error {
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "missing"}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "missing"}
	}
	if r.DateKey() != r.Timestamp.Format(DateLayout) {
		return &ValidationError{
			Field:  "date",
			Value:  r.DateKey(),
			Reason: fmt.Sprintf("does not match timestamp date %s", r.Timestamp.Format(DateLayout)),
		}
	}

	measurements := []struct {
		name  string
		value float64
	}{
		{"voltage", r.Voltage},
		{"current", r.Current},
		{"power", r.Power},
		{"energy", r.Energy},
		{"frequency", r.Frequency},
		{"pf", r.PowerFactor},
	}
	for _, m := range measurements {
		if err := CheckNonNegative(m.name, m.value); err != nil {
			return err
		}
	}

	return nil
}

// CheckNonNegative rejects negative, NaN and infinite values
func CheckNonNegative(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{Field: field, Value: fmt.Sprint(value), Reason: "not a finite number"}
	}
	if value < 0 {
		return &ValidationError{Field: field, Value: fmt.Sprint(value), Reason: "must not be negative"}
	}
	return nil
}

// AnnotatedReading is a reading with its tariff cost attached
type AnnotatedReading struct {
	Reading
	DailyCost float64 `json:"daily_cost"` // Rounded to 2 decimals, derived from Energy only
}

// DateGroup holds every reading of one calendar date in arrival order
type DateGroup struct {
	Date    string             `json:"date"`
	Records []AnnotatedReading `json:"records"`
}

// CostRangeResult is the cost delta between two dates plus the per-date rows it was built from
type CostRangeResult struct {
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	TotalCost float64            `json:"total_cost"`
	Entries   []AnnotatedReading `json:"entries"`
}

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
