package source

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jgoulah/powerdash/pkg/models"
)

// wireReading matches the backend's /api/data records
type wireReading struct {
	Date      string   `json:"date"`
	Timestamp string   `json:"timestamp"`
	Voltage   float64  `json:"voltage"`
	Current   float64  `json:"current"`
	Power     float64  `json:"power"`
	Energy    *float64 `json:"energy"`
	Frequency float64  `json:"frequency"`
	PF        float64  `json:"pf"`
}

// Layouts tried for timestamps that carry no UTC offset
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Decode parses a JSON array of readings. Records that cannot be converted are
// skipped and reported together in the returned error; the rest keep their order.
func Decode(data []byte, loc *time.Location) ([]models.Reading, error) {
	// Records are decoded one at a time so a mistyped field only rejects its own record
	var raw []jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing readings payload: %w", err)
	}

	readings := make([]models.Reading, 0, len(raw))
	var errs []error

	for i, rec := range raw {
		var w wireReading
		if err := json.Unmarshal(rec, &w); err != nil {
			errs = append(errs, &models.ValidationError{Record: i + 1, Field: "record", Reason: err.Error()})
			continue
		}

		r, err := w.toReading(loc)
		if err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				verr.Record = i + 1
			}
			errs = append(errs, err)
			continue
		}
		readings = append(readings, r)
	}

	return readings, errors.Join(errs...)
}

// toReading converts one wire record, deriving the date from the timestamp when absent
func (w wireReading) toReading(loc *time.Location) (models.Reading, error) {
	ts, err := ParseTimestamp(w.Timestamp, loc)
	if err != nil {
		return models.Reading{}, err
	}

	var date time.Time
	if w.Date == "" {
		date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		date, err = models.ParseDate(strings.TrimSpace(w.Date))
		if err != nil {
			return models.Reading{}, &models.ValidationError{Field: "date", Value: w.Date, Reason: "expected YYYY-MM-DD"}
		}
	}

	if w.Energy == nil {
		return models.Reading{}, &models.ValidationError{Field: "energy", Reason: "missing"}
	}

	return models.Reading{
		Date:        date,
		Timestamp:   ts,
		Voltage:     w.Voltage,
		Current:     w.Current,
		Power:       w.Power,
		Energy:      *w.Energy,
		Frequency:   w.Frequency,
		PowerFactor: w.PF,
	}, nil
}

// ParseTimestamp reads an ISO-8601 timestamp into loc. Values without an offset
// are taken as wall-clock time in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &models.ValidationError{Field: "timestamp", Reason: "missing"}
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &models.ValidationError{Field: "timestamp", Value: value, Reason: "expected ISO-8601 date-time"}
}
