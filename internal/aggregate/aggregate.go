package aggregate

import (
	"errors"
	"fmt"

	"github.com/jgoulah/powerdash/internal/tariff"
	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/shopspring/decimal"
)

// Pricer converts cumulative energy into a rounded cost
type Pricer interface {
	CostDecimal(energy float64) (decimal.Decimal, error)
}

// Aggregator annotates readings with tariff costs and builds the dashboard views
type Aggregator struct {
	pricer Pricer
}

// New creates an aggregator that prices readings with the given schedule
func New(pricer Pricer) *Aggregator {
	return &Aggregator{pricer: pricer}
}

// NewDefault creates an aggregator using the default tariff schedule
func NewDefault() *Aggregator {
	return New(tariff.DefaultSchedule())
}

// Annotate attaches a daily cost to each reading, preserving input order.
// Readings that fail validation or pricing are left out and reported in the returned error.
func (a *Aggregator) Annotate(readings []models.Reading) ([]models.AnnotatedReading, error) {
	result := make([]models.AnnotatedReading, 0, len(readings))
	var errs []error

	for i, r := range readings {
		if err := r.Validate(); err != nil {
			errs = append(errs, withRecord(err, i+1))
			continue
		}

		cost, err := a.pricer.CostDecimal(r.Energy)
		if err != nil {
			errs = append(errs, withRecord(err, i+1))
			continue
		}

		result = append(result, models.AnnotatedReading{
			Reading:   r,
			DailyCost: cost.InexactFloat64(),
		})
	}

	return result, errors.Join(errs...)
}

// LifetimeCost sums the cost of every accepted reading, not one per date.
// Days with several samples are counted several times. Rejected readings are
// left out of the total and reported in the returned error, as with Annotate.
func (a *Aggregator) LifetimeCost(readings []models.Reading) (float64, error) {
	annotated, err := a.Annotate(readings)
	return TotalCost(annotated), err
}

// TotalCost sums the daily cost of already annotated readings
func TotalCost(annotated []models.AnnotatedReading) float64 {
	total := decimal.Zero
	for _, r := range annotated {
		total = total.Add(decimal.NewFromFloat(r.DailyCost))
	}
	return total.Round(2).InexactFloat64()
}

// GroupByDate partitions readings by date. Groups follow first-occurrence order
// and records keep their input order within a group.
func GroupByDate(annotated []models.AnnotatedReading) []models.DateGroup {
	index := make(map[string]int)
	var groups []models.DateGroup

	for _, r := range annotated {
		key := r.DateKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.DateGroup{Date: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	return groups
}

// LatestPerDate picks the reading with the greatest timestamp for each date.
// On identical timestamps the first one seen wins.
func LatestPerDate(annotated []models.AnnotatedReading) []models.AnnotatedReading {
	index := make(map[string]int)
	var latest []models.AnnotatedReading

	for _, r := range annotated {
		key := r.DateKey()
		i, ok := index[key]
		if !ok {
			index[key] = len(latest)
			latest = append(latest, r)
			continue
		}
		if r.Timestamp.After(latest[i].Timestamp) {
			latest[i] = r
		}
	}

	return latest
}

// CostForRange computes the cost between the latest readings on startDate and endDate.
// The dates may be given in either order; the result is the absolute difference.
func CostForRange(annotated []models.AnnotatedReading, startDate, endDate string) (*models.CostRangeResult, error) {
	start, err := parseDate("start date", startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end date", endDate)
	if err != nil {
		return nil, err
	}

	lo, hi := start, end
	if hi < lo {
		lo, hi = hi, lo
	}

	// Filter to the inclusive calendar range; YYYY-MM-DD keys compare lexically
	var filtered []models.AnnotatedReading
	for _, r := range annotated {
		key := r.DateKey()
		if key >= lo && key <= hi {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, &EmptyRangeError{StartDate: start, EndDate: end}
	}

	entries := LatestPerDate(filtered)
	byDate := make(map[string]models.AnnotatedReading, len(entries))
	for _, e := range entries {
		byDate[e.DateKey()] = e
	}

	startEntry, ok := byDate[start]
	if !ok {
		return nil, &MissingBoundaryError{Date: start}
	}
	endEntry, ok := byDate[end]
	if !ok {
		return nil, &MissingBoundaryError{Date: end}
	}

	total := decimal.NewFromFloat(endEntry.DailyCost).
		Sub(decimal.NewFromFloat(startEntry.DailyCost)).
		Abs().
		Round(2)

	return &models.CostRangeResult{
		StartDate: start,
		EndDate:   end,
		TotalCost: total.InexactFloat64(),
		Entries:   entries,
	}, nil
}

// parseDate normalizes a YYYY-MM-DD date string
func parseDate(field, value string) (string, error) {
	if value == "" {
		return "", &models.ValidationError{Field: field, Reason: "both start and end dates are required"}
	}
	t, err := models.ParseDate(value)
	if err != nil {
		return "", &models.ValidationError{Field: field, Value: value, Reason: "expected YYYY-MM-DD"}
	}
	return t.Format(models.DateLayout), nil
}

// withRecord tags validation errors with the record position
func withRecord(err error, record int) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		tagged := *verr
		tagged.Record = record
		return &tagged
	}
	return fmt.Errorf("record %d: %w", record, err)
}
