package aggregate

import (
	"errors"

	"github.com/jgoulah/powerdash/pkg/models"
)

// Dashboard bundles every derived view of one reading set
type Dashboard struct {
	Readings     []models.AnnotatedReading `json:"readings"`
	LatestByDate []models.AnnotatedReading `json:"latest_by_date"`
	History      []models.DateGroup        `json:"history"`
	LifetimeCost float64                   `json:"lifetime_cost"`
	Range        *models.CostRangeResult   `json:"range,omitempty"`
	RangeError   string                    `json:"range_error,omitempty"`
	Rejected     []string                  `json:"rejected,omitempty"`
}

// Build computes all views. A range failure is recorded on the dashboard
// instead of being returned, so the other views are always available.
// startDate and endDate may both be empty to skip the range view.
func (a *Aggregator) Build(readings []models.Reading, startDate, endDate string) *Dashboard {
	annotated, err := a.Annotate(readings)

	d := &Dashboard{
		Readings:     annotated,
		LatestByDate: LatestPerDate(annotated),
		History:      GroupByDate(annotated),
		Rejected:     unwrapAll(err),
	}

	// Same pricing pass as LifetimeCost: rejected readings never reach the total
	d.LifetimeCost = TotalCost(annotated)

	if startDate != "" || endDate != "" {
		result, err := CostForRange(annotated, startDate, endDate)
		if err != nil {
			d.RangeError = err.Error()
		} else {
			d.Range = result
		}
	}

	return d
}

// unwrapAll flattens a joined error into its messages
func unwrapAll(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var msgs []string
	for _, e := range joined.Unwrap() {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
