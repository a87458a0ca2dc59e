package tariff

import (
	"errors"
	"fmt"
	"math"

	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/shopspring/decimal"
)

// OverflowPolicy decides how energy above the last band is billed
type OverflowPolicy string

const (
	// OverflowReject fails with UnsupportedEnergyBandError
	OverflowReject OverflowPolicy = "reject"
	// OverflowExtrapolate bills the excess at the last band's rate
	OverflowExtrapolate OverflowPolicy = "extrapolate"
)

// ErrUnsupportedEnergyBand is matched by every UnsupportedEnergyBandError via errors.Is
var ErrUnsupportedEnergyBand = errors.New("energy exceeds tariff bands")

// UnsupportedEnergyBandError reports energy beyond the highest defined band
type UnsupportedEnergyBandError struct {
	Energy float64
	Limit  float64
}

func (e *UnsupportedEnergyBandError) Error() string {
	return fmt.Sprintf("energy %.2f kWh exceeds highest tariff band (%.2f kWh)", e.Energy, e.Limit)
}

// Is lets callers test for ErrUnsupportedEnergyBand
func (e *UnsupportedEnergyBandError) Is(target error) bool {
	return target == ErrUnsupportedEnergyBand
}

// Band is one tier of the schedule: energy up to UpTo kWh is billed at Rate per kWh
type Band struct {
	UpTo float64 `yaml:"up_to" json:"up_to"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// Schedule is a progressive piecewise-linear tariff
type Schedule struct {
	Bands    []Band         `yaml:"bands" json:"bands"`
	Overflow OverflowPolicy `yaml:"overflow" json:"overflow"`
}

// DefaultSchedule returns the five-band residential tariff
func DefaultSchedule() Schedule {
	return Schedule{
		Bands: []Band{
			{UpTo: 50, Rate: 3.25},
			{UpTo: 100, Rate: 4.05},
			{UpTo: 150, Rate: 5.10},
			{UpTo: 200, Rate: 6.95},
			{UpTo: 250, Rate: 8.20},
		},
		Overflow: OverflowReject,
	}
}

// Validate checks that bands are ascending with finite non-negative rates
func (s Schedule) Validate() error {
	if len(s.Bands) == 0 {
		return errors.New("tariff schedule has no bands")
	}

	prev := 0.0
	for i, b := range s.Bands {
		if math.IsNaN(b.UpTo) || math.IsInf(b.UpTo, 0) || b.UpTo <= prev {
			return fmt.Errorf("band %d: up_to %v must be finite and greater than %v", i+1, b.UpTo, prev)
		}
		if math.IsNaN(b.Rate) || math.IsInf(b.Rate, 0) || b.Rate < 0 {
			return fmt.Errorf("band %d: rate %v must be finite and non-negative", i+1, b.Rate)
		}
		prev = b.UpTo
	}

	switch s.Overflow {
	case "", OverflowReject, OverflowExtrapolate:
	default:
		return fmt.Errorf("unknown overflow policy %q (use reject or extrapolate)", s.Overflow)
	}

	return nil
}

// Limit returns the upper bound of the last band
func (s Schedule) Limit() float64 {
	if len(s.Bands) == 0 {
		return 0
	}
	return s.Bands[len(s.Bands)-1].UpTo
}

// Cost converts a cumulative energy reading into a cost rounded half-up to 2 decimals
func (s Schedule) Cost(energy float64) (float64, error) {
	cost, err := s.CostDecimal(energy)
	if err != nil {
		return 0, err
	}
	return cost.InexactFloat64(), nil
}

// CostDecimal is Cost without the conversion back to float64
func (s Schedule) CostDecimal(energy float64) (decimal.Decimal, error) {
	if err := models.CheckNonNegative("energy", energy); err != nil {
		return decimal.Zero, err
	}
	if len(s.Bands) == 0 {
		return decimal.Zero, errors.New("tariff schedule has no bands")
	}

	limit := s.Limit()
	if energy > limit && s.Overflow != OverflowExtrapolate {
		return decimal.Zero, &UnsupportedEnergyBandError{Energy: energy, Limit: limit}
	}

	e := decimal.NewFromFloat(energy)
	total := decimal.Zero
	lower := decimal.Zero

	// Bill each band in full before moving on to the next marginal rate
	for _, b := range s.Bands {
		upper := decimal.NewFromFloat(b.UpTo)
		rate := decimal.NewFromFloat(b.Rate)
		if e.LessThanOrEqual(upper) {
			return total.Add(e.Sub(lower).Mul(rate)).Round(2), nil
		}
		total = total.Add(upper.Sub(lower).Mul(rate))
		lower = upper
	}

	// Only reachable with OverflowExtrapolate
	last := decimal.NewFromFloat(s.Bands[len(s.Bands)-1].Rate)
	return total.Add(e.Sub(lower).Mul(last)).Round(2), nil
}

// ComputeDailyCost prices energy with the default schedule
func ComputeDailyCost(energy float64) (float64, error) {
	return DefaultSchedule().Cost(energy)
}
