package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRange is matched by EmptyRangeError via errors.Is
	ErrEmptyRange = errors.New("no data in range")
	// ErrMissingBoundary is matched by MissingBoundaryError via errors.Is
	ErrMissingBoundary = errors.New("no data on boundary date")
)

// EmptyRangeError means no reading falls inside the requested dates
type EmptyRangeError struct {
	StartDate string
	EndDate   string
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no data available for the selected date range (%s to %s)", e.StartDate, e.EndDate)
}

// Is lets callers test for ErrEmptyRange
func (e *EmptyRangeError) Is(target error) bool {
	return target == ErrEmptyRange
}

// MissingBoundaryError means the range has data but not on one of its boundary dates
type MissingBoundaryError struct {
	Date string
}

func (e *MissingBoundaryError) Error() string {
	return fmt.Sprintf("no data available for %s", e.Date)
}

// Is lets callers test for ErrMissingBoundary
func (e *MissingBoundaryError) Is(target error) bool {
	return target == ErrMissingBoundary
}
