package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every ValidationError via errors.Is
var ErrInvalidInput = errors.New("invalid input")

// ValidationError reports a malformed or out-of-range input value
type ValidationError struct {
	Record int // 1-based position in the source sequence, 0 when not applicable
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Record > 0 {
		msg = fmt.Sprintf("record %d: %s", e.Record, msg)
	}
	return msg
}

// Is lets callers test for ErrInvalidInput
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
