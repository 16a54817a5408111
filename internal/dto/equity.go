package dto

import (
	"fmt"
	"time"
)

// EquityPoint is one snapshot of total portfolio value.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// EquityCurve is a time-ordered series of portfolio value snapshots. Every
// consumer treats it as read-only.
type EquityCurve []EquityPoint

// Validate enforces the curve invariants: non-empty, strictly increasing
// timestamps, strictly positive values.
func (c EquityCurve) Validate() error {
	if len(c) == 0 {
		return NewValidationError("equity curve", "is empty")
	}
	for i, p := range c {
		if p.Value <= 0 {
			return NewValidationError("equity curve", fmt.Sprintf("contains non-positive values (%v at index %d)", p.Value, i))
		}
		if i > 0 && !p.Timestamp.After(c[i-1].Timestamp) {
			return NewValidationError("equity curve", fmt.Sprintf("timestamps must be strictly increasing (index %d)", i))
		}
	}
	return nil
}

// Values returns the value column of the curve.
func (c EquityCurve) Values() []float64 {
	values := make([]float64, len(c))
	for i, p := range c {
		values[i] = p.Value
	}
	return values
}
