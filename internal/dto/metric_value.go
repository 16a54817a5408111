package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MetricValue is the result of a ratio metric. Ratios with no measured risk
// in the denominator resolve to positive infinity, which JSON cannot carry
// as a number, so the state is tagged explicitly: finite values serialize as
// numbers, the sentinel serializes as the string "Infinity".
type MetricValue struct {
	value    float64
	infinite bool
}

func Finite(v float64) MetricValue {
	return MetricValue{value: v}
}

func PositiveInfinity() MetricValue {
	return MetricValue{infinite: true}
}

// IsInfinite reports whether the metric resolved to the no-risk sentinel.
func (m MetricValue) IsInfinite() bool {
	return m.infinite
}

// Float64 returns the plain value, math.Inf(1) for the sentinel.
func (m MetricValue) Float64() float64 {
	if m.infinite {
		return math.Inf(1)
	}
	return m.value
}

func (m MetricValue) String() string {
	if m.infinite {
		return "Infinity"
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

func (m MetricValue) MarshalJSON() ([]byte, error) {
	if m.infinite {
		return json.Marshal("Infinity")
	}
	return json.Marshal(m.value)
}

func (m *MetricValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "Infinity" {
			*m = PositiveInfinity()
			return nil
		}
		return fmt.Errorf("invalid metric value %q", s)
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Finite(v)
	return nil
}
