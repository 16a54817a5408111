package analytics

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 standard deviation; 0 for fewer than two values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// quantile returns the linearly interpolated q-quantile, q in [0, 1].
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// skewness is the adjusted sample skewness. Fewer than three values or zero
// dispersion yield 0, which degrades Cornish-Fisher to plain parametric.
func skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	s := sampleStd(values)
	if s == 0 {
		return 0
	}
	n := float64(len(values))
	m := mean(values)
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// excessKurtosis is the adjusted sample excess kurtosis. Fewer than four
// values or zero dispersion yield 0.
func excessKurtosis(values []float64) float64 {
	if len(values) < 4 {
		return 0
	}
	s := sampleStd(values)
	if s == 0 {
		return 0
	}
	n := float64(len(values))
	m := mean(values)
	var sum float64
	for _, v := range values {
		z := (v - m) / s
		sum += z * z * z * z
	}
	adj := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	return adj*sum - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// normalQuantile returns the lower-tail normal quantile z = Phi^-1(1-confidence)
// for the confidence levels the engine is configured with. Unlisted levels
// fall back to the 95% value.
func normalQuantile(confidence float64) float64 {
	switch confidence {
	case 0.90:
		return -1.282
	case 0.95:
		return -1.645
	case 0.975:
		return -1.960
	case 0.99:
		return -2.326
	case 0.995:
		return -2.576
	default:
		return -1.645
	}
}
