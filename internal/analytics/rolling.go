package analytics

import (
	"fmt"
	"math"

	"golang-backtest-analytics/internal/dto"
)

// RollingMetrics holds windowed series aligned index-for-index with the
// input return series. The first window-1 entries of every column are NaN:
// the window has not filled yet. Beta and Correlation stay nil unless a
// benchmark series was supplied.
type RollingMetrics struct {
	Window      int
	Sharpe      []float64
	Volatility  []float64
	Drawdown    []float64
	Beta        []float64
	Correlation []float64
}

// DefinedPoints returns how many rows carry defined values.
func (m *RollingMetrics) DefinedPoints() int {
	if len(m.Sharpe) < m.Window {
		return 0
	}
	return len(m.Sharpe) - m.Window + 1
}

// ComputeRolling runs every windowed statistic in one O(n) pass: running
// window sums drive mean, variance and covariance, and a monotonic deque
// tracks the trailing equity peak for the windowed drawdown. The rolling
// drawdown at i is how far the compounded growth index sits below its
// highest level inside the trailing window. benchmark may be nil; when
// present it must align one-to-one with returns.
func ComputeRolling(returns, benchmark []float64, window int, riskFreeRate float64, periodsPerYear int) (*RollingMetrics, error) {
	if window < 2 {
		return nil, dto.NewValidationError("rolling window", fmt.Sprintf("must be at least 2, got %d", window))
	}
	if benchmark != nil && len(benchmark) != len(returns) {
		return nil, dto.NewValidationError("benchmark series",
			fmt.Sprintf("length %d does not match return series length %d", len(benchmark), len(returns)))
	}

	n := len(returns)
	metrics := &RollingMetrics{
		Window:     window,
		Sharpe:     nanSlice(n),
		Volatility: nanSlice(n),
		Drawdown:   nanSlice(n),
	}
	if benchmark != nil {
		metrics.Beta = nanSlice(n)
		metrics.Correlation = nanSlice(n)
	}

	w := float64(window)
	periods := float64(periodsPerYear)
	rfPeriodic := riskFreeRate / periods
	sqrtPeriods := math.Sqrt(periods)

	var sumA, sumSqA, sumB, sumSqB, sumAB float64
	equity := make([]float64, n)
	deque := make([]int, 0, window+1)
	level := 1.0
	for i := 0; i < n; i++ {
		level *= 1 + returns[i]
		equity[i] = level

		sumA += returns[i]
		sumSqA += returns[i] * returns[i]
		if benchmark != nil {
			sumB += benchmark[i]
			sumSqB += benchmark[i] * benchmark[i]
			sumAB += returns[i] * benchmark[i]
		}
		if i >= window {
			old := returns[i-window]
			sumA -= old
			sumSqA -= old * old
			if benchmark != nil {
				oldB := benchmark[i-window]
				sumB -= oldB
				sumSqB -= oldB * oldB
				sumAB -= old * oldB
			}
		}

		for len(deque) > 0 && equity[deque[len(deque)-1]] <= equity[i] {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-window {
			deque = deque[1:]
		}

		if i < window-1 {
			continue
		}

		meanA := sumA / w
		varA := (sumSqA - sumA*sumA/w) / (w - 1)
		if varA < 0 {
			varA = 0
		}
		stdA := math.Sqrt(varA)
		metrics.Volatility[i] = stdA * sqrtPeriods
		if stdA == 0 {
			metrics.Sharpe[i] = 0
		} else {
			metrics.Sharpe[i] = (meanA - rfPeriodic) / stdA * sqrtPeriods
		}

		metrics.Drawdown[i] = equity[i]/equity[deque[0]] - 1

		if benchmark != nil {
			cov := (sumAB - sumA*sumB/w) / (w - 1)
			varB := (sumSqB - sumB*sumB/w) / (w - 1)
			if varB < 0 {
				varB = 0
			}
			if varB == 0 {
				metrics.Beta[i] = 0
			} else {
				metrics.Beta[i] = cov / varB
			}
			stdB := math.Sqrt(varB)
			if stdA == 0 || stdB == 0 {
				metrics.Correlation[i] = 0
			} else {
				metrics.Correlation[i] = cov / (stdA * stdB)
			}
		}
	}
	return metrics, nil
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
