package analytics

import (
	"math"

	"golang-backtest-analytics/internal/dto"
)

// Ratio metrics resolve their degenerate inputs to documented sentinels
// instead of failing: 0 when there is nothing to measure, positive infinity
// when the measured risk is zero. An empty return series resolves every
// ratio to 0 before the per-formula rules apply.

// AnnualizedReturn scales the mean periodic return to a yearly figure.
func AnnualizedReturn(returns []float64, periodsPerYear int) float64 {
	return mean(returns) * float64(periodsPerYear)
}

// AnnualizedVolatility scales the sample standard deviation of periodic
// returns by sqrt of the periods per year.
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return sampleStd(returns) * math.Sqrt(float64(periodsPerYear))
}

// SharpeRatio is (mean(r) - rf) / std(r), annualized by sqrt of the periods
// per year. The risk-free rate is supplied annualized and de-annualized as
// rf/periods. Fewer than two observations or zero volatility resolve to 0.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) dto.MetricValue {
	if len(returns) < 2 {
		return dto.Finite(0)
	}
	std := sampleStd(returns)
	if std == 0 {
		return dto.Finite(0)
	}
	rfPeriodic := riskFreeRate / float64(periodsPerYear)
	return dto.Finite((mean(returns) - rfPeriodic) / std * math.Sqrt(float64(periodsPerYear)))
}

// SortinoRatio divides the annualized excess return over the target by the
// annualized downside deviation: the sample std of returns strictly below
// the per-period target. No sub-target returns, or a zero downside
// deviation, resolve to the infinity sentinel: no measured downside risk.
func SortinoRatio(returns []float64, target float64, periodsPerYear int) dto.MetricValue {
	if len(returns) == 0 {
		return dto.Finite(0)
	}
	var downside []float64
	for _, r := range returns {
		if r < target {
			downside = append(downside, r)
		}
	}
	dd := sampleStd(downside)
	if len(downside) == 0 || dd == 0 {
		return dto.PositiveInfinity()
	}
	periods := float64(periodsPerYear)
	return dto.Finite((mean(returns) - target) * periods / (dd * math.Sqrt(periods)))
}

// OmegaRatio is the sum of gains above the threshold over the sum of losses
// below it, both sums positive. No losses resolve to the infinity sentinel.
func OmegaRatio(returns []float64, threshold float64) dto.MetricValue {
	if len(returns) == 0 {
		return dto.Finite(0)
	}
	var gains, losses float64
	for _, r := range returns {
		if r > threshold {
			gains += r - threshold
		} else if r < threshold {
			losses += threshold - r
		}
	}
	if losses == 0 {
		return dto.PositiveInfinity()
	}
	return dto.Finite(gains / losses)
}

// TailRatio is |p95/p5| of the return distribution. An effectively zero p5
// resolves to the infinity sentinel.
func TailRatio(returns []float64) dto.MetricValue {
	if len(returns) == 0 {
		return dto.Finite(0)
	}
	p95 := quantile(returns, 0.95)
	p5 := quantile(returns, 0.05)
	if math.Abs(p5) < 1e-10 {
		return dto.PositiveInfinity()
	}
	return dto.Finite(math.Abs(p95 / p5))
}

// CalmarRatio is the annualized return over the magnitude of the maximum
// drawdown. A flat (zero) drawdown resolves to the infinity sentinel.
func CalmarRatio(returns []float64, periodsPerYear int, maxDrawdown float64) dto.MetricValue {
	if len(returns) == 0 {
		return dto.Finite(0)
	}
	if maxDrawdown == 0 {
		return dto.PositiveInfinity()
	}
	return dto.Finite(AnnualizedReturn(returns, periodsPerYear) / math.Abs(maxDrawdown))
}
