package analytics

// Value-at-Risk estimators. Every variant takes a confidence level in (0,1)
// and returns a loss magnitude: non-negative, larger is worse. Negative raw
// results clamp to 0, and an empty return series yields 0 for every
// estimator.

// HistoricalVaR is the empirical estimator: the negated (1-confidence)
// quantile of the observed returns.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return clampLoss(-quantile(returns, 1-confidence))
}

// ParametricVaR assumes normally distributed returns: -(mean + z*std) with
// z the lower-tail normal quantile for the confidence level.
func ParametricVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	z := normalQuantile(confidence)
	return clampLoss(-(mean(returns) + z*sampleStd(returns)))
}

// CornishFisherVaR expands the normal quantile for the sample skewness s and
// excess kurtosis k of the observed distribution:
//
//	z_cf = z + (z^2-1)s/6 + (z^3-3z)k/24 - (2z^3-5z)s^2/36
//
// then applies the parametric formula with the adjusted quantile.
func CornishFisherVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	z := normalQuantile(confidence)
	s := skewness(returns)
	k := excessKurtosis(returns)
	zcf := z + (z*z-1)*s/6 + (z*z*z-3*z)*k/24 - (2*z*z*z-5*z)*s*s/36
	return clampLoss(-(mean(returns) + zcf*sampleStd(returns)))
}

// CVaR is the expected shortfall: the average of returns strictly below the
// negated historical VaR. With an empty tail it degrades to the VaR itself,
// so its loss magnitude never falls short of the historical estimate.
func CVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	hVaR := HistoricalVaR(returns, confidence)
	cutoff := -hVaR
	var tail []float64
	for _, r := range returns {
		if r < cutoff {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return hVaR
	}
	return clampLoss(-mean(tail))
}

func clampLoss(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
