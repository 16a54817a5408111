package analytics

import "golang-backtest-analytics/internal/dto"

// DeriveReturns converts an equity curve into periodic simple returns,
// r_t = V_t/V_{t-1} - 1, preserving order. A curve with fewer than two
// points yields an empty series, not an error. The series is recomputed on
// every call and never cached.
func DeriveReturns(curve dto.EquityCurve) []float64 {
	if len(curve) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		returns = append(returns, curve[i].Value/curve[i-1].Value-1)
	}
	return returns
}
