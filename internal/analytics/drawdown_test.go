package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-backtest-analytics/internal/dto"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestAnalyzeDrawdown(t *testing.T) {
	curve := curveFrom(100, 110, 90, 95, 120)

	analysis, err := AnalyzeDrawdown(curve)
	require.NoError(t, err)

	maxEp := analysis.Max
	assert.InDelta(t, -2.0/11.0, maxEp.Depth, 1e-9, "max drawdown mismatch")
	assert.Equal(t, 110.0, maxEp.PeakValue)
	assert.Equal(t, day(1), maxEp.PeakTime)
	assert.Equal(t, 90.0, maxEp.TroughValue)
	assert.Equal(t, day(2), maxEp.TroughTime)
	require.NotNil(t, maxEp.RecoveryTime, "curve regains the peak at 120")
	assert.Equal(t, day(4), *maxEp.RecoveryTime)
	assert.InDelta(t, 1.0, maxEp.DurationDays, 1e-9)
	require.NotNil(t, maxEp.RecoveryDays)
	assert.InDelta(t, 2.0, *maxEp.RecoveryDays, 1e-9)

	require.Len(t, analysis.Series, len(curve))
	assert.InDelta(t, 0.0, analysis.Series[0], 1e-12)
	assert.InDelta(t, -2.0/11.0, analysis.Series[2], 1e-9)
	assert.InDelta(t, -3.0/22.0, analysis.Series[3], 1e-9)
	for _, dd := range analysis.Series {
		assert.LessOrEqual(t, dd, 0.0, "drawdown series is never positive")
	}

	require.Len(t, analysis.Episodes, 1)
	assert.InDelta(t, -2.0/11.0, analysis.AverageDepth, 1e-9)
	assert.InDelta(t, 3.0, analysis.LongestDurationDays, 1e-9, "underwater from day 1 to day 4")
}

func TestAnalyzeDrawdownMonotonicCurve(t *testing.T) {
	analysis, err := AnalyzeDrawdown(curveFrom(100, 105, 110))
	require.NoError(t, err)

	assert.Equal(t, 0.0, analysis.Max.Depth, "rising curve never draws down")
	assert.True(t, analysis.Max.Recovered())
	assert.Empty(t, analysis.Episodes)
	assert.Equal(t, 0.0, analysis.AverageDepth)
	assert.Equal(t, 0.0, analysis.LongestDurationDays)
}

func TestAnalyzeDrawdownUnrecovered(t *testing.T) {
	analysis, err := AnalyzeDrawdown(curveFrom(100, 120, 80))
	require.NoError(t, err)

	maxEp := analysis.Max
	assert.InDelta(t, -1.0/3.0, maxEp.Depth, 1e-9)
	assert.Nil(t, maxEp.RecoveryTime, "curve ends below the peak")
	assert.Nil(t, maxEp.RecoveryDays)
	assert.False(t, maxEp.Recovered())

	require.Len(t, analysis.Episodes, 1)
	assert.Nil(t, analysis.Episodes[0].RecoveryTime)
	assert.InDelta(t, 1.0, analysis.LongestDurationDays, 1e-9, "underwater to the end of the curve")
}

func TestAnalyzeDrawdownMultipleEpisodes(t *testing.T) {
	analysis, err := AnalyzeDrawdown(curveFrom(100, 90, 100, 105, 95, 110))
	require.NoError(t, err)

	require.Len(t, analysis.Episodes, 2)
	assert.InDelta(t, -0.1, analysis.Episodes[0].Depth, 1e-9)
	assert.InDelta(t, -10.0/105.0, analysis.Episodes[1].Depth, 1e-9)
	assert.InDelta(t, (-0.1-10.0/105.0)/2, analysis.AverageDepth, 1e-9)

	assert.InDelta(t, -0.1, analysis.Max.Depth, 1e-9, "first episode is the deeper one")
	assert.Equal(t, day(0), analysis.Max.PeakTime)
}

func TestAnalyzeDrawdownPeakTieTakesLastIndex(t *testing.T) {
	analysis, err := AnalyzeDrawdown(curveFrom(100, 100, 90, 110))
	require.NoError(t, err)

	assert.Equal(t, day(1), analysis.Max.PeakTime, "episode starts at the last point holding the peak value")
	assert.Equal(t, 100.0, analysis.Max.PeakValue)
}

func TestAnalyzeDrawdownRecoveryAtExactPeakValue(t *testing.T) {
	analysis, err := AnalyzeDrawdown(curveFrom(100, 90, 100))
	require.NoError(t, err)

	require.NotNil(t, analysis.Max.RecoveryTime)
	assert.Equal(t, day(2), *analysis.Max.RecoveryTime, "regaining the exact start value counts as recovery")
}

func TestAnalyzeDrawdownRejectsInvalidCurves(t *testing.T) {
	tests := []struct {
		name  string
		curve dto.EquityCurve
	}{
		{
			name:  "Empty curve",
			curve: dto.EquityCurve{},
		},
		{
			name:  "Non-positive value",
			curve: curveFrom(100, -5, 110),
		},
		{
			name: "Non-increasing timestamps",
			curve: dto.EquityCurve{
				{Timestamp: day(1), Value: 100},
				{Timestamp: day(0), Value: 110},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := AnalyzeDrawdown(tt.curve)
			assert.Nil(t, analysis)
			var vErr *dto.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}
