package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-backtest-analytics/config"
	"golang-backtest-analytics/internal/dto"
	"golang-backtest-analytics/pkg/logger"
)

func newTestMetricsService(cfg *config.Config) MetricsService {
	return NewMetricsService(cfg, logger.NewNop())
}

func dailyCurve(start time.Time, values ...float64) dto.EquityCurve {
	curve := make(dto.EquityCurve, 0, len(values))
	for i, v := range values {
		curve = append(curve, dto.EquityPoint{Timestamp: start.AddDate(0, 0, i), Value: v})
	}
	return curve
}

func testFill(symbol string, direction dto.TradeDirection, quantity int64, price float64, ts time.Time) dto.Fill {
	return dto.Fill{
		Symbol:    symbol,
		Direction: direction,
		Quantity:  quantity,
		Price:     decimal.NewFromFloat(price),
		Timestamp: ts,
	}
}

func TestCalculateMetricsFullYear(t *testing.T) {
	svc := newTestMetricsService(config.Default())
	curve := dto.EquityCurve{
		{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10000},
		{Timestamp: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Value: 11000},
		{Timestamp: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Value: 12100},
	}

	report, err := svc.CalculateMetrics(context.Background(), nil, curve, 10000)
	require.NoError(t, err)

	assert.InDelta(t, 0.21, report.Returns.TotalReturn, 1e-9)
	assert.InDelta(t, 0.21, report.Returns.CAGR, 1e-9, "365 day span compounds to the total return")
	assert.Equal(t, 2, report.Returns.Periods)
	assert.InDelta(t, 0.1, report.Returns.BestPeriod, 1e-9)
	assert.InDelta(t, 0.1, report.Returns.WorstPeriod, 1e-9)

	assert.Equal(t, 0.0, report.Risk.SharpeRatio.Float64(), "zero volatility resolves sharpe to 0")
	assert.True(t, report.Risk.SortinoRatio.IsInfinite(), "no sub-target returns")
	assert.True(t, report.Risk.OmegaRatio.IsInfinite(), "no losses")
	assert.True(t, report.Risk.CalmarRatio.IsInfinite(), "no drawdown")
	require.Len(t, report.Risk.ValueAtRisk, 2)
	assert.Equal(t, 0.95, report.Risk.ValueAtRisk[0].Confidence)
	assert.Equal(t, 0.99, report.Risk.ValueAtRisk[1].Confidence)
	assert.Equal(t, 0.0, report.Risk.ValueAtRisk[0].Historical, "an all-gain series clamps to zero loss")

	assert.Equal(t, 0.0, report.Drawdown.MaxDrawdown)
	assert.Equal(t, 0, report.Drawdown.Episodes)

	assert.Equal(t, 0, report.Trades.TotalTrades)
	assert.False(t, report.Trades.ProfitFactor.IsInfinite())

	require.Len(t, report.TimeAnalysis.MonthlyReturns, 12, "one row per calendar month of the run")
	gaps := 0
	for _, row := range report.TimeAnalysis.MonthlyReturns {
		if _, ok := row.Return.Value(); !ok {
			gaps++
		}
	}
	assert.Equal(t, 9, gaps, "months without equity points carry the no data marker")

	julyReturn, ok := report.TimeAnalysis.MonthlyReturns[6].Return.Value()
	require.True(t, ok)
	assert.Equal(t, "2024-07", report.TimeAnalysis.MonthlyReturns[6].Period)
	assert.InDelta(t, 0.1, julyReturn, 1e-9)

	require.NotNil(t, report.TimeAnalysis.BestMonth)
	assert.Equal(t, "2024-07", report.TimeAnalysis.BestMonth.Period)
	require.NotNil(t, report.TimeAnalysis.WorstMonth)
	assert.Equal(t, "2024-01", report.TimeAnalysis.WorstMonth.Period)

	assert.Equal(t, 252, report.TimeAnalysis.Rolling.Window)
	assert.Equal(t, 0, report.TimeAnalysis.Rolling.SamplePoints, "two returns never fill a 252 window")
	assert.Nil(t, report.TimeAnalysis.Rolling.LatestSharpe)
}

func TestCalculateMetricsDrawdownRun(t *testing.T) {
	cfg := config.Default()
	cfg.Analytics.RollingWindow = 2
	svc := newTestMetricsService(cfg)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := dailyCurve(start, 100, 110, 90, 95, 120)

	report, err := svc.CalculateMetrics(context.Background(), nil, curve, 100)
	require.NoError(t, err)

	assert.InDelta(t, -2.0/11.0, report.Drawdown.MaxDrawdown, 1e-9)
	assert.Equal(t, 110.0, report.Drawdown.PeakValue)
	assert.Equal(t, 90.0, report.Drawdown.TroughValue)
	require.NotNil(t, report.Drawdown.RecoveryTime)
	assert.Equal(t, start.AddDate(0, 0, 4), *report.Drawdown.RecoveryTime)
	assert.Equal(t, 1, report.Drawdown.Episodes)
	assert.InDelta(t, 3.0, report.Drawdown.LongestDurationDays, 1e-9)

	assert.Equal(t, 4, report.Returns.Periods)
	assert.InDelta(t, 120.0/95.0-1, report.Returns.BestPeriod, 1e-9)
	assert.InDelta(t, -2.0/11.0, report.Returns.WorstPeriod, 1e-9)
	assert.InDelta(t, 0.2, report.Returns.TotalReturn, 1e-9)
	assert.InDelta(t, math.Pow(1.2, 365.0/4)-1, report.Returns.CAGR, 1e-6)

	hist := report.Risk.ValueAtRisk[0]
	assert.Greater(t, hist.Historical, 0.0)
	assert.GreaterOrEqual(t, hist.CVaR, hist.Historical, "expected shortfall never falls short of the VaR")

	assert.Equal(t, 3, report.TimeAnalysis.Rolling.SamplePoints)
	require.NotNil(t, report.TimeAnalysis.Rolling.LatestSharpe)
	assert.False(t, math.IsNaN(*report.TimeAnalysis.Rolling.LatestSharpe))

	require.Len(t, report.TimeAnalysis.MonthlyReturns, 1, "the whole run sits in one month")
	monthly, ok := report.TimeAnalysis.MonthlyReturns[0].Return.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.2, monthly, 1e-9)
}

func TestCalculateMetricsWiresTradeStats(t *testing.T) {
	svc := newTestMetricsService(config.Default())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := dailyCurve(start, 10000, 10100, 10050)
	fills := []dto.Fill{
		testFill("AAPL", dto.DirectionBuy, 10, 100, start),
		testFill("AAPL", dto.DirectionSell, 10, 110, start.AddDate(0, 0, 1)),
		testFill("AAPL", dto.DirectionBuy, 5, 110, start.AddDate(0, 0, 1)),
		testFill("AAPL", dto.DirectionSell, 5, 100, start.AddDate(0, 0, 2)),
	}

	report, err := svc.CalculateMetrics(context.Background(), fills, curve, 10000)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Trades.TotalTrades)
	assert.Equal(t, 1, report.Trades.WinningTrades)
	assert.Equal(t, 1, report.Trades.LosingTrades)
	assert.InDelta(t, 50.0, report.Trades.WinRate, 1e-9)
	assert.Equal(t, "50", report.Trades.NetProfit.String())
}

func TestCalculateMetricsRejectsBadInput(t *testing.T) {
	svc := newTestMetricsService(config.Default())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := dailyCurve(start, 100, 110)

	tests := []struct {
		name    string
		curve   dto.EquityCurve
		capital float64
		wantErr string
	}{
		{
			name:    "Empty curve",
			curve:   dto.EquityCurve{},
			capital: 100,
			wantErr: "equity curve is empty",
		},
		{
			name:    "Non-positive equity value",
			curve:   dailyCurve(start, 100, -10),
			capital: 100,
			wantErr: "non-positive",
		},
		{
			name: "Non-increasing timestamps",
			curve: dto.EquityCurve{
				{Timestamp: start.AddDate(0, 0, 1), Value: 100},
				{Timestamp: start, Value: 110},
			},
			capital: 100,
			wantErr: "strictly increasing",
		},
		{
			name:    "Zero initial capital",
			curve:   valid,
			capital: 0,
			wantErr: "initial capital must be positive",
		},
		{
			name:    "Negative initial capital",
			curve:   valid,
			capital: -500,
			wantErr: "initial capital must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.CalculateMetrics(context.Background(), nil, tt.curve, tt.capital)
			assert.Nil(t, report)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
			var vErr *dto.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestCalculateMetricsSinglePointCurve(t *testing.T) {
	svc := newTestMetricsService(config.Default())
	curve := dailyCurve(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10000)

	report, err := svc.CalculateMetrics(context.Background(), nil, curve, 10000)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Returns.Periods, "one point derives no returns")
	assert.Equal(t, 0.0, report.Returns.CAGR, "zero day span yields no growth rate")
	assert.Equal(t, 0.0, report.Risk.SharpeRatio.Float64())
	assert.Equal(t, 0.0, report.Risk.SortinoRatio.Float64(), "empty series resolves every ratio to 0")
	assert.False(t, report.Risk.SortinoRatio.IsInfinite())
	require.Len(t, report.TimeAnalysis.MonthlyReturns, 1)
	monthly, ok := report.TimeAnalysis.MonthlyReturns[0].Return.Value()
	require.True(t, ok)
	assert.Equal(t, 0.0, monthly)
}
