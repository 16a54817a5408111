package service

import (
	"context"
	"math"
	"time"

	"golang-backtest-analytics/config"
	"golang-backtest-analytics/internal/analytics"
	"golang-backtest-analytics/internal/dto"
	"golang-backtest-analytics/pkg/logger"
	"golang-backtest-analytics/pkg/utils"
)

// MetricsService turns one completed run's trade list and equity curve into
// the nested metrics report. Calculation is synchronous and pure: the same
// inputs always produce the same report, and nothing is persisted.
type MetricsService interface {
	CalculateMetrics(ctx context.Context, trades []dto.Fill, equityCurve dto.EquityCurve, initialCapital float64) (*dto.MetricsReport, error)
}

type metricsService struct {
	cfg *config.Config
	log *logger.Logger
}

func NewMetricsService(cfg *config.Config, log *logger.Logger) MetricsService {
	return &metricsService{cfg: cfg, log: log}
}

func (s *metricsService) CalculateMetrics(ctx context.Context, trades []dto.Fill, equityCurve dto.EquityCurve, initialCapital float64) (*dto.MetricsReport, error) {
	if err := equityCurve.Validate(); err != nil {
		s.log.ErrorContext(ctx, "Equity curve validation failed", logger.ErrorField(err))
		return nil, err
	}
	if initialCapital <= 0 {
		err := dto.NewValidationError("initial capital", "must be positive")
		s.log.ErrorContext(ctx, "Initial capital validation failed", logger.ErrorField(err))
		return nil, err
	}

	returns := analytics.DeriveReturns(equityCurve)
	drawdown, err := analytics.AnalyzeDrawdown(equityCurve)
	if err != nil {
		return nil, err
	}

	report := &dto.MetricsReport{
		Returns:      s.buildReturnsReport(equityCurve, returns, initialCapital),
		Risk:         s.buildRiskReport(ctx, returns, drawdown.Max.Depth),
		Trades:       analytics.AggregateTradeStats(trades),
		Drawdown:     buildDrawdownReport(drawdown),
		TimeAnalysis: s.buildTimeAnalysis(ctx, equityCurve, returns),
	}

	s.log.InfoContext(ctx, "Metrics report calculated",
		logger.IntField("equity_points", len(equityCurve)),
		logger.IntField("fills", len(trades)),
		logger.IntField("round_trips", report.Trades.TotalTrades),
	)
	return report, nil
}

func (s *metricsService) buildReturnsReport(curve dto.EquityCurve, returns []float64, initialCapital float64) dto.ReturnsReport {
	acfg := s.cfg.Analytics
	ending := curve[len(curve)-1].Value
	report := dto.ReturnsReport{
		TotalReturn:          ending/initialCapital - 1,
		CAGR:                 calculateCAGR(curve, initialCapital),
		AnnualizedReturn:     analytics.AnnualizedReturn(returns, acfg.PeriodsPerYear),
		AnnualizedVolatility: analytics.AnnualizedVolatility(returns, acfg.PeriodsPerYear),
		Periods:              len(returns),
	}
	for i, r := range returns {
		if i == 0 || r > report.BestPeriod {
			report.BestPeriod = r
		}
		if i == 0 || r < report.WorstPeriod {
			report.WorstPeriod = r
		}
	}
	return report
}

// calculateCAGR compounds the run into a yearly growth rate over its
// calendar span: (ending/initial)^(365/days) - 1. A span under one day
// yields 0 rather than an exploding exponent.
func calculateCAGR(curve dto.EquityCurve, initialCapital float64) float64 {
	days := utils.DaysBetween(curve[0].Timestamp, curve[len(curve)-1].Timestamp)
	if days <= 0 {
		return 0
	}
	ending := curve[len(curve)-1].Value
	return math.Pow(ending/initialCapital, 365/days) - 1
}

func (s *metricsService) buildRiskReport(ctx context.Context, returns []float64, maxDrawdown float64) dto.RiskReport {
	acfg := s.cfg.Analytics
	risk := dto.RiskReport{
		SharpeRatio:  analytics.SharpeRatio(returns, acfg.RiskFreeRate, acfg.PeriodsPerYear),
		SortinoRatio: analytics.SortinoRatio(returns, acfg.SortinoTarget, acfg.PeriodsPerYear),
		// The omega threshold shares the configured target return.
		OmegaRatio:  analytics.OmegaRatio(returns, acfg.SortinoTarget),
		TailRatio:   analytics.TailRatio(returns),
		CalmarRatio: analytics.CalmarRatio(returns, acfg.PeriodsPerYear, maxDrawdown),
	}
	for _, confidence := range acfg.ConfidenceLevels {
		risk.ValueAtRisk = append(risk.ValueAtRisk, dto.VaREstimate{
			Confidence:    confidence,
			Historical:    analytics.HistoricalVaR(returns, confidence),
			Parametric:    analytics.ParametricVaR(returns, confidence),
			CornishFisher: analytics.CornishFisherVaR(returns, confidence),
			CVaR:          analytics.CVaR(returns, confidence),
		})
	}
	s.warnOnSentinels(ctx, returns, risk)
	return risk
}

// warnOnSentinels surfaces the degenerate-input resolutions in the logs.
// They are documented outcomes, not failures, so they never abort the run.
func (s *metricsService) warnOnSentinels(ctx context.Context, returns []float64, risk dto.RiskReport) {
	if len(returns) < 2 {
		s.log.WarnContext(ctx, "Insufficient return observations, ratio metrics resolve to sentinels",
			logger.IntField("observations", len(returns)))
		return
	}
	if analytics.AnnualizedVolatility(returns, s.cfg.Analytics.PeriodsPerYear) == 0 {
		s.log.WarnContext(ctx, "Zero volatility, sharpe ratio resolves to 0")
	}
	infinite := map[string]dto.MetricValue{
		"sortino_ratio": risk.SortinoRatio,
		"omega_ratio":   risk.OmegaRatio,
		"tail_ratio":    risk.TailRatio,
		"calmar_ratio":  risk.CalmarRatio,
	}
	for name, value := range infinite {
		if value.IsInfinite() {
			s.log.WarnContext(ctx, "Metric resolved to the no-risk infinity sentinel",
				logger.StringField("metric", name))
		}
	}
}

func buildDrawdownReport(analysis *analytics.DrawdownAnalysis) dto.DrawdownReport {
	maxEp := analysis.Max
	return dto.DrawdownReport{
		MaxDrawdown:         maxEp.Depth,
		PeakValue:           maxEp.PeakValue,
		PeakTime:            maxEp.PeakTime,
		TroughValue:         maxEp.TroughValue,
		TroughTime:          maxEp.TroughTime,
		RecoveryTime:        maxEp.RecoveryTime,
		DurationDays:        maxEp.DurationDays,
		RecoveryDays:        maxEp.RecoveryDays,
		Episodes:            len(analysis.Episodes),
		AverageDepth:        analysis.AverageDepth,
		LongestDurationDays: analysis.LongestDurationDays,
	}
}

func (s *metricsService) buildTimeAnalysis(ctx context.Context, curve dto.EquityCurve, returns []float64) dto.TimeAnalysis {
	analysis := dto.TimeAnalysis{
		MonthlyReturns: buildMonthlyReturns(curve),
	}

	var bestVal, worstVal float64
	for i := range analysis.MonthlyReturns {
		v, ok := analysis.MonthlyReturns[i].Return.Value()
		if !ok {
			continue
		}
		if analysis.BestMonth == nil || v > bestVal {
			bestVal = v
			analysis.BestMonth = &analysis.MonthlyReturns[i]
		}
		if analysis.WorstMonth == nil || v < worstVal {
			worstVal = v
			analysis.WorstMonth = &analysis.MonthlyReturns[i]
		}
	}

	analysis.Rolling = s.buildRollingSummary(ctx, returns)
	return analysis
}

// buildMonthlyReturns pivots the curve into month-end returns. The table
// covers every calendar month between the first and last point; months the
// curve never touched carry the explicit no-data marker. The first month is
// measured from the first equity point, later months from the previous
// observed month-end.
func buildMonthlyReturns(curve dto.EquityCurve) []dto.MonthlyReturn {
	monthEnd := make(map[string]float64)
	for _, p := range curve {
		monthEnd[utils.MonthKey(p.Timestamp)] = p.Value
	}

	first := curve[0].Timestamp
	last := curve[len(curve)-1].Timestamp
	cursor := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, first.Location())
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, last.Location())

	var rows []dto.MonthlyReturn
	prev := curve[0].Value
	for !cursor.After(end) {
		key := utils.MonthKey(cursor)
		if value, ok := monthEnd[key]; ok {
			rows = append(rows, dto.MonthlyReturn{Period: key, Return: dto.MonthlyValue(value/prev - 1)})
			prev = value
		} else {
			rows = append(rows, dto.MonthlyReturn{Period: key, Return: dto.MonthlyNoData()})
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return rows
}

func (s *metricsService) buildRollingSummary(ctx context.Context, returns []float64) dto.RollingSummary {
	acfg := s.cfg.Analytics
	summary := dto.RollingSummary{Window: acfg.RollingWindow}

	rolling, err := analytics.ComputeRolling(returns, nil, acfg.RollingWindow, acfg.RiskFreeRate, acfg.PeriodsPerYear)
	if err != nil {
		s.log.WarnContext(ctx, "Rolling metrics unavailable", logger.ErrorField(err))
		return summary
	}

	summary.SamplePoints = rolling.DefinedPoints()
	if summary.SamplePoints == 0 {
		return summary
	}
	last := len(returns) - 1
	summary.LatestSharpe = utils.ToPointer(rolling.Sharpe[last])
	summary.LatestVolatility = utils.ToPointer(rolling.Volatility[last])
	summary.LatestDrawdown = utils.ToPointer(rolling.Drawdown[last])
	return summary
}
