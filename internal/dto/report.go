package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MetricsReport is the orchestrator output: one nested report per completed
// run, assembled fresh and never persisted by this engine.
type MetricsReport struct {
	Returns      ReturnsReport  `json:"returns"`
	Risk         RiskReport     `json:"risk"`
	Trades       TradeStats     `json:"trades"`
	Drawdown     DrawdownReport `json:"drawdown"`
	TimeAnalysis TimeAnalysis   `json:"time_analysis"`
}

type ReturnsReport struct {
	TotalReturn          float64 `json:"total_return"`
	CAGR                 float64 `json:"cagr"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	BestPeriod           float64 `json:"best_period"`
	WorstPeriod          float64 `json:"worst_period"`
	Periods              int     `json:"periods"`
}

type RiskReport struct {
	SharpeRatio  MetricValue   `json:"sharpe_ratio"`
	SortinoRatio MetricValue   `json:"sortino_ratio"`
	OmegaRatio   MetricValue   `json:"omega_ratio"`
	TailRatio    MetricValue   `json:"tail_ratio"`
	CalmarRatio  MetricValue   `json:"calmar_ratio"`
	ValueAtRisk  []VaREstimate `json:"value_at_risk"`
}

// VaREstimate bundles the three VaR estimators and CVaR at one confidence
// level. Every value is a loss magnitude, never negative.
type VaREstimate struct {
	Confidence    float64 `json:"confidence"`
	Historical    float64 `json:"historical"`
	Parametric    float64 `json:"parametric"`
	CornishFisher float64 `json:"cornish_fisher"`
	CVaR          float64 `json:"cvar"`
}

// TradeStats is the trade block of the report, computed over FIFO-matched
// round trips. Monetary figures stay decimal; losses are signed negative.
type TradeStats struct {
	TotalTrades          int             `json:"total_trades"`
	WinningTrades        int             `json:"winning_trades"`
	LosingTrades         int             `json:"losing_trades"`
	WinRate              float64         `json:"win_rate"`
	ProfitFactor         MetricValue     `json:"profit_factor"`
	AverageWin           decimal.Decimal `json:"average_win"`
	AverageLoss          decimal.Decimal `json:"average_loss"`
	LargestWin           decimal.Decimal `json:"largest_win"`
	LargestLoss          decimal.Decimal `json:"largest_loss"`
	AverageHoldingDays   float64         `json:"average_holding_days"`
	NetProfit            decimal.Decimal `json:"net_profit"`
	TotalCommissions     decimal.Decimal `json:"total_commissions"`
	MaxConsecutiveWins   int             `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`
}

type DrawdownReport struct {
	MaxDrawdown         float64    `json:"max_drawdown"`
	PeakValue           float64    `json:"peak_value"`
	PeakTime            time.Time  `json:"peak_time"`
	TroughValue         float64    `json:"trough_value"`
	TroughTime          time.Time  `json:"trough_time"`
	RecoveryTime        *time.Time `json:"recovery_time"`
	DurationDays        float64    `json:"duration_days"`
	RecoveryDays        *float64   `json:"recovery_days"`
	Episodes            int        `json:"episodes"`
	AverageDepth        float64    `json:"average_depth"`
	LongestDurationDays float64    `json:"longest_duration_days"`
}

type TimeAnalysis struct {
	MonthlyReturns []MonthlyReturn `json:"monthly_returns"`
	BestMonth      *MonthlyReturn  `json:"best_month"`
	WorstMonth     *MonthlyReturn  `json:"worst_month"`
	Rolling        RollingSummary  `json:"rolling"`
}

type MonthlyReturn struct {
	Period string      `json:"period"`
	Return MonthlyCell `json:"return"`
}

// MonthlyCell renders either a numeric monthly return or the explicit
// "no data" marker for calendar months the curve never touched. It is never
// a numeric zero by default.
type MonthlyCell struct {
	value   float64
	hasData bool
}

func MonthlyValue(v float64) MonthlyCell {
	return MonthlyCell{value: v, hasData: true}
}

func MonthlyNoData() MonthlyCell {
	return MonthlyCell{}
}

// Value returns the cell value and whether the month had data.
func (c MonthlyCell) Value() (float64, bool) {
	return c.value, c.hasData
}

func (c MonthlyCell) MarshalJSON() ([]byte, error) {
	if !c.hasData {
		return json.Marshal("no data")
	}
	return json.Marshal(c.value)
}

// RollingSummary condenses the rolling window engine output for the report:
// the latest defined row and how many rows carried defined values. Latest
// pointers stay nil when the series never filled one window.
type RollingSummary struct {
	Window           int      `json:"window"`
	SamplePoints     int      `json:"sample_points"`
	LatestSharpe     *float64 `json:"latest_sharpe"`
	LatestVolatility *float64 `json:"latest_volatility"`
	LatestDrawdown   *float64 `json:"latest_drawdown"`
}
