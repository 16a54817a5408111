package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyContext is the decision-time snapshot logged just before an order
// is placed. Indicator and threshold maps are open-ended: strategies attach
// whatever named values they computed, and the export layer resolves the
// column set from the union of every key seen during the run.
type StrategyContext struct {
	Timestamp  time.Time          `json:"timestamp"`
	Symbol     string             `json:"symbol"`
	State      string             `json:"state"`
	Reasoning  string             `json:"reasoning"`
	Indicators map[string]float64 `json:"indicators"`
	Thresholds map[string]float64 `json:"thresholds"`
}

// PortfolioSnapshot captures portfolio state on both sides of one execution.
type PortfolioSnapshot struct {
	EquityBefore      decimal.Decimal `json:"equity_before"`
	EquityAfter       decimal.Decimal `json:"equity_after"`
	CashBefore        decimal.Decimal `json:"cash_before"`
	CashAfter         decimal.Decimal `json:"cash_after"`
	PositionPctBefore float64         `json:"position_pct_before"`
	PositionPctAfter  float64         `json:"position_pct_after"`
}

// TradeRecord is the merged audit row: execution details plus the matched
// strategy context, when one was found. Records are append-only and never
// amended after creation.
type TradeRecord struct {
	TradeID           int64              `json:"trade_id"`
	BarNumber         int64              `json:"bar_number"`
	Timestamp         time.Time          `json:"timestamp"`
	Symbol            string             `json:"symbol"`
	StrategyState     string             `json:"strategy_state"`
	Reasoning         string             `json:"reasoning"`
	Direction         TradeDirection     `json:"direction"`
	Quantity          int64              `json:"quantity"`
	FillPrice         decimal.Decimal    `json:"fill_price"`
	Commission        decimal.Decimal    `json:"commission"`
	TradeValue        decimal.Decimal    `json:"trade_value"`
	EquityBefore      decimal.Decimal    `json:"equity_before"`
	EquityAfter       decimal.Decimal    `json:"equity_after"`
	CashBefore        decimal.Decimal    `json:"cash_before"`
	CashAfter         decimal.Decimal    `json:"cash_after"`
	EquityChangePct   float64            `json:"equity_change_pct"`
	PositionPctBefore float64            `json:"position_pct_before"`
	PositionPctAfter  float64            `json:"position_pct_after"`
	Indicators        map[string]float64 `json:"indicators,omitempty"`
	Thresholds        map[string]float64 `json:"thresholds,omitempty"`
}
