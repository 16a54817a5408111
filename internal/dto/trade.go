package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// Fill is one executed order as reported by the portfolio simulator:
// positive integer quantity, positive price, non-negative commission.
type Fill struct {
	Symbol     string          `json:"symbol"`
	Direction  TradeDirection  `json:"direction"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Value is the gross monetary size of the fill (price times quantity).
func (f Fill) Value() decimal.Decimal {
	return f.Price.Mul(decimal.NewFromInt(f.Quantity))
}
