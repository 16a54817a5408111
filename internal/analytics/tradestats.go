package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"golang-backtest-analytics/internal/dto"
	"golang-backtest-analytics/pkg/utils"
)

// Raw fills carry no realized profit field, so win/loss classification
// requires a matching convention. This aggregator uses per-symbol FIFO lot
// matching: fills are processed in timestamp order; a fill on the side of
// the current position opens a lot, a fill on the opposite side closes open
// lots oldest-first, splitting lots on partial quantity. A fill larger than
// the open position closes everything and opens the remainder on the other
// side. Commissions are allocated to round trips proportionally to matched
// quantity, and a round trip wins only when its net profit is strictly
// positive (zero counts as a loss). Lots still open at the end of the input
// produce no round trip.

// RoundTrip is one matched open/close pair. Direction is the opening side:
// buy-opened round trips are long, sell-opened ones short. PnL is net of the
// commission share of both fills.
type RoundTrip struct {
	Symbol      string
	Direction   dto.TradeDirection
	Quantity    int64
	OpenTime    time.Time
	CloseTime   time.Time
	OpenPrice   decimal.Decimal
	ClosePrice  decimal.Decimal
	Commission  decimal.Decimal
	PnL         decimal.Decimal
	HoldingDays float64
}

// openLot is the unmatched remainder of one opening fill.
type openLot struct {
	direction   dto.TradeDirection
	quantity    int64
	price       decimal.Decimal
	commPerUnit decimal.Decimal
	timestamp   time.Time
}

// MatchRoundTrips pairs fills into round trips under the FIFO convention
// documented above. The input slice is not mutated.
func MatchRoundTrips(fills []dto.Fill) []RoundTrip {
	ordered := make([]dto.Fill, len(fills))
	copy(ordered, fills)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	lots := make(map[string][]openLot)
	var trips []RoundTrip
	for _, fill := range ordered {
		if fill.Quantity <= 0 {
			continue
		}
		remaining := fill.Quantity
		commPerUnit := fill.Commission.Div(decimal.NewFromInt(fill.Quantity))
		queue := lots[fill.Symbol]
		for remaining > 0 && len(queue) > 0 && queue[0].direction != fill.Direction {
			lot := &queue[0]
			matched := remaining
			if lot.quantity < matched {
				matched = lot.quantity
			}
			trips = append(trips, closeLot(fill, *lot, matched, commPerUnit))
			lot.quantity -= matched
			remaining -= matched
			if lot.quantity == 0 {
				queue = queue[1:]
			}
		}
		if remaining > 0 {
			queue = append(queue, openLot{
				direction:   fill.Direction,
				quantity:    remaining,
				price:       fill.Price,
				commPerUnit: commPerUnit,
				timestamp:   fill.Timestamp,
			})
		}
		lots[fill.Symbol] = queue
	}
	return trips
}

func closeLot(fill dto.Fill, lot openLot, matched int64, fillCommPerUnit decimal.Decimal) RoundTrip {
	qty := decimal.NewFromInt(matched)
	var gross decimal.Decimal
	if lot.direction == dto.DirectionBuy {
		gross = fill.Price.Sub(lot.price).Mul(qty)
	} else {
		gross = lot.price.Sub(fill.Price).Mul(qty)
	}
	commission := lot.commPerUnit.Add(fillCommPerUnit).Mul(qty)
	return RoundTrip{
		Symbol:      fill.Symbol,
		Direction:   lot.direction,
		Quantity:    matched,
		OpenTime:    lot.timestamp,
		CloseTime:   fill.Timestamp,
		OpenPrice:   lot.price,
		ClosePrice:  fill.Price,
		Commission:  commission,
		PnL:         gross.Sub(commission),
		HoldingDays: utils.DaysBetween(lot.timestamp, fill.Timestamp),
	}
}

// AggregateTradeStats computes the trade block of the metrics report over
// the FIFO round trips. An empty fill list, or one with no completed round
// trips, yields the all-zero block without failing.
func AggregateTradeStats(fills []dto.Fill) dto.TradeStats {
	stats := dto.TradeStats{
		ProfitFactor: dto.Finite(0),
	}
	for _, f := range fills {
		stats.TotalCommissions = stats.TotalCommissions.Add(f.Commission)
	}

	trips := MatchRoundTrips(fills)
	if len(trips) == 0 {
		return stats
	}

	var grossWins, grossLosses decimal.Decimal
	var holdingSum float64
	streakWins, streakLosses := 0, 0
	for _, trip := range trips {
		stats.NetProfit = stats.NetProfit.Add(trip.PnL)
		holdingSum += trip.HoldingDays
		if trip.PnL.IsPositive() {
			stats.WinningTrades++
			grossWins = grossWins.Add(trip.PnL)
			if trip.PnL.GreaterThan(stats.LargestWin) {
				stats.LargestWin = trip.PnL
			}
			streakWins++
			streakLosses = 0
		} else {
			stats.LosingTrades++
			grossLosses = grossLosses.Add(trip.PnL)
			if trip.PnL.LessThan(stats.LargestLoss) {
				stats.LargestLoss = trip.PnL
			}
			streakLosses++
			streakWins = 0
		}
		if streakWins > stats.MaxConsecutiveWins {
			stats.MaxConsecutiveWins = streakWins
		}
		if streakLosses > stats.MaxConsecutiveLosses {
			stats.MaxConsecutiveLosses = streakLosses
		}
	}

	stats.TotalTrades = len(trips)
	stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	if stats.WinningTrades > 0 {
		stats.AverageWin = grossWins.Div(decimal.NewFromInt(int64(stats.WinningTrades)))
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = grossLosses.Div(decimal.NewFromInt(int64(stats.LosingTrades)))
	}
	if grossLosses.IsZero() {
		stats.ProfitFactor = dto.PositiveInfinity()
	} else {
		pf, _ := grossWins.Div(grossLosses.Abs()).Float64()
		stats.ProfitFactor = dto.Finite(pf)
	}
	stats.AverageHoldingDays = holdingSum / float64(len(trips))
	return stats
}
