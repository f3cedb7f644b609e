package marketdata

import (
	"github.com/shopspring/decimal"

	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/metrics"
	"github.com/coinwatch/bookfeed/pkg/models"
)

// fillTolerance absorbs decimal dust when deciding filled vs partial.
var fillTolerance = decimal.New(1, -9)

// hundred for percent conversion.
var hundred = decimal.NewFromInt(100)

// Simulator answers "what would a market order do right now" against one
// consistent snapshot. It never mutates the book: the snapshot is borrowed
// read-only and a concurrent poll cannot change the answer mid-walk.
type Simulator struct {
	store *orderbook.Store
}

// NewSimulator creates a simulator reading from store.
func NewSimulator(store *orderbook.Store) *Simulator {
	return &Simulator{store: store}
}

// Simulate walks the opposing side best-first, consuming liquidity level by
// level until the requested amount is filled or the book is exhausted.
// A buy consumes asks in ascending price order, a sell consumes bids in
// descending order. Slippage is non-negative whenever execution is worse
// than the best quoted price, on either side.
func (s *Simulator) Simulate(req models.MarketOrderRequest) models.MarketOrderResult {
	snap := s.store.Current()

	var book *orderbook.LevelSet
	if snap != nil {
		if req.Side == models.SideBuy {
			book = snap.Asks
		} else {
			book = snap.Bids
		}
	}
	if book == nil || book.Len() == 0 {
		metrics.SimulationsTotal.WithLabelValues(string(models.StatusUnavailable)).Inc()
		return models.MarketOrderResult{
			Filled: decimal.Zero,
			Status: models.StatusUnavailable,
		}
	}

	remaining := req.Amount
	filled := decimal.Zero
	notional := decimal.Zero
	var bestPrice decimal.Decimal
	first := true

	book.Walk(func(lvl orderbook.PriceLevel) bool {
		if first {
			bestPrice = lvl.Price
			first = false
		}
		take := decimal.Min(remaining, lvl.Quantity)
		filled = filled.Add(take)
		notional = notional.Add(take.Mul(lvl.Price))
		remaining = remaining.Sub(take)
		return remaining.IsPositive()
	})

	// A non-empty side and a positive amount always fill something.
	avgPrice := notional.Div(filled)
	var slippage decimal.Decimal
	if req.Side == models.SideBuy {
		slippage = avgPrice.Sub(bestPrice).Div(bestPrice).Mul(hundred)
	} else {
		slippage = bestPrice.Sub(avgPrice).Div(bestPrice).Mul(hundred)
	}

	status := models.StatusPartial
	if remaining.LessThanOrEqual(fillTolerance) {
		status = models.StatusFilled
	}
	metrics.SimulationsTotal.WithLabelValues(string(status)).Inc()

	return models.MarketOrderResult{
		Filled:      filled,
		AvgPrice:    &avgPrice,
		SlippagePct: &slippage,
		Status:      status,
	}
}
