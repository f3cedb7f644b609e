package models

import (
	"github.com/shopspring/decimal"
)

// Side identifies which side of the book a market order consumes
// liquidity from.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus is the outcome of a simulated market order.
type OrderStatus string

const (
	StatusFilled      OrderStatus = "filled"
	StatusPartial     OrderStatus = "partial"
	StatusUnavailable OrderStatus = "unavailable"
)

// Level is a [price, quantity] pair as carried on the wire. A quantity of
// zero inside a delta means "remove this price level".
type Level [2]decimal.Decimal

// NewLevel builds a wire level from price and quantity.
func NewLevel(price, quantity decimal.Decimal) Level {
	return Level{price, quantity}
}

// Price returns the price component of the pair.
func (l Level) Price() decimal.Decimal { return l[0] }

// Quantity returns the quantity component of the pair.
func (l Level) Quantity() decimal.Decimal { return l[1] }

// Delta describes what changed between two snapshots' top-K views.
// Entries with quantity zero are removals; everything else is an upsert.
type Delta struct {
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
	Sequence uint64  `json:"sequence"`
}

// Empty reports whether the delta carries no changes on either side.
func (d *Delta) Empty() bool {
	return len(d.Bids) == 0 && len(d.Asks) == 0
}

// DepthResponse is the top-K view returned by the depth endpoint.
type DepthResponse struct {
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
	Sequence uint64  `json:"sequence"`
}

// MarketOrderRequest is the body of a market order simulation call.
// Amount is validated as strictly positive before any book access.
type MarketOrderRequest struct {
	Side   Side            `json:"side" validate:"required,oneof=buy sell"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
}

// MarketOrderResult reports fill quantity, weighted average price and
// slippage for a simulated market order. AvgPrice and SlippagePct are nil
// when nothing was filled.
type MarketOrderResult struct {
	Filled      decimal.Decimal  `json:"filled"`
	AvgPrice    *decimal.Decimal `json:"avg_price"`
	SlippagePct *decimal.Decimal `json:"slippage_pct"`
	Status      OrderStatus      `json:"status"`
}
