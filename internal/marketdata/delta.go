// Package marketdata turns stored order book snapshots into client-facing
// market data: top-K deltas, the delta fan-out stream, and market order
// simulation.
package marketdata

import (
	"github.com/shopspring/decimal"

	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/models"
)

// ComputeDelta returns the difference between the top-k views of two
// snapshots. Levels new to the current top-k or with a changed quantity are
// emitted as upserts; levels that left the top-k are emitted with quantity
// zero. A nil prev yields the full top-k of curr, which is what a fresh
// subscriber receives as its baseline. Diffing a snapshot against itself
// yields an empty delta.
func ComputeDelta(prev, curr *orderbook.Snapshot, k int) *models.Delta {
	delta := &models.Delta{
		Bids: []models.Level{},
		Asks: []models.Level{},
	}
	if curr == nil {
		return delta
	}
	delta.Sequence = curr.Sequence

	var prevBids, prevAsks []orderbook.PriceLevel
	if prev != nil {
		prevBids = prev.Bids.TopK(k)
		prevAsks = prev.Asks.TopK(k)
	}
	delta.Bids = diffSide(prevBids, curr.Bids.TopK(k))
	delta.Asks = diffSide(prevAsks, curr.Asks.TopK(k))
	return delta
}

// diffSide diffs one side's top-k windows. Upserts come first in the side's
// sort order, then removals in the side's sort order, so output is
// deterministic for a given pair of snapshots.
func diffSide(prev, curr []orderbook.PriceLevel) []models.Level {
	prevQty := make(map[string]decimal.Decimal, len(prev))
	for _, lvl := range prev {
		prevQty[lvl.Price.String()] = lvl.Quantity
	}
	currSeen := make(map[string]struct{}, len(curr))

	out := []models.Level{}
	for _, lvl := range curr {
		key := lvl.Price.String()
		currSeen[key] = struct{}{}
		if old, ok := prevQty[key]; !ok || !old.Equal(lvl.Quantity) {
			out = append(out, models.NewLevel(lvl.Price, lvl.Quantity))
		}
	}
	for _, lvl := range prev {
		if _, ok := currSeen[lvl.Price.String()]; !ok {
			out = append(out, models.NewLevel(lvl.Price, decimal.Zero))
		}
	}
	return out
}
