// Package orderbook holds the in-memory two-sided price book: sorted price
// levels, immutable snapshots and the atomically swapped current-snapshot
// store that the rest of the service reads from.
package orderbook

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// Side of the book a LevelSet belongs to.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// PriceLevel is a single price point and the total quantity resting at it.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// LevelSet keeps one side's levels ordered best-first: bids descending by
// price, asks ascending. Prices are unique and zero-quantity levels are
// never stored. A LevelSet is mutated only while a snapshot is being built;
// once the snapshot is published it is read-only.
type LevelSet struct {
	side Side
	tree *btree.BTreeG[PriceLevel]
}

// NewLevelSet creates an empty LevelSet with the ordering rule for side.
func NewLevelSet(side Side) *LevelSet {
	less := func(a, b PriceLevel) bool { return a.Price.LessThan(b.Price) }
	if side == Bid {
		less = func(a, b PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	}
	return &LevelSet{side: side, tree: btree.NewBTreeG(less)}
}

// Side returns which side of the book this set holds.
func (ls *LevelSet) Side() Side { return ls.side }

// Upsert sets the quantity at price, replacing any existing level there.
// A non-positive quantity deletes the level instead.
func (ls *LevelSet) Upsert(price, quantity decimal.Decimal) {
	if !quantity.IsPositive() {
		ls.tree.Delete(PriceLevel{Price: price})
		return
	}
	ls.tree.Set(PriceLevel{Price: price, Quantity: quantity})
}

// Len returns the number of levels.
func (ls *LevelSet) Len() int { return ls.tree.Len() }

// Best returns the best-priced level (highest bid / lowest ask).
func (ls *LevelSet) Best() (PriceLevel, bool) {
	return ls.tree.Min()
}

// Walk visits levels best-first until fn returns false.
func (ls *LevelSet) Walk(fn func(PriceLevel) bool) {
	ls.tree.Scan(fn)
}

// Levels returns all levels best-first.
func (ls *LevelSet) Levels() []PriceLevel {
	out := make([]PriceLevel, 0, ls.tree.Len())
	ls.tree.Scan(func(lvl PriceLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}

// TopK returns the k best-priced levels (all of them when fewer exist).
func (ls *LevelSet) TopK(k int) []PriceLevel {
	if k <= 0 {
		return nil
	}
	out := make([]PriceLevel, 0, k)
	ls.tree.Scan(func(lvl PriceLevel) bool {
		out = append(out, lvl)
		return len(out) < k
	})
	return out
}
