package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the complete state of both sides at one point in time.
// Sequence is stamped by the Store on install and increases by one per
// successful poll. Snapshots are immutable once published.
type Snapshot struct {
	Bids       *LevelSet
	Asks       *LevelSet
	Sequence   uint64
	ObservedAt time.Time
}

// BuildSnapshot ingests a raw two-sided book as delivered by a feed
// connector. Entries may arrive unsorted and may repeat a price; the last
// entry for a price wins and non-positive quantities drop the level. An
// empty side is valid, a thin market is a legitimate state.
func BuildSnapshot(bids, asks [][2]string, observedAt time.Time) (*Snapshot, error) {
	s := &Snapshot{
		Bids:       NewLevelSet(Bid),
		Asks:       NewLevelSet(Ask),
		ObservedAt: observedAt,
	}
	if err := ingestSide(s.Bids, bids); err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	if err := ingestSide(s.Asks, asks); err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	return s, nil
}

func ingestSide(ls *LevelSet, raw [][2]string) error {
	for _, entry := range raw {
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return fmt.Errorf("malformed price %q: %w", entry[0], err)
		}
		quantity, err := decimal.NewFromString(entry[1])
		if err != nil {
			return fmt.Errorf("malformed quantity %q: %w", entry[1], err)
		}
		ls.Upsert(price, quantity)
	}
	return nil
}

// Crossed reports whether best bid >= best ask. A crossed book from the
// feed is a data-quality condition, not fatal; callers log and install it
// anyway so the view cannot go permanently stale.
func (s *Snapshot) Crossed() bool {
	bestBid, ok := s.Bids.Best()
	if !ok {
		return false
	}
	bestAsk, ok := s.Asks.Best()
	if !ok {
		return false
	}
	return bestBid.Price.GreaterThanOrEqual(bestAsk.Price)
}
