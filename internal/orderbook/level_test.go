package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLevelSetAsksAscending(t *testing.T) {
	ls := NewLevelSet(Ask)
	ls.Upsert(d("102"), d("5"))
	ls.Upsert(d("100"), d("1"))
	ls.Upsert(d("101"), d("2"))

	levels := ls.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, "100", levels[0].Price.String())
	assert.Equal(t, "101", levels[1].Price.String())
	assert.Equal(t, "102", levels[2].Price.String())
}

func TestLevelSetBidsDescending(t *testing.T) {
	ls := NewLevelSet(Bid)
	ls.Upsert(d("99"), d("1"))
	ls.Upsert(d("101"), d("2"))
	ls.Upsert(d("100"), d("3"))

	levels := ls.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, "101", levels[0].Price.String())
	assert.Equal(t, "100", levels[1].Price.String())
	assert.Equal(t, "99", levels[2].Price.String())
}

func TestLevelSetDuplicatePriceLastWins(t *testing.T) {
	ls := NewLevelSet(Ask)
	ls.Upsert(d("100"), d("1"))
	ls.Upsert(d("100"), d("7"))

	require.Equal(t, 1, ls.Len())
	best, ok := ls.Best()
	require.True(t, ok)
	assert.Equal(t, "7", best.Quantity.String())
}

func TestLevelSetZeroQuantityRemoves(t *testing.T) {
	ls := NewLevelSet(Bid)
	ls.Upsert(d("100"), d("1"))
	ls.Upsert(d("100"), decimal.Zero)
	assert.Equal(t, 0, ls.Len())

	// Never stored in the first place either.
	ls.Upsert(d("99"), decimal.Zero)
	ls.Upsert(d("98"), d("-1"))
	assert.Equal(t, 0, ls.Len())
}

func TestLevelSetBest(t *testing.T) {
	bids := NewLevelSet(Bid)
	bids.Upsert(d("99"), d("1"))
	bids.Upsert(d("100"), d("1"))
	best, ok := bids.Best()
	require.True(t, ok)
	assert.Equal(t, "100", best.Price.String())

	asks := NewLevelSet(Ask)
	asks.Upsert(d("101"), d("1"))
	asks.Upsert(d("103"), d("1"))
	best, ok = asks.Best()
	require.True(t, ok)
	assert.Equal(t, "101", best.Price.String())

	_, ok = NewLevelSet(Ask).Best()
	assert.False(t, ok)
}

func TestLevelSetTopK(t *testing.T) {
	ls := NewLevelSet(Ask)
	for _, p := range []string{"105", "101", "103", "102", "104"} {
		ls.Upsert(d(p), d("1"))
	}

	top := ls.TopK(3)
	require.Len(t, top, 3)
	assert.Equal(t, "101", top[0].Price.String())
	assert.Equal(t, "102", top[1].Price.String())
	assert.Equal(t, "103", top[2].Price.String())

	assert.Len(t, ls.TopK(10), 5)
	assert.Empty(t, ls.TopK(0))
}
