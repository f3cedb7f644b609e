package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coinwatch/bookfeed/internal/connector"
	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/models"
)

// scriptedConnector returns one scripted outcome per call.
type scriptedConnector struct {
	mu    sync.Mutex
	books []*connector.RawBook
	errs  []error
	calls int
}

func (c *scriptedConnector) Name() string { return "scripted" }

func (c *scriptedConnector) FetchOrderBook(ctx context.Context, symbol string, depth int) (*connector.RawBook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.books) {
		return c.books[i], nil
	}
	return c.books[len(c.books)-1], nil
}

func (c *scriptedConnector) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

func rawBook(bids, asks [][2]string) *connector.RawBook {
	return &connector.RawBook{Bids: bids, Asks: asks}
}

func newTestPoller(conn connector.Connector, st *orderbook.Store, pub Publisher) *Poller {
	return NewPoller(zap.NewNop(), conn, st, pub, PollerConfig{
		Symbol:      "BTCUSDT",
		Depth:       50,
		TopK:        10,
		MaxAttempts: 3,
		Channel:     "orderbook.deltas",
	})
}

func TestPollerInstallsSnapshotAndPublishesInitialDelta(t *testing.T) {
	conn := &scriptedConnector{books: []*connector.RawBook{
		rawBook([][2]string{{"99", "1"}}, [][2]string{{"100", "2"}}),
	}}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}

	newTestPoller(conn, st, pub).pollOnce(context.Background())

	snap := st.Current()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Sequence)

	payloads := pub.published()
	require.Len(t, payloads, 1)
	var delta models.Delta
	require.NoError(t, json.Unmarshal(payloads[0], &delta))
	require.Len(t, delta.Bids, 1)
	assert.Equal(t, "99", delta.Bids[0].Price().String())
	require.Len(t, delta.Asks, 1)
	assert.Equal(t, "100", delta.Asks[0].Price().String())
}

func TestPollerRetriesWithinTick(t *testing.T) {
	conn := &scriptedConnector{
		errs:  []error{errors.New("timeout"), errors.New("timeout"), nil},
		books: []*connector.RawBook{nil, nil, rawBook([][2]string{{"99", "1"}}, nil)},
	}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}

	newTestPoller(conn, st, pub).pollOnce(context.Background())

	assert.Equal(t, 3, conn.callCount())
	require.NotNil(t, st.Current())
}

func TestPollerAbandonsTickKeepingPriorSnapshot(t *testing.T) {
	conn := &scriptedConnector{books: []*connector.RawBook{
		rawBook([][2]string{{"99", "1"}}, nil),
	}}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}
	p := newTestPoller(conn, st, pub)

	p.pollOnce(context.Background())
	installed := st.Current()
	require.NotNil(t, installed)

	// Every attempt in the next tick fails; the prior snapshot stays current.
	failing := &scriptedConnector{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}
	p2 := newTestPoller(failing, st, pub)
	p2.pollOnce(context.Background())

	assert.Equal(t, 3, failing.callCount())
	assert.Same(t, installed, st.Current())
	assert.Len(t, pub.published(), 1)

	// The next tick recovers on its own.
	p.pollOnce(context.Background())
	assert.Equal(t, uint64(2), st.Current().Sequence)
}

func TestPollerMalformedResponseCountsAsFailedAttempt(t *testing.T) {
	conn := &scriptedConnector{books: []*connector.RawBook{
		rawBook([][2]string{{"bogus", "1"}}, nil),
		rawBook([][2]string{{"99", "1"}}, nil),
	}}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}

	newTestPoller(conn, st, pub).pollOnce(context.Background())

	assert.Equal(t, 2, conn.callCount())
	require.NotNil(t, st.Current())
	best, ok := st.Current().Bids.Best()
	require.True(t, ok)
	assert.Equal(t, "99", best.Price.String())
}

func TestPollerSkipsPublishingEmptyDelta(t *testing.T) {
	book := rawBook([][2]string{{"99", "1"}}, [][2]string{{"100", "2"}})
	conn := &scriptedConnector{books: []*connector.RawBook{book, book}}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}
	p := newTestPoller(conn, st, pub)

	p.pollOnce(context.Background())
	p.pollOnce(context.Background())

	// Second tick produced no change, so only the initial delta went out.
	assert.Len(t, pub.published(), 1)
	assert.Equal(t, uint64(2), st.Current().Sequence)
}

func TestPollerInstallsCrossedAndEmptyBooks(t *testing.T) {
	conn := &scriptedConnector{books: []*connector.RawBook{
		rawBook([][2]string{{"101", "1"}}, [][2]string{{"100", "1"}}),
		rawBook(nil, nil),
	}}
	st := orderbook.NewStore()
	pub := &recordingPublisher{}
	p := newTestPoller(conn, st, pub)

	p.pollOnce(context.Background())
	require.NotNil(t, st.Current())
	assert.True(t, st.Current().Crossed())

	p.pollOnce(context.Background())
	assert.Equal(t, 0, st.Current().Bids.Len())
	assert.Equal(t, 0, st.Current().Asks.Len())
}
