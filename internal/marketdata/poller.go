package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/coinwatch/bookfeed/internal/connector"
	"github.com/coinwatch/bookfeed/internal/orderbook"
	"github.com/coinwatch/bookfeed/pkg/metrics"
)

// PollerConfig drives one polling loop.
type PollerConfig struct {
	Symbol       string
	Depth        int
	TopK         int
	PollInterval time.Duration
	// MaxAttempts bounds fetch attempts per tick, not per process lifetime.
	MaxAttempts int
	RetryDelay  time.Duration
	// Channel is the fan-out channel deltas are published on.
	Channel string
}

// Poller periodically fetches a fresh book from the exchange connector,
// installs it as the current snapshot and publishes the resulting top-K
// delta. A tick whose attempts all fail is abandoned: the prior snapshot
// stays current and the next scheduled tick proceeds normally.
type Poller struct {
	logger *zap.Logger
	conn   connector.Connector
	store  *orderbook.Store
	pub    Publisher
	cfg    PollerConfig
}

// NewPoller wires a poller; Run starts it.
func NewPoller(logger *zap.Logger, conn connector.Connector, store *orderbook.Store, pub Publisher, cfg PollerConfig) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Poller{logger: logger, conn: conn, store: store, pub: pub, cfg: cfg}
}

// Run polls until ctx is cancelled. The first tick fires immediately so the
// service does not start with an empty book for a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("feed poller started",
		zap.String("exchange", p.conn.Name()),
		zap.String("symbol", p.cfg.Symbol),
		zap.Duration("interval", p.cfg.PollInterval))

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("feed poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce runs a single tick: bounded fetch attempts, snapshot install,
// delta publish.
func (p *Poller) pollOnce(ctx context.Context) {
	start := time.Now()

	snap, err := p.fetchSnapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollTicks.WithLabelValues("failure").Inc()
		p.logger.Error("poll tick abandoned, serving prior snapshot",
			zap.Int("attempts", p.cfg.MaxAttempts),
			zap.Error(err))
		return
	}

	if snap.Crossed() {
		p.logger.Warn("crossed book from feed",
			zap.String("symbol", p.cfg.Symbol))
	}

	prev := p.store.Replace(snap)
	metrics.SnapshotSequence.Set(float64(snap.Sequence))
	metrics.PollTicks.WithLabelValues("success").Inc()
	metrics.PollLatency.Observe(time.Since(start).Seconds())

	delta := ComputeDelta(prev, snap, p.cfg.TopK)
	if prev != nil && delta.Empty() {
		return
	}
	payload, err := json.Marshal(delta)
	if err != nil {
		p.logger.Error("marshal delta failed", zap.Error(err))
		return
	}
	if err := p.pub.Publish(ctx, p.cfg.Channel, payload); err != nil {
		p.logger.Error("publish delta failed", zap.Error(err))
		return
	}
	metrics.DeltasPublished.Inc()
}

// fetchSnapshot tries up to MaxAttempts times to fetch and parse a book.
// A malformed response counts as a failed attempt the same as a network
// error; both are retryable.
func (p *Poller) fetchSnapshot(ctx context.Context) (*orderbook.Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		raw, err := p.conn.FetchOrderBook(ctx, p.cfg.Symbol, p.cfg.Depth)
		if err == nil {
			var snap *orderbook.Snapshot
			snap, err = orderbook.BuildSnapshot(raw.Bids, raw.Asks, time.Now())
			if err == nil {
				return snap, nil
			}
		}
		lastErr = err
		metrics.FeedFetchFailures.Inc()
		p.logger.Warn("order book fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.cfg.MaxAttempts),
			zap.Error(err))
		if attempt < p.cfg.MaxAttempts && p.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.RetryDelay):
			}
		}
	}
	return nil, lastErr
}
