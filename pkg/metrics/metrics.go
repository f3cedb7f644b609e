package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PollTicks counts completed poll ticks by outcome (success/failure).
var PollTicks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bookfeed_poll_ticks_total",
		Help: "Total number of feed poll ticks by outcome",
	},
	[]string{"result"},
)

// FeedFetchFailures counts individual failed fetch attempts, including
// retried ones within a tick.
var FeedFetchFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "bookfeed_feed_fetch_failures_total",
		Help: "Total number of failed order book fetch attempts",
	},
)

// PollLatency records end-to-end tick latency (fetch, build, diff, publish).
var PollLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "bookfeed_poll_latency_seconds",
		Help:    "Latency in seconds of a successful poll tick",
		Buckets: prometheus.DefBuckets,
	},
)

// SnapshotSequence tracks the sequence number of the current snapshot.
var SnapshotSequence = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "bookfeed_snapshot_sequence",
		Help: "Sequence number of the currently installed order book snapshot",
	},
)

// ActiveSubscribers tracks connected delta-stream subscribers.
var ActiveSubscribers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "bookfeed_active_subscribers",
		Help: "Number of currently connected delta stream subscribers",
	},
)

// DeltasPublished counts deltas pushed to the fan-out channel.
var DeltasPublished = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "bookfeed_deltas_published_total",
		Help: "Total number of order book deltas published",
	},
)

// SimulationsTotal counts market order simulations by result status.
var SimulationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bookfeed_simulations_total",
		Help: "Total number of market order simulations by status",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(
		PollTicks,
		FeedFetchFailures,
		PollLatency,
		SnapshotSequence,
		ActiveSubscribers,
		DeltasPublished,
		SimulationsTotal,
	)
}
