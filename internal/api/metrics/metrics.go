// Package metrics defines and registers all custom Prometheus metrics for the
// product dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics are registered with the default Prometheus registry via promauto,
// which is also what the echoprometheus /metrics handler serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "productdash"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductMutationsTotal counts product writes.
// Labels:
//   - op: "create", "update", "status" or "delete"
//   - result: "success" or a short failure reason (e.g. "not_found", "invalid_transition")
var ProductMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_mutations_total",
		Help:      "Total number of product mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Feed metrics ──────────────────────────────────────────────────────────────

// FeedSnapshotsTotal counts snapshots broadcast to stream clients.
var FeedSnapshotsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_snapshots_total",
		Help:      "Total number of product snapshots broadcast by the live feed.",
	},
)

// FeedSubscribers tracks the number of connected stream clients.
var FeedSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_subscribers",
		Help:      "Current number of clients connected to the product stream.",
	},
)

// FeedSnapshotSize records how many products each broadcast snapshot held.
var FeedSnapshotSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_snapshot_size",
		Help:      "Number of products in each broadcast snapshot.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 .. 16384
	},
)
