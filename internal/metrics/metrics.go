package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts orders accepted by the router.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "burgerbar_orders_created_total",
		Help: "Orders accepted and persisted by the order service",
	})

	// EventsConsumed counts deliveries by topic and outcome (ack/drop).
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burgerbar_events_consumed_total",
		Help: "Pub/sub deliveries handled, by topic and outcome",
	}, []string{"topic", "result"})

	// MergeConflicts counts optimistic-concurrency retries in the aggregator
	// and the recent-orders index.
	MergeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "burgerbar_merge_conflicts_total",
		Help: "Version conflicts detected on order store writes",
	})

	// StationDuration tracks simulated preparation time per station.
	StationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "burgerbar_station_processing_duration_seconds",
		Help:    "Time a station spent preparing its part of an order",
		Buckets: prometheus.DefBuckets,
	}, []string{"station"})
)
