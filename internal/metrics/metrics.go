package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the ingestion and forwarding pipelines.
var (
	PositionsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "positions_ingested_total",
			Help: "Total number of position records ingested",
		},
	)

	AlarmsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alarms_ingested_total",
			Help: "Total number of alarm halves ingested",
		},
	)

	AlarmSessionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alarm_sessions_completed_total",
			Help: "Total number of alarm sessions completed by correlation",
		},
	)

	AlarmDuplicateHalvesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alarm_duplicate_halves_total",
			Help: "Total number of duplicate alarm halves overwritten in the cache",
		},
	)

	AlarmOrphanedHalvesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alarm_orphaned_halves_total",
			Help: "Total number of unmatched alarm halves evicted by TTL",
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of terminal delivery attempts by target and status",
		},
		[]string{"target", "status"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Duration of delivery attempts by target",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	TokenRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of downstream auth token fetches",
		},
	)

	RunsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forward_runs_skipped_total",
			Help: "Total number of scheduled runs skipped because the previous run was still in flight",
		},
		[]string{"target"},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(PositionsIngestedTotal)
	prometheus.MustRegister(AlarmsIngestedTotal)
	prometheus.MustRegister(AlarmSessionsCompletedTotal)
	prometheus.MustRegister(AlarmDuplicateHalvesTotal)
	prometheus.MustRegister(AlarmOrphanedHalvesTotal)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(TokenRefreshesTotal)
	prometheus.MustRegister(RunsSkippedTotal)
}
