package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IntakeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_events_total",
			Help: "Total number of inbound events seen by the intake loop (count)",
		},
		[]string{"result"},
	)

	DispatchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_jobs_total",
			Help: "Total number of job inputs dispatched, by marker and outcome (count)",
		},
		[]string{"marker", "status"},
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_ms",
			Help:    "Dispatch duration per job input in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"marker"},
	)

	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_total",
			Help: "Total number of outbound event publishes, by kind and outcome (count)",
		},
		[]string{"kind", "status"},
	)

	ListingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_cache_total",
			Help: "Listing cache lookups, by result (count)",
		},
		[]string{"result"},
	)

	RelayResubscribesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_resubscribes_total",
			Help: "Total number of subscription restarts after a transport failure (count)",
		},
	)

	RelayConnectedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected",
			Help: "Number of relays with a live connection (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func Register() {
	prometheus.MustRegister(
		IntakeEventsTotal,
		DispatchJobsTotal,
		DispatchDuration,
		PublishTotal,
		ListingCacheTotal,
		RelayResubscribesTotal,
		RelayConnectedGauge,
		CircuitBreakerState,
	)
}

func ObserveDispatchDuration(d time.Duration, marker string) {
	DispatchDuration.WithLabelValues(marker).Observe(float64(d.Milliseconds()))
}
