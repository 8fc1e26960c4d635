package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and provider Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waura",
			Name:      "provider_requests_total",
			Help:      "Total number of image/web provider requests",
		},
		[]string{"provider", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "waura",
			Name:      "provider_request_duration_seconds",
			Help:      "Provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"provider"},
	)

	FilterDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waura",
			Name:      "content_filter_dropped_total",
			Help:      "Items removed by the content filter, by stage",
		},
		[]string{"stage"},
	)

	FallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waura",
			Name:      "provider_fallback_total",
			Help:      "Times the secondary provider was invoked, by reason",
		},
		[]string{"reason"}, // "error" / "empty"
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "waura",
			Name:      "provider_breaker_state",
			Help:      "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	CatalogSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "waura",
			Name:      "catalog_search_duration_seconds",
			Help:      "Catalog engine search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"driver"},
	)
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(FilterDroppedTotal)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(CatalogSearchDuration)
}
