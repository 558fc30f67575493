package metrics

import "github.com/prometheus/client_golang/prometheus"

// Store and optimizer collectors.
var (
	StoreSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartscout",
			Name:      "store_search_total",
			Help:      "Store searches by outcome",
		},
		[]string{"store", "outcome"},
	)

	StoreSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cartscout",
			Name:      "store_search_duration_seconds",
			Help:      "Store search duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"store"},
	)

	SelectionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartscout",
			Name:      "selection_requests_total",
			Help:      "Cart selection requests to the language model",
		},
		[]string{"status"},
	)

	PriceImputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartscout",
			Name:      "price_imputations_total",
			Help:      "Cart items needing a price estimate, by result",
		},
		[]string{"result"}, // "imputed" / "unavailable"
	)

	EnrichmentMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cartscout",
			Name:      "enrichment_misses_total",
			Help:      "Selected products that could not be matched to a candidate",
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartscout",
			Name:      "search_cache_total",
			Help:      "Search response cache hits and misses",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		StoreSearchTotal,
		StoreSearchDuration,
		SelectionRequestsTotal,
		PriceImputationsTotal,
		EnrichmentMissesTotal,
		SearchCacheTotal,
	)
}
