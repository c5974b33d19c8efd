package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search path metrics. Registered explicitly from main (no init()) so tests
// can run without global registry collisions.
var (
	// SearchRequestsTotal counts searches by source: "index", "fallback".
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ddv",
			Name:      "search_requests_total",
			Help:      "Total number of search requests by serving source",
		},
		[]string{"source"},
	)

	// SearchDuration observes end-to-end orchestrator latency.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ddv",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	// CacheTotal counts result cache lookups with label "result" ("hit"/"miss").
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ddv",
			Name:      "result_cache_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"},
	)

	// ExtractorRequestsTotal counts AI intent extraction attempts by result
	// ("success", "error", "invalid_json", "disabled").
	ExtractorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ddv",
			Name:      "intent_extractor_requests_total",
			Help:      "AI intent extraction attempts by result",
		},
		[]string{"result"},
	)

	// ReindexTotal counts reindex jobs by result ("success", "failure", "rejected").
	ReindexTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ddv",
			Name:      "reindex_total",
			Help:      "Catalog reindex jobs by result",
		},
		[]string{"result"},
	)

	// ReindexDocuments tracks documents indexed by the last completed reindex.
	ReindexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ddv",
			Name:      "reindex_documents",
			Help:      "Documents indexed by the last completed reindex",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics with the default
// registry. Safe to call once from the composition root.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	searchMetricsRegistered = true
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		CacheTotal,
		ExtractorRequestsTotal,
		ReindexTotal,
		ReindexDocuments,
	)
}
