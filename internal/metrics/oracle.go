package metrics

import "github.com/prometheus/client_golang/prometheus"

// Oracle and pipeline Prometheus metrics.
var (
	OracleRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "oracle_requests_total",
			Help:      "Total number of QA oracle invocations",
		},
		[]string{"provider", "status"}, // "success" / "error"
	)

	OracleRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "oracle_request_duration_seconds",
			Help:      "QA oracle invocation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "answers_total",
			Help:      "Questions handled by outcome",
		},
		[]string{"outcome"}, // "answered" / failure kind
	)

	ChunkCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "chunk_cache_total",
			Help:      "Chunk cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

func init() {
	prometheus.MustRegister(OracleRequestsTotal)
	prometheus.MustRegister(OracleRequestDuration)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(ChunkCacheTotal)
}
