// Package metrics defines the Prometheus collectors used by cosim. The CLI
// is a batch tool, so collectors live on a private registry that commands
// dump in text format when --metrics-file is set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cosim"

var Registry = prometheus.NewRegistry()

var (
	ScoreQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_queries_total",
			Help:      "Total number of queries scored, by method.",
		},
		[]string{"method"},
	)

	ScoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "Time spent accumulating scores for one query.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method"},
	)

	ScoredDocuments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scored_documents",
			Help:      "Number of documents with a score per query.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"method"},
	)

	StemCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stem_cache_total",
			Help:      "Stemmer memo lookups by result.",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_total",
			Help:      "Ranked result cache lookups by result.",
		},
		[]string{"result"},
	)

	DocsIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "docs_indexed_total",
			Help:      "Total documents written to the index.",
		},
	)
)

func init() {
	Registry.MustRegister(
		ScoreQueriesTotal,
		ScoreDuration,
		ScoredDocuments,
		StemCacheTotal,
		QueryCacheTotal,
		DocsIndexedTotal,
	)
}

// WriteTextfile writes the current registry contents to path in the
// Prometheus text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
