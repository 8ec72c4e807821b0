// Package metrics holds the Prometheus collectors for recommendation queries and corpus rebuilds.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// RecommendationsTotal counts recommend queries by outcome.
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osusume_recommendations_total",
		Help: "Total number of recommend queries by outcome",
	}, []string{"outcome"})

	// RecommendationDuration measures recommend query latency.
	RecommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osusume_recommendation_duration_seconds",
		Help:    "Recommend query latency in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	// CorpusRebuildsTotal counts corpus snapshot builds by result.
	CorpusRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osusume_corpus_rebuilds_total",
		Help: "Total number of corpus snapshot builds by result",
	}, []string{"result"})

	// CorpusRebuildDuration measures how long building a snapshot takes.
	CorpusRebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osusume_corpus_rebuild_duration_seconds",
		Help:    "Corpus snapshot build time in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// CorpusItems is the item count of the active corpus.
	CorpusItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osusume_corpus_items",
		Help: "Number of items in the active corpus",
	})

	// VocabularySize is the vocabulary size of the active model.
	VocabularySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osusume_vocabulary_size",
		Help: "Number of terms in the active TF-IDF vocabulary",
	})

	// ModelCacheHits counts model cache lookups that found a built model.
	ModelCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osusume_model_cache_hits_total",
		Help: "Total number of model cache hits",
	})

	// ModelCacheMisses counts model cache lookups that required a build.
	ModelCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osusume_model_cache_misses_total",
		Help: "Total number of model cache misses",
	})

	// SnapshotLoadsTotal counts similarity matrix snapshot reads by result (hit, miss, invalid).
	SnapshotLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osusume_matrix_snapshot_loads_total",
		Help: "Total number of similarity matrix snapshot reads by result",
	}, []string{"result"})
)

// RecordRecommendation records one recommend query.
func RecordRecommendation(outcome string, d time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(d.Seconds())
}

// RecordRebuild records one snapshot build attempt.
func RecordRebuild(err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CorpusRebuildsTotal.WithLabelValues(result).Inc()
	CorpusRebuildDuration.Observe(d.Seconds())
}

// SetActiveCorpus updates the gauges describing the active snapshot.
func SetActiveCorpus(items, vocabulary int) {
	CorpusItems.Set(float64(items))
	VocabularySize.Set(float64(vocabulary))
}

// RecordCacheLookup counts a model cache lookup.
func RecordCacheLookup(hit bool) {
	if hit {
		ModelCacheHits.Inc()
		return
	}
	ModelCacheMisses.Inc()
}

// RecordSnapshotLoad counts a matrix snapshot read.
func RecordSnapshotLoad(result string) {
	SnapshotLoadsTotal.WithLabelValues(result).Inc()
}
