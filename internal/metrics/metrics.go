// Package metrics exposes the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "visaocr"
	subsystem = "pipeline"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of result cache hits.",
		},
		[]string{"tier"}, // memory, redis
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of result cache misses.",
		},
		[]string{"tier"},
	)

	outcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outcomes_total",
			Help:      "Processed screenshots by outcome.",
		},
		[]string{"outcome"}, // success, no_availability, or an error code
	)

	extractorWins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "extractor_wins_total",
			Help:      "Number of times each extractor won arbitration.",
		},
		[]string{"source"},
	)

	ocrDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ocr",
			Name:      "duration_seconds",
			Help:      "Time spent in the OCR engine.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine", "status"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "side_effect_failures_total",
			Help:      "Failed fire-and-forget archive or report dispatches.",
		},
		[]string{"kind"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the per-client rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(outcomes)
	prometheus.MustRegister(extractorWins)
	prometheus.MustRegister(ocrDuration)
	prometheus.MustRegister(sideEffectFailures)
	prometheus.MustRegister(rateLimited)
}

// RecordCacheHit increments the cache hit counter
func RecordCacheHit(tier string) {
	cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss(tier string) {
	cacheMisses.WithLabelValues(tier).Inc()
}

// RecordOutcome counts one processed screenshot
func RecordOutcome(outcome string) {
	outcomes.WithLabelValues(outcome).Inc()
}

// RecordExtractorWin counts the winning extractor of a parse
func RecordExtractorWin(source string) {
	extractorWins.WithLabelValues(source).Inc()
}

// RecordOCRDuration records how long the engine took
func RecordOCRDuration(engine, status string, seconds float64) {
	ocrDuration.WithLabelValues(engine, status).Observe(seconds)
}

// RecordSideEffectFailure counts a failed archive or report dispatch
func RecordSideEffectFailure(kind string) {
	sideEffectFailures.WithLabelValues(kind).Inc()
}

// RecordRateLimited counts a throttled request
func RecordRateLimited() {
	rateLimited.Inc()
}
