package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_turn_duration_seconds",
			Help:    "End-to-end turn processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"tenant"},
	)

	TurnTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_turn_total",
			Help: "Total number of turns processed",
		},
		[]string{"tenant", "status"},
	)

	IntentDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_intent_detected_total",
			Help: "Detected intent distribution",
		},
		[]string{"intent", "confidence", "language"},
	)

	GuardrailViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_guardrail_violations_total",
			Help: "Guardrail violations by category",
		},
		[]string{"tenant", "category"},
	)

	GuardrailFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_guardrail_fallbacks_total",
			Help: "Responses replaced with a canned safe reply",
		},
		[]string{"tenant"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_search_duration_seconds",
			Help:    "Semantic search duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"backend"},
	)

	SearchResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice_search_results_count",
			Help:    "Number of grounding passages per search",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	GroundingScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice_grounding_best_score",
			Help:    "Best grounding similarity score per validated response",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	WakeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_wake_attempts_total",
			Help: "Inference backend wake attempts",
		},
		[]string{"outcome"},
	)

	HealthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_health_checks_total",
			Help: "Inference health checks by source",
		},
		[]string{"cached"},
	)

	RateLimitDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_ratelimit_denials_total",
			Help: "Requests denied by the rate limiter",
		},
		[]string{"key"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	DocumentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_documents_ingested_total",
			Help: "Total documents ingested",
		},
		[]string{"tenant"},
	)

	ChunksIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_chunks_indexed_total",
			Help: "Total chunks written to the semantic store",
		},
		[]string{"tenant"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_active_sessions",
			Help: "Currently active dialogue sessions",
		},
	)
)

func Init() {
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(TurnTotal)
	prometheus.MustRegister(IntentDetected)
	prometheus.MustRegister(GuardrailViolations)
	prometheus.MustRegister(GuardrailFallbacks)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsCount)
	prometheus.MustRegister(GroundingScore)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(WakeAttempts)
	prometheus.MustRegister(HealthChecks)
	prometheus.MustRegister(RateLimitDenials)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(DocumentsIngested)
	prometheus.MustRegister(ChunksIndexed)
	prometheus.MustRegister(ActiveSessions)
}

// RecordRateLimitDenial keeps label writes in one place so callers do
// not depend on the collector shape.
func RecordRateLimitDenial(key string) {
	RateLimitDenials.WithLabelValues(key).Inc()
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
