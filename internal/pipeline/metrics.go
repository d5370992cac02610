package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "algoscope"

// Stage names used as the "stage" label.
const (
	StageParse     = "parse"
	StageStructure = "structure"
	StageMatch     = "match"
	StageExecute   = "execute"
	StageEnhance   = "enhance"
)

// Metrics are the pipeline's Prometheus collectors.
type Metrics struct {
	// analyses counts finished analyses.
	// Labels: outcome (ok, parse_failure, execution_error)
	analyses *prometheus.CounterVec

	// provenance counts primary pattern decisions.
	// Labels: provenance (statistical, heuristic, none), pattern
	provenance *prometheus.CounterVec

	// executors counts which executor tier produced the steps.
	// Labels: executor (traced, simple, source, none)
	executors *prometheus.CounterVec

	// fallbacks counts executor tiers that failed before the one that answered.
	// Labels: executor
	fallbacks *prometheus.CounterVec

	// explanations counts step explanations by the explainer that wrote them.
	// Labels: explainer
	explanations *prometheus.CounterVec

	// cache exposes the process explanation cache hit and miss totals.
	// Labels: result (hit, miss)
	cache *prometheus.CounterVec

	// stageDuration measures each pipeline stage.
	// Labels: stage
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on reg. A nil reg yields working
// collectors that are not exported anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Analyses run, by outcome",
		}, []string{"outcome"}),
		provenance: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "matcher",
			Name:      "decisions_total",
			Help:      "Primary pattern decisions by provenance and pattern",
		}, []string{"provenance", "pattern"}),
		executors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "trace",
			Name:      "executions_total",
			Help:      "Executions by the executor tier that produced the steps",
		}, []string{"executor"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "trace",
			Name:      "fallbacks_total",
			Help:      "Executor tiers that failed and fell back",
		}, []string{"executor"}),
		explanations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "explain",
			Name:      "explanations_total",
			Help:      "Step explanations by explainer",
		}, []string{"explainer"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "explain",
			Name:      "cache_requests_total",
			Help:      "Explanation cache lookups by result",
		}, []string{"result"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// recordCache adds the cache counters accumulated since the previous call.
func (m *Metrics) recordCache(hits, misses uint64) {
	if hits > 0 {
		m.cache.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.cache.WithLabelValues("miss").Add(float64(misses))
	}
}
