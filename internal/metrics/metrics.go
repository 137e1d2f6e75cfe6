// Package metrics exposes Prometheus counters for the analysis core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the business counters that matter for a pricing oracle
// consumer. A nil *Metrics is valid and records nothing, so components can be
// wired without observability in tests.
type Metrics struct {
	analysesTotal        prometheus.Counter
	analysisErrors       *prometheus.CounterVec
	generativeFallbacks  prometheus.Counter
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	rateLimitRejections  prometheus.Counter
	oracleReadFailures   prometheus.Counter
	quoteFallbacks       prometheus.Counter
}

// New registers the counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		analysesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "analyses_total",
			Help: "Completed market analyses.",
		}),
		analysisErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "analysis_errors_total",
			Help: "Failed market analyses by reason.",
		}, []string{"reason"}),
		generativeFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "generative_fallbacks_total",
			Help: "Analyses that fell back to the deterministic strategy.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "cache_hits_total",
			Help: "Analysis cache hits.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "cache_misses_total",
			Help: "Analysis cache misses.",
		}),
		rateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "rate_limit_rejections_total",
			Help: "Analyses rejected by the oracle rate limiter.",
		}),
		oracleReadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "oracle_read_failures_total",
			Help: "On-chain oracle reads that failed.",
		}),
		quoteFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skillflux", Name: "quote_fallbacks_total",
			Help: "Price quotes served from static fallback constants.",
		}),
	}
}

func (m *Metrics) AnalysisCompleted() {
	if m != nil {
		m.analysesTotal.Inc()
	}
}

func (m *Metrics) AnalysisFailed(reason string) {
	if m != nil {
		m.analysisErrors.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) GenerativeFallback() {
	if m != nil {
		m.generativeFallbacks.Inc()
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimitRejections.Inc()
	}
}

func (m *Metrics) OracleReadFailed() {
	if m != nil {
		m.oracleReadFailures.Inc()
	}
}

func (m *Metrics) QuoteFallback() {
	if m != nil {
		m.quoteFallbacks.Inc()
	}
}
