// Package metrics provides Prometheus metrics for the GEO analysis service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	judgeLatency   *prometheus.HistogramVec
	judgeFailures  *prometheus.CounterVec
	panelsRun      prometheus.Counter
	fallbackCards  prometheus.Counter
	analyses       *prometheus.CounterVec
	discovered     prometheus.Histogram
	fetchFailures  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	historyErrors  prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	compositeScore prometheus.Histogram
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithHistogramBuckets sets the latency buckets in seconds.
func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) { m.histogramBuckets = b }
}

// WithRegistry registers collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

var globalManager = NewManager()

// NewManager creates a manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "geo",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.judgeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "judge",
		Name:      "latency_seconds",
		Help:      "Time spent waiting for one judge response",
		Buckets:   m.histogramBuckets,
	}, []string{"judge", "outcome"})

	m.judgeFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "judge",
		Name:      "failures_total",
		Help:      "Judge invocations that produced no text, by failure kind",
	}, []string{"judge", "kind"})

	m.panelsRun = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "panel",
		Name:      "runs_total",
		Help:      "Completed judge panel runs",
	})

	m.fallbackCards = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "scoring",
		Name:      "fallback_cards_total",
		Help:      "Score cards whose overall score came from the structural fallback",
	})

	m.compositeScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "scoring",
		Name:      "overall_score",
		Help:      "Distribution of overall GEO scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "service",
		Name:      "analyses_total",
		Help:      "Analyses served, by kind (site, compare)",
	}, []string{"kind"})

	m.discovered = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "ranking",
		Name:      "discovered_competitors",
		Help:      "Competitor URLs found per discovery query",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
	})

	m.fetchFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "content",
		Name:      "fetch_failures_total",
		Help:      "Pages that could not be fetched, by kind",
	}, []string{"kind"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache name and result",
	}, []string{"cache", "result"})

	m.historyErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "history",
		Name:      "publish_errors_total",
		Help:      "Score card snapshots that could not be published",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

// Handler exposes the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Default returns the process wide manager.
func Default() *Manager { return globalManager }

// Handler exposes the process wide registry.
func Handler() http.Handler { return globalManager.Handler() }

// RecordJudge observes one judge call. kind is empty on success.
func (m *Manager) RecordJudge(judge, kind string, seconds float64) {
	outcome := "ok"
	if kind != "" {
		outcome = "failed"
		m.judgeFailures.WithLabelValues(judge, kind).Inc()
	}
	m.judgeLatency.WithLabelValues(judge, outcome).Observe(seconds)
}

// RecordPanel counts a completed panel run.
func (m *Manager) RecordPanel() { m.panelsRun.Inc() }

// RecordScoreCard observes an aggregated card.
func (m *Manager) RecordScoreCard(overall float64, fallback bool) {
	m.compositeScore.Observe(overall)
	if fallback {
		m.fallbackCards.Inc()
	}
}

// RecordAnalysis counts a served analysis.
func (m *Manager) RecordAnalysis(kind string) { m.analyses.WithLabelValues(kind).Inc() }

// RecordDiscovery observes how many competitors one query produced.
func (m *Manager) RecordDiscovery(n int) { m.discovered.Observe(float64(n)) }

// RecordFetchFailure counts a page that yielded no descriptor.
func (m *Manager) RecordFetchFailure(kind string) { m.fetchFailures.WithLabelValues(kind).Inc() }

// RecordCache counts a cache lookup.
func (m *Manager) RecordCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordHistoryError counts a failed snapshot publish.
func (m *Manager) RecordHistoryError() { m.historyErrors.Inc() }

// RecordHTTPRequest observes one served request.
func (m *Manager) RecordHTTPRequest(route, method, status string, seconds float64) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(seconds)
}
