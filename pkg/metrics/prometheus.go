// Package metrics provides Prometheus instrumentation for the hensachi
// client: collaborator call outcomes, workflow quality counters, and
// identity-storage health.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus metrics for the client.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Collaborator boundary
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	// Workflow quality
	submitOutcomes  *prometheus.CounterVec
	staleDiscards   prometheus.Counter
	historyFailures prometheus.Counter

	// Identity storage health
	identityFallbacks prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hensachi",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.apiRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_requests_total",
		Help:      "Total stats-service calls by operation and HTTP status",
	}, []string{"operation", "status"})

	m.apiLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "api_latency_seconds",
		Help:      "Histogram of stats-service call latency by operation",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.submitOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submit_outcomes_total",
		Help:      "Submit-then-recompute outcomes by stage result",
	}, []string{"outcome"})

	m.staleDiscards = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_responses_discarded_total",
		Help:      "Responses discarded because a newer request superseded them",
	})

	m.historyFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_refresh_failures_total",
		Help:      "Trailing history refreshes that failed and were logged only",
	})

	m.identityFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identity_storage_fallbacks_total",
		Help:      "Identity reads that fell back to the anonymous sentinel",
	})
}

// Handler exposes the manager's registry for an optional debug listener.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAPIRequest records one collaborator call. A status of 0 means the
// call failed before any HTTP response arrived.
func (m *Manager) RecordAPIRequest(operation string, status int, d time.Duration) {
	if !m.enabled {
		return
	}
	m.apiRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSubmitOutcome records a submit workflow stage result, e.g.
// "submitted", "submit_failed", "recompute_failed".
func (m *Manager) RecordSubmitOutcome(outcome string) {
	if !m.enabled {
		return
	}
	m.submitOutcomes.WithLabelValues(outcome).Inc()
}

// RecordStaleDiscard counts a response dropped by the generation check.
func (m *Manager) RecordStaleDiscard() {
	if !m.enabled {
		return
	}
	m.staleDiscards.Inc()
}

// RecordHistoryRefreshFailure counts a swallowed trailing-refresh failure.
func (m *Manager) RecordHistoryRefreshFailure() {
	if !m.enabled {
		return
	}
	m.historyFailures.Inc()
}

// RecordIdentityFallback counts a fall back to the anonymous identity.
func (m *Manager) RecordIdentityFallback() {
	if !m.enabled {
		return
	}
	m.identityFallbacks.Inc()
}

// Package-level helpers against the global manager.

func RecordAPIRequest(operation string, status int, d time.Duration) {
	globalManager.RecordAPIRequest(operation, status, d)
}

func RecordSubmitOutcome(outcome string) { globalManager.RecordSubmitOutcome(outcome) }

func RecordStaleDiscard() { globalManager.RecordStaleDiscard() }

func RecordHistoryRefreshFailure() { globalManager.RecordHistoryRefreshFailure() }

func RecordIdentityFallback() { globalManager.RecordIdentityFallback() }

// Handler exposes the global registry.
func Handler() http.Handler { return globalManager.Handler() }
