// Package metrics exposes Prometheus metrics for model checking runs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Exploration Metrics
	StatesTotal        *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	NullReactionsTotal *prometheus.CounterVec
	RuleMatchesTotal   *prometheus.CounterVec
	RuleMatchDuration  *prometheus.HistogramVec
	RulePanicsTotal    *prometheus.CounterVec
	FrontierSize       *prometheus.GaugeVec
	Temperature        prometheus.Gauge

	// Predicate Metrics
	PredicateChecksTotal     *prometheus.CounterVec
	PredicateViolationsTotal *prometheus.CounterVec
	PredicateErrorsTotal     *prometheus.CounterVec

	// Run Metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	RunsInFlight prometheus.Gauge

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initExplorationMetrics()
	r.initPredicateMetrics()
	r.initRunMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
