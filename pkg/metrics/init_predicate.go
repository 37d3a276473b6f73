package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPredicateMetrics() {
	r.PredicateChecksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_predicate_checks_total",
			Help: "Predicate evaluations by outcome",
		},
		[]string{"predicate", "result"},
	)

	r.PredicateViolationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_predicate_violations_total",
			Help: "Counterexamples reported per predicate",
		},
		[]string{"predicate"},
	)

	r.PredicateErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_predicate_errors_total",
			Help: "Predicate evaluations that failed",
		},
		[]string{"predicate"},
	)
}
