package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initExplorationMetrics() {
	r.StatesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_states_total",
			Help: "Distinct states added to reaction graphs",
		},
		[]string{"strategy"},
	)

	r.TransitionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_transitions_total",
			Help: "Reactions processed by model checking runs",
		},
		[]string{"strategy"},
	)

	r.NullReactionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_null_reactions_total",
			Help: "Matches whose rewrite produced no valid bigraph",
		},
		[]string{"rule"},
	)

	r.RuleMatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_rule_matches_total",
			Help: "Redex occurrences found per rule",
		},
		[]string{"rule"},
	)

	r.RuleMatchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bigraph_rule_match_duration_seconds",
			Help:    "Time spent matching one rule against one state",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"rule"},
	)

	r.RulePanicsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bigraph_rule_panics_total",
			Help: "Recovered matcher panics per rule",
		},
		[]string{"rule"},
	)

	r.FrontierSize = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bigraph_frontier_size",
			Help: "States waiting to be expanded",
		},
		[]string{"strategy"},
	)

	r.Temperature = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bigraph_annealing_temperature",
			Help: "Current simulated annealing temperature",
		},
	)
}
