package metrics

import (
	"runtime"
	"time"
)

var startTime = time.Now()

// RecordRuleMatch records one rule matched against one state
func (r *Registry) RecordRuleMatch(rule string, occurrences int, duration time.Duration) {
	r.RuleMatchesTotal.WithLabelValues(rule).Add(float64(occurrences))
	r.RuleMatchDuration.WithLabelValues(rule).Observe(duration.Seconds())
}

// RecordRulePanic records a matcher panic recovered for a rule
func (r *Registry) RecordRulePanic(rule string) {
	r.RulePanicsTotal.WithLabelValues(rule).Inc()
}

// RecordReaction records one processed reaction. A null reaction has no
// successor state.
func (r *Registry) RecordReaction(strategy, rule string, null bool) {
	if null {
		r.NullReactionsTotal.WithLabelValues(rule).Inc()
		return
	}
	r.TransitionsTotal.WithLabelValues(strategy).Inc()
}

// RecordState records a new distinct state
func (r *Registry) RecordState(strategy string) {
	r.StatesTotal.WithLabelValues(strategy).Inc()
}

// RecordPredicate records one predicate evaluation
func (r *Registry) RecordPredicate(predicate string, ok bool, err error) {
	switch {
	case err != nil:
		r.PredicateErrorsTotal.WithLabelValues(predicate).Inc()
		r.PredicateChecksTotal.WithLabelValues(predicate, "error").Inc()
	case ok:
		r.PredicateChecksTotal.WithLabelValues(predicate, "pass").Inc()
	default:
		r.PredicateChecksTotal.WithLabelValues(predicate, "fail").Inc()
	}
}

// RecordViolation records a reported counterexample
func (r *Registry) RecordViolation(predicate string) {
	r.PredicateViolationsTotal.WithLabelValues(predicate).Inc()
}

// SetFrontier sets the number of states waiting for expansion
func (r *Registry) SetFrontier(strategy string, n int) {
	r.FrontierSize.WithLabelValues(strategy).Set(float64(n))
}

// SetTemperature sets the current annealing temperature
func (r *Registry) SetTemperature(t float64) {
	r.Temperature.Set(t)
}

// RunStarted marks a run as in flight
func (r *Registry) RunStarted() {
	r.RunsInFlight.Inc()
}

// RunFinished records the outcome of a run. Status is one of "complete",
// "incomplete" or "error".
func (r *Registry) RunFinished(strategy, status string, duration time.Duration) {
	r.RunsInFlight.Dec()
	r.RunsTotal.WithLabelValues(strategy, status).Inc()
	r.RunDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// UpdateSystemMetrics samples process metrics
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
