package checker

import (
	"errors"
	"time"

	"github.com/dd0wney/cluso-bigraph/pkg/logging"
	"github.com/dd0wney/cluso-bigraph/pkg/metrics"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// RunInfo identifies a run.
type RunInfo struct {
	ID         string
	Strategy   string
	Rules      int
	Predicates int
}

// Summary describes a finished run.
type Summary struct {
	RunInfo
	States        int
	Transitions   int
	Reactions     int
	NullReactions int
	Violations    int
	Incomplete    bool
	Reason        string
	Duration      time.Duration
	Err           error
}

// Listener observes a run. Callbacks are made from the goroutine driving
// the run, never concurrently for one run.
type Listener interface {
	OnRunStarted(info RunInfo)
	OnRuleChecked(state uint64, rule string, occurrences int, elapsed time.Duration)
	OnReactionApplies(t reactiongraph.Transition, fresh bool)
	OnReactionIsNull(state uint64, rule string, occurrence int, err error)
	OnStateExpanded(state uint64, successors, frontier int)
	OnEpoch(epoch int, temperature float64)
	OnPredicateMatched(state uint64, predicate string)
	OnPredicateViolated(state uint64, predicate string, counterexample *reactiongraph.Path)
	OnError(err error)
	OnRunFinished(s Summary)
}

// NopListener ignores every event. Embed it to implement part of Listener.
type NopListener struct{}

func (NopListener) OnRunStarted(RunInfo)                                    {}
func (NopListener) OnRuleChecked(uint64, string, int, time.Duration)        {}
func (NopListener) OnReactionApplies(reactiongraph.Transition, bool)        {}
func (NopListener) OnReactionIsNull(uint64, string, int, error)             {}
func (NopListener) OnStateExpanded(uint64, int, int)                        {}
func (NopListener) OnEpoch(int, float64)                                    {}
func (NopListener) OnPredicateMatched(uint64, string)                       {}
func (NopListener) OnPredicateViolated(uint64, string, *reactiongraph.Path) {}
func (NopListener) OnError(error)                                           {}
func (NopListener) OnRunFinished(Summary)                                   {}

// Listeners fans every event out in order. Nil entries are skipped.
type Listeners []Listener

func (ls Listeners) OnRunStarted(info RunInfo) {
	for _, l := range ls {
		if l != nil {
			l.OnRunStarted(info)
		}
	}
}

func (ls Listeners) OnRuleChecked(state uint64, rule string, occurrences int, elapsed time.Duration) {
	for _, l := range ls {
		if l != nil {
			l.OnRuleChecked(state, rule, occurrences, elapsed)
		}
	}
}

func (ls Listeners) OnReactionApplies(t reactiongraph.Transition, fresh bool) {
	for _, l := range ls {
		if l != nil {
			l.OnReactionApplies(t, fresh)
		}
	}
}

func (ls Listeners) OnReactionIsNull(state uint64, rule string, occurrence int, err error) {
	for _, l := range ls {
		if l != nil {
			l.OnReactionIsNull(state, rule, occurrence, err)
		}
	}
}

func (ls Listeners) OnStateExpanded(state uint64, successors, frontier int) {
	for _, l := range ls {
		if l != nil {
			l.OnStateExpanded(state, successors, frontier)
		}
	}
}

func (ls Listeners) OnEpoch(epoch int, temperature float64) {
	for _, l := range ls {
		if l != nil {
			l.OnEpoch(epoch, temperature)
		}
	}
}

func (ls Listeners) OnPredicateMatched(state uint64, predicate string) {
	for _, l := range ls {
		if l != nil {
			l.OnPredicateMatched(state, predicate)
		}
	}
}

func (ls Listeners) OnPredicateViolated(state uint64, predicate string, counterexample *reactiongraph.Path) {
	for _, l := range ls {
		if l != nil {
			l.OnPredicateViolated(state, predicate, counterexample)
		}
	}
}

func (ls Listeners) OnError(err error) {
	for _, l := range ls {
		if l != nil {
			l.OnError(err)
		}
	}
}

func (ls Listeners) OnRunFinished(s Summary) {
	for _, l := range ls {
		if l != nil {
			l.OnRunFinished(s)
		}
	}
}

// LoggingListener writes run events to a structured logger: boundaries at
// info, per-state work at debug, null reactions and errors at warn.
type LoggingListener struct {
	Logger logging.Logger
}

func (l LoggingListener) OnRunStarted(info RunInfo) {
	l.Logger.Info("run started",
		logging.Count(info.Rules),
		logging.Int("predicates", info.Predicates))
}

func (l LoggingListener) OnRuleChecked(state uint64, rule string, occurrences int, elapsed time.Duration) {
	if !logging.Enabled(l.Logger, logging.DebugLevel) {
		return
	}
	l.Logger.Debug("rule checked",
		logging.StateID(state),
		logging.Rule(rule),
		logging.Count(occurrences),
		logging.Latency(elapsed))
}

func (l LoggingListener) OnReactionApplies(t reactiongraph.Transition, fresh bool) {
	if !logging.Enabled(l.Logger, logging.DebugLevel) {
		return
	}
	l.Logger.Debug("reaction applies",
		logging.StateID(t.From),
		logging.Uint64("to", t.To),
		logging.Rule(t.Rule),
		logging.Bool("fresh", fresh))
}

func (l LoggingListener) OnReactionIsNull(state uint64, rule string, occurrence int, err error) {
	l.Logger.Warn("reaction is null",
		logging.StateID(state),
		logging.Rule(rule),
		logging.Int("occurrence", occurrence),
		logging.Error(err))
}

func (l LoggingListener) OnStateExpanded(state uint64, successors, frontier int) {
	if !logging.Enabled(l.Logger, logging.DebugLevel) {
		return
	}
	l.Logger.Debug("state expanded",
		logging.StateID(state),
		logging.Count(successors),
		logging.Int("frontier", frontier))
}

func (l LoggingListener) OnEpoch(epoch int, temperature float64) {
	l.Logger.Debug("epoch",
		logging.Int("epoch", epoch),
		logging.Temperature(temperature))
}

func (l LoggingListener) OnPredicateMatched(state uint64, predicate string) {
	l.Logger.Debug("predicate matched",
		logging.StateID(state),
		logging.Predicate(predicate))
}

func (l LoggingListener) OnPredicateViolated(state uint64, predicate string, counterexample *reactiongraph.Path) {
	l.Logger.Info("predicate violated",
		logging.StateID(state),
		logging.Predicate(predicate),
		logging.Int("trace_length", len(counterexample.Transitions)))
}

func (l LoggingListener) OnError(err error) {
	l.Logger.Warn("run error", logging.Error(err))
}

func (l LoggingListener) OnRunFinished(s Summary) {
	fields := []logging.Field{
		logging.Int("states", s.States),
		logging.Int("transitions", s.Transitions),
		logging.Int("null_reactions", s.NullReactions),
		logging.Int("violations", s.Violations),
		logging.Bool("incomplete", s.Incomplete),
		logging.Latency(s.Duration),
	}
	if s.Reason != "" {
		fields = append(fields, logging.String("reason", s.Reason))
	}
	if s.Err != nil {
		l.Logger.Error("run failed", append(fields, logging.Error(s.Err))...)
		return
	}
	l.Logger.Info("run finished", fields...)
}

// MetricsListener records run events in a metrics registry.
type MetricsListener struct {
	NopListener
	Registry *metrics.Registry
	Strategy string
}

func (m MetricsListener) OnRunStarted(RunInfo) {
	m.Registry.RunStarted()
}

func (m MetricsListener) OnRuleChecked(_ uint64, rule string, occurrences int, elapsed time.Duration) {
	m.Registry.RecordRuleMatch(rule, occurrences, elapsed)
}

func (m MetricsListener) OnReactionApplies(t reactiongraph.Transition, fresh bool) {
	m.Registry.RecordReaction(m.Strategy, t.Rule, false)
	if fresh {
		m.Registry.RecordState(m.Strategy)
	}
}

func (m MetricsListener) OnReactionIsNull(_ uint64, rule string, _ int, _ error) {
	m.Registry.RecordReaction(m.Strategy, rule, true)
}

func (m MetricsListener) OnStateExpanded(_ uint64, _ int, frontier int) {
	m.Registry.SetFrontier(m.Strategy, frontier)
}

func (m MetricsListener) OnEpoch(_ int, temperature float64) {
	m.Registry.SetTemperature(temperature)
}

func (m MetricsListener) OnPredicateMatched(_ uint64, predicate string) {
	m.Registry.RecordPredicate(predicate, true, nil)
}

func (m MetricsListener) OnPredicateViolated(_ uint64, predicate string, _ *reactiongraph.Path) {
	m.Registry.RecordPredicate(predicate, false, nil)
	m.Registry.RecordViolation(predicate)
}

func (m MetricsListener) OnError(err error) {
	var re *RunError
	if !errors.As(err, &re) {
		return
	}
	switch {
	case re.Kind == ErrMatcherPanic:
		m.Registry.RecordRulePanic(re.Rule)
	case re.Kind == ErrPredicateEvaluation && re.Predicate != "":
		m.Registry.RecordPredicate(re.Predicate, false, err)
	}
}

func (m MetricsListener) OnRunFinished(s Summary) {
	status := "complete"
	switch {
	case s.Err != nil:
		status = "error"
	case s.Incomplete:
		status = "incomplete"
	}
	m.Registry.RunFinished(s.Strategy, status, s.Duration)
}
