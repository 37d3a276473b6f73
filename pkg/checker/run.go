package checker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// Reasons recorded on an incomplete graph.
const (
	ReasonTransitions = "transition budget exhausted"
	ReasonTime        = "time budget exhausted"
	ReasonCancelled   = "cancelled"
	ReasonGoal        = "goal reached"
	ReasonEpochs      = "epoch limit reached"
)

// run is the state of one exploration. Only the goroutine calling explore
// touches it; rule matching tasks receive copies of what they need.
type run struct {
	id       string
	ctx      context.Context
	opts     Options
	rules    []*reaction.Rule
	checker  *predicate.Checker
	graph    *reactiongraph.Graph
	listener Listener
	rng      *rand.Rand
	start    time.Time

	reactions  int
	nulls      int
	violations int
}

// reactionResult is the outcome of one occurrence of a rule.
type reactionResult struct {
	rule       *reaction.Rule
	occurrence int
	next       *bigraph.Bigraph
	form       string
	err        error
}

// ruleOutcome is everything matching one rule against one state produced.
type ruleOutcome struct {
	rule      *reaction.Rule
	reactions []reactionResult
	matches   int
	elapsed   time.Duration
	err       error
	// kind is ErrMatcherPanic or ErrMatching when err is set
	kind error
}

// budgetSpent reports whether the run must stop before the next expansion
// and marks the graph incomplete if so.
func (r *run) budgetSpent() bool {
	reason := ""
	switch {
	case r.ctx.Err() != nil:
		reason = ReasonCancelled
	case r.opts.MaximumTransitions > 0 && r.reactions >= r.opts.MaximumTransitions:
		reason = ReasonTransitions
	case r.opts.MaximumTime > 0 && time.Since(r.start) >= r.opts.MaximumTime:
		reason = ReasonTime
	default:
		return false
	}
	r.graph.MarkIncomplete(reason)
	return true
}

// exhaust drives the exhaustive strategies. Every state leaves the frontier
// once, is expanded and then has its predicates checked.
func (r *run) exhaust(f frontier) error {
	f.push(r.graph.Initial())
	for f.len() > 0 {
		if r.budgetSpent() {
			break
		}
		st, _ := f.pop()
		results := r.expand(st)
		fresh := r.emit(st, results, r.opts.AllowCyclesInGraph)
		for _, s := range fresh {
			f.push(s)
		}
		r.listener.OnStateExpanded(st.ID, len(results), f.len())
		r.checkPredicates(st)
	}
	return nil
}

// expand matches every rule against the state. Rules run concurrently when
// ParallelRuleMatching is set; the results keep rule order either way.
func (r *run) expand(st *reactiongraph.State) []reactionResult {
	outcomes := make([]ruleOutcome, len(r.rules))
	if r.opts.ParallelRuleMatching && len(r.rules) > 1 {
		var g errgroup.Group
		g.SetLimit(runtime.NumCPU())
		for i, rule := range r.rules {
			g.Go(func() error {
				outcomes[i] = matchRule(st.Bigraph, rule, r.opts.Algebra, r.opts.Encoder)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, rule := range r.rules {
			outcomes[i] = matchRule(st.Bigraph, rule, r.opts.Algebra, r.opts.Encoder)
		}
	}

	var out []reactionResult
	for _, o := range outcomes {
		r.listener.OnRuleChecked(st.ID, o.rule.Name, o.matches, o.elapsed)
		if o.err != nil {
			r.listener.OnError(NewError("match", o.kind).
				Run(r.id).State(st.ID).Rule(o.rule.Name).Cause(o.err).Err())
			continue
		}
		out = append(out, o.reactions...)
	}
	return out
}

// matchRule finds and rewrites every occurrence of rule in agent. A panic
// anywhere in matching or rewriting discards the rule for this state.
func matchRule(agent *bigraph.Bigraph, rule *reaction.Rule, alg reaction.Algebra, enc Encoder) (out ruleOutcome) {
	out.rule = rule
	start := time.Now()
	defer func() {
		out.elapsed = time.Since(start)
		if p := recover(); p != nil {
			out.reactions = nil
			out.err = fmt.Errorf("%v", p)
			out.kind = ErrMatcherPanic
		}
	}()

	embs, err := matching.Find(rule.Redex, agent)
	if err != nil {
		out.err = err
		out.kind = ErrMatching
		return out
	}
	out.matches = len(embs)
	out.reactions = make([]reactionResult, len(embs))
	for i, emb := range embs {
		res := reactionResult{rule: rule, occurrence: i}
		m, err := matching.BuildMatch(rule.Redex, agent, emb)
		if err == nil {
			res.next, err = alg.Apply(agent, rule, m)
		}
		switch {
		case err != nil:
			res.err = err
		case res.next == nil:
			res.err = reaction.ErrCompositionInvalid
		default:
			res.form = enc.Encode(res.next)
		}
		out.reactions[i] = res
	}
	return out
}

// emit reduces reaction results into the graph. It returns the states seen
// for the first time. Transitions into known states are only recorded when
// recordKnown is set.
func (r *run) emit(from *reactiongraph.State, results []reactionResult, recordKnown bool) []*reactiongraph.State {
	var fresh []*reactiongraph.State
	for _, res := range results {
		r.reactions++
		if res.err != nil {
			r.nulls++
			r.listener.OnReactionIsNull(from.ID, res.rule.Name, res.occurrence,
				NewError("rewrite", ErrMatchConstruction).
					Run(r.id).State(from.ID).Rule(res.rule.Name).Cause(res.err).Err())
			continue
		}
		to, added := r.graph.AddState(res.form, res.next)
		if !added && !recordKnown {
			continue
		}
		t := reactiongraph.Transition{From: from.ID, To: to.ID, Rule: res.rule.Name, Occurrence: res.occurrence}
		r.graph.AddTransition(t)
		r.listener.OnReactionApplies(t, added)
		if added {
			fresh = append(fresh, to)
		}
	}
	return fresh
}

// checkPredicates evaluates every predicate on an expanded state and reports
// a counterexample for each one that fails.
func (r *run) checkPredicates(st *reactiongraph.State) {
	results := r.checker.Evaluate(st.Bigraph)
	for _, res := range results {
		name := res.Predicate.Name()
		switch {
		case res.Err != nil:
			r.listener.OnError(NewError("evaluate", ErrPredicateEvaluation).
				Run(r.id).State(st.ID).Predicate(name).Cause(res.Err).Err())
		case res.Holds:
			r.listener.OnPredicateMatched(st.ID, name)
		default:
			path, err := predicate.Counterexample(r.graph, st.ID)
			if err != nil {
				r.listener.OnError(NewError("counterexample", ErrPredicateEvaluation).
					Run(r.id).State(st.ID).Predicate(name).Cause(err).Err())
				continue
			}
			r.violations++
			r.listener.OnPredicateViolated(st.ID, name, path)
		}
	}
	r.graph.SetSatisfying(st.ID, predicate.Satisfied(results))
}
