package checker

import (
	"errors"
	"testing"
	"time"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

var sig = bigraph.MustSignature(
	bigraph.Control{Name: "Room", Arity: 1},
	bigraph.Control{Name: "User", Arity: 1},
	bigraph.Control{Name: "A", Arity: 0},
	bigraph.Control{Name: "B", Arity: 0},
)

// roomAgent builds Room[e0].(User[u1]).
func roomAgent() *bigraph.Bigraph {
	bd := bigraph.NewBuilder(sig)
	room := bd.Node(bd.Root(), "Room", "e0")
	bd.Node(room, "User", "u1")
	return bd.MustBuild()
}

// usersInRoom builds Room[e0] holding n nested users, the innermost on u1.
func usersInRoom(n int) *bigraph.Bigraph {
	bd := bigraph.NewBuilder(sig)
	p := bd.Node(bd.Root(), "Room", "e0")
	for i := 1; i < n; i++ {
		p = bd.Node(p, "User", "e0")
	}
	bd.Node(p, "User", "u1")
	return bd.MustBuild()
}

// enterRule rewrites Room[x].site to Room[x].(User[x].site).
func enterRule() *reaction.Rule {
	bd := bigraph.NewBuilder(sig)
	bd.Site(bd.Node(bd.Root(), "Room", "x"))
	redex := bd.MustBuild()

	bd = bigraph.NewBuilder(sig)
	room := bd.Node(bd.Root(), "Room", "x")
	bd.Site(bd.Node(room, "User", "x"))
	return &reaction.Rule{Name: "enter", Redex: redex, Reactum: bd.MustBuild()}
}

// swapRule rewrites a lone from node into a lone to node.
func swapRule(name, from, to string) *reaction.Rule {
	bd := bigraph.NewBuilder(sig)
	bd.Node(bd.Root(), from)
	redex := bd.MustBuild()
	bd = bigraph.NewBuilder(sig)
	bd.Node(bd.Root(), to)
	return &reaction.Rule{Name: name, Redex: redex, Reactum: bd.MustBuild()}
}

func flipRules() []*reaction.Rule {
	return []*reaction.Rule{swapRule("flip", "A", "B"), swapRule("flop", "B", "A")}
}

func single(control string) *bigraph.Bigraph {
	bd := bigraph.NewBuilder(sig)
	bd.Node(bd.Root(), control)
	return bd.MustBuild()
}

// mixedAgent builds A | Room[e0].
func mixedAgent() *bigraph.Bigraph {
	bd := bigraph.NewBuilder(sig)
	r := bd.Root()
	bd.Node(r, "A")
	bd.Node(r, "Room", "e0")
	return bd.MustBuild()
}

func atMostUsers(n int) predicate.Predicate {
	return predicate.Func("at-most-users", func(b *bigraph.Bigraph) (bool, error) {
		return b.ControlCounts()["User"] <= n, nil
	})
}

type violation struct {
	state     uint64
	predicate string
	path      *reactiongraph.Path
}

// recorder keeps every event of one run.
type recorder struct {
	NopListener
	started  []RunInfo
	finished []Summary
	checked  []string
	applied  []reactiongraph.Transition
	nulls    []error
	errs     []error
	matched  []string
	violated []violation
	epochs   []float64
	expanded []uint64
}

func (r *recorder) OnRunStarted(info RunInfo) { r.started = append(r.started, info) }
func (r *recorder) OnRunFinished(s Summary)   { r.finished = append(r.finished, s) }
func (r *recorder) OnError(err error)         { r.errs = append(r.errs, err) }

func (r *recorder) OnRuleChecked(_ uint64, rule string, _ int, _ time.Duration) {
	r.checked = append(r.checked, rule)
}

func (r *recorder) OnReactionApplies(t reactiongraph.Transition, _ bool) {
	r.applied = append(r.applied, t)
}

func (r *recorder) OnReactionIsNull(_ uint64, _ string, _ int, err error) {
	r.nulls = append(r.nulls, err)
}

func (r *recorder) OnStateExpanded(state uint64, _, _ int) {
	r.expanded = append(r.expanded, state)
}

func (r *recorder) OnEpoch(_ int, temperature float64) {
	r.epochs = append(r.epochs, temperature)
}

func (r *recorder) OnPredicateMatched(_ uint64, predicate string) {
	r.matched = append(r.matched, predicate)
}

func (r *recorder) OnPredicateViolated(state uint64, predicate string, path *reactiongraph.Path) {
	r.violated = append(r.violated, violation{state, predicate, path})
}

func (r *recorder) summary(t *testing.T) Summary {
	t.Helper()
	if len(r.finished) != 1 {
		t.Fatalf("OnRunFinished called %d times", len(r.finished))
	}
	return r.finished[0]
}

var errRewrite = errors.New("rewrite refused")

// algebraFunc adapts a function to reaction.Algebra.
type algebraFunc func(*bigraph.Bigraph, *reaction.Rule, *matching.Match) (*bigraph.Bigraph, error)

func (f algebraFunc) Apply(agent *bigraph.Bigraph, rule *reaction.Rule, m *matching.Match) (*bigraph.Bigraph, error) {
	return f(agent, rule, m)
}

func options(s Strategy, l Listener) Options {
	opts := DefaultOptions()
	opts.Strategy = s
	opts.Listener = l
	opts.AllowCyclesInGraph = true
	return opts
}
