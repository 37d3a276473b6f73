package checker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/canonical"
	"github.com/dd0wney/cluso-bigraph/pkg/logging"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

func TestSynthesizeRoomUserOneStep(t *testing.T) {
	rec := &recorder{}
	opts := options(BFS(), rec)
	opts.MaximumTransitions = 1

	g, err := Synthesize(context.Background(), roomAgent(), []*reaction.Rule{enterRule()}, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, g.StateCount())
	assert.Len(t, g.Outgoing(g.Initial().ID), 1)
	assert.True(t, g.Incomplete())
	assert.Equal(t, ReasonTransitions, g.IncompleteReason())

	next, ok := g.State(2)
	require.True(t, ok)
	assert.Equal(t, canonical.NewEncoder().Encode(usersInRoom(2)), next.Canonical)

	s := rec.summary(t)
	assert.Equal(t, "bfs", s.Strategy)
	assert.Equal(t, 1, s.Reactions)
	assert.NotEmpty(t, s.ID)
	require.Len(t, rec.started, 1)
	assert.Equal(t, s.ID, rec.started[0].ID)
}

func TestSynthesizeCycleDedup(t *testing.T) {
	for _, strategy := range []Strategy{BFS(), DFS()} {
		t.Run(strategy.Name(), func(t *testing.T) {
			opts := options(strategy, nil)
			g, err := Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
			require.NoError(t, err)
			assert.Equal(t, 2, g.StateCount())
			assert.Equal(t, 2, g.TransitionCount())
			assert.False(t, g.Incomplete())
			assert.Len(t, g.Cycles(), 1)

			opts.AllowCyclesInGraph = false
			g, err = Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
			require.NoError(t, err)
			assert.Equal(t, 2, g.StateCount())
			assert.Equal(t, 1, g.TransitionCount())
		})
	}
}

func TestSynthesizeCounterexample(t *testing.T) {
	rec := &recorder{}
	opts := options(BFS(), rec)
	opts.MaximumTransitions = 3

	g, err := Synthesize(context.Background(), roomAgent(), []*reaction.Rule{enterRule()}, []predicate.Predicate{atMostUsers(2)}, opts)
	require.NoError(t, err)
	require.Len(t, rec.violated, 1)

	v := rec.violated[0]
	assert.Equal(t, "at-most-users", v.predicate)
	assert.Equal(t, uint64(3), v.state)

	path := v.path
	require.NotNil(t, path)
	require.Len(t, path.States, len(path.Transitions)+1)
	assert.Equal(t, g.Initial().ID, path.States[0].ID)
	assert.Equal(t, v.state, path.States[len(path.States)-1].ID)
	for i, tr := range path.Transitions {
		assert.Equal(t, path.States[i].ID, tr.From)
		assert.Equal(t, path.States[i+1].ID, tr.To)
		assert.Contains(t, g.Outgoing(tr.From), tr)
	}

	assert.True(t, g.Satisfying(1))
	assert.True(t, g.Satisfying(2))
	assert.False(t, g.Satisfying(3))
	assert.Equal(t, []string{"at-most-users", "at-most-users"}, rec.matched)
	assert.Equal(t, 1, rec.summary(t).Violations)
}

func TestSynthesizePredicateErrorIsReported(t *testing.T) {
	rec := &recorder{}
	broken := predicate.Func("broken", func(*bigraph.Bigraph) (bool, error) {
		return false, errors.New("cannot evaluate")
	})

	g, err := Synthesize(context.Background(), single("A"), flipRules(), []predicate.Predicate{broken}, options(BFS(), rec))
	require.NoError(t, err)
	assert.Equal(t, 2, g.StateCount())
	require.Len(t, rec.errs, 2)
	for _, err := range rec.errs {
		assert.ErrorIs(t, err, ErrPredicateEvaluation)
		var re *RunError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "broken", re.Predicate)
	}
	assert.Empty(t, rec.violated)
	assert.False(t, g.Satisfying(1))
}

func TestSynthesizeNullReactions(t *testing.T) {
	tests := []struct {
		name    string
		algebra reaction.Algebra
		want    error
	}{
		{"error", algebraFunc(func(*bigraph.Bigraph, *reaction.Rule, *matching.Match) (*bigraph.Bigraph, error) {
			return nil, errRewrite
		}), errRewrite},
		{"nil result", algebraFunc(func(*bigraph.Bigraph, *reaction.Rule, *matching.Match) (*bigraph.Bigraph, error) {
			return nil, nil
		}), reaction.ErrCompositionInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			opts := options(BFS(), rec)
			opts.Algebra = tt.algebra

			g, err := Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
			require.NoError(t, err)
			assert.Equal(t, 1, g.StateCount())
			assert.Zero(t, g.TransitionCount())
			require.Len(t, rec.nulls, 1)
			assert.ErrorIs(t, rec.nulls[0], ErrMatchConstruction)
			assert.ErrorIs(t, rec.nulls[0], tt.want)

			s := rec.summary(t)
			assert.Equal(t, 1, s.Reactions)
			assert.Equal(t, 1, s.NullReactions)
		})
	}
}

func TestSynthesizeRecoversMatcherPanic(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		rec := &recorder{}
		opts := options(BFS(), rec)
		opts.ParallelRuleMatching = parallel
		opts.Algebra = algebraFunc(func(agent *bigraph.Bigraph, rule *reaction.Rule, m *matching.Match) (*bigraph.Bigraph, error) {
			if rule.Name == "flip" {
				panic("boom")
			}
			return reaction.Rewriter{}.Apply(agent, rule, m)
		})

		g, err := Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, g.StateCount())
		require.Len(t, rec.errs, 1)
		assert.ErrorIs(t, rec.errs[0], ErrMatcherPanic)
		assert.Contains(t, rec.errs[0].Error(), "boom")
		assert.Equal(t, []string{"flip", "flop"}, rec.checked)
		assert.NoError(t, rec.summary(t).Err)
	}
}

func TestMatcherErrorIsNotAPanic(t *testing.T) {
	// a root without nodes passes no rule validation but reaches the matcher
	bd := bigraph.NewBuilder(sig)
	bd.Node(bd.Root(), "A")
	bd.Root()
	rule := &reaction.Rule{Name: "hollow", Redex: bd.MustBuild(), Reactum: single("B")}

	rec := &recorder{}
	r := &run{id: "run-1", opts: options(BFS(), rec), rules: []*reaction.Rule{rule}, listener: rec}
	out := r.expand(&reactiongraph.State{ID: 1, Bigraph: single("A")})

	assert.Empty(t, out)
	assert.Equal(t, []string{"hollow"}, rec.checked)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], ErrMatching)
	assert.ErrorIs(t, rec.errs[0], matching.ErrEmptyRedex)
	assert.NotErrorIs(t, rec.errs[0], ErrMatcherPanic)
	assert.False(t, IsFatal(rec.errs[0]))
}

func TestSynthesizeParallelMatchesSerial(t *testing.T) {
	rules := append(flipRules(), enterRule())
	run := func(parallel bool) []reactiongraph.Transition {
		opts := options(BFS(), nil)
		opts.ParallelRuleMatching = parallel
		opts.MaximumTransitions = 20
		g, err := Synthesize(context.Background(), mixedAgent(), rules, nil, opts)
		require.NoError(t, err)
		return g.Transitions()
	}

	serial := run(false)
	assert.NotEmpty(t, serial)
	if diff := cmp.Diff(serial, run(true)); diff != "" {
		t.Errorf("parallel run differs (-serial +parallel):\n%s", diff)
	}
}

func TestDFSGoesDeeperThanBFS(t *testing.T) {
	rules := append(flipRules(), enterRule())
	depth := func(s Strategy) int {
		opts := options(s, nil)
		opts.MaximumTransitions = 6
		g, err := Synthesize(context.Background(), mixedAgent(), rules, nil, opts)
		require.NoError(t, err)
		deepest := 0
		for _, d := range g.Depths() {
			deepest = max(deepest, d)
		}
		return deepest
	}

	assert.Equal(t, 2, depth(BFS()))
	assert.Equal(t, 3, depth(DFS()))
}

func TestSynthesizeBudgets(t *testing.T) {
	t.Run("time", func(t *testing.T) {
		opts := options(BFS(), nil)
		opts.MaximumTime = time.Millisecond
		opts.Algebra = algebraFunc(func(agent *bigraph.Bigraph, rule *reaction.Rule, m *matching.Match) (*bigraph.Bigraph, error) {
			time.Sleep(5 * time.Millisecond)
			return reaction.Rewriter{}.Apply(agent, rule, m)
		})
		g, err := Synthesize(context.Background(), roomAgent(), []*reaction.Rule{enterRule()}, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, g.StateCount())
		assert.Equal(t, ReasonTime, g.IncompleteReason())
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rec := &recorder{}
		g, err := Synthesize(ctx, roomAgent(), []*reaction.Rule{enterRule()}, nil, options(BFS(), rec))
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, g)
		assert.Equal(t, 1, g.StateCount())
		assert.Equal(t, ReasonCancelled, g.IncompleteReason())
		assert.ErrorIs(t, rec.summary(t).Err, context.Canceled)
	})
}

func TestRandomWalk(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		rec := &recorder{}
		opts := options(Random(), rec)
		opts.MaximumTransitions = 3
		g, err := Synthesize(context.Background(), roomAgent(), []*reaction.Rule{enterRule()}, []predicate.Predicate{atMostUsers(1)}, opts)
		require.NoError(t, err)
		assert.Equal(t, 4, g.StateCount())
		assert.Equal(t, 3, g.TransitionCount())
		assert.Equal(t, ReasonTransitions, g.IncompleteReason())
		assert.Empty(t, rec.matched)
		assert.Empty(t, rec.violated)
	})

	t.Run("records known states", func(t *testing.T) {
		opts := options(Random(), nil)
		opts.MaximumTransitions = 4
		opts.AllowCyclesInGraph = false
		g, err := Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, g.StateCount())
		assert.Equal(t, 4, g.TransitionCount())
	})

	t.Run("stops at deadlock", func(t *testing.T) {
		opts := options(Random(), nil)
		opts.MaximumTransitions = 10
		g, err := Synthesize(context.Background(), single("A"), flipRules()[:1], nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, g.StateCount())
		assert.False(t, g.Incomplete())
		assert.Equal(t, []uint64{2}, g.Deadlocks())
	})

	t.Run("seeded", func(t *testing.T) {
		walk := func() []reactiongraph.Transition {
			opts := options(Random(), nil)
			opts.MaximumTransitions = 12
			opts.Seed = 42
			g, err := Synthesize(context.Background(), mixedAgent(), append(flipRules(), enterRule()), nil, opts)
			require.NoError(t, err)
			return g.Transitions()
		}
		assert.Equal(t, walk(), walk())
	})
}

func TestSynthesizeConfigurationErrors(t *testing.T) {
	invalid := &reaction.Rule{Name: "broken", Reactum: single("A")}
	tests := []struct {
		name  string
		opts  func() Options
		rules []*reaction.Rule
		preds []predicate.Predicate
	}{
		{"no strategy", func() Options { return Options{} }, flipRules(), nil},
		{"negative transitions", func() Options {
			o := DefaultOptions()
			o.MaximumTransitions = -1
			return o
		}, flipRules(), nil},
		{"random without budget", func() Options { return options(Random(), nil) }, flipRules(), nil},
		{"annealing without goals", func() Options { return options(SimulatedAnnealing(DefaultAnnealingParams()), nil) }, flipRules(), nil},
		{"bad schedule", func() Options {
			p := DefaultAnnealingParams(single("B"))
			p.Schedule = Geometric{Alpha: 1.5}
			return options(SimulatedAnnealing(p), nil)
		}, flipRules(), nil},
		{"nil rule", DefaultOptions, []*reaction.Rule{nil}, nil},
		{"invalid rule", DefaultOptions, []*reaction.Rule{invalid}, nil},
		{"nil predicate", DefaultOptions, flipRules(), []predicate.Predicate{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Synthesize(context.Background(), single("A"), tt.rules, tt.preds, tt.opts())
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.True(t, IsFatal(err))
			assert.Nil(t, g)
		})
	}
}

func TestSynthesizeStructuralPreconditions(t *testing.T) {
	withSite := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(sig)
		bd.Site(bd.Node(bd.Root(), "A"))
		return bd.MustBuild()
	}
	twoRoots := func() *bigraph.Bigraph {
		bd := bigraph.NewBuilder(sig)
		bd.Node(bd.Root(), "A")
		bd.Node(bd.Root(), "B")
		return bd.MustBuild()
	}

	for name, agent := range map[string]*bigraph.Bigraph{
		"nil":        nil,
		"not ground": withSite(),
		"not prime":  twoRoots(),
	} {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			g, err := Synthesize(context.Background(), agent, flipRules(), nil, options(BFS(), rec))
			assert.ErrorIs(t, err, ErrStructuralPrecondition)
			assert.True(t, IsFatal(err))
			assert.Nil(t, g)
			assert.Empty(t, rec.started)
		})
	}
}

func TestSynthesizeLogsRun(t *testing.T) {
	var buf bytes.Buffer
	opts := options(BFS(), nil)
	opts.Logger = logging.NewJSONLogger(&buf, logging.InfoLevel)

	_, err := Synthesize(context.Background(), single("A"), flipRules(), nil, opts)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"run started"`)
	assert.Contains(t, out, `"msg":"run finished"`)
	assert.Contains(t, out, `"strategy":"bfs"`)
	assert.Contains(t, out, `"run_id":`)
	assert.NotContains(t, out, `"level":"DEBUG"`)
}
