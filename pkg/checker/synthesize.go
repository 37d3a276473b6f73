package checker

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/logging"
	"github.com/dd0wney/cluso-bigraph/pkg/predicate"
	"github.com/dd0wney/cluso-bigraph/pkg/reaction"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// Synthesize explores the state space of agent under rules and returns the
// reaction graph. Predicates are checked on every expanded state.
//
// Invalid options or rules fail with ErrConfiguration and an agent that is
// not ground and prime fails with ErrStructuralPrecondition, both before any
// state is expanded. A spent budget is not an error: the graph is returned
// marked incomplete. When ctx is cancelled the partial graph is returned
// together with ctx.Err().
func Synthesize(ctx context.Context, agent *bigraph.Bigraph, rules []*reaction.Rule, preds []predicate.Predicate, opts Options) (*reactiongraph.Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	for i, rule := range rules {
		if rule == nil {
			return nil, configError("rule %d is nil", i)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %s: %w", ErrConfiguration, rule.Name, err)
		}
	}
	for i, p := range preds {
		if p == nil {
			return nil, configError("predicate %d is nil", i)
		}
	}
	if err := checkAgent(agent); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	r := &run{
		id:      uuid.NewString(),
		ctx:     ctx,
		opts:    opts,
		rules:   rules,
		checker: predicate.NewChecker(preds...),
		graph:   reactiongraph.New(),
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed)),
		start:   time.Now(),
	}
	strategy := opts.Strategy.Name()
	logger := opts.Logger.With(logging.RunID(r.id), logging.Strategy(strategy))
	listeners := Listeners{LoggingListener{Logger: logger}}
	if opts.Metrics != nil {
		listeners = append(listeners, MetricsListener{Registry: opts.Metrics, Strategy: strategy})
	}
	r.listener = append(listeners, opts.Listener)

	r.graph.AddState(opts.Encoder.Encode(agent), agent)
	info := RunInfo{ID: r.id, Strategy: strategy, Rules: len(rules), Predicates: len(preds)}
	r.listener.OnRunStarted(info)

	err := opts.Strategy.explore(r)
	if err == nil {
		err = ctx.Err()
	}
	r.listener.OnRunFinished(Summary{
		RunInfo:       info,
		States:        r.graph.StateCount(),
		Transitions:   r.graph.TransitionCount(),
		Reactions:     r.reactions,
		NullReactions: r.nulls,
		Violations:    r.violations,
		Incomplete:    r.graph.Incomplete(),
		Reason:        r.graph.IncompleteReason(),
		Duration:      time.Since(r.start),
		Err:           err,
	})
	return r.graph, err
}

// checkAgent enforces the structural preconditions on the initial state.
func checkAgent(agent *bigraph.Bigraph) error {
	switch {
	case agent == nil:
		return NewError("synthesize", ErrStructuralPrecondition).
			Cause(errors.New("nil agent")).Err()
	case !agent.IsGround():
		return NewError("synthesize", ErrStructuralPrecondition).
			Cause(fmt.Errorf("agent has %d sites", len(agent.Sites()))).Err()
	case !agent.IsPrime():
		return NewError("synthesize", ErrStructuralPrecondition).
			Cause(fmt.Errorf("agent has %d roots", len(agent.Roots()))).Err()
	}
	if err := agent.Validate(); err != nil {
		return NewError("synthesize", ErrStructuralPrecondition).Cause(err).Err()
	}
	return nil
}
