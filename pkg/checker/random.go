package checker

import (
	"errors"

	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

type random struct{}

// Random simulates a single trace. Every reaction of the current state is
// recorded, then the walk continues from one successor chosen uniformly at
// random. Predicates are not evaluated and known states are not skipped, so
// the run needs a transition or time budget.
func Random() Strategy { return random{} }

func (random) Name() string { return "random" }

func (random) validate(cv *validation.ConfigValidator, o Options) {
	cv.Custom("Strategy", func() error {
		if o.MaximumTransitions == 0 && o.MaximumTime == 0 {
			return errors.New("random walks need MaximumTransitions or MaximumTime")
		}
		return nil
	})
}

func (random) explore(r *run) error {
	current := r.graph.Initial()
	for !r.budgetSpent() {
		results := r.expand(current)
		r.emit(current, results, true)

		var next []*reactiongraph.State
		for _, res := range results {
			if res.err != nil {
				continue
			}
			s, _ := r.graph.Lookup(res.form)
			next = append(next, s)
		}
		r.listener.OnStateExpanded(current.ID, len(next), 0)
		if len(next) == 0 {
			return nil
		}
		current = next[r.rng.IntN(len(next))]
	}
	return nil
}
