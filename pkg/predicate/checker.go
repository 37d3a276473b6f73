package predicate

import (
	"fmt"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/reactiongraph"
)

// Result is the outcome of one predicate on one state.
type Result struct {
	Predicate Predicate
	Holds     bool
	Err       error
}

// Checker evaluates a fixed set of predicates. Results are never cached;
// every state is evaluated afresh.
type Checker struct {
	preds []Predicate
}

// NewChecker creates a checker for the given predicates.
func NewChecker(preds ...Predicate) *Checker {
	return &Checker{preds: preds}
}

// Predicates returns the registered predicates.
func (c *Checker) Predicates() []Predicate {
	return c.preds
}

// Len returns the number of registered predicates.
func (c *Checker) Len() int {
	return len(c.preds)
}

// Evaluate tests every predicate against b. A predicate that errors or
// panics yields a Result with Err wrapping ErrEvaluation and Holds false.
func (c *Checker) Evaluate(b *bigraph.Bigraph) []Result {
	out := make([]Result, len(c.preds))
	for i, p := range c.preds {
		ok, err := test(p, b)
		out[i] = Result{Predicate: p, Holds: ok && err == nil, Err: err}
	}
	return out
}

// Satisfied reports whether every result holds.
func Satisfied(results []Result) bool {
	for _, r := range results {
		if !r.Holds {
			return false
		}
	}
	return true
}

func test(p Predicate, b *bigraph.Bigraph) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("%w: %s: panic: %v", ErrEvaluation, p.Name(), r)
		}
	}()
	ok, err = p.Test(b)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrEvaluation, p.Name(), err)
	}
	return ok, nil
}

// Counterexample returns the shortest trace in g from the initial state to
// the violating state.
func Counterexample(g *reactiongraph.Graph, violating uint64) (*reactiongraph.Path, error) {
	first := g.Initial()
	if first == nil {
		return nil, fmt.Errorf("%w: empty graph", ErrNoPath)
	}
	path, ok := g.ShortestPath(first.ID, violating)
	if !ok {
		return nil, fmt.Errorf("%w: state %d unreachable from %d", ErrNoPath, violating, first.ID)
	}
	return path, nil
}
