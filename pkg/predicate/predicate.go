// Package predicate evaluates state properties during a model checking run
// and extracts counterexample traces for the ones that fail.
package predicate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
)

var (
	// ErrEvaluation marks a predicate that returned an error or panicked.
	ErrEvaluation = errors.New("predicate: evaluation failed")
	// ErrNoPath is returned when no trace from the initial state reaches the
	// violating state in the graph built so far.
	ErrNoPath = errors.New("predicate: no path to violating state")
	// ErrInvalidPattern is returned for a pattern the matcher cannot use.
	ErrInvalidPattern = errors.New("predicate: invalid pattern")
)

// Predicate is a property of a single state.
type Predicate interface {
	Name() string
	Test(b *bigraph.Bigraph) (bool, error)
}

// SubMatcher is a predicate backed by a pattern. Matches returns the
// occurrences of the pattern, one per matched region.
type SubMatcher interface {
	Predicate
	Matches(b *bigraph.Bigraph) ([]*matching.Match, error)
}

// Pattern holds when its bigraph occurs in the state at least once.
type Pattern struct {
	name    string
	pattern *bigraph.Bigraph
}

var _ SubMatcher = (*Pattern)(nil)

// NewPattern creates a pattern predicate. Every root of the pattern must
// contain a node.
func NewPattern(name string, pattern *bigraph.Bigraph) (*Pattern, error) {
	if pattern == nil {
		return nil, fmt.Errorf("%w: %s: nil pattern", ErrInvalidPattern, name)
	}
	if err := pattern.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPattern, name, err)
	}
	if len(pattern.Roots()) == 0 {
		return nil, fmt.Errorf("%w: %s: no roots", ErrInvalidPattern, name)
	}
	for i, r := range pattern.Roots() {
		if len(r.NodeChildren()) == 0 {
			return nil, fmt.Errorf("%w: %s: root %d has no nodes", ErrInvalidPattern, name, i)
		}
	}
	return &Pattern{name: name, pattern: pattern}, nil
}

// Name returns the predicate name.
func (p *Pattern) Name() string { return p.name }

// Bigraph returns the pattern.
func (p *Pattern) Bigraph() *bigraph.Bigraph { return p.pattern }

// Test reports whether the pattern occurs in b.
func (p *Pattern) Test(b *bigraph.Bigraph) (bool, error) {
	embs, err := matching.Find(p.pattern, b)
	if err != nil {
		return false, err
	}
	return len(embs) > 0, nil
}

// Matches returns every occurrence of the pattern in b.
func (p *Pattern) Matches(b *bigraph.Bigraph) ([]*matching.Match, error) {
	embs, err := matching.Find(p.pattern, b)
	if err != nil {
		return nil, err
	}
	out := make([]*matching.Match, 0, len(embs))
	for _, e := range embs {
		m, err := matching.BuildMatch(p.pattern, b, e)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

type not struct{ p Predicate }

// Not negates a predicate. Not(pattern) states that the pattern never occurs.
func Not(p Predicate) Predicate { return not{p} }

func (n not) Name() string { return "!" + n.p.Name() }

func (n not) Test(b *bigraph.Bigraph) (bool, error) {
	ok, err := n.p.Test(b)
	return !ok && err == nil, err
}

type every struct {
	name  string
	preds []Predicate
}

// And holds when every operand holds. It stops at the first failure.
func And(preds ...Predicate) Predicate { return every{join(preds, " && "), preds} }

func (a every) Name() string { return a.name }

func (a every) Test(b *bigraph.Bigraph) (bool, error) {
	for _, p := range a.preds {
		ok, err := p.Test(b)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

type some struct {
	name  string
	preds []Predicate
}

// Or holds when some operand holds. It stops at the first success.
func Or(preds ...Predicate) Predicate { return some{join(preds, " || "), preds} }

func (a some) Name() string { return a.name }

func (a some) Test(b *bigraph.Bigraph) (bool, error) {
	for _, p := range a.preds {
		ok, err := p.Test(b)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func join(preds []Predicate, sep string) string {
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = p.Name()
	}
	return "(" + strings.Join(names, sep) + ")"
}

type fn struct {
	name string
	test func(*bigraph.Bigraph) (bool, error)
}

// Func adapts a function to a Predicate.
func Func(name string, test func(*bigraph.Bigraph) (bool, error)) Predicate {
	return fn{name, test}
}

func (f fn) Name() string { return f.name }

func (f fn) Test(b *bigraph.Bigraph) (bool, error) { return f.test(b) }
