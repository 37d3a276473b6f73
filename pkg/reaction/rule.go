// Package reaction holds reaction rules and the rewrite that applies one
// rule occurrence to an agent.
package reaction

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
)

var (
	// ErrInvalidRule is returned by Rule.Validate.
	ErrInvalidRule = errors.New("reaction: invalid rule")

	// ErrCompositionInvalid is returned when a match cannot be turned into
	// a well-formed successor.
	ErrCompositionInvalid = errors.New("reaction: composition invalid")
)

// Rule rewrites occurrences of Redex into Reactum.
//
// Instantiation maps every reactum site to the redex site whose parameter
// it receives. A nil Instantiation is the identity. Tracking optionally maps
// reactum node ids to the redex node ids they descend from.
type Rule struct {
	Name          string
	Redex         *bigraph.Bigraph
	Reactum       *bigraph.Bigraph
	Instantiation []int
	Tracking      map[int]int
}

// SiteMap returns the effective instantiation map.
func (r *Rule) SiteMap() []int {
	if r.Instantiation != nil {
		return r.Instantiation
	}
	out := make([]int, len(r.Reactum.Sites()))
	for i := range out {
		out[i] = i
	}
	return out
}

// Validate checks that the rule is well formed. All problems are reported.
func (r *Rule) Validate() error {
	if r.Redex == nil || r.Reactum == nil {
		return fmt.Errorf("%w %q: redex and reactum are required", ErrInvalidRule, r.Name)
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w %q: "+format, append([]any{ErrInvalidRule, r.Name}, args...)...))
	}

	if r.Name == "" {
		fail("name is empty")
	}
	if !r.Redex.Signature().Compatible(r.Reactum.Signature()) {
		fail("redex and reactum signatures differ")
	}
	if len(r.Redex.Roots()) != len(r.Reactum.Roots()) {
		fail("redex has %d roots, reactum %d", len(r.Redex.Roots()), len(r.Reactum.Roots()))
	}
	if len(r.Redex.Nodes()) == 0 {
		fail("redex has no nodes")
	}
	for _, root := range r.Redex.Roots() {
		if len(root.NodeChildren()) == 0 {
			fail("redex root %d holds no node", root.Index)
		}
	}

	redexSites := len(r.Redex.Sites())
	if r.Instantiation != nil && len(r.Instantiation) != len(r.Reactum.Sites()) {
		fail("instantiation covers %d of %d reactum sites", len(r.Instantiation), len(r.Reactum.Sites()))
	}
	for i, s := range r.SiteMap() {
		if s < 0 || s >= redexSites {
			fail("reactum site %d maps to missing redex site %d", i, s)
		}
	}

	for _, l := range r.Reactum.OuterNames() {
		if _, ok := r.Redex.OuterName(l.Name); !ok {
			fail("reactum outer name %s is not in the redex", l.Name)
		}
	}
	for _, name := range r.Reactum.InnerNames() {
		if _, ok := r.Redex.InnerLink(name); !ok {
			fail("reactum inner name %s is not in the redex", name)
		}
	}

	for to, from := range r.Tracking {
		if _, ok := r.Reactum.Node(to); !ok {
			fail("tracking refers to reactum node %d", to)
		}
		if _, ok := r.Redex.Node(from); !ok {
			fail("tracking refers to redex node %d", from)
		}
	}
	return errors.Join(errs...)
}

// Occurrences finds every match of the redex in agent.
func (r *Rule) Occurrences(agent *bigraph.Bigraph) ([]*matching.Match, error) {
	embs, err := matching.Find(r.Redex, agent)
	if err != nil {
		return nil, err
	}
	out := make([]*matching.Match, 0, len(embs))
	for _, emb := range embs {
		m, err := matching.BuildMatch(r.Redex, agent, emb)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Origin returns the agent node that reactum node n replaces under m, as
// recorded by Tracking.
func (r *Rule) Origin(m *matching.Match, n int) (*bigraph.Place, bool) {
	from, ok := r.Tracking[n]
	if !ok || from < 0 || from >= len(m.Embedding) {
		return nil, false
	}
	return m.Embedding[from], true
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s: %s -> %s", r.Name, r.Redex, r.Reactum)
}
