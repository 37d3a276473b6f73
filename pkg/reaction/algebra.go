package reaction

import (
	"fmt"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/matching"
)

// Algebra composes the successor of an agent from one rule occurrence.
type Algebra interface {
	Apply(agent *bigraph.Bigraph, rule *Rule, m *matching.Match) (*bigraph.Bigraph, error)
}

// Rewriter is the default Algebra. It never modifies the agent it is given.
type Rewriter struct{}

var _ Algebra = Rewriter{}

// Apply replaces the redex image of m by an instance of the reactum.
//
// The agent is cloned; the parameters are lifted out, the redex image is
// removed and the reactum is grown into each region. Reactum sites receive
// the parameter named by the instantiation map: the first reactum site
// takes the original places, later ones get copies with fresh internal
// edges. Parameters no reactum site asks for are discarded.
func (Rewriter) Apply(agent *bigraph.Bigraph, rule *Rule, m *matching.Match) (*bigraph.Bigraph, error) {
	if agent == nil || rule == nil || m == nil {
		return nil, fmt.Errorf("%w: nil argument", ErrCompositionInvalid)
	}
	reactum := rule.Reactum
	if len(m.Regions) != len(reactum.Roots()) {
		return nil, fmt.Errorf("%w: %d regions for %d reactum roots", ErrCompositionInvalid, len(m.Regions), len(reactum.Roots()))
	}
	siteMap := rule.SiteMap()
	if len(siteMap) != len(reactum.Sites()) {
		return nil, fmt.Errorf("%w: instantiation covers %d of %d reactum sites", ErrCompositionInvalid, len(siteMap), len(reactum.Sites()))
	}
	for _, s := range siteMap {
		if s < 0 || s >= len(m.Parameters) {
			return nil, fmt.Errorf("%w: redex site %d has no parameter", ErrCompositionInvalid, s)
		}
	}

	out, places, links := agent.Clone()
	rw := &rewrite{
		out:      out,
		rule:     rule,
		match:    m,
		links:    links,
		mapped:   make(map[*bigraph.Link]*bigraph.Link),
		params:   make([][]*bigraph.Place, len(m.Parameters)),
		planted:  make([]bool, len(m.Parameters)),
		internal: make([]map[*bigraph.Link]bool, len(m.Parameters)),
	}
	uses := make([]int, len(m.Parameters))
	for _, s := range siteMap {
		uses[s]++
	}

	for s, params := range m.Parameters {
		for _, p := range params {
			c, ok := places[p]
			if !ok {
				return nil, fmt.Errorf("%w: parameter %v is not in the agent", ErrCompositionInvalid, p)
			}
			out.Detach(c)
			rw.params[s] = append(rw.params[s], c)
		}
		if uses[s] > 1 {
			rw.internal[s] = internalEdges(rw.params[s])
		}
	}
	for _, x := range m.Embedding {
		c, ok := places[x]
		if !ok {
			return nil, fmt.Errorf("%w: image %v is not in the agent", ErrCompositionInvalid, x)
		}
		out.RemoveSubtree(c)
	}

	for i, root := range reactum.Roots() {
		region, ok := places[m.Regions[i]]
		if !ok {
			return nil, fmt.Errorf("%w: region %d is not in the agent", ErrCompositionInvalid, i)
		}
		for _, child := range root.Children {
			rw.grow(region, child)
		}
	}

	for s, params := range rw.params {
		if rw.planted[s] {
			continue
		}
		for _, p := range params {
			out.RemoveSubtree(p)
		}
	}

	out.Compact()
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionInvalid, err)
	}
	return out, nil
}

type rewrite struct {
	out   *bigraph.Bigraph
	rule  *Rule
	match *matching.Match

	// links translates agent links to their clones.
	links map[*bigraph.Link]*bigraph.Link

	// mapped translates reactum links to links of out.
	mapped map[*bigraph.Link]*bigraph.Link

	params  [][]*bigraph.Place
	planted []bool

	// internal[s] holds the edges whose points all lie in parameter s,
	// computed before the redex image is unlinked.
	internal []map[*bigraph.Link]bool
}

func internalEdges(params []*bigraph.Place) map[*bigraph.Link]bool {
	inside := make(map[*bigraph.Place]bool)
	for _, p := range params {
		bigraph.Walk(p, func(q *bigraph.Place) { inside[q] = true })
	}
	out := make(map[*bigraph.Link]bool)
	for q := range inside {
		for _, l := range q.Ports {
			if l == nil || l.Kind != bigraph.LinkEdge {
				continue
			}
			all := true
			for _, pt := range l.Points {
				if pt.Kind != bigraph.PointPort || !inside[pt.Node] {
					all = false
					break
				}
			}
			if all {
				out[l] = true
			}
		}
	}
	return out
}

func (rw *rewrite) grow(parent, p *bigraph.Place) {
	if p.Kind == bigraph.KindSite {
		rw.plant(parent, rw.rule.SiteMap()[p.Index])
		return
	}
	n := rw.out.AddNode(parent, p.Control)
	for i, l := range p.Ports {
		rw.out.Connect(n, i, rw.link(l))
	}
	for _, c := range p.Children {
		rw.grow(n, c)
	}
}

// link resolves a reactum link. Outer names follow the redex outer name of
// the same name into the agent; edges follow the redex link behind their
// inner name. Anything left unresolved becomes a fresh edge.
func (rw *rewrite) link(l *bigraph.Link) *bigraph.Link {
	if out, ok := rw.mapped[l]; ok {
		return out
	}
	redex := rw.rule.Redex
	var target *bigraph.Link
	if l.Kind == bigraph.LinkOuterName {
		if rl, ok := redex.OuterName(l.Name); ok {
			target = rw.image(rl)
		}
	} else {
		for _, pt := range l.Points {
			if pt.Kind != bigraph.PointInnerName {
				continue
			}
			if rl, ok := redex.InnerLink(pt.Name); ok {
				if target = rw.image(rl); target != nil {
					break
				}
			}
		}
	}
	if target == nil {
		target = rw.out.NewEdge()
	}
	rw.mapped[l] = target
	return target
}

func (rw *rewrite) image(rl *bigraph.Link) *bigraph.Link {
	if a, ok := rw.match.LinkImage[rl]; ok {
		return rw.links[a]
	}
	return nil
}

// plant puts the parameter of redex site s under parent.
func (rw *rewrite) plant(parent *bigraph.Place, s int) {
	if !rw.planted[s] {
		rw.planted[s] = true
		for _, p := range rw.params[s] {
			rw.out.Attach(parent, p)
		}
		return
	}

	fresh := make(map[*bigraph.Link]*bigraph.Link)
	for _, p := range rw.params[s] {
		rw.copyTree(parent, p, rw.internal[s], fresh)
	}
}

func (rw *rewrite) copyTree(parent, p *bigraph.Place, internal map[*bigraph.Link]bool, fresh map[*bigraph.Link]*bigraph.Link) {
	n := rw.out.AddNode(parent, p.Control)
	for i, l := range p.Ports {
		if l == nil {
			continue
		}
		if internal[l] {
			c, ok := fresh[l]
			if !ok {
				c = rw.out.NewEdge()
				fresh[l] = c
			}
			l = c
		}
		rw.out.Connect(n, i, l)
	}
	for _, c := range p.Children {
		rw.copyTree(n, c, internal, fresh)
	}
}
