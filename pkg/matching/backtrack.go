package matching

import (
	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// backtracker assigns redex nodes in breadth-first order. Recursion depth is
// bounded by the number of redex nodes.
type backtracker struct {
	s     *Search
	cands [][]*bigraph.Place

	assign  Embedding
	used    map[*bigraph.Place]bool
	regions []*bigraph.Place
	fwd     map[*bigraph.Link]*bigraph.Link
	rev     map[*bigraph.Link]*bigraph.Link

	found []Embedding
}

func newBacktracker(s *Search, cands [][]*bigraph.Place) *backtracker {
	return &backtracker{
		s:       s,
		cands:   cands,
		assign:  make(Embedding, len(s.nodes)),
		used:    make(map[*bigraph.Place]bool, len(s.nodes)),
		regions: make([]*bigraph.Place, len(s.redex.Roots())),
		fwd:     make(map[*bigraph.Link]*bigraph.Link),
		rev:     make(map[*bigraph.Link]*bigraph.Link),
	}
}

func (bt *backtracker) extend(k int) {
	if k == len(bt.s.order) {
		if bt.verify() {
			emb := make(Embedding, len(bt.assign))
			copy(emb, bt.assign)
			bt.found = append(bt.found, emb)
		}
		return
	}

	u := bt.s.order[k]
	for _, x := range bt.cands[u.Index] {
		if bt.used[x] {
			continue
		}
		setRegion, ok := bt.placeOK(u, x)
		if !ok {
			continue
		}
		bound, ok := bt.bindLinks(u, x)
		if ok {
			bt.assign[u.Index] = x
			bt.used[x] = true
			bt.extend(k + 1)
			bt.assign[u.Index] = nil
			delete(bt.used, x)
		}
		for _, rl := range bound {
			delete(bt.rev, bt.fwd[rl])
			delete(bt.fwd, rl)
		}
		if setRegion >= 0 {
			bt.regions[setRegion] = nil
		}
	}
}

// placeOK checks parent consistency. Children of a redex root must share one
// agent parent; the first of them fixes it, and the returned root index
// tells the caller which region to reset.
func (bt *backtracker) placeOK(u, x *bigraph.Place) (int, bool) {
	parent := bt.s.redex.Parent(u)
	host := bt.s.agent.Parent(x)
	if parent.IsNode() {
		return -1, host == bt.assign[parent.Index]
	}
	r := parent.Index
	if bt.regions[r] == nil {
		bt.regions[r] = host
		return r, true
	}
	return -1, bt.regions[r] == host
}

// bindLinks extends the link map with the ports of u and x. It returns the
// redex links it bound so the caller can undo them.
func (bt *backtracker) bindLinks(u, x *bigraph.Place) ([]*bigraph.Link, bool) {
	redex, agent := bt.s.redex, bt.s.agent
	rl, al := nodeLinks(redex, u), nodeLinks(agent, x)
	if len(rl) != len(al) {
		return nil, false
	}
	var bound []*bigraph.Link
	for i := range rl {
		r, a := rl[i], al[i]
		if r == nil || a == nil {
			return bound, false
		}
		if prev, ok := bt.fwd[r]; ok {
			if prev != a {
				return bound, false
			}
			continue
		}
		if prev, ok := bt.rev[a]; ok && prev != r {
			return bound, false
		}
		if r.Kind == bigraph.LinkEdge {
			if a.Kind != bigraph.LinkEdge {
				return bound, false
			}
			if isClosed(redex, r) && portCount(agent, a) != portCount(redex, r) {
				return bound, false
			}
			if portCount(agent, a) < portCount(redex, r) {
				return bound, false
			}
		}
		bt.fwd[r] = a
		bt.rev[a] = r
		bound = append(bound, r)
	}
	return bound, true
}

// verify checks a total assignment.
func (bt *backtracker) verify() bool {
	redex, agent := bt.s.redex, bt.s.agent

	// Regions are context places: neither matched nor below a match.
	for _, host := range bt.regions {
		for p := host; p != nil; p = agent.Parent(p) {
			if bt.used[p] {
				return false
			}
		}
	}

	// Without a site there is no parameter to hold extra children.
	for _, u := range bt.s.nodes {
		if !hasSite(redex, u) && len(agent.Children(bt.assign[u.Index])) != len(redex.Children(u)) {
			return false
		}
	}

	// Edges reached by inner names may only pick up extra points inside
	// parameters.
	var params map[*bigraph.Place]bool
	for r, a := range bt.fwd {
		if r.Kind != bigraph.LinkEdge || !hasInnerNames(redex, r) {
			continue
		}
		if params == nil {
			params = parameterNodes(redex, agent, bt.assign, bt.regions, bt.used)
		}
		for _, pt := range agent.PointsOf(a) {
			if pt.Kind == bigraph.PointPort && !bt.used[pt.Node] && !params[pt.Node] {
				return false
			}
		}
	}

	// Matched link-neighbours must correspond exactly.
	for _, u := range bt.s.nodes {
		want := make(map[*bigraph.Place]bool)
		for w := range linkNeighbours(redex, u) {
			want[bt.assign[w.Index]] = true
		}
		got := 0
		for y := range linkNeighbours(agent, bt.assign[u.Index]) {
			if !bt.used[y] {
				continue
			}
			if !want[y] {
				return false
			}
			got++
		}
		if got != len(want) {
			return false
		}
	}
	return true
}

func linkNeighbours(g bigraph.View, n *bigraph.Place) map[*bigraph.Place]bool {
	out := make(map[*bigraph.Place]bool)
	for _, l := range nodeLinks(g, n) {
		if l == nil {
			continue
		}
		for _, pt := range g.PointsOf(l) {
			if pt.Kind == bigraph.PointPort && pt.Node != n {
				out[pt.Node] = true
			}
		}
	}
	return out
}

// parameterNodes returns every agent node that belongs to a parameter.
func parameterNodes(redex, agent bigraph.View, emb Embedding, regions []*bigraph.Place, used map[*bigraph.Place]bool) map[*bigraph.Place]bool {
	out := make(map[*bigraph.Place]bool)
	for _, params := range partition(redex, agent, emb, regions, used) {
		for _, p := range params {
			var mark func(q *bigraph.Place)
			mark = func(q *bigraph.Place) {
				out[q] = true
				for _, c := range agent.Children(q) {
					mark(c)
				}
			}
			mark(p)
		}
	}
	return out
}

// partition assigns the unmatched children of matched places to redex
// sites. The extra children of a node image go to the first site of the
// redex node. The extra children of a region go to the first site of the
// lowest redex root that is hosted there and has a site; otherwise they stay
// in the context.
func partition(redex, agent bigraph.View, emb Embedding, regions []*bigraph.Place, used map[*bigraph.Place]bool) [][]*bigraph.Place {
	out := make([][]*bigraph.Place, len(redex.Sites()))
	extras := func(p *bigraph.Place) []*bigraph.Place {
		var list []*bigraph.Place
		for _, c := range agent.Children(p) {
			if !used[c] {
				list = append(list, c)
			}
		}
		return list
	}

	for _, u := range redex.Nodes() {
		if site := firstSite(redex, u); site != nil {
			out[site.Index] = extras(emb[u.Index])
		}
	}

	claimed := make(map[*bigraph.Place]bool)
	for _, r := range redex.Roots() {
		site := firstSite(redex, r)
		host := regions[r.Index]
		if site == nil || host == nil || claimed[host] {
			continue
		}
		claimed[host] = true
		out[site.Index] = extras(host)
	}
	return out
}

func firstSite(g bigraph.View, p *bigraph.Place) *bigraph.Place {
	var first *bigraph.Place
	for _, c := range g.Children(p) {
		if c.IsSite() && (first == nil || c.Index < first.Index) {
			first = c
		}
	}
	return first
}
