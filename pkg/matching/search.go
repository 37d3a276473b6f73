// Package matching finds every embedding of a redex into an agent.
//
// A search ranks redex nodes by how rare their control is in the agent,
// anchors on the rarest one and, for every agent node the anchor may map to,
// builds candidate sets breadth-first over the redex place forest. Candidate
// sets are refined with sibling-level bipartite matching before a
// backtracking pass assigns nodes injectively and checks links incrementally.
// Every complete assignment is verified before it is reported.
package matching

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

var (
	// ErrEmptyRedex is returned for a redex without nodes or with a root
	// that holds no node.
	ErrEmptyRedex = errors.New("matching: redex region without nodes")

	// ErrInvalidEmbedding is returned by BuildMatch for a partial or
	// inconsistent embedding.
	ErrInvalidEmbedding = errors.New("matching: invalid embedding")
)

// Embedding maps every redex node, by node id, to its agent image.
type Embedding []*bigraph.Place

func (e Embedding) String() string {
	s := "{"
	for i, v := range e {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d->%v", i, v)
	}
	return s + "}"
}

// Find returns every valid embedding of redex into agent, sorted by the
// agent node ids of the images.
func Find(redex, agent bigraph.View) ([]Embedding, error) {
	return NewSearch(redex, agent).Run()
}

// Search is one matching session. Its caches live exactly as long as the
// Search value.
type Search struct {
	redex  bigraph.View
	agent  bigraph.View
	filter *Filter

	nodes []*bigraph.Place
	order []*bigraph.Place
}

// NewSearch prepares a session over a stable redex and agent snapshot.
func NewSearch(redex, agent bigraph.View) *Search {
	return &Search{
		redex:  redex,
		agent:  agent,
		filter: NewFilter(redex, agent),
		nodes:  redex.Nodes(),
	}
}

// Filter exposes the session's compatibility filter.
func (s *Search) Filter() *Filter {
	return s.filter
}

// Run performs the search.
func (s *Search) Run() ([]Embedding, error) {
	if len(s.nodes) == 0 {
		return nil, ErrEmptyRedex
	}
	for _, r := range s.redex.Roots() {
		if len(nodeChildren(s.redex, r)) == 0 {
			return nil, fmt.Errorf("%w: root %d", ErrEmptyRedex, r.Index)
		}
	}
	s.order = s.bfsOrder()

	anchor := s.anchor()
	var out []Embedding
	for _, v := range s.agent.Nodes() {
		if !s.filter.Compatible(anchor, v) {
			continue
		}
		cands, ok := s.candidates(anchor, v)
		if !ok {
			continue
		}
		bt := newBacktracker(s, cands)
		bt.extend(0)
		out = append(out, bt.found...)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for k := range a {
			if a[k].Index != b[k].Index {
				return a[k].Index < b[k].Index
			}
		}
		return false
	})
	return out, nil
}

// anchor picks the redex node with the lowest frequency/degree rank.
func (s *Search) anchor() *bigraph.Place {
	var best *bigraph.Place
	bestRank := 0.0
	for _, u := range s.nodes {
		rank := float64(s.filter.Frequency(s.redex.Control(u).Name)) / float64(placeDegree(s.redex, u))
		if best == nil || rank < bestRank || (rank == bestRank && u.Index < best.Index) {
			best, bestRank = u, rank
		}
	}
	return best
}

// bfsOrder lists redex nodes breadth-first, one root after the other.
func (s *Search) bfsOrder() []*bigraph.Place {
	order := make([]*bigraph.Place, 0, len(s.nodes))
	for _, r := range s.redex.Roots() {
		queue := nodeChildren(s.redex, r)
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			order = append(order, u)
			queue = append(queue, nodeChildren(s.redex, u)...)
		}
	}
	return order
}

// candidateSets holds, per redex node id, the agent nodes it may map to.
type candidateSets []map[*bigraph.Place]bool

func (s *Search) candidates(anchor, v *bigraph.Place) ([][]*bigraph.Place, bool) {
	// The anchor's ancestors are forced onto v's ancestors.
	pinned := map[*bigraph.Place]*bigraph.Place{anchor: v}
	for u, x := anchor, v; ; {
		pu := s.redex.Parent(u)
		if pu == nil || !pu.IsNode() {
			break
		}
		px := s.agent.Parent(x)
		if !s.filter.Compatible(pu, px) {
			return nil, false
		}
		pinned[pu] = px
		u, x = pu, px
	}

	cands := make(candidateSets, len(s.nodes))
	for _, u := range s.order {
		set := make(map[*bigraph.Place]bool)
		parent := s.redex.Parent(u)
		if parent.IsNode() {
			for x := range cands[parent.Index] {
				for _, y := range s.agent.Children(x) {
					if s.filter.Compatible(u, y) {
						set[y] = true
					}
				}
			}
		} else {
			for _, y := range s.agent.Nodes() {
				if s.filter.Compatible(u, y) {
					set[y] = true
				}
			}
		}
		if x, ok := pinned[u]; ok {
			if !set[x] {
				return nil, false
			}
			set = map[*bigraph.Place]bool{x: true}
		}
		if len(set) == 0 {
			return nil, false
		}
		cands[u.Index] = set
	}

	if !s.refine(cands) {
		return nil, false
	}

	union := make(map[*bigraph.Place]bool)
	for _, set := range cands {
		for x := range set {
			union[x] = true
		}
	}
	if len(union) < len(s.nodes) {
		return nil, false
	}

	ordered := make([][]*bigraph.Place, len(cands))
	for i, set := range cands {
		list := make([]*bigraph.Place, 0, len(set))
		for x := range set {
			list = append(list, x)
		}
		sort.Slice(list, func(a, b int) bool { return list[a].Index < list[b].Index })
		ordered[i] = list
	}
	return ordered, true
}

// refine removes candidates that cannot host their redex children or whose
// parent is no longer a candidate, until nothing changes. It reports false
// once a candidate set becomes empty.
func (s *Search) refine(cands candidateSets) bool {
	for changed := true; changed; {
		changed = false

		for i := len(s.order) - 1; i >= 0; i-- {
			u := s.order[i]
			for x := range cands[u.Index] {
				if !s.siblingsFit(cands, s.redex.Children(u), s.agent.Children(x), !hasSite(s.redex, u)) {
					delete(cands[u.Index], x)
					changed = true
				}
			}
			if len(cands[u.Index]) == 0 {
				return false
			}
		}

		for _, r := range s.redex.Roots() {
			kids := nodeChildren(s.redex, r)
			hosts := make(map[*bigraph.Place]bool)
			for _, w := range kids {
				for x := range cands[w.Index] {
					hosts[s.agent.Parent(x)] = true
				}
			}
			for host := range hosts {
				if host == nil || !s.siblingsFit(cands, kids, s.agent.Children(host), false) {
					delete(hosts, host)
				}
			}
			for _, w := range kids {
				for x := range cands[w.Index] {
					if !hosts[s.agent.Parent(x)] {
						delete(cands[w.Index], x)
						changed = true
					}
				}
				if len(cands[w.Index]) == 0 {
					return false
				}
			}
		}

		for _, u := range s.order {
			parent := s.redex.Parent(u)
			if !parent.IsNode() {
				continue
			}
			for x := range cands[u.Index] {
				if !cands[parent.Index][s.agent.Parent(x)] {
					delete(cands[u.Index], x)
					changed = true
				}
			}
			if len(cands[u.Index]) == 0 {
				return false
			}
		}
	}
	return true
}

// siblingsFit decides whether the redex sibling group can be matched into
// the agent sibling group. Sites in the redex group are ignored; exact
// groups need equal sizes and a perfect matching.
func (s *Search) siblingsFit(cands candidateSets, redexKids, agentKids []*bigraph.Place, exact bool) bool {
	if exact && len(redexKids) != len(agentKids) {
		return false
	}
	left := make([]*bigraph.Place, 0, len(redexKids))
	for _, w := range redexKids {
		if w.IsNode() {
			left = append(left, w)
		}
	}
	if len(left) == 0 {
		return true
	}
	if len(left) > len(agentKids) {
		return false
	}
	adj := make([][]int, len(left))
	for i, w := range left {
		for j, y := range agentKids {
			if cands[w.Index][y] {
				adj[i] = append(adj[i], j)
			}
		}
		if len(adj[i]) == 0 {
			return false
		}
	}
	size, _ := MaxBipartiteMatching(len(left), len(agentKids), adj)
	return size == len(left)
}

func nodeChildren(g bigraph.View, p *bigraph.Place) []*bigraph.Place {
	kids := g.Children(p)
	out := make([]*bigraph.Place, 0, len(kids))
	for _, c := range kids {
		if c.IsNode() {
			out = append(out, c)
		}
	}
	return out
}

func hasSite(g bigraph.View, p *bigraph.Place) bool {
	for _, c := range g.Children(p) {
		if c.IsSite() {
			return true
		}
	}
	return false
}
