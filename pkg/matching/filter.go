package matching

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// Filter is the pairwise compatibility test between redex and agent nodes.
// It only prunes: a compatible pair may still fail to extend to an embedding,
// but an incompatible pair never appears in one.
//
// A Filter owns its caches and belongs to one search session.
type Filter struct {
	redex bigraph.View
	agent bigraph.View

	redexProfiles map[*bigraph.Place]*profile
	agentProfiles map[*bigraph.Place]*profile
	freq          map[string]int
	memo          map[pair]bool
}

type pair struct {
	u, v *bigraph.Place
}

// profile summarises what C1-C4 look at for one node.
type profile struct {
	degree   int
	adjacent int
	// open holds port counts of incident links that may absorb extra points,
	// sorted in descending order. On the agent side every incident link is
	// listed.
	open []int
	// closed counts incident closed edges by port count.
	closed map[int]int
	labels []edgeLabel
}

// edgeLabel is the per-control port count of one closed edge.
type edgeLabel struct {
	ports int
	key   string
}

// NewFilter creates a filter for one redex/agent pair.
func NewFilter(redex, agent bigraph.View) *Filter {
	f := &Filter{
		redex:         redex,
		agent:         agent,
		redexProfiles: make(map[*bigraph.Place]*profile),
		agentProfiles: make(map[*bigraph.Place]*profile),
		freq:          make(map[string]int),
		memo:          make(map[pair]bool),
	}
	for _, n := range agent.Nodes() {
		f.freq[agent.Control(n).Name]++
	}
	return f
}

// Frequency returns how many agent nodes carry the named control.
func (f *Filter) Frequency(control string) int {
	return f.freq[control]
}

// Compatible reports whether redex node u may be mapped onto agent node v.
func (f *Filter) Compatible(u, v *bigraph.Place) bool {
	if u == nil || v == nil || !u.IsNode() || !v.IsNode() {
		return false
	}
	key := pair{u, v}
	if ok, hit := f.memo[key]; hit {
		return ok
	}
	ok := f.compatible(u, v)
	f.memo[key] = ok
	return ok
}

func (f *Filter) compatible(u, v *bigraph.Place) bool {
	cu, cv := f.redex.Control(u), f.agent.Control(v)
	if cu.Name != cv.Name || cu.Arity != cv.Arity {
		return false
	}
	pu := f.profile(f.redex, f.redexProfiles, u, true)
	pv := f.profile(f.agent, f.agentProfiles, v, false)

	// C1
	if pu.degree > pv.degree {
		return false
	}
	// C2
	if pu.adjacent > pv.adjacent {
		return false
	}
	// C3
	for d, n := range pu.closed {
		if pv.closed[d] < n {
			return false
		}
	}
	if len(pu.open) > len(pv.open) {
		return false
	}
	for i, n := range pu.open {
		if pv.open[i] < n {
			return false
		}
	}
	// C4
	for _, want := range pu.labels {
		found := false
		for _, got := range pv.labels {
			if got.ports == want.ports && got.key == want.key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *Filter) profile(g bigraph.View, cache map[*bigraph.Place]*profile, n *bigraph.Place, redexSide bool) *profile {
	if p, ok := cache[n]; ok {
		return p
	}
	p := &profile{degree: placeDegree(g, n), closed: make(map[int]int)}
	seen := make(map[*bigraph.Link]bool)
	neighbours := make(map[*bigraph.Place]bool)
	for _, l := range nodeLinks(g, n) {
		if l == nil || seen[l] {
			continue
		}
		seen[l] = true

		ports := 0
		for _, pt := range g.PointsOf(l) {
			if pt.Kind != bigraph.PointPort {
				continue
			}
			ports++
			if pt.Node != n {
				neighbours[pt.Node] = true
			}
		}
		closed := isClosed(g, l)
		if closed {
			p.closed[ports]++
			p.labels = append(p.labels, edgeLabel{ports: ports, key: labelKey(g, l)})
		}
		if !redexSide || !closed {
			p.open = append(p.open, ports)
		}
	}
	p.adjacent = len(neighbours)
	sort.Sort(sort.Reverse(sort.IntSlice(p.open)))
	cache[n] = p
	return p
}

// placeDegree counts node children plus the parent edge. A site stands for
// zero or more agent children, so it adds nothing.
func placeDegree(g bigraph.View, p *bigraph.Place) int {
	d := len(nodeChildren(g, p))
	if g.Parent(p) != nil {
		d++
	}
	return d
}

func nodeLinks(g bigraph.View, n *bigraph.Place) []*bigraph.Link {
	pts := g.Ports(n)
	out := make([]*bigraph.Link, len(pts))
	for i, pt := range pts {
		out[i] = g.LinkOf(pt)
	}
	return out
}

func portCount(g bigraph.View, l *bigraph.Link) int {
	n := 0
	for _, pt := range g.PointsOf(l) {
		if pt.Kind == bigraph.PointPort {
			n++
		}
	}
	return n
}

func hasInnerNames(g bigraph.View, l *bigraph.Link) bool {
	for _, pt := range g.PointsOf(l) {
		if pt.Kind == bigraph.PointInnerName {
			return true
		}
	}
	return false
}

// isClosed reports whether l is an edge whose points are all ports.
func isClosed(g bigraph.View, l *bigraph.Link) bool {
	return l.Kind == bigraph.LinkEdge && !hasInnerNames(g, l)
}

func labelKey(g bigraph.View, l *bigraph.Link) string {
	counts := make(map[string]int)
	for _, pt := range g.PointsOf(l) {
		if pt.Kind == bigraph.PointPort {
			counts[g.Control(pt.Node).Name]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(counts[name]))
		sb.WriteByte(';')
	}
	return sb.String()
}
