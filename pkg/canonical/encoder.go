// Package canonical computes isomorphism-invariant encodings of bigraphs and
// a graph kernel over them.
//
// The canonical form is a full structural rendering of the bigraph: sibling
// order is fixed by refined colours and closed edges are numbered by first
// appearance. Two bigraphs that differ structurally therefore never share a
// form. When colour refinement leaves linked siblings tied, every tied
// sibling with the smallest rendering is tried in turn and the smallest
// complete rendering wins, so isomorphic bigraphs always render identically.
package canonical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
)

// Encoder turns bigraphs into canonical strings. It holds no state and is
// safe for concurrent use.
type Encoder struct{}

// NewEncoder creates an encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode returns the canonical form of b.
func (e *Encoder) Encode(b *bigraph.Bigraph) string {
	r := newRenderer(b)

	var tasks []*task
	for i, root := range b.Roots() {
		if i > 0 {
			tasks = append(tasks, &task{kind: litTask, lit: "||"})
		}
		tasks = append(tasks,
			&task{kind: litTask, lit: "("},
			&task{kind: childrenTask, place: root},
			&task{kind: litTask, lit: ")"})
	}

	names := make([]string, 0, len(b.OuterNames()))
	for _, l := range b.OuterNames() {
		names = append(names, l.Name)
	}
	tasks = append(tasks, &task{kind: litTask, lit: ";o=" + strings.Join(names, ",")})

	if inner := b.InnerNames(); len(inner) > 0 {
		sep := ";i="
		for _, name := range inner {
			l, _ := b.InnerLink(name)
			tasks = append(tasks,
				&task{kind: litTask, lit: sep + name + "->"},
				&task{kind: linkTask, link: l})
			sep = ","
		}
	}
	return r.run(chain(tasks, nil), r.newState())
}

// edgeReach marks places whose subtree contains a port on a closed edge.
// Renderings of other subtrees do not depend on edge numbering.
func edgeReach(b *bigraph.Bigraph) map[*bigraph.Place]bool {
	out := make(map[*bigraph.Place]bool)
	var visit func(p *bigraph.Place) bool
	visit = func(p *bigraph.Place) bool {
		hit := false
		for _, l := range p.Ports {
			if l != nil && l.Kind == bigraph.LinkEdge {
				hit = true
			}
		}
		for _, c := range p.Children {
			if visit(c) {
				hit = true
			}
		}
		out[p] = hit
		return hit
	}
	for _, r := range b.Roots() {
		visit(r)
	}
	return out
}

type taskKind uint8

const (
	litTask taskKind = iota
	placeTask
	childrenTask
	groupTask
	linkTask
)

// task is one pending piece of output. Tasks form immutable stacks shared
// between search branches.
type task struct {
	kind  taskKind
	lit   string
	place *bigraph.Place
	group []*bigraph.Place
	first bool
	link  *bigraph.Link
	next  *task
}

func chain(tasks []*task, next *task) *task {
	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i].next = next
		next = tasks[i]
	}
	return next
}

// state is the edge numbering of one search branch. used counts the
// rendered points of each numbered edge.
type state struct {
	edges map[*bigraph.Link]int
	used  map[*bigraph.Link]int
}

func (s *state) fork() *state {
	f := &state{
		edges: make(map[*bigraph.Link]int, len(s.edges)),
		used:  make(map[*bigraph.Link]int, len(s.used)),
	}
	for k, v := range s.edges {
		f.edges[k] = v
	}
	for k, v := range s.used {
		f.used[k] = v
	}
	return f
}

// link renders one point and records it as rendered.
func (s *state) link(l *bigraph.Link) string {
	if l == nil {
		return "-"
	}
	if l.Kind == bigraph.LinkOuterName {
		return "o:" + l.Name
	}
	id, ok := s.edges[l]
	if !ok {
		id = len(s.edges)
		s.edges[l] = id
	}
	s.used[l]++
	return "e" + strconv.Itoa(id)
}

type renderer struct {
	colour  map[*bigraph.Place]uint64
	touches map[*bigraph.Place]bool
	// points counts the ports and inner names on each closed edge
	points map[*bigraph.Link]int

	places map[*bigraph.Place]int
	links  map[*bigraph.Link]int
	memo   map[string]string
}

func newRenderer(b *bigraph.Bigraph) *renderer {
	r := &renderer{
		colour:  Refine(b, 0).Node,
		touches: edgeReach(b),
		points:  make(map[*bigraph.Link]int),
		places:  make(map[*bigraph.Place]int),
		links:   make(map[*bigraph.Link]int),
		memo:    make(map[string]string),
	}
	for _, n := range b.Nodes() {
		for _, l := range n.Ports {
			if l != nil && l.Kind == bigraph.LinkEdge {
				r.points[l]++
			}
		}
	}
	for _, name := range b.InnerNames() {
		if l, _ := b.InnerLink(name); l != nil && l.Kind == bigraph.LinkEdge {
			r.points[l]++
		}
	}
	return r
}

func (r *renderer) newState() *state {
	return &state{edges: make(map[*bigraph.Link]int), used: make(map[*bigraph.Link]int)}
}

// run renders the task stack and returns the smallest output over all
// orderings of tied siblings left in it.
func (r *renderer) run(t *task, s *state) string {
	var sb strings.Builder
	for t != nil {
		switch t.kind {
		case litTask:
			sb.WriteString(t.lit)
		case linkTask:
			sb.WriteString(s.link(t.link))
		case childrenTask:
			t = r.expand(t.place, t.next)
			continue
		case groupTask:
			sb.WriteString(r.branch(t, s))
			return sb.String()
		case placeTask:
			p := t.place
			if p.Kind == bigraph.KindSite {
				sb.WriteString("$" + strconv.Itoa(p.Index))
				break
			}
			sb.WriteString(p.Control.Name)
			sb.WriteByte('[')
			for i, l := range p.Ports {
				if i > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(s.link(l))
			}
			sb.WriteByte(']')
			if len(p.Children) > 0 {
				t = chain([]*task{
					{kind: litTask, lit: "("},
					{kind: childrenTask, place: p},
					{kind: litTask, lit: ")"},
				}, t.next)
				continue
			}
		}
		t = t.next
	}
	return sb.String()
}

// expand orders the children of p by colour and pushes them in front of
// next. Runs of tied siblings that reach a closed edge become group tasks.
func (r *renderer) expand(p *bigraph.Place, next *task) *task {
	kids := make([]*bigraph.Place, len(p.Children))
	copy(kids, p.Children)
	sort.SliceStable(kids, func(i, j int) bool { return r.less(kids[i], kids[j]) })

	var tasks []*task
	for i := 0; i < len(kids); {
		j := i + 1
		for j < len(kids) && r.tied(kids[i], kids[j]) {
			j++
		}
		tie := kids[i:j]
		if len(tie) > 1 && !r.independent(tie) {
			tasks = append(tasks, &task{kind: groupTask, group: tie, first: i == 0})
			i = j
			continue
		}
		if i > 0 {
			tasks = append(tasks, &task{kind: litTask, lit: "|"})
		}
		if len(tie) == 1 {
			tasks = append(tasks, &task{kind: placeTask, place: tie[0]})
		} else {
			tasks = append(tasks, &task{kind: litTask, lit: r.sorted(tie)})
		}
		i = j
	}
	return chain(tasks, next)
}

func (r *renderer) independent(group []*bigraph.Place) bool {
	for _, p := range group {
		if r.touches[p] {
			return false
		}
	}
	return true
}

// sorted renders siblings whose subtrees never reach a closed edge.
func (r *renderer) sorted(group []*bigraph.Place) string {
	out := make([]string, len(group))
	for i, p := range group {
		out[i] = r.run(&task{kind: placeTask, place: p}, r.newState())
	}
	sort.Strings(out)
	return strings.Join(out, "|")
}

// branch renders a group task. Only siblings whose own rendering is
// smallest may go first; each of them is tried and the smallest complete
// output is kept. Equal renderings agree on whether they number a new edge.
func (r *renderer) branch(t *task, s *state) string {
	key := r.key(t, s)
	if out, ok := r.memo[key]; ok {
		return out
	}

	own := make([]string, len(t.group))
	fresh := make([]bool, len(t.group))
	for i, p := range t.group {
		f := s.fork()
		own[i] = r.run(&task{kind: placeTask, place: p}, f)
		fresh[i] = len(f.edges) > len(s.edges)
	}
	least := own[0]
	for _, o := range own[1:] {
		least = min(least, o)
	}

	sep := "|"
	if t.first {
		sep = ""
	}
	best, found := "", false
	for i, p := range t.group {
		if own[i] != least {
			continue
		}
		// A sibling that numbers no new edge renders the same from here on,
		// so it is interchangeable with every other such sibling.
		if found && !fresh[i] {
			break
		}
		rest := make([]*bigraph.Place, 0, len(t.group)-1)
		rest = append(rest, t.group[:i]...)
		rest = append(rest, t.group[i+1:]...)

		var next *task
		if len(rest) == 1 {
			next = chain([]*task{
				{kind: litTask, lit: "|"},
				{kind: placeTask, place: rest[0]},
			}, t.next)
		} else {
			next = &task{kind: groupTask, group: rest, next: t.next}
		}
		out := sep + r.run(&task{kind: placeTask, place: p, next: next}, s.fork())
		if !found || out < best {
			best, found = out, true
		}
	}
	r.memo[key] = best
	return best
}

// key identifies a search position: the pending tasks, the next free edge
// number and the numbers of edges that still have unrendered points.
func (r *renderer) key(t *task, s *state) string {
	var sb strings.Builder
	for ; t != nil; t = t.next {
		switch t.kind {
		case litTask:
			fmt.Fprintf(&sb, "l%d:%s", len(t.lit), t.lit)
		case placeTask:
			fmt.Fprintf(&sb, "p%d", r.placeID(t.place))
		case childrenTask:
			fmt.Fprintf(&sb, "c%d", r.placeID(t.place))
		case linkTask:
			fmt.Fprintf(&sb, "k%d", r.linkID(t.link))
		case groupTask:
			ids := make([]int, len(t.group))
			for i, p := range t.group {
				ids[i] = r.placeID(p)
			}
			sort.Ints(ids)
			fmt.Fprintf(&sb, "g%t%v", t.first, ids)
		}
	}

	type live struct{ link, num int }
	var open []live
	for l, num := range s.edges {
		if s.used[l] < r.points[l] {
			open = append(open, live{r.linkID(l), num})
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].link < open[j].link })
	fmt.Fprintf(&sb, "#%d%v", len(s.edges), open)
	return sb.String()
}

func (r *renderer) placeID(p *bigraph.Place) int {
	id, ok := r.places[p]
	if !ok {
		id = len(r.places)
		r.places[p] = id
	}
	return id
}

func (r *renderer) linkID(l *bigraph.Link) int {
	if l == nil {
		return -1
	}
	id, ok := r.links[l]
	if !ok {
		id = len(r.links)
		r.links[l] = id
	}
	return id
}

// less orders sites by index before nodes by colour.
func (r *renderer) less(a, b *bigraph.Place) bool {
	if a.Kind != b.Kind {
		return a.Kind == bigraph.KindSite
	}
	if a.Kind == bigraph.KindSite {
		return a.Index < b.Index
	}
	return r.colour[a] < r.colour[b]
}

func (r *renderer) tied(a, b *bigraph.Place) bool {
	return a.Kind == bigraph.KindNode && b.Kind == bigraph.KindNode && r.colour[a] == r.colour[b]
}
