// Package bigraph holds the bigraph data model: a place forest of roots,
// nodes and sites plus an independent hyperlink layer over the same nodes.
package bigraph

import (
	"sort"
	"strings"
)

// Bigraph is one bigraph snapshot. The zero value is not usable; build one
// with a Builder or by cloning.
type Bigraph struct {
	sig   *Signature
	roots []*Place
	sites []*Place
	nodes []*Place
	outer []*Link
	edges []*Link
	inner map[string]*Link

	edgeSeq int
}

var _ View = (*Bigraph)(nil)

func newBigraph(sig *Signature) *Bigraph {
	return &Bigraph{sig: sig, inner: make(map[string]*Link)}
}

func (b *Bigraph) Signature() *Signature { return b.sig }
func (b *Bigraph) Roots() []*Place       { return b.roots }
func (b *Bigraph) Sites() []*Place       { return b.sites }
func (b *Bigraph) Nodes() []*Place       { return b.nodes }

// Node returns the node with the given id.
func (b *Bigraph) Node(id int) (*Place, bool) {
	if id < 0 || id >= len(b.nodes) {
		return nil, false
	}
	return b.nodes[id], true
}

// Links returns outer names (sorted by name) followed by edges.
func (b *Bigraph) Links() []*Link {
	out := make([]*Link, 0, len(b.outer)+len(b.edges))
	out = append(out, b.outer...)
	return append(out, b.edges...)
}

// OuterNames returns the outer names sorted by name.
func (b *Bigraph) OuterNames() []*Link { return b.outer }

// Edges returns the closed edges.
func (b *Bigraph) Edges() []*Link { return b.edges }

// OuterName returns the outer name link with the given name.
func (b *Bigraph) OuterName(name string) (*Link, bool) {
	i := sort.Search(len(b.outer), func(i int) bool { return b.outer[i].Name >= name })
	if i < len(b.outer) && b.outer[i].Name == name {
		return b.outer[i], true
	}
	return nil, false
}

// InnerNames returns the inner names sorted.
func (b *Bigraph) InnerNames() []string {
	out := make([]string, 0, len(b.inner))
	for name := range b.inner {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// InnerLink returns the link an inner name points to.
func (b *Bigraph) InnerLink(name string) (*Link, bool) {
	l, ok := b.inner[name]
	return l, ok
}

func (b *Bigraph) Children(p *Place) []*Place { return p.Children }
func (b *Bigraph) Parent(p *Place) *Place     { return p.Parent }
func (b *Bigraph) Control(n *Place) *Control  { return n.Control }
func (b *Bigraph) PointsOf(l *Link) []Point   { return l.Points }

// Ports returns the port points of a node.
func (b *Bigraph) Ports(n *Place) []Point {
	out := make([]Point, len(n.Ports))
	for i := range n.Ports {
		out[i] = PortPoint(n, i)
	}
	return out
}

// LinkOf returns the link a point belongs to.
func (b *Bigraph) LinkOf(pt Point) *Link {
	if pt.Kind == PointInnerName {
		return b.inner[pt.Name]
	}
	if pt.Node == nil || pt.Port < 0 || pt.Port >= len(pt.Node.Ports) {
		return nil
	}
	return pt.Node.Ports[pt.Port]
}

// IsGround reports whether the bigraph has no sites and no inner names.
func (b *Bigraph) IsGround() bool {
	return len(b.sites) == 0 && len(b.inner) == 0
}

// IsPrime reports whether the bigraph has exactly one root and no inner names.
func (b *Bigraph) IsPrime() bool {
	return len(b.roots) == 1 && len(b.inner) == 0
}

// ControlCounts returns how many nodes carry each control.
func (b *Bigraph) ControlCounts() map[string]int {
	out := make(map[string]int)
	for _, n := range b.nodes {
		out[n.Control.Name]++
	}
	return out
}

// String renders the bigraph in a readable term-like notation. It is not a
// canonical form; sibling order follows construction order.
func (b *Bigraph) String() string {
	var sb strings.Builder
	for i, r := range b.roots {
		if i > 0 {
			sb.WriteString(" || ")
		}
		writeChildren(&sb, r)
	}
	return sb.String()
}

func writeChildren(sb *strings.Builder, p *Place) {
	if len(p.Children) == 0 {
		sb.WriteString("1")
		return
	}
	for i, c := range p.Children {
		if i > 0 {
			sb.WriteString(" | ")
		}
		writePlace(sb, c)
	}
}

func writePlace(sb *strings.Builder, p *Place) {
	if p.Kind == KindSite {
		sb.WriteString(p.String())
		return
	}
	sb.WriteString(p.Control.Name)
	if len(p.Ports) > 0 {
		sb.WriteByte('[')
		for i, l := range p.Ports {
			if i > 0 {
				sb.WriteByte(',')
			}
			if l == nil {
				sb.WriteByte('-')
			} else {
				sb.WriteString(l.String())
			}
		}
		sb.WriteByte(']')
	}
	if len(p.Children) > 0 {
		sb.WriteString(".(")
		writeChildren(sb, p)
		sb.WriteByte(')')
	}
}
