package bigraph

import (
	"fmt"
	"sort"
)

// The methods in this file rewire a bigraph in place. They are meant for a
// freshly cloned bigraph owned by a single rewrite; never call them on a
// snapshot that a matcher is reading.

// Clone deep-copies the bigraph. The returned maps translate places and links
// of b to their copies.
func (b *Bigraph) Clone() (*Bigraph, map[*Place]*Place, map[*Link]*Link) {
	out := newBigraph(b.sig)
	out.edgeSeq = b.edgeSeq
	places := make(map[*Place]*Place, len(b.nodes)+len(b.roots)+len(b.sites))
	links := make(map[*Link]*Link, len(b.outer)+len(b.edges))

	for _, l := range b.outer {
		c := &Link{Kind: l.Kind, Name: l.Name}
		links[l] = c
		out.outer = append(out.outer, c)
	}
	for _, l := range b.edges {
		c := &Link{Kind: l.Kind, Name: l.Name}
		links[l] = c
		out.edges = append(out.edges, c)
	}

	for _, r := range b.roots {
		c := &Place{Kind: KindRoot, Index: r.Index}
		places[r] = c
		out.roots = append(out.roots, c)
	}
	out.sites = make([]*Place, len(b.sites))
	for _, s := range b.sites {
		c := &Place{Kind: KindSite, Index: s.Index}
		places[s] = c
		out.sites[s.Index] = c
	}
	for _, n := range b.nodes {
		c := &Place{Kind: KindNode, Index: n.Index, Control: n.Control, Ports: make([]*Link, len(n.Ports))}
		places[n] = c
		out.nodes = append(out.nodes, c)
	}

	// Structure second, so children keep their order.
	for orig, c := range places {
		if orig.Parent != nil {
			c.Parent = places[orig.Parent]
		}
		if len(orig.Children) > 0 {
			c.Children = make([]*Place, len(orig.Children))
			for i, child := range orig.Children {
				c.Children[i] = places[child]
			}
		}
		for i, l := range orig.Ports {
			if l != nil {
				c.Ports[i] = links[l]
			}
		}
	}
	for orig, c := range links {
		c.Points = make([]Point, len(orig.Points))
		for i, pt := range orig.Points {
			if pt.Kind == PointPort {
				c.Points[i] = PortPoint(places[pt.Node], pt.Port)
			} else {
				c.Points[i] = pt
			}
		}
	}
	for name, l := range b.inner {
		out.inner[name] = links[l]
	}
	return out, places, links
}

// AddNode creates a node under parent with all ports unconnected.
func (b *Bigraph) AddNode(parent *Place, ctrl *Control) *Place {
	n := &Place{
		Kind:    KindNode,
		Index:   len(b.nodes),
		Control: ctrl,
		Ports:   make([]*Link, ctrl.Arity),
	}
	b.nodes = append(b.nodes, n)
	b.Attach(parent, n)
	return n
}

// NewEdge creates a fresh closed edge with no points.
func (b *Bigraph) NewEdge() *Link {
	l := &Link{Kind: LinkEdge, Name: fmt.Sprintf("_e%d", b.edgeSeq)}
	b.edgeSeq++
	b.edges = append(b.edges, l)
	return l
}

// EnsureOuterName returns the outer name, creating an idle one if missing.
func (b *Bigraph) EnsureOuterName(name string) *Link {
	if l, ok := b.OuterName(name); ok {
		return l
	}
	l := &Link{Kind: LinkOuterName, Name: name}
	b.outer = append(b.outer, l)
	sort.Slice(b.outer, func(i, j int) bool { return b.outer[i].Name < b.outer[j].Name })
	return l
}

// Connect moves port i of n onto l.
func (b *Bigraph) Connect(n *Place, port int, l *Link) {
	b.Disconnect(n, port)
	n.Ports[port] = l
	l.Points = append(l.Points, PortPoint(n, port))
}

// Disconnect removes port i of n from its link, if any.
func (b *Bigraph) Disconnect(n *Place, port int) {
	l := n.Ports[port]
	if l == nil {
		return
	}
	for i, pt := range l.Points {
		if pt.Kind == PointPort && pt.Node == n && pt.Port == port {
			l.Points = append(l.Points[:i], l.Points[i+1:]...)
			break
		}
	}
	n.Ports[port] = nil
}

// Detach unhooks p from its parent. The subtree below p is untouched.
func (b *Bigraph) Detach(p *Place) {
	parent := p.Parent
	if parent == nil {
		return
	}
	for i, c := range parent.Children {
		if c == p {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	p.Parent = nil
}

// Attach appends p to the children of parent.
func (b *Bigraph) Attach(parent, p *Place) {
	b.Detach(p)
	p.Parent = parent
	parent.Children = append(parent.Children, p)
}

// RemoveSubtree detaches p and disconnects every port below it.
func (b *Bigraph) RemoveSubtree(p *Place) {
	b.Detach(p)
	walk(p, func(q *Place) {
		if q.Kind == KindNode {
			for i := range q.Ports {
				b.Disconnect(q, i)
			}
		}
	})
}

// Compact renumbers nodes in depth-first order from the roots, drops places
// that are no longer reachable and removes edges without points.
func (b *Bigraph) Compact() {
	nodes := make([]*Place, 0, len(b.nodes))
	for _, r := range b.roots {
		walk(r, func(q *Place) {
			if q.Kind == KindNode {
				q.Index = len(nodes)
				nodes = append(nodes, q)
			}
		})
	}
	b.nodes = nodes

	sites := b.sites[:0]
	for _, s := range b.sites {
		if s != nil && reachable(s) {
			sites = append(sites, s)
		}
	}
	b.sites = sites

	edges := b.edges[:0]
	for _, l := range b.edges {
		if len(l.Points) > 0 {
			edges = append(edges, l)
		}
	}
	b.edges = edges
}

func reachable(p *Place) bool {
	for p.Parent != nil {
		p = p.Parent
	}
	return p.Kind == KindRoot
}

func walk(p *Place, fn func(*Place)) {
	fn(p)
	for _, c := range p.Children {
		walk(c, fn)
	}
}

// Walk visits p and every place below it, parents first.
func Walk(p *Place, fn func(*Place)) {
	walk(p, fn)
}
