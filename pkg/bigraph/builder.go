package bigraph

import (
	"errors"
	"fmt"
	"sort"
)

// Builder assembles a bigraph. Links are referred to by name; a name becomes
// a closed edge when declared with Edge, otherwise it is an outer name.
// Errors are collected and reported by Build.
type Builder struct {
	b        *Bigraph
	links    map[string]*Link
	order    []string
	closed   map[string]bool
	innerMap map[string]string
	errs     []error
}

// NewBuilder creates a builder over the given signature.
func NewBuilder(sig *Signature) *Builder {
	return &Builder{
		b:        newBigraph(sig),
		links:    make(map[string]*Link),
		closed:   make(map[string]bool),
		innerMap: make(map[string]string),
	}
}

// Root adds a new root region.
func (bd *Builder) Root() *Place {
	r := &Place{Kind: KindRoot, Index: len(bd.b.roots)}
	bd.b.roots = append(bd.b.roots, r)
	return r
}

// Node adds a node under parent. One link name must be given per port.
func (bd *Builder) Node(parent *Place, control string, links ...string) *Place {
	ctrl, ok := bd.b.sig.Lookup(control)
	if !ok {
		bd.errs = append(bd.errs, fmt.Errorf("%w: %s", ErrUnknownControl, control))
		ctrl = &Control{Name: control, Arity: len(links)}
	} else if ctrl.Arity != len(links) {
		bd.errs = append(bd.errs, fmt.Errorf("%w: %s expects %d, got %d", ErrArityMismatch, control, ctrl.Arity, len(links)))
	}
	if parent == nil || parent.Kind == KindSite {
		bd.errs = append(bd.errs, fmt.Errorf("%w: node %s needs a root or node parent", ErrMalformed, control))
		parent = nil
	}

	n := &Place{
		Kind:    KindNode,
		Index:   len(bd.b.nodes),
		Control: ctrl,
		Ports:   make([]*Link, len(links)),
	}
	bd.b.nodes = append(bd.b.nodes, n)
	if parent != nil {
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}
	for i, name := range links {
		if name == "" {
			bd.errs = append(bd.errs, fmt.Errorf("%w: empty link name on %s port %d", ErrMalformed, control, i))
			continue
		}
		l := bd.link(name)
		n.Ports[i] = l
		l.Points = append(l.Points, PortPoint(n, i))
	}
	return n
}

// Site adds the next site under parent.
func (bd *Builder) Site(parent *Place) *Place {
	s := &Place{Kind: KindSite, Index: len(bd.b.sites)}
	bd.b.sites = append(bd.b.sites, s)
	if parent == nil || parent.Kind == KindSite {
		bd.errs = append(bd.errs, fmt.Errorf("%w: site needs a root or node parent", ErrMalformed))
		return s
	}
	s.Parent = parent
	parent.Children = append(parent.Children, s)
	return s
}

// Edge declares the named links as closed edges.
func (bd *Builder) Edge(names ...string) *Builder {
	for _, name := range names {
		bd.closed[name] = true
		bd.link(name)
	}
	return bd
}

// OuterName declares outer names, which may stay idle.
func (bd *Builder) OuterName(names ...string) *Builder {
	for _, name := range names {
		bd.link(name)
	}
	return bd
}

// InnerName adds an inner name pointing to the named link.
func (bd *Builder) InnerName(name, link string) *Builder {
	if _, dup := bd.innerMap[name]; dup {
		bd.errs = append(bd.errs, fmt.Errorf("%w: inner name %s", ErrDuplicateName, name))
		return bd
	}
	bd.innerMap[name] = link
	l := bd.link(link)
	l.Points = append(l.Points, InnerPoint(name))
	return bd
}

func (bd *Builder) link(name string) *Link {
	if l, ok := bd.links[name]; ok {
		return l
	}
	l := &Link{Kind: LinkOuterName, Name: name}
	bd.links[name] = l
	bd.order = append(bd.order, name)
	return l
}

// Build finalises the bigraph. The builder must not be used afterwards.
func (bd *Builder) Build() (*Bigraph, error) {
	if len(bd.errs) > 0 {
		return nil, errors.Join(bd.errs...)
	}
	b := bd.b
	for _, name := range bd.order {
		l := bd.links[name]
		if bd.closed[name] {
			l.Kind = LinkEdge
			b.edges = append(b.edges, l)
		} else {
			b.outer = append(b.outer, l)
		}
	}
	sort.Slice(b.outer, func(i, j int) bool { return b.outer[i].Name < b.outer[j].Name })
	sort.Slice(b.edges, func(i, j int) bool { return b.edges[i].Name < b.edges[j].Name })
	for inner, name := range bd.innerMap {
		b.inner[inner] = bd.links[name]
	}
	b.edgeSeq = len(b.edges)
	return b, nil
}

// MustBuild is like Build but panics on error. Intended for fixtures.
func (bd *Builder) MustBuild() *Bigraph {
	b, err := bd.Build()
	if err != nil {
		panic(err)
	}
	return b
}
