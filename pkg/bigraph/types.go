package bigraph

import "fmt"

// PlaceKind tags the three kinds of place entity.
type PlaceKind uint8

const (
	KindRoot PlaceKind = iota
	KindNode
	KindSite
)

func (k PlaceKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindNode:
		return "node"
	case KindSite:
		return "site"
	default:
		return "unknown"
	}
}

// Place is a root, a node or a site of the place forest.
//
// Index is the root index, the site index or the node id depending on Kind.
// Control and Ports are only set for nodes; Ports[i] is the link that port i
// belongs to (nil while a port is being rewired).
type Place struct {
	Kind     PlaceKind
	Index    int
	Control  *Control
	Parent   *Place
	Children []*Place
	Ports    []*Link
}

func (p *Place) IsRoot() bool { return p.Kind == KindRoot }
func (p *Place) IsNode() bool { return p.Kind == KindNode }
func (p *Place) IsSite() bool { return p.Kind == KindSite }

// Degree is the place degree: children plus the parent edge.
func (p *Place) Degree() int {
	d := len(p.Children)
	if p.Parent != nil {
		d++
	}
	return d
}

// HasSiteChild reports whether one of the children is a site.
func (p *Place) HasSiteChild() bool {
	for _, c := range p.Children {
		if c.Kind == KindSite {
			return true
		}
	}
	return false
}

// NodeChildren returns the children that are nodes.
func (p *Place) NodeChildren() []*Place {
	out := make([]*Place, 0, len(p.Children))
	for _, c := range p.Children {
		if c.Kind == KindNode {
			out = append(out, c)
		}
	}
	return out
}

func (p *Place) String() string {
	switch p.Kind {
	case KindRoot:
		return fmt.Sprintf("r%d", p.Index)
	case KindSite:
		return fmt.Sprintf("$%d", p.Index)
	default:
		return fmt.Sprintf("%s#%d", p.Control.Name, p.Index)
	}
}

// PointKind tags link endpoints.
type PointKind uint8

const (
	PointPort PointKind = iota
	PointInnerName
)

// Point is either a port (Node, Port) or an inner name (Name).
type Point struct {
	Kind PointKind
	Node *Place
	Port int
	Name string
}

// PortPoint returns the point for port i of node n.
func PortPoint(n *Place, i int) Point {
	return Point{Kind: PointPort, Node: n, Port: i}
}

// InnerPoint returns the point for the inner name.
func InnerPoint(name string) Point {
	return Point{Kind: PointInnerName, Name: name}
}

func (pt Point) String() string {
	if pt.Kind == PointInnerName {
		return "/" + pt.Name
	}
	return fmt.Sprintf("%s.%d", pt.Node, pt.Port)
}

// LinkKind distinguishes open links (outer names) from closed edges.
type LinkKind uint8

const (
	LinkOuterName LinkKind = iota
	LinkEdge
)

// Link is a hyperlink. Outer names are part of the interface; edges are
// closed and their names carry no meaning beyond display.
type Link struct {
	Kind   LinkKind
	Name   string
	Points []Point
}

func (l *Link) IsEdge() bool { return l.Kind == LinkEdge }

// PortCount returns the number of port points.
func (l *Link) PortCount() int {
	n := 0
	for _, pt := range l.Points {
		if pt.Kind == PointPort {
			n++
		}
	}
	return n
}

// HasInnerNames reports whether an inner name points to the link.
func (l *Link) HasInnerNames() bool {
	for _, pt := range l.Points {
		if pt.Kind == PointInnerName {
			return true
		}
	}
	return false
}

// Closed reports whether the link is an edge that no inner name reaches,
// i.e. every point is a port of the bigraph itself.
func (l *Link) Closed() bool {
	return l.Kind == LinkEdge && !l.HasInnerNames()
}

func (l *Link) String() string {
	if l.Kind == LinkEdge {
		return "~" + l.Name
	}
	return l.Name
}

// View is the read-only traversal surface the matcher consumes. It must be a
// stable snapshot for the duration of one matching call.
type View interface {
	Signature() *Signature
	Roots() []*Place
	Sites() []*Place
	Nodes() []*Place
	Links() []*Link
	Children(p *Place) []*Place
	Parent(p *Place) *Place
	Ports(n *Place) []Point
	LinkOf(pt Point) *Link
	PointsOf(l *Link) []Point
	Control(n *Place) *Control
	IsGround() bool
	IsPrime() bool
}
