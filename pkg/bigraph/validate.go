package bigraph

import "fmt"

// Validate checks the structural invariants: every node has one link per
// port and appears on that link exactly once, the place structure is a
// forest whose parent and child pointers agree, and node ids are dense.
func (b *Bigraph) Validate() error {
	seen := make(map[*Place]bool, len(b.nodes))
	for _, r := range b.roots {
		if r.Parent != nil {
			return fmt.Errorf("%w: root %s has a parent", ErrMalformed, r)
		}
		if err := checkTree(r, seen); err != nil {
			return err
		}
	}
	for i, n := range b.nodes {
		if n.Index != i {
			return fmt.Errorf("%w: node %s stored at %d", ErrMalformed, n, i)
		}
		if !seen[n] {
			return fmt.Errorf("%w: node %s is not reachable from a root", ErrMalformed, n)
		}
		if len(n.Ports) != n.Control.Arity {
			return fmt.Errorf("%w: %s has %d ports", ErrArityMismatch, n, len(n.Ports))
		}
		for p, l := range n.Ports {
			if l == nil {
				return fmt.Errorf("%w: %s port %d is unlinked", ErrMalformed, n, p)
			}
			hits := 0
			for _, pt := range l.Points {
				if pt.Kind == PointPort && pt.Node == n && pt.Port == p {
					hits++
				}
			}
			if hits != 1 {
				return fmt.Errorf("%w: %s port %d appears %d times on %s", ErrMalformed, n, p, hits, l)
			}
		}
	}
	for _, l := range b.Links() {
		for _, pt := range l.Points {
			if pt.Kind == PointPort && (pt.Node.Ports[pt.Port] != l || !seen[pt.Node]) {
				return fmt.Errorf("%w: stale point %s on %s", ErrMalformed, pt, l)
			}
		}
	}
	return nil
}

func checkTree(p *Place, seen map[*Place]bool) error {
	if seen[p] {
		return fmt.Errorf("%w: %s reached twice", ErrMalformed, p)
	}
	seen[p] = true
	for _, c := range p.Children {
		if c.Parent != p {
			return fmt.Errorf("%w: %s lists %s as child but parent is %v", ErrMalformed, p, c, c.Parent)
		}
		if c.Kind == KindRoot {
			return fmt.Errorf("%w: root %s nested under %s", ErrMalformed, c, p)
		}
		if c.Kind == KindSite && len(c.Children) > 0 {
			return fmt.Errorf("%w: site %s has children", ErrMalformed, c)
		}
		if err := checkTree(c, seen); err != nil {
			return err
		}
	}
	return nil
}
