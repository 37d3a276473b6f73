package bigraph

import (
	"fmt"
	"sort"
)

// Control is a node label with a fixed port arity.
type Control struct {
	Name  string
	Arity int
}

// String returns "Name:Arity".
func (c *Control) String() string {
	return fmt.Sprintf("%s:%d", c.Name, c.Arity)
}

// Signature is the set of controls a bigraph may use.
type Signature struct {
	controls map[string]*Control
}

// NewSignature creates a signature from the given controls.
// Duplicate names and negative arities are rejected.
func NewSignature(controls ...Control) (*Signature, error) {
	sig := &Signature{controls: make(map[string]*Control, len(controls))}
	for _, c := range controls {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: empty control name", ErrInvalidSignature)
		}
		if c.Arity < 0 {
			return nil, fmt.Errorf("%w: control %s has negative arity %d", ErrInvalidSignature, c.Name, c.Arity)
		}
		if _, dup := sig.controls[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate control %s", ErrInvalidSignature, c.Name)
		}
		ctrl := c
		sig.controls[c.Name] = &ctrl
	}
	return sig, nil
}

// MustSignature is like NewSignature but panics on error.
func MustSignature(controls ...Control) *Signature {
	sig, err := NewSignature(controls...)
	if err != nil {
		panic(err)
	}
	return sig
}

// Lookup returns the control with the given name.
func (s *Signature) Lookup(name string) (*Control, bool) {
	c, ok := s.controls[name]
	return c, ok
}

// Controls returns all controls sorted by name.
func (s *Signature) Controls() []*Control {
	out := make([]*Control, 0, len(s.controls))
	for _, c := range s.controls {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of controls.
func (s *Signature) Len() int {
	return len(s.controls)
}

// Compatible reports whether every control of other that is also named in s
// has the same arity.
func (s *Signature) Compatible(other *Signature) bool {
	for name, c := range other.controls {
		if mine, ok := s.controls[name]; ok && mine.Arity != c.Arity {
			return false
		}
	}
	return true
}
