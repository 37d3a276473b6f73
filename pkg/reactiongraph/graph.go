// Package reactiongraph stores the state space explored by a model checking
// run: states deduplicated by canonical form and rule-labelled transitions
// between them.
package reactiongraph

import (
	"sync"

	"github.com/dd0wney/cluso-bigraph/pkg/algorithms"
	"github.com/dd0wney/cluso-bigraph/pkg/bigraph"
	"github.com/dd0wney/cluso-bigraph/pkg/canonical"
)

// State is one visited bigraph. IDs start at 1 and follow insertion order.
type State struct {
	ID        uint64
	Canonical string
	Label     string
	Bigraph   *bigraph.Bigraph
}

// Transition is one rule application between two states. Occurrence is the
// index of the match among the rule's matches in the source state.
type Transition struct {
	From       uint64 `json:"from"`
	To         uint64 `json:"to"`
	Rule       string `json:"rule"`
	Occurrence int    `json:"occurrence"`
}

// Graph is a deduplicated directed multigraph of states. It is safe for
// concurrent readers; a run writes it from a single goroutine.
type Graph struct {
	mu sync.RWMutex

	states      []*State
	byForm      map[string]*State
	out         map[uint64][]Transition
	transitions int
	satisfying  map[uint64]bool

	incomplete bool
	reason     string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byForm:     make(map[string]*State),
		out:        make(map[uint64][]Transition),
		satisfying: make(map[uint64]bool),
	}
}

// AddState inserts a state unless its canonical form is already known. It
// returns the stored state and whether it was newly added.
func (g *Graph) AddState(form string, b *bigraph.Bigraph) (*State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.byForm[form]; ok {
		return s, false
	}
	s := &State{
		ID:        uint64(len(g.states) + 1),
		Canonical: form,
		Label:     canonical.Fingerprint(form),
		Bigraph:   b,
	}
	g.states = append(g.states, s)
	g.byForm[form] = s
	return s, true
}

// Lookup finds a state by canonical form.
func (g *Graph) Lookup(form string) (*State, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.byForm[form]
	return s, ok
}

// State returns the state with the given ID.
func (g *Graph) State(id uint64) (*State, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id == 0 || id > uint64(len(g.states)) {
		return nil, false
	}
	return g.states[id-1], true
}

// Initial returns the first state added, or nil.
func (g *Graph) Initial() *State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.states) == 0 {
		return nil
	}
	return g.states[0]
}

// AddTransition records an edge. Both endpoints must exist.
func (g *Graph) AddTransition(t Transition) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out[t.From] = append(g.out[t.From], t)
	g.transitions++
}

// Outgoing returns the transitions leaving a state.
func (g *Graph) Outgoing(id uint64) []Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Transition, len(g.out[id]))
	copy(out, g.out[id])
	return out
}

// States returns all states in ID order.
func (g *Graph) States() []*State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*State, len(g.states))
	copy(out, g.states)
	return out
}

// Transitions returns every transition ordered by source state.
func (g *Graph) Transitions() []Transition {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Transition, 0, g.transitions)
	for _, s := range g.states {
		out = append(out, g.out[s.ID]...)
	}
	return out
}

// StateCount returns the number of states.
func (g *Graph) StateCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.states)
}

// TransitionCount returns the number of transitions.
func (g *Graph) TransitionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transitions
}

// SetSatisfying records whether every predicate held in a state.
func (g *Graph) SetSatisfying(id uint64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.satisfying[id] = ok
}

// Satisfying reports whether every predicate held in a state.
func (g *Graph) Satisfying(id uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.satisfying[id]
}

// MarkIncomplete flags the graph as a partial state space.
func (g *Graph) MarkIncomplete(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.incomplete = true
	g.reason = reason
}

// Incomplete reports whether exploration stopped before the state space was
// exhausted.
func (g *Graph) Incomplete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incomplete
}

// IncompleteReason explains why the graph is incomplete.
func (g *Graph) IncompleteReason() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reason
}

// NodeIDs implements algorithms.Graph.
func (g *Graph) NodeIDs() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]uint64, len(g.states))
	for i, s := range g.states {
		ids[i] = s.ID
	}
	return ids
}

// GetOutgoingEdges implements algorithms.Graph. Every transition weighs 1.
func (g *Graph) GetOutgoingEdges(id uint64) []algorithms.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]algorithms.Edge, len(g.out[id]))
	for i, t := range g.out[id] {
		out[i] = algorithms.Edge{
			FromNodeID: t.From,
			ToNodeID:   t.To,
			Weight:     1,
			Label:      t.Rule,
			Index:      t.Occurrence,
		}
	}
	return out
}

// Path is a walk through the graph.
type Path struct {
	States      []*State
	Transitions []Transition
}

// ShortestPath returns a path with the fewest transitions from one state to
// another.
func (g *Graph) ShortestPath(from, to uint64) (*Path, bool) {
	if _, ok := g.State(from); !ok {
		return nil, false
	}
	p, ok := algorithms.WeightedShortestPath(g, from, to)
	if !ok {
		return nil, false
	}
	out := &Path{}
	for _, id := range p.Nodes {
		s, _ := g.State(id)
		out.States = append(out.States, s)
	}
	for _, e := range p.Edges {
		out.Transitions = append(out.Transitions, Transition{From: e.FromNodeID, To: e.ToNodeID, Rule: e.Label, Occurrence: e.Index})
	}
	return out, true
}

// Depths returns the transition distance of every reachable state from the
// initial state.
func (g *Graph) Depths() map[uint64]int {
	first := g.Initial()
	if first == nil {
		return map[uint64]int{}
	}
	return algorithms.AllShortestPaths(g, first.ID)
}

// Cycles returns one cycle per DFS back edge.
func (g *Graph) Cycles() []algorithms.Cycle {
	return algorithms.DetectCycles(g)
}

// TerminalComponents returns the strongly connected components without
// outgoing transitions: deadlocked states and inescapable loops.
func (g *Graph) TerminalComponents() []*algorithms.Component {
	return algorithms.TerminalComponents(g, algorithms.StronglyConnectedComponents(g))
}

// Deadlocks returns the IDs of states without outgoing transitions.
func (g *Graph) Deadlocks() []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []uint64
	for _, s := range g.states {
		if len(g.out[s.ID]) == 0 {
			out = append(out, s.ID)
		}
	}
	return out
}
