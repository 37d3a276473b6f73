// Package algorithms provides graph algorithms over directed, labelled
// multigraphs such as reaction graphs: shortest paths, cycle detection and
// strongly connected components.
package algorithms

// Edge is one directed edge. Label is carried through to paths untouched.
type Edge struct {
	FromNodeID uint64
	ToNodeID   uint64
	Weight     float64
	Label      string
	Index      int
}

// Graph is the read surface the algorithms need. NodeIDs must be sorted so
// results are deterministic.
type Graph interface {
	NodeIDs() []uint64
	GetOutgoingEdges(nodeID uint64) []Edge
}
