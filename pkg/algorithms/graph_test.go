package algorithms

// testGraph is a small in-memory Graph for tests.
type testGraph struct {
	next uint64
	ids  []uint64
	out  map[uint64][]Edge
}

func newTestGraph() *testGraph {
	return &testGraph{next: 1, out: make(map[uint64][]Edge)}
}

func (g *testGraph) node() uint64 {
	id := g.next
	g.next++
	g.ids = append(g.ids, id)
	return id
}

func (g *testGraph) edge(from, to uint64, weight float64) {
	g.out[from] = append(g.out[from], Edge{FromNodeID: from, ToNodeID: to, Weight: weight, Index: len(g.out[from])})
}

func (g *testGraph) NodeIDs() []uint64                 { return g.ids }
func (g *testGraph) GetOutgoingEdges(id uint64) []Edge { return g.out[id] }
