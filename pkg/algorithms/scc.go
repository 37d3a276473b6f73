package algorithms

import "sort"

// Component is one strongly connected component.
type Component struct {
	ID    int
	Nodes []uint64
	Size  int
}

// SCCResult holds the result of Tarjan's strongly connected components algorithm.
type SCCResult struct {
	Components     []*Component
	NodeComponent  map[uint64]int
	LargestSCC     *Component
	SingletonCount int
}

// CondensationEdge represents a directed edge in the condensation DAG, where each
// SCC has been contracted to a single node.
type CondensationEdge struct {
	FromSCCID int
	ToSCCID   int
	EdgeCount int
}

// StronglyConnectedComponents runs Tarjan's algorithm in O(V+E). Only
// outgoing edges are followed. The DFS keeps its own frame stack so that
// long reaction chains do not grow the goroutine stack.
func StronglyConnectedComponents(graph Graph) *SCCResult {
	ids := graph.NodeIDs()

	type frame struct {
		node  uint64
		edges []Edge
		next  int
	}

	index := make(map[uint64]int, len(ids))
	low := make(map[uint64]int, len(ids))
	onStack := make(map[uint64]bool, len(ids))
	var pending []uint64
	res := &SCCResult{NodeComponent: make(map[uint64]int, len(ids))}

	visit := func(u uint64) frame {
		index[u] = len(index)
		low[u] = index[u]
		onStack[u] = true
		pending = append(pending, u)
		return frame{node: u, edges: graph.GetOutgoingEdges(u)}
	}

	// closeComponent pops the members of the component rooted at u.
	closeComponent := func(u uint64) {
		c := &Component{ID: len(res.Components)}
		for {
			w := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			onStack[w] = false
			res.NodeComponent[w] = c.ID
			c.Nodes = append(c.Nodes, w)
			if w == u {
				break
			}
		}
		sort.Slice(c.Nodes, func(i, j int) bool { return c.Nodes[i] < c.Nodes[j] })
		c.Size = len(c.Nodes)
		res.Components = append(res.Components, c)
	}

	for _, root := range ids {
		if _, seen := index[root]; seen {
			continue
		}
		frames := []frame{visit(root)}
		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			if top.next < len(top.edges) {
				v := top.edges[top.next].ToNodeID
				top.next++
				if _, seen := index[v]; !seen {
					frames = append(frames, visit(v))
				} else if onStack[v] {
					low[top.node] = min(low[top.node], index[v])
				}
				continue
			}

			u := top.node
			frames = frames[:len(frames)-1]
			if low[u] == index[u] {
				closeComponent(u)
			}
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				low[parent] = min(low[parent], low[u])
			}
		}
	}

	for _, c := range res.Components {
		if c.Size == 1 {
			res.SingletonCount++
		}
		if res.LargestSCC == nil || c.Size > res.LargestSCC.Size {
			res.LargestSCC = c
		}
	}
	return res
}

// Condensation contracts every component to one node and counts the edges
// running between components.
func Condensation(graph Graph, scc *SCCResult) []CondensationEdge {
	type pair struct{ from, to int }
	counts := make(map[pair]int)
	for id, from := range scc.NodeComponent {
		for _, e := range graph.GetOutgoingEdges(id) {
			if to, ok := scc.NodeComponent[e.ToNodeID]; ok && to != from {
				counts[pair{from, to}]++
			}
		}
	}

	out := make([]CondensationEdge, 0, len(counts))
	for k, n := range counts {
		out = append(out, CondensationEdge{FromSCCID: k.from, ToSCCID: k.to, EdgeCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromSCCID == out[j].FromSCCID {
			return out[i].ToSCCID < out[j].ToSCCID
		}
		return out[i].FromSCCID < out[j].FromSCCID
	})
	return out
}

// TerminalComponents returns the components no edge leaves. In a state
// space these are the deadlocks (a single state without successors) and
// the livelocks the system can never escape.
func TerminalComponents(graph Graph, scc *SCCResult) []*Component {
	leaves := make(map[int]bool, len(scc.Components))
	for _, e := range Condensation(graph, scc) {
		leaves[e.FromSCCID] = true
	}
	var out []*Component
	for _, c := range scc.Components {
		if !leaves[c.ID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nodes[0] < out[j].Nodes[0] })
	return out
}
