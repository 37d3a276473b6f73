package algorithms

// Cycle represents a detected cycle as a sequence of node IDs
type Cycle []uint64

const (
	white = 0 // Unvisited
	gray  = 1 // Currently visiting (in recursion stack)
	black = 2 // Finished visiting
)

// DetectCycles finds cycles in the graph using DFS with three-color marking.
// One cycle is reported per back edge, so the result is a cycle basis of the
// DFS forest rather than every elementary cycle.
//
// When we encounter a gray node during DFS, we've found a back edge, which
// indicates a cycle.
func DetectCycles(graph Graph) []Cycle {
	color := make(map[uint64]int)
	parent := make(map[uint64]uint64)
	cycles := make([]Cycle, 0)

	// DFS from each unvisited node to cover disconnected components
	for _, nodeID := range graph.NodeIDs() {
		if color[nodeID] == white {
			dfsDetectCycle(graph, nodeID, color, parent, &cycles)
		}
	}

	return cycles
}

func dfsDetectCycle(
	graph Graph,
	nodeID uint64,
	color map[uint64]int,
	parent map[uint64]uint64,
	cycles *[]Cycle,
) {
	color[nodeID] = gray

	for _, edge := range graph.GetOutgoingEdges(nodeID) {
		neighborID := edge.ToNodeID

		if neighborID == nodeID {
			*cycles = append(*cycles, Cycle{nodeID})
			continue
		}

		switch color[neighborID] {
		case white:
			parent[neighborID] = nodeID
			dfsDetectCycle(graph, neighborID, color, parent, cycles)
		case gray:
			*cycles = append(*cycles, extractCycle(neighborID, nodeID, parent))
		}
		// black: forward or cross edge, no cycle through it
	}

	color[nodeID] = black
}

// extractCycle walks parent pointers back from end to start. The result is
// in edge order: start, ..., end, with the back edge closing it.
func extractCycle(start, end uint64, parent map[uint64]uint64) Cycle {
	cycle := Cycle{end}
	for current := end; current != start; {
		p, exists := parent[current]
		if !exists {
			break
		}
		current = p
		cycle = append(cycle, current)
	}
	for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
		cycle[i], cycle[j] = cycle[j], cycle[i]
	}
	return cycle
}

// CycleStats provides statistics about detected cycles
type CycleStats struct {
	TotalCycles   int
	ShortestCycle int
	LongestCycle  int
	AverageLength float64
	SelfLoops     int
}

// AnalyzeCycles computes statistics about detected cycles
func AnalyzeCycles(cycles []Cycle) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}

	stats := CycleStats{
		TotalCycles:   len(cycles),
		ShortestCycle: len(cycles[0]),
		LongestCycle:  len(cycles[0]),
	}

	totalLength := 0
	for _, cycle := range cycles {
		length := len(cycle)
		totalLength += length

		if length == 1 {
			stats.SelfLoops++
		}
		if length < stats.ShortestCycle {
			stats.ShortestCycle = length
		}
		if length > stats.LongestCycle {
			stats.LongestCycle = length
		}
	}

	stats.AverageLength = float64(totalLength) / float64(len(cycles))
	return stats
}

// HasCycle checks if the graph contains any cycle, stopping at the first.
func HasCycle(graph Graph) bool {
	color := make(map[uint64]int)
	for _, nodeID := range graph.NodeIDs() {
		if color[nodeID] == white && hasCycleDFS(graph, nodeID, color) {
			return true
		}
	}
	return false
}

func hasCycleDFS(graph Graph, nodeID uint64, color map[uint64]int) bool {
	color[nodeID] = gray

	for _, edge := range graph.GetOutgoingEdges(nodeID) {
		neighborID := edge.ToNodeID
		if neighborID == nodeID || color[neighborID] == gray {
			return true
		}
		if color[neighborID] == white && hasCycleDFS(graph, neighborID, color) {
			return true
		}
	}

	color[nodeID] = black
	return false
}
