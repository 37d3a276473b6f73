package algorithms

import (
	"container/heap"
	"container/list"
)

// Path is a walk from its first to its last node. Edges[i] leads from
// Nodes[i] to Nodes[i+1].
type Path struct {
	Nodes []uint64
	Edges []Edge
	Cost  float64
}

// Len returns the number of edges on the path.
func (p *Path) Len() int {
	return len(p.Edges)
}

// AllShortestPaths returns the hop distance from source to every reachable
// node using BFS.
func AllShortestPaths(graph Graph, sourceID uint64) map[uint64]int {
	distances := make(map[uint64]int)
	distances[sourceID] = 0

	queue := list.New()
	queue.PushBack(sourceID)

	for queue.Len() > 0 {
		currentID := queue.Remove(queue.Front()).(uint64)
		currentDist := distances[currentID]

		for _, edge := range graph.GetOutgoingEdges(currentID) {
			neighborID := edge.ToNodeID
			if _, visited := distances[neighborID]; !visited {
				distances[neighborID] = currentDist + 1
				queue.PushBack(neighborID)
			}
		}
	}

	return distances
}

type pqItem struct {
	nodeID   uint64
	distance float64
	seq      int
}

// priorityQueue orders by distance, then by insertion so equal-cost paths
// resolve the same way on every run.
type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	item := old[len(old)-1]
	*pq = old[:len(old)-1]
	return item
}

// WeightedShortestPath finds the cheapest path from startID to endID with
// Dijkstra's algorithm. Negative weights are not supported. It returns false
// when endID is unreachable.
func WeightedShortestPath(graph Graph, startID, endID uint64) (*Path, bool) {
	distances := map[uint64]float64{startID: 0}
	via := make(map[uint64]Edge)
	done := make(map[uint64]bool)

	pq := &priorityQueue{{nodeID: startID}}
	seq := 1
	for pq.Len() > 0 {
		current := heap.Pop(pq).(pqItem)
		if done[current.nodeID] {
			continue
		}
		done[current.nodeID] = true

		if current.nodeID == endID {
			return buildPath(startID, endID, via, current.distance), true
		}

		for _, edge := range graph.GetOutgoingEdges(current.nodeID) {
			neighborID := edge.ToNodeID
			if done[neighborID] {
				continue
			}
			newDist := current.distance + edge.Weight
			if oldDist, seen := distances[neighborID]; !seen || newDist < oldDist {
				distances[neighborID] = newDist
				via[neighborID] = edge
				heap.Push(pq, pqItem{nodeID: neighborID, distance: newDist, seq: seq})
				seq++
			}
		}
	}

	return nil, false
}

func buildPath(startID, endID uint64, via map[uint64]Edge, cost float64) *Path {
	path := &Path{Nodes: []uint64{endID}, Cost: cost}
	for node := endID; node != startID; {
		edge := via[node]
		path.Edges = append(path.Edges, edge)
		node = edge.FromNodeID
		path.Nodes = append(path.Nodes, node)
	}

	for i, j := 0, len(path.Nodes)-1; i < j; i, j = i+1, j-1 {
		path.Nodes[i], path.Nodes[j] = path.Nodes[j], path.Nodes[i]
	}
	for i, j := 0, len(path.Edges)-1; i < j; i, j = i+1, j-1 {
		path.Edges[i], path.Edges[j] = path.Edges[j], path.Edges[i]
	}
	return path
}
