package matching

// MaxBipartiteMatching computes a maximum matching with Hopcroft-Karp.
//
// adj[i] lists the right vertices (0..right-1) adjacent to left vertex i.
// It returns the matching size and, for every left vertex, its partner or -1.
func MaxBipartiteMatching(left, right int, adj [][]int) (int, []int) {
	const free = -1
	matchL := make([]int, left)
	matchR := make([]int, right)
	for i := range matchL {
		matchL[i] = free
	}
	for j := range matchR {
		matchR[j] = free
	}
	dist := make([]int, left)
	queue := make([]int, 0, left)

	bfs := func() bool {
		queue = queue[:0]
		found := false
		for i := 0; i < left; i++ {
			if matchL[i] == free {
				dist[i] = 0
				queue = append(queue, i)
			} else {
				dist[i] = -1
			}
		}
		for h := 0; h < len(queue); h++ {
			i := queue[h]
			for _, j := range adj[i] {
				k := matchR[j]
				if k == free {
					found = true
				} else if dist[k] < 0 {
					dist[k] = dist[i] + 1
					queue = append(queue, k)
				}
			}
		}
		return found
	}

	var dfs func(i int) bool
	dfs = func(i int) bool {
		for _, j := range adj[i] {
			k := matchR[j]
			if k == free || (dist[k] == dist[i]+1 && dfs(k)) {
				matchL[i] = j
				matchR[j] = i
				return true
			}
		}
		dist[i] = -1
		return false
	}

	size := 0
	for bfs() {
		for i := 0; i < left; i++ {
			if matchL[i] == free && dfs(i) {
				size++
			}
		}
	}
	return size, matchL
}
