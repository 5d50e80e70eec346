package depgraph

// IntGraph is a directed graph over dense integer IDs with forward and reverse
// adjacency lists, so both successors and predecessors are O(1) to reach.
type IntGraph struct {
	// out[u] lists v for every edge u -> v, in insertion order.
	out [][]int
	// in[v] lists u for every edge u -> v, in insertion order.
	in    [][]int
	edges map[[2]int]struct{}
}

// NewIntGraph creates an empty IntGraph.
func NewIntGraph() *IntGraph {
	return &IntGraph{
		out:   make([][]int, 0),
		in:    make([][]int, 0),
		edges: make(map[[2]int]struct{}),
	}
}

// EnsureCapacity grows the graph so IDs below n are valid nodes.
func (g *IntGraph) EnsureCapacity(n int) {
	for len(g.out) < n {
		g.out = append(g.out, nil)
		g.in = append(g.in, nil)
	}
}

// AddNode makes id a node. Returns true if the graph grew.
func (g *IntGraph) AddNode(id int) bool {
	if id < len(g.out) {
		return false
	}

	g.EnsureCapacity(id + 1)

	return true
}

// AddEdge adds u -> v. Returns false when the edge already existed.
func (g *IntGraph) AddEdge(u, v int) bool {
	g.EnsureCapacity(max(u, v) + 1)

	key := [2]int{u, v}
	if _, exists := g.edges[key]; exists {
		return false
	}

	g.edges[key] = struct{}{}
	g.out[u] = append(g.out[u], v)
	g.in[v] = append(g.in[v], u)

	return true
}

// HasEdge reports whether u -> v exists.
func (g *IntGraph) HasEdge(u, v int) bool {
	_, ok := g.edges[[2]int{u, v}]

	return ok
}

// Len returns the number of nodes.
func (g *IntGraph) Len() int {
	return len(g.out)
}

// EdgeCount returns the number of edges.
func (g *IntGraph) EdgeCount() int {
	return len(g.edges)
}

// Reachable returns a visited mask of every node reachable from start through
// zero or more edges, start included. Breadth-first, O(V+E).
func (g *IntGraph) Reachable(start int) []bool {
	visited := make([]bool, len(g.out))
	if start < 0 || start >= len(g.out) {
		return visited
	}

	visited[start] = true
	queue := []int{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.out[u] {
			if !visited[v] {
				visited[v] = true
				queue = append(queue, v)
			}
		}
	}

	return visited
}

// Within returns node -> distance for every node at most depth undirected hops
// from start.
func (g *IntGraph) Within(start, depth int) map[int]int {
	dist := map[int]int{start: 0}
	frontier := []int{start}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []int

		for _, u := range frontier {
			for _, v := range g.in[u] {
				if _, seen := dist[v]; !seen {
					dist[v] = level
					next = append(next, v)
				}
			}

			for _, v := range g.out[u] {
				if _, seen := dist[v]; !seen {
					dist[v] = level
					next = append(next, v)
				}
			}
		}

		frontier = next
	}

	return dist
}

// FindCycle returns a cycle in the graph containing the start node.
// Returns empty slice if no cycle found.
func (g *IntGraph) FindCycle(start int) []int {
	if start < 0 || start >= len(g.out) {
		return []int{}
	}

	pathMap := map[int]int{start: -1} // node -> parent

	q := []int{start}

	for len(q) > 0 {
		u := q[0]
		q = q[1:]

		for _, v := range g.out[u] {
			if v == start {
				// Found cycle: u -> start.
				cycle := []int{start}
				for curr := u; curr != start && curr != -1; curr = pathMap[curr] {
					cycle = append(cycle, curr)
				}

				cycle = append(cycle, start)

				// Reverse to get start -> ... -> u -> start.
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}

				return cycle
			}

			if _, visited := pathMap[v]; !visited {
				pathMap[v] = u
				q = append(q, v)
			}
		}
	}

	return []int{}
}
