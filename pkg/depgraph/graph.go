// Package depgraph holds the file-level import graph of a Python project and the
// builder that derives it from a resolution table and per-file import records.
package depgraph

import (
	"cmp"
	"slices"
)

// Edge is one import dependency: From imports To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// Graph is a directed graph whose nodes are source file paths.
type Graph struct {
	index    *pathIndex
	intGraph *IntGraph
}

// NewGraph initializes an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index:    newPathIndex(),
		intGraph: NewIntGraph(),
	}
}

// AddNode inserts a node. Returns false when it already existed.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.index.id(name); exists {
		return false
	}

	return g.intGraph.AddNode(g.index.intern(name))
}

// AddEdge inserts from -> to, adding missing endpoints as nodes.
// Returns false when the edge already existed.
func (g *Graph) AddEdge(from, to string) bool {
	u := g.index.intern(from)
	v := g.index.intern(to)

	g.intGraph.AddNode(u)
	g.intGraph.AddNode(v)

	return g.intGraph.AddEdge(u, v)
}

// HasNode reports whether name is a node.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.index.id(name)

	return ok
}

// HasEdge reports whether from -> to is an edge.
func (g *Graph) HasEdge(from, to string) bool {
	u, okFrom := g.index.id(from)
	v, okTo := g.index.id(to)

	return okFrom && okTo && g.intGraph.HasEdge(u, v)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return g.index.len()
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return g.intGraph.EdgeCount()
}

// Nodes returns every node, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, g.index.len())
	for id := range g.index.len() {
		nodes = append(nodes, g.index.path(id))
	}

	slices.Sort(nodes)

	return nodes
}

// Edges returns every edge, sorted by (From, To).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.intGraph.EdgeCount())

	for u, targets := range g.intGraph.out {
		for _, v := range targets {
			edges = append(edges, Edge{From: g.index.path(u), To: g.index.path(v)})
		}
	}

	slices.SortFunc(edges, compareEdges)

	return edges
}

// Successors returns the files name imports, sorted.
func (g *Graph) Successors(name string) []string {
	id, ok := g.index.id(name)
	if !ok {
		return []string{}
	}

	return g.resolveSorted(g.intGraph.out[id])
}

// Predecessors returns the files importing name, sorted.
func (g *Graph) Predecessors(name string) []string {
	id, ok := g.index.id(name)
	if !ok {
		return []string{}
	}

	return g.resolveSorted(g.intGraph.in[id])
}

// InDegree returns how many files import name.
func (g *Graph) InDegree(name string) int {
	id, ok := g.index.id(name)
	if !ok {
		return 0
	}

	return len(g.intGraph.in[id])
}

// OutDegree returns how many files name imports.
func (g *Graph) OutDegree(name string) int {
	id, ok := g.index.id(name)
	if !ok {
		return 0
	}

	return len(g.intGraph.out[id])
}

// Descendants returns every node reachable from name through one or more edges,
// sorted. name itself is included only when it sits on a cycle.
// The second result is false when name is not a node.
func (g *Graph) Descendants(name string) ([]string, bool) {
	id, ok := g.index.id(name)
	if !ok {
		return nil, false
	}

	visited := g.intGraph.Reachable(id)
	visited[id] = len(g.intGraph.FindCycle(id)) > 0

	return g.collect(visited), true
}

// Closure returns name plus every node reachable from it, sorted.
// The second result is false when name is not a node.
func (g *Graph) Closure(name string) ([]string, bool) {
	id, ok := g.index.id(name)
	if !ok {
		return nil, false
	}

	return g.collect(g.intGraph.Reachable(id)), true
}

// Neighborhood returns node -> hop distance for every node within depth hops of
// name, following edges in either direction. name maps to 0.
func (g *Graph) Neighborhood(name string, depth int) (map[string]int, bool) {
	id, ok := g.index.id(name)
	if !ok {
		return nil, false
	}

	dist := g.intGraph.Within(id, depth)

	out := make(map[string]int, len(dist))
	for node, d := range dist {
		out[g.index.path(node)] = d
	}

	return out, true
}

// FindCycle returns a cycle through seed as seed -> ... -> seed without the
// closing repetition, or an empty slice.
func (g *Graph) FindCycle(seed string) []string {
	id, exists := g.index.id(seed)
	if !exists {
		return []string{}
	}

	cycleIDs := g.intGraph.FindCycle(id)

	if len(cycleIDs) > 1 && cycleIDs[0] == cycleIDs[len(cycleIDs)-1] {
		cycleIDs = cycleIDs[:len(cycleIDs)-1]
	}

	result := make([]string, len(cycleIDs))
	for i, cid := range cycleIDs {
		result[i] = g.index.path(cid)
	}

	return result
}

// Cycles returns one import cycle per group of files not yet covered by an
// earlier cycle, scanning nodes in sorted order.
func (g *Graph) Cycles() [][]string {
	covered := make(map[string]bool)
	cycles := make([][]string, 0)

	for _, node := range g.Nodes() {
		if covered[node] {
			continue
		}

		cycle := g.FindCycle(node)
		if len(cycle) == 0 {
			continue
		}

		for _, member := range cycle {
			covered[member] = true
		}

		cycles = append(cycles, cycle)
	}

	return cycles
}

func (g *Graph) collect(mask []bool) []string {
	out := make([]string, 0)

	for id, hit := range mask {
		if hit {
			out = append(out, g.index.path(id))
		}
	}

	slices.Sort(out)

	return out
}

func (g *Graph) resolveSorted(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.index.path(id)
	}

	slices.Sort(out)

	return out
}

func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}

	return cmp.Compare(a.To, b.To)
}
