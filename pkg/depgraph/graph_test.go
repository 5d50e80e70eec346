package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
)

func TestGraph_AddNodeAndEdge(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()

	assert.True(t, g.AddNode("a"))
	assert.False(t, g.AddNode("a"))

	assert.True(t, g.AddEdge("a", "b"))
	assert.False(t, g.AddEdge("a", "b"), "parallel edges are not created")

	assert.True(t, g.HasNode("b"), "edge endpoints become nodes")
	assert.True(t, g.HasEdge("a", "b"))
	assert.False(t, g.HasEdge("b", "a"))
	assert.False(t, g.HasEdge("a", "zzz"))
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_NodesAndEdgesSorted(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("c", "a")
	g.AddEdge("b", "c")
	g.AddEdge("b", "a")
	g.AddNode("d")

	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Nodes())
	assert.Equal(t, []depgraph.Edge{
		{From: "b", To: "a"},
		{From: "b", To: "c"},
		{From: "c", To: "a"},
	}, g.Edges())
}

func TestGraph_Degrees(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("main", "util")
	g.AddEdge("main", "helper")
	g.AddEdge("helper", "util")

	assert.Equal(t, 2, g.OutDegree("main"))
	assert.Equal(t, 0, g.InDegree("main"))
	assert.Equal(t, 2, g.InDegree("util"))
	assert.Equal(t, 0, g.OutDegree("util"))
	assert.Equal(t, 0, g.InDegree("missing"))

	assert.Equal(t, []string{"helper", "util"}, g.Successors("main"))
	assert.Equal(t, []string{"helper", "main"}, g.Predecessors("util"))
	assert.Empty(t, g.Successors("missing"))
	assert.Empty(t, g.Predecessors("missing"))
}

func TestGraph_DescendantsAndClosure(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddNode("d")

	desc, ok := g.Descendants("a")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, desc)

	closure, ok := g.Closure("a")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, closure)

	closure, ok = g.Closure("d")
	require.True(t, ok)
	assert.Equal(t, []string{"d"}, closure)

	_, ok = g.Descendants("nope")
	assert.False(t, ok)
}

func TestGraph_DescendantsOnCycleIncludesSelf(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	desc, ok := g.Descendants("a")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, desc)
}

func TestGraph_Neighborhood(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("x", "a")
	g.AddEdge("c", "d")

	near, ok := g.Neighborhood("b", 1)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"b": 0, "a": 1, "c": 1}, near)

	far, ok := g.Neighborhood("b", 2)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"b": 0, "a": 1, "c": 1, "x": 2, "d": 2}, far)

	self, ok := g.Neighborhood("b", 0)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"b": 0}, self)

	_, ok = g.Neighborhood("zzz", 3)
	assert.False(t, ok)
}

func TestGraph_FindCycle(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")
	g.AddEdge("c", "d")

	assert.Equal(t, []string{"a", "b", "c"}, g.FindCycle("a"))
	assert.Empty(t, g.FindCycle("d"))
	assert.Empty(t, g.FindCycle("missing"))
}

func TestGraph_Cycles(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("x", "y")
	g.AddEdge("y", "z")
	g.AddEdge("z", "x")
	g.AddEdge("p", "q")

	assert.Equal(t, [][]string{{"a", "b"}, {"x", "y", "z"}}, g.Cycles())
	assert.Empty(t, depgraph.NewGraph().Cycles())
}

func TestGraph_QueriesDoNotAddNodes(t *testing.T) {
	t.Parallel()

	g := depgraph.NewGraph()

	assert.True(t, g.AddNode("foo"))
	assert.False(t, g.AddNode("foo"))
	assert.True(t, g.AddEdge("bar", "foo"))

	assert.False(t, g.HasNode("baz"))
	assert.False(t, g.HasEdge("baz", "foo"))
	assert.Zero(t, g.InDegree("baz"))
	assert.Equal(t, 2, g.Len(), "queries do not add nodes")
	assert.Equal(t, []string{"bar", "foo"}, g.Nodes())
}
