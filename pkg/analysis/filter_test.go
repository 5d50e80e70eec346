package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
)

// fixtureResult is a hand-built Result over a small layered project:
//
//	app -> core -> util
//	app -> web  -> core
//	tests/test_core -> core
//	scripts/tool (isolated)
func fixtureResult() *analysis.Result {
	r := analysis.Empty("/p", "")
	r.EntryPoint = "/p/app.py"
	r.Nodes = []string{"/p/app.py", "/p/core.py", "/p/scripts/tool.py", "/p/tests/test_core.py", "/p/util.py", "/p/web.py"}
	r.Edges = []depgraph.Edge{
		{From: "/p/app.py", To: "/p/core.py"},
		{From: "/p/app.py", To: "/p/web.py"},
		{From: "/p/core.py", To: "/p/util.py"},
		{From: "/p/tests/test_core.py", To: "/p/core.py"},
		{From: "/p/web.py", To: "/p/core.py"},
	}
	r.DisplayNames = map[string]string{
		"/p/app.py":             "app",
		"/p/core.py":            "core",
		"/p/scripts/tool.py":    "scripts.tool",
		"/p/tests/test_core.py": "tests.test_core",
		"/p/util.py":            "util",
		"/p/web.py":             "web",
	}
	r.Degrees = map[string]analysis.Degree{
		"/p/app.py":             {In: 0, Out: 2, Total: 2},
		"/p/core.py":            {In: 3, Out: 1, Total: 4},
		"/p/scripts/tool.py":    {},
		"/p/tests/test_core.py": {In: 0, Out: 1, Total: 1},
		"/p/util.py":            {In: 1, Out: 0, Total: 1},
		"/p/web.py":             {In: 1, Out: 1, Total: 2},
	}
	r.Required = []string{"/p/app.py", "/p/core.py", "/p/util.py", "/p/web.py"}
	r.Unused = []string{"/p/scripts/tool.py", "/p/tests/test_core.py"}
	r.Unresolved = map[string][]string{"/p/util.py": {"os"}}

	return r
}

func TestFilter_ZeroKeepsEverything(t *testing.T) {
	t.Parallel()

	r := fixtureResult()
	f := analysis.Filter{Include: []string{" ", ""}}

	assert.True(t, f.IsZero())

	out, err := f.Apply(r)
	require.NoError(t, err)

	assert.Equal(t, r.Nodes, out.Nodes)
	assert.Equal(t, r.Edges, out.Edges)
	assert.Equal(t, r.Required, out.Required)
	assert.Equal(t, 6, out.Stats.Files)
	assert.Equal(t, 5, out.Stats.Edges)
}

func TestFilter_IncludeMatchesPathOrModule(t *testing.T) {
	t.Parallel()

	out, err := analysis.Filter{Include: []string{"CORE"}}.Apply(fixtureResult())
	require.NoError(t, err)

	assert.Equal(t, []string{"/p/core.py", "/p/tests/test_core.py"}, out.Nodes)
	assert.Equal(t, []depgraph.Edge{{From: "/p/tests/test_core.py", To: "/p/core.py"}}, out.Edges)
	assert.Equal(t, []string{"/p/core.py"}, out.Required)
	assert.Equal(t, []string{"/p/tests/test_core.py"}, out.Unused)
	assert.Empty(t, out.Unresolved)
}

func TestFilter_Exclude(t *testing.T) {
	t.Parallel()

	out, err := analysis.Filter{Exclude: []string{"tests", "scripts."}}.Apply(fixtureResult())
	require.NoError(t, err)

	assert.Equal(t, []string{"/p/app.py", "/p/core.py", "/p/util.py", "/p/web.py"}, out.Nodes)
	assert.Empty(t, out.Unused)
	assert.Equal(t, []string{"os"}, out.Unresolved["/p/util.py"])
}

func TestFilter_ConnectionBounds(t *testing.T) {
	t.Parallel()

	out, err := analysis.Filter{MinConnections: 2, MaxConnections: 2}.Apply(fixtureResult())
	require.NoError(t, err)

	assert.Equal(t, []string{"/p/app.py", "/p/web.py"}, out.Nodes)
	assert.Equal(t, []depgraph.Edge{{From: "/p/app.py", To: "/p/web.py"}}, out.Edges)
	assert.Equal(t, analysis.Degree{In: 1, Out: 1, Total: 2}, out.Degrees["/p/web.py"], "degrees keep whole-graph values")

	out, err = analysis.Filter{MinConnections: 1}.Apply(fixtureResult())
	require.NoError(t, err)
	assert.NotContains(t, out.Nodes, "/p/scripts/tool.py")
}

func TestFilter_FocusDepth(t *testing.T) {
	t.Parallel()

	out, err := analysis.Filter{Focus: "util", Depth: 1}.Apply(fixtureResult())
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/core.py", "/p/util.py"}, out.Nodes)

	out, err = analysis.Filter{Focus: "/p/util.py", Depth: 2}.Apply(fixtureResult())
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/app.py", "/p/core.py", "/p/tests/test_core.py", "/p/util.py", "/p/web.py"}, out.Nodes)
}

func TestFilter_FocusNotFound(t *testing.T) {
	t.Parallel()

	_, err := analysis.Filter{Focus: "nowhere"}.Apply(fixtureResult())
	require.ErrorIs(t, err, analysis.ErrFocusNotFound)
}

func TestFilter_KeepsCyclesInsideSelection(t *testing.T) {
	t.Parallel()

	r := analysis.Empty("/p", "")
	r.Nodes = []string{"/p/a.py", "/p/b.py", "/p/c.py"}
	r.Edges = []depgraph.Edge{{From: "/p/a.py", To: "/p/b.py"}, {From: "/p/b.py", To: "/p/a.py"}}
	r.Cycles = [][]string{{"/p/a.py", "/p/b.py"}}

	for _, n := range r.Nodes {
		r.Degrees[n] = analysis.Degree{}
	}

	kept, err := analysis.Filter{Include: []string{"a.py", "b.py"}}.Apply(r)
	require.NoError(t, err)
	assert.Len(t, kept.Cycles, 1)

	dropped, err := analysis.Filter{Exclude: []string{"b.py"}}.Apply(r)
	require.NoError(t, err)
	assert.Empty(t, dropped.Cycles)
}

func TestResult_GraphAndNeighborhood(t *testing.T) {
	t.Parallel()

	r := fixtureResult()

	g := r.Graph()
	assert.Equal(t, r.Nodes, g.Nodes())
	assert.Equal(t, r.Edges, g.Edges())

	near, err := r.Neighborhood("core", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"/p/core.py":            0,
		"/p/app.py":             1,
		"/p/web.py":             1,
		"/p/tests/test_core.py": 1,
		"/p/util.py":            1,
	}, near)

	_, err = r.Neighborhood("zzz", 1)
	require.ErrorIs(t, err, analysis.ErrFocusNotFound)

	assert.Equal(t, "web", r.Name("/p/web.py"))
	assert.Equal(t, "/p/other.py", r.Name("/p/other.py"))
}
