package analysis

import (
	"fmt"
	"time"

	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
)

// Result is the serializable outcome of one analysis.
type Result struct {
	Root          string              `json:"root"                  yaml:"root"`
	ModuleBase    string              `json:"module_base,omitempty" yaml:"module_base,omitempty"`
	EntryPoint    string              `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`
	Nodes         []string            `json:"nodes"                 yaml:"nodes"`
	Edges         []depgraph.Edge     `json:"edges"                 yaml:"edges"`
	DisplayNames  map[string]string   `json:"display_names"         yaml:"display_names"`
	Degrees       map[string]Degree   `json:"degrees"               yaml:"degrees"`
	Required      []string            `json:"required"              yaml:"required"`
	Unused        []string            `json:"unused"                yaml:"unused"`
	ParseFailures map[string]string   `json:"parse_failures"        yaml:"parse_failures"`
	Unresolved    map[string][]string `json:"unresolved"            yaml:"unresolved"`
	Cycles        [][]string          `json:"cycles"                yaml:"cycles"`
	Stats         Stats               `json:"stats"                 yaml:"stats"`
}

// Degree counts the import edges touching one file.
type Degree struct {
	In    int `json:"in"    yaml:"in"`
	Out   int `json:"out"   yaml:"out"`
	Total int `json:"total" yaml:"total"`
}

// Stats summarises a Result.
type Stats struct {
	Files    int           `json:"files"    yaml:"files"`
	Edges    int           `json:"edges"    yaml:"edges"`
	Required int           `json:"required" yaml:"required"`
	Unused   int           `json:"unused"   yaml:"unused"`
	Failures int           `json:"failures" yaml:"failures"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Empty returns a Result for root with no files.
func Empty(root, base string) *Result {
	return &Result{
		Root:          root,
		ModuleBase:    base,
		Nodes:         []string{},
		Edges:         []depgraph.Edge{},
		DisplayNames:  map[string]string{},
		Degrees:       map[string]Degree{},
		Required:      []string{},
		Unused:        []string{},
		ParseFailures: map[string]string{},
		Unresolved:    map[string][]string{},
		Cycles:        [][]string{},
	}
}

// Graph rebuilds the dependency graph described by r.
func (r *Result) Graph() *depgraph.Graph {
	g := depgraph.NewGraph()

	for _, node := range r.Nodes {
		g.AddNode(node)
	}

	for _, edge := range r.Edges {
		g.AddEdge(edge.From, edge.To)
	}

	return g
}

// Name returns the display name of file, falling back to the path itself.
func (r *Result) Name(file string) string {
	if name, ok := r.DisplayNames[file]; ok {
		return name
	}

	return file
}

// Lookup finds a node by path or by display name.
func (r *Result) Lookup(ref string) (string, bool) {
	if _, ok := r.Degrees[ref]; ok {
		return ref, true
	}

	for file, name := range r.DisplayNames {
		if name == ref {
			return file, true
		}
	}

	return "", false
}

// Neighborhood returns the files within depth undirected hops of ref, a path or
// module name, mapped to their hop distance.
func (r *Result) Neighborhood(ref string, depth int) (map[string]int, error) {
	node, ok := r.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFocusNotFound, ref)
	}

	near, _ := r.Graph().Neighborhood(node, depth)

	return near, nil
}

func (r *Result) refreshStats() {
	r.Stats.Files = len(r.Nodes)
	r.Stats.Edges = len(r.Edges)
	r.Stats.Required = len(r.Required)
	r.Stats.Unused = len(r.Unused)
	r.Stats.Failures = len(r.ParseFailures)
}

func degreesOf(g *depgraph.Graph) map[string]Degree {
	out := make(map[string]Degree, g.Len())

	for _, node := range g.Nodes() {
		in, o := g.InDegree(node), g.OutDegree(node)
		out[node] = Degree{In: in, Out: o, Total: in + o}
	}

	return out
}
