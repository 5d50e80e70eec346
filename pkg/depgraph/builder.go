package depgraph

import (
	"slices"

	"github.com/sieverett/Python-Import-Analyzer/pkg/importmodel"
)

// Resolver is the part of a resolution table the builder needs.
type Resolver interface {
	Lookup(name string) (string, bool)
	LongestPrefix(name string) (string, string, bool)
}

// Build constructs the import graph of files.
//
// Every file becomes a node. Each imported name resolves to an edge either by an
// exact module-name match or, failing that, by the longest known module name it
// extends with a dot (`pkg.mod.func` -> `pkg.mod`). Names resolving to nothing are
// external dependencies and are returned per file in the second result.
// A file resolving an import to itself adds no edge.
func Build(files []string, table Resolver, records importmodel.Records) (*Graph, map[string][]string) {
	graph := NewGraph()
	unresolved := make(map[string][]string)

	sorted := slices.Clone(files)
	slices.Sort(sorted)

	for _, file := range sorted {
		graph.AddNode(file)
	}

	for _, file := range sorted {
		for _, name := range records.Imports(file) {
			target, ok := resolve(table, name)
			if !ok {
				unresolved[file] = append(unresolved[file], name)

				continue
			}

			if target != file {
				graph.AddEdge(file, target)
			}
		}
	}

	return graph, unresolved
}

func resolve(table Resolver, name string) (string, bool) {
	if target, ok := table.Lookup(name); ok {
		return target, true
	}

	_, target, ok := table.LongestPrefix(name)

	return target, ok
}
