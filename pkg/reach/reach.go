// Package reach answers which files an entry point needs and which it never touches.
package reach

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
)

// ErrEntryPointNotFound is returned when the entry point is not a node of the graph.
var ErrEntryPointNotFound = errors.New("entry point not found in graph")

// Set is an unordered set of file paths.
type Set map[string]struct{}

// NewSet builds a Set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}

	return s
}

// Has reports membership.
func (s Set) Has(item string) bool {
	_, ok := s[item]

	return ok
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}

	slices.Sort(out)

	return out
}

// Required returns entry plus every file reachable from it.
func Required(g *depgraph.Graph, entry string) (Set, error) {
	closure, ok := g.Closure(entry)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryPointNotFound, entry)
	}

	return NewSet(closure...), nil
}

// Unused returns every node not required by entry.
func Unused(g *depgraph.Graph, entry string) (Set, error) {
	_, unused, err := Partition(g, entry)

	return unused, err
}

// Partition splits the nodes of g into the files entry requires and the rest
// with a single traversal.
func Partition(g *depgraph.Graph, entry string) (required, unused Set, err error) {
	required, err = Required(g, entry)
	if err != nil {
		return nil, nil, err
	}

	unused = make(Set)

	for _, node := range g.Nodes() {
		if !required.Has(node) {
			unused[node] = struct{}{}
		}
	}

	return required, unused, nil
}
