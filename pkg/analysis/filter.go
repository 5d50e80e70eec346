package analysis

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrFocusNotFound is returned when a Filter focuses on a file that is not in the Result.
var ErrFocusNotFound = errors.New("focus node not found")

// Filter narrows a Result to a subgraph.
type Filter struct {
	// Include keeps files whose path or module name contains any keyword
	// (case-insensitive). Empty keeps everything.
	Include []string
	// Exclude drops files whose path or module name contains any keyword.
	Exclude []string
	// MinConnections and MaxConnections bound the total degree. A zero
	// MaxConnections is unbounded.
	MinConnections int
	MaxConnections int
	// Focus keeps only files within Depth undirected hops of this path or module name.
	Focus string
	Depth int
}

// IsZero reports whether f keeps every file.
func (f Filter) IsZero() bool {
	return len(cleanKeywords(f.Include)) == 0 &&
		len(cleanKeywords(f.Exclude)) == 0 &&
		f.MinConnections <= 0 && f.MaxConnections <= 0 &&
		f.Focus == ""
}

// Apply returns a new Result holding only the files f keeps and the edges
// between them. Degrees and display names keep their whole-graph values.
func (f Filter) Apply(r *Result) (*Result, error) {
	keep, err := f.selectNodes(r)
	if err != nil {
		return nil, err
	}

	out := Empty(r.Root, r.ModuleBase)
	out.EntryPoint = r.EntryPoint
	out.Stats.Duration = r.Stats.Duration

	for _, node := range r.Nodes {
		if !keep[node] {
			continue
		}

		out.Nodes = append(out.Nodes, node)
		out.Degrees[node] = r.Degrees[node]

		if name, ok := r.DisplayNames[node]; ok {
			out.DisplayNames[node] = name
		}

		if msg, ok := r.ParseFailures[node]; ok {
			out.ParseFailures[node] = msg
		}

		if names, ok := r.Unresolved[node]; ok {
			out.Unresolved[node] = names
		}
	}

	for _, edge := range r.Edges {
		if keep[edge.From] && keep[edge.To] {
			out.Edges = append(out.Edges, edge)
		}
	}

	out.Required = keepOnly(r.Required, keep)
	out.Unused = keepOnly(r.Unused, keep)

	for _, cycle := range r.Cycles {
		if allKept(cycle, keep) {
			out.Cycles = append(out.Cycles, cycle)
		}
	}

	out.refreshStats()

	return out, nil
}

func (f Filter) selectNodes(r *Result) (map[string]bool, error) {
	include := cleanKeywords(f.Include)
	exclude := cleanKeywords(f.Exclude)

	var near map[string]int

	if f.Focus != "" {
		focus, ok := r.Lookup(f.Focus)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFocusNotFound, f.Focus)
		}

		near, _ = r.Graph().Neighborhood(focus, f.Depth)
	}

	keep := make(map[string]bool, len(r.Nodes))

	for _, node := range r.Nodes {
		total := r.Degrees[node].Total
		if total < f.MinConnections || (f.MaxConnections > 0 && total > f.MaxConnections) {
			continue
		}

		if len(include) > 0 && !matchesAny(node, r.DisplayNames[node], include) {
			continue
		}

		if matchesAny(node, r.DisplayNames[node], exclude) {
			continue
		}

		if near != nil {
			if _, ok := near[node]; !ok {
				continue
			}
		}

		keep[node] = true
	}

	return keep, nil
}

func cleanKeywords(raw []string) []string {
	out := make([]string, 0, len(raw))

	for _, kw := range raw {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}

	return out
}

func matchesAny(path, name string, keywords []string) bool {
	path, name = strings.ToLower(path), strings.ToLower(name)

	return slices.ContainsFunc(keywords, func(kw string) bool {
		return strings.Contains(path, kw) || (name != "" && strings.Contains(name, kw))
	})
}

func keepOnly(items []string, keep map[string]bool) []string {
	out := make([]string, 0, len(items))

	for _, item := range items {
		if keep[item] {
			out = append(out, item)
		}
	}

	return out
}

func allKept(items []string, keep map[string]bool) bool {
	return !slices.ContainsFunc(items, func(item string) bool { return !keep[item] })
}
