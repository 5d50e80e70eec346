package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/depgraph"
	"github.com/sieverett/Python-Import-Analyzer/pkg/persist"
)

// Change lists what moved between two snapshots. Files are named by their
// path relative to each snapshot's root so checkouts in different places compare.
type Change struct {
	AddedFiles     []string        `json:"added_files"      yaml:"added_files"`
	RemovedFiles   []string        `json:"removed_files"    yaml:"removed_files"`
	AddedImports   []depgraph.Edge `json:"added_imports"    yaml:"added_imports"`
	RemovedImports []depgraph.Edge `json:"removed_imports"  yaml:"removed_imports"`
	NewlyUnused    []string        `json:"newly_unused"     yaml:"newly_unused"`
	NoLongerUnused []string        `json:"no_longer_unused" yaml:"no_longer_unused"`
	// UnusedDiff is a line diff of the two unused lists.
	UnusedDiff string `json:"unused_diff,omitempty" yaml:"unused_diff,omitempty"`
}

// IsEmpty reports whether nothing changed.
func (c Change) IsEmpty() bool {
	return len(c.AddedFiles) == 0 && len(c.RemovedFiles) == 0 &&
		len(c.AddedImports) == 0 && len(c.RemovedImports) == 0 &&
		len(c.NewlyUnused) == 0 && len(c.NoLongerUnused) == 0
}

// Compare computes the Change from before to after.
func Compare(before, after *analysis.Result) Change {
	oldFiles, newFiles := relSet(before, before.Nodes), relSet(after, after.Nodes)
	oldUnused, newUnused := relSet(before, before.Unused), relSet(after, after.Unused)
	oldEdges, newEdges := edgeSet(before), edgeSet(after)

	return Change{
		AddedFiles:     missingFrom(newFiles, oldFiles),
		RemovedFiles:   missingFrom(oldFiles, newFiles),
		AddedImports:   edgesMissingFrom(newEdges, oldEdges),
		RemovedImports: edgesMissingFrom(oldEdges, newEdges),
		NewlyUnused:    missingFrom(newUnused, oldUnused),
		NoLongerUnused: missingFrom(oldUnused, newUnused),
		UnusedDiff:     lineDiff(sortedKeys(oldUnused), sortedKeys(newUnused)),
	}
}

// WriteChange renders c to w in the requested format.
func WriteChange(w io.Writer, c Change, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case FormatText, "":
	case FormatJSON, FormatYAML:
		codec, err := persist.CodecByName(opts.Format)
		if err != nil {
			return err
		}

		return codec.Encode(w, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	p := newPalette(opts.NoColor)

	if c.IsEmpty() {
		_, err := io.WriteString(w, p.good.Sprint("No changes.")+"\n")

		return err
	}

	var sb strings.Builder

	section := func(title string, items []string, mark string, tint *color.Color) {
		if len(items) == 0 {
			return
		}

		fmt.Fprintf(&sb, "%s (%d):\n", title, len(items))

		for _, item := range items {
			sb.WriteString(tint.Sprint("  "+mark+" "+item) + "\n")
		}
	}

	section("Added files", c.AddedFiles, "+", p.good)
	section("Removed files", c.RemovedFiles, "-", p.bad)
	section("Added imports", edgeLines(c.AddedImports), "+", p.good)
	section("Removed imports", edgeLines(c.RemovedImports), "-", p.bad)
	section("Newly unused", c.NewlyUnused, "+", p.warn)
	section("No longer unused", c.NoLongerUnused, "-", p.note)

	_, err := io.WriteString(w, sb.String())

	return err
}

func relSet(r *analysis.Result, files []string) map[string]struct{} {
	out := make(map[string]struct{}, len(files))
	for _, file := range files {
		out[relPath(r, file)] = struct{}{}
	}

	return out
}

func edgeSet(r *analysis.Result) map[depgraph.Edge]struct{} {
	out := make(map[depgraph.Edge]struct{}, len(r.Edges))
	for _, edge := range r.Edges {
		out[depgraph.Edge{From: relPath(r, edge.From), To: relPath(r, edge.To)}] = struct{}{}
	}

	return out
}

func missingFrom(have, other map[string]struct{}) []string {
	out := make([]string, 0)

	for item := range have {
		if _, ok := other[item]; !ok {
			out = append(out, item)
		}
	}

	slices.Sort(out)

	return out
}

func edgesMissingFrom(have, other map[depgraph.Edge]struct{}) []depgraph.Edge {
	out := make([]depgraph.Edge, 0)

	for edge := range have {
		if _, ok := other[edge]; !ok {
			out = append(out, edge)
		}
	}

	slices.SortFunc(out, func(a, b depgraph.Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}

		return strings.Compare(a.To, b.To)
	})

	return out
}

func edgeLines(edges []depgraph.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, edge := range edges {
		out = append(out, edge.From+" -> "+edge.To)
	}

	return out
}

// lineDiff renders a unified-style diff of two line lists, one marker per line.
func lineDiff(before, after []string) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder

	changed := false

	for _, d := range diffs {
		mark := " "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			mark, changed = "+", true
		case diffmatchpatch.DiffDelete:
			mark, changed = "-", true
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(mark + line)
		}
	}

	if !changed {
		return ""
	}

	return sb.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
