// Package report renders analysis results for terminals and machines.
package report

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/persist"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Module status labels.
const (
	StatusRequired = "required"
	StatusUnused   = "unused"
	StatusFailed   = "parse error"
	StatusGraph    = "-"
)

// ErrUnknownFormat is returned for an output format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Options controls rendering.
type Options struct {
	Format string
	// MaxItems caps the module table. Zero shows every module.
	MaxItems int
	// ShowEdges adds a table of every import edge.
	ShowEdges bool
	// ShowUnresolved lists imports that named no project file.
	ShowUnresolved bool
	NoColor        bool
}

// Write renders r to w.
func Write(w io.Writer, r *analysis.Result, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case FormatText, "":
		return writeText(w, r, opts)
	case FormatJSON, FormatYAML:
		codec, err := persist.CodecByName(opts.Format)
		if err != nil {
			return err
		}

		return codec.Encode(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

type palette struct {
	title, good, bad, warn, note *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		title: color.New(color.Bold),
		good:  color.New(color.FgGreen),
		bad:   color.New(color.FgRed),
		warn:  color.New(color.FgYellow),
		note:  color.New(color.FgCyan),
	}

	if noColor {
		for _, c := range []*color.Color{p.title, p.good, p.bad, p.warn, p.note} {
			c.DisableColor()
		}
	}

	return p
}

func writeText(w io.Writer, r *analysis.Result, opts Options) error {
	p := newPalette(opts.NoColor)

	var sb strings.Builder

	sb.WriteString(p.title.Sprintf("Python imports: %s", r.Root))

	if r.ModuleBase != "" {
		fmt.Fprintf(&sb, " (module base %s)", r.ModuleBase)
	}

	sb.WriteString("\n")

	if r.EntryPoint != "" {
		fmt.Fprintf(&sb, "Entry point: %s\n", r.Name(r.EntryPoint))
	}

	sb.WriteString(summaryLine(r))
	sb.WriteString("\n\n")
	sb.WriteString(moduleTable(r, opts, p))

	if opts.ShowEdges && len(r.Edges) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(edgeTable(r))
	}

	if len(r.Unused) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.warn.Sprintf("Unused modules (%d):", len(r.Unused)))

		for _, file := range r.Unused {
			sb.WriteString("\n  - " + p.bad.Sprint(r.Name(file)))
		}
	}

	if len(r.Cycles) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.warn.Sprintf("Import cycles (%d):", len(r.Cycles)))

		for _, cycle := range r.Cycles {
			names := make([]string, 0, len(cycle)+1)
			for _, file := range cycle {
				names = append(names, r.Name(file))
			}

			names = append(names, names[0])
			sb.WriteString("\n  - " + strings.Join(names, " -> "))
		}
	}

	if len(r.ParseFailures) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.bad.Sprintf("Parse failures (%d):", len(r.ParseFailures)))

		for _, file := range sortedKeys(r.ParseFailures) {
			fmt.Fprintf(&sb, "\n  - %s: %s", relPath(r, file), r.ParseFailures[file])
		}
	}

	if opts.ShowUnresolved && len(r.Unresolved) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.note.Sprint("Unresolved imports:"))

		for _, file := range sortedKeys(r.Unresolved) {
			fmt.Fprintf(&sb, "\n  - %s: %s", r.Name(file), strings.Join(r.Unresolved[file], ", "))
		}
	}

	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())

	return err
}

func summaryLine(r *analysis.Result) string {
	parts := []string{
		"files " + humanize.Comma(int64(r.Stats.Files)),
		"imports " + humanize.Comma(int64(r.Stats.Edges)),
	}

	if r.EntryPoint != "" {
		parts = append(parts,
			"required "+humanize.Comma(int64(r.Stats.Required)),
			"unused "+humanize.Comma(int64(r.Stats.Unused)))
	}

	parts = append(parts,
		"parse failures "+humanize.Comma(int64(r.Stats.Failures)),
		"cycles "+humanize.Comma(int64(len(r.Cycles))))

	if r.Stats.Duration > 0 {
		parts = append(parts, r.Stats.Duration.Round(time.Millisecond).String())
	}

	return strings.Join(parts, " | ")
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func moduleTable(r *analysis.Result, opts Options, p palette) string {
	nodes := slices.Clone(r.Nodes)
	slices.SortStableFunc(nodes, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(r.Degrees[b].Total, r.Degrees[a].Total),
			cmp.Compare(r.Name(a), r.Name(b)),
		)
	})

	shown := nodes
	if opts.MaxItems > 0 && len(shown) > opts.MaxItems {
		shown = shown[:opts.MaxItems]
	}

	status := statusOf(r)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Module", "Path", "In", "Out", "Status"})

	for _, node := range shown {
		deg := r.Degrees[node]

		label := status[node]

		switch label {
		case StatusRequired:
			label = p.good.Sprint(label)
		case StatusUnused, StatusFailed:
			label = p.bad.Sprint(label)
		}

		tbl.AppendRow(table.Row{r.Name(node), relPath(r, node), deg.In, deg.Out, label})
	}

	footer := fmt.Sprintf("Total: %s files", humanize.Comma(int64(len(nodes))))
	if len(shown) < len(nodes) {
		footer = fmt.Sprintf("Showing %d of %s files", len(shown), humanize.Comma(int64(len(nodes))))
	}

	tbl.AppendFooter(table.Row{footer})

	return "Modules:\n" + tbl.Render()
}

func edgeTable(r *analysis.Result) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Importer", "Imported"})

	for _, edge := range r.Edges {
		tbl.AppendRow(table.Row{r.Name(edge.From), r.Name(edge.To)})
	}

	return "Imports:\n" + tbl.Render()
}

func statusOf(r *analysis.Result) map[string]string {
	out := make(map[string]string, len(r.Nodes))

	for _, node := range r.Nodes {
		out[node] = StatusGraph
	}

	for _, node := range r.Required {
		out[node] = StatusRequired
	}

	for _, node := range r.Unused {
		out[node] = StatusUnused
	}

	for node := range r.ParseFailures {
		out[node] = StatusFailed
	}

	return out
}

func relPath(r *analysis.Result, file string) string {
	if r.Root == "" {
		return file
	}

	rel, err := filepath.Rel(r.Root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}

	return filepath.ToSlash(rel)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
