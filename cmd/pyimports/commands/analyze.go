package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sieverett/Python-Import-Analyzer/pkg/analysis"
	"github.com/sieverett/Python-Import-Analyzer/pkg/observability"
	"github.com/sieverett/Python-Import-Analyzer/pkg/persist"
	"github.com/sieverett/Python-Import-Analyzer/pkg/report"
)

// ErrUnusedFound is returned by --fail-on-unused when the entry point leaves files unreachable.
var ErrUnusedFound = errors.New("unused modules found")

// filterFlags narrow what gets rendered.
type filterFlags struct {
	include []string
	exclude []string
	minConn int
	maxConn int
	focus   string
	depth   int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "Keep files whose path or module contains any keyword")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Drop files whose path or module contains any keyword")
	cmd.Flags().IntVar(&f.minConn, "min-connections", 0, "Minimum import edges per file")
	cmd.Flags().IntVar(&f.maxConn, "max-connections", 0, "Maximum import edges per file (0: unbounded)")
	cmd.Flags().StringVar(&f.focus, "focus", "", "Show only files near this path or module")
	cmd.Flags().IntVar(&f.depth, "depth", 1, "Hops around --focus to include")
}

func (f *filterFlags) filter() analysis.Filter {
	return analysis.Filter{
		Include:        f.include,
		Exclude:        f.exclude,
		MinConnections: f.minConn,
		MaxConnections: f.maxConn,
		Focus:          f.focus,
		Depth:          f.depth,
	}
}

// renderFlags control report output.
type renderFlags struct {
	format         string
	output         string
	maxItems       int
	showEdges      bool
	showUnresolved bool
	noColor        bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", report.FormatText, "Output format: text, json, or yaml")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVar(&f.maxItems, "max-items", 0, "Limit the module table (0: all)")
	cmd.Flags().BoolVar(&f.showEdges, "edges", false, "List every import edge")
	cmd.Flags().BoolVar(&f.showUnresolved, "unresolved", false, "List imports that name no project file")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

func (f *renderFlags) options() report.Options {
	return report.Options{
		Format:         f.format,
		MaxItems:       f.maxItems,
		ShowEdges:      f.showEdges,
		ShowUnresolved: f.showUnresolved,
		NoColor:        f.noColor,
	}
}

// render filters r and writes it to the configured destination.
func (f *renderFlags) render(cmd *cobra.Command, r *analysis.Result, filter analysis.Filter) error {
	shown := r

	if !filter.IsZero() {
		var err error

		shown, err = filter.Apply(r)
		if err != nil {
			return err
		}
	}

	return withOutput(cmd, f.output, func(w io.Writer) error {
		return report.Write(w, shown, f.options())
	})
}

func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	return errors.Join(write(file), file.Close())
}

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	analysisFlags
	filterFlags
	renderFlags

	entry        string
	save         string
	codec        string
	failOnUnused bool
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	c := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze [root]",
		Short: "Build the import graph of a Python project",
		Long: `Scan a directory of Python sources, resolve every import to a project file,
and print the resulting dependency graph. With --entry, files not reachable from
the entry point are reported as unused.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.Run,
	}

	c.analysisFlags.register(cobraCmd)
	c.filterFlags.register(cobraCmd)
	c.renderFlags.register(cobraCmd)

	cobraCmd.Flags().StringVarP(&c.entry, "entry", "e", "", "Entry file path or module name for reachability")
	cobraCmd.Flags().StringVar(&c.save, "save", "", "Write the full result to a snapshot file (.json, .yaml, .gob, .lz4)")
	cobraCmd.Flags().StringVar(&c.codec, "codec", "", "Snapshot codec, overriding the file extension: json, yaml, gob, lz4")
	cobraCmd.Flags().BoolVar(&c.failOnUnused, "fail-on-unused", false, "Exit with an error when unused files exist")

	return cobraCmd
}

// Run executes the analyze command.
func (c *AnalyzeCommand) Run(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	c.apply(cmd, cfg)

	rt, err := newRuntime(cfg, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()

	result, analyzeErr := rt.analyzer.Analyze(cmd.Context(), analysis.Request{
		Root:       root,
		ModuleBase: cfg.Analysis.ModuleBase,
		EntryPoint: c.entry,
	})
	if result == nil {
		return fmt.Errorf("analysis failed: %w", analyzeErr)
	}

	if c.save != "" {
		if err = c.saveSnapshot(result); err != nil {
			return err
		}
	}

	if err = c.render(cmd, result, c.filter()); err != nil {
		return err
	}

	if analyzeErr != nil {
		return analyzeErr
	}

	if c.failOnUnused && len(result.Unused) > 0 {
		return fmt.Errorf("%w: %d", ErrUnusedFound, len(result.Unused))
	}

	return nil
}

func (c *AnalyzeCommand) saveSnapshot(result *analysis.Result) error {
	var codec persist.Codec

	if c.codec != "" {
		var err error

		codec, err = persist.CodecByName(c.codec)
		if err != nil {
			return err
		}
	}

	if err := persist.SaveResult(c.save, codec, result); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}
