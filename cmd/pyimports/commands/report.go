package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sieverett/Python-Import-Analyzer/pkg/persist"
	"github.com/sieverett/Python-Import-Analyzer/pkg/report"
)

// ErrChanged is returned by diff --fail-on-change when the snapshots differ.
var ErrChanged = errors.New("import graph changed")

// ReportCommand renders a saved snapshot.
type ReportCommand struct {
	filterFlags
	renderFlags
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	c := &ReportCommand{}

	cobraCmd := &cobra.Command{
		Use:   "report <snapshot>",
		Short: "Render a saved analysis snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  c.Run,
	}

	c.filterFlags.register(cobraCmd)
	c.renderFlags.register(cobraCmd)

	return cobraCmd
}

// Run executes the report command.
func (c *ReportCommand) Run(cmd *cobra.Command, args []string) error {
	result, err := persist.LoadResult(args[0])
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	return c.render(cmd, result, c.filter())
}

// DiffCommand compares two snapshots.
type DiffCommand struct {
	format       string
	output       string
	noColor      bool
	failOnChange bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	c := &DiffCommand{}

	cobraCmd := &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "Compare two analysis snapshots",
		Long: `Compare two saved snapshots and list added or removed files and imports,
and files that became or stopped being unused. Paths are compared relative to
each snapshot's root.`,
		Args: cobra.ExactArgs(2),
		RunE: c.Run,
	}

	cobraCmd.Flags().StringVarP(&c.format, "format", "f", report.FormatText, "Output format: text, json, or yaml")
	cobraCmd.Flags().StringVarP(&c.output, "output", "o", "", "Output file (default: stdout)")
	cobraCmd.Flags().BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	cobraCmd.Flags().BoolVar(&c.failOnChange, "fail-on-change", false, "Exit with an error when the snapshots differ")

	return cobraCmd
}

// Run executes the diff command.
func (c *DiffCommand) Run(cmd *cobra.Command, args []string) error {
	before, err := persist.LoadResult(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}

	after, err := persist.LoadResult(args[1])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[1], err)
	}

	change := report.Compare(before, after)

	err = withOutput(cmd, c.output, func(w io.Writer) error {
		return report.WriteChange(w, change, report.Options{Format: c.format, NoColor: c.noColor})
	})
	if err != nil {
		return err
	}

	if c.failOnChange && !change.IsEmpty() {
		return ErrChanged
	}

	return nil
}
