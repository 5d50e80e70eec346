package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sieverett/Python-Import-Analyzer/pkg/version"
)

// NewRootCommand assembles the pyimports command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyimports",
		Short: "Python import dependency graphs and unused module detection",
		Long: `pyimports builds the import dependency graph of a Python source tree.

Commands:
  analyze   Build the graph and report unused modules
  report    Render a saved snapshot
  diff      Compare two snapshots
  mcp       Serve the analysis over the Model Context Protocol`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(ConfigFlag, "", "Config file (default: ./pyimports.yaml, ./config/, $HOME/.config/pyimports/)")

	rootCmd.AddCommand(NewAnalyzeCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewDiffCommand())
	rootCmd.AddCommand(NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
