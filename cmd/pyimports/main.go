// Package main provides the entry point for the pyimports CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/sieverett/Python-Import-Analyzer/cmd/pyimports/commands"
	"github.com/sieverett/Python-Import-Analyzer/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
