// Copyright © 2024 The perlscope authors

package cmd

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/repl"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Analyze Perl statements interactively",
	Long: `Start an interactive loop that analyzes Perl as you type it.

Each complete statement is appended to a buffer and the buffer is analyzed
again; only new findings are printed. Statements are never executed.
"use strict" is assumed. Line editing, history and tab completion of
declared variables and subroutines are supported via readline.

Commands:
  :ast      print the syntax tree of the buffer
  :source   print the buffer
  :reset    clear the buffer
  :help     list commands
  :quit     leave (or Ctrl-D)

Example session:
  perlscope> my $total = 0;
  perlscope> $totl += 1;
  error[undeclared-variable]: Variable '$totl' is used but not declared
  ...`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		lc, err := newCmdConfig(nil).lintConfig()
		if err != nil {
			return usageError("%w", err)
		}
		lc.AssumeStrict = true
		for _, name := range []string{lint.AnalyzerMissingStrict.Name, lint.AnalyzerMissingWarnings.Name} {
			if !slices.Contains(lc.Disable, name) {
				lc.Disable = append(lc.Disable, name)
			}
		}
		l, err := lint.NewLinter(lc)
		if err != nil {
			return usageError("%w", err)
		}
		return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
			repl.WithLinter(l),
			repl.WithColor(colorMode()))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
