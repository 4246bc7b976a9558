// Copyright © 2024 The perlscope authors

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/perlscope/analysis"
	"github.com/luthersystems/perlscope/lint"
)

var (
	checksVerbose bool
	checksWidth   int
)

// checksCmd represents the checks command
var checksCmd = &cobra.Command{
	Use:   "checks [flags] [NAME]",
	Short: "Describe the available checks",
	Long: `Describe the checks "perlscope check" runs.

With no arguments, lists every check with its default severity and a one
line summary. With a NAME, shows the full description of that check.

Examples:
  perlscope checks                   Summarize all checks
  perlscope checks --long            Full descriptions of all checks
  perlscope checks unused-variable   Describe one check`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprint(w, lint.AnalyzerDoc(checksVerbose, checksWidth))
			return nil
		}
		for _, a := range lint.DefaultAnalyzers() {
			if a.Name != args[0] {
				continue
			}
			fmt.Fprintf(w, "%s (%s)\n\n%s\n", a.Name, a.Severity, strings.TrimSpace(a.Doc))
			if kind, ok := analysis.ParseIssueKind(a.Name); ok {
				if hint := analysis.Suggestion(kind, "$x"); hint != "" {
					fmt.Fprintf(w, "\nSuggested fix, for a variable $x:\n  %s\n", hint)
				}
			}
			return nil
		}
		return usageError("unknown check: %s (see perlscope checks)", args[0])
	},
}

func init() {
	rootCmd.AddCommand(checksCmd)

	checksCmd.Flags().BoolVarP(&checksVerbose, "long", "l", false,
		"Show the full description of each check.")
	checksCmd.Flags().IntVar(&checksWidth, "width", 80,
		"Wrap descriptions to this many columns.")
}
