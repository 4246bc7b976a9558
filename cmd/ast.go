// Copyright © 2024 The perlscope authors

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luthersystems/perlscope/parser"
	"github.com/luthersystems/perlscope/parser/token"
)

var astCmd = &cobra.Command{
	Use:   "ast [files...]",
	Short: "Print the syntax tree of Perl source",
	Long: `Print the syntax tree perlscope builds for Perl source, one
s-expression per top-level statement.

With no files, reads from stdin. Syntax errors are printed to stderr; the
tree built around them is still printed. Exits 1 if any file has syntax
errors.

Examples:
  perlscope ast script.pl
  echo 'my ($a, @b) = @_;' | perlscope ast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := false
		if len(args) == 0 {
			src, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return &exitError{code: 2, err: fmt.Errorf("reading stdin: %w", err)}
			}
			tree, errs := parser.Parse(stdinName, src)
			if err := tree.Dump(cmd.OutOrStdout()); err != nil {
				return &exitError{code: 2, err: err}
			}
			failed = printParseErrors(cmd.ErrOrStderr(), errs)
		}
		for _, path := range args {
			tree, _, errs, err := parser.ParseFile(path)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), ";; %s\n", path)
			}
			if err := tree.Dump(cmd.OutOrStdout()); err != nil {
				return &exitError{code: 2, err: err}
			}
			if printParseErrors(cmd.ErrOrStderr(), errs) {
				failed = true
			}
		}
		if failed {
			return &exitError{code: 1}
		}
		return nil
	},
}

func printParseErrors(w io.Writer, errs []*token.LocationError) bool {
	for _, err := range errs {
		fmt.Fprintln(w, err)
	}
	return len(errs) > 0
}

func init() {
	rootCmd.AddCommand(astCmd)
}
