// Copyright © 2024 The perlscope authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/perlscope/lint"
)

// stdinName names source read from standard input in diagnostics.
const stdinName = "<stdin>"

// CheckCommand creates the "check" cobra command. Embedders can pass
// WithConfig, WithKnownFunctions or WithGlobals to adjust the analysis.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		jsonOut      bool
		checks       string
		listAll      bool
		excludes     []string
		jobs         int
		assumeStrict bool
	)

	cmd := &cobra.Command{
		Use:     "check [flags] [files...]",
		Aliases: []string{"lint"},
		Short:   "Find scoping mistakes in Perl source files",
		Long: `Find scoping mistakes in Perl source files.

Each check is an independent analyzer that examines the parsed program and
the scopes it declares. With no files, reads from stdin. Arguments ending in
"/..." and directories are expanded to every .pl, .pm and .t file below them.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  $x = 42; # nolint:undeclared-variable

To suppress all checks on a line:
  $x = 42; # nolint

Examples:
  perlscope check script.pl                   # Check a single file
  perlscope check lib/...                     # Check a whole tree
  perlscope check --json script.pl            # Output diagnostics as JSON
  perlscope check --checks=unused-variable .  # Run only specific checks
  perlscope check --exclude=blib ./...        # Skip a directory
  perlscope check --list                      # List available checks
  cat script.pl | perlscope check             # Check stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			lc, err := cfg.lintConfig()
			if err != nil {
				return usageError("%w", err)
			}
			if checks != "" {
				lc.Checks = nil
				for _, name := range strings.Split(checks, ",") {
					if name = strings.TrimSpace(name); name != "" {
						lc.Checks = append(lc.Checks, name)
					}
				}
			}
			if cmd.Flags().Changed("assume-strict") {
				lc.AssumeStrict = assumeStrict
			}
			lc.Exclude = append(lc.Exclude, excludes...)
			if cmd.Flags().Changed("jobs") {
				lc.Jobs = jobs
			}
			l, err := lint.NewLinter(lc)
			if err != nil {
				return usageError("%w", err)
			}

			r := newRenderer()
			var diags []lint.Diagnostic
			if len(args) == 0 {
				var src []byte
				diags, src, err = checkReader(cmd.Context(), l, cmd.InOrStdin())
				r.SourceReader = func(name string) ([]byte, error) {
					if name == stdinName {
						return src, nil
					}
					return os.ReadFile(name) //#nosec G304
				}
			} else {
				diags, err = checkPaths(cmd.Context(), l, args, lc.Exclude, lc.Jobs)
			}
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if len(diags) == 0 {
				return nil
			}

			if jsonOut {
				if err := lint.FormatJSON(cmd.OutOrStdout(), diags); err != nil {
					return &exitError{code: 2, err: err}
				}
			} else if err := renderLintDiagnostics(cmd.ErrOrStderr(), r, diags); err != nil {
				return &exitError{code: 2, err: err}
			}
			return &exitError{code: 1}
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&jsonOut, "json", false, "Output diagnostics as JSON.")
	flags.StringVar(&checks, "checks", "", "Comma-separated list of checks to run (default: all).")
	flags.BoolVar(&listAll, "list", false, "List available checks and exit.")
	flags.StringArrayVar(&excludes, "exclude", nil, "Glob pattern for files to exclude (may be repeated).")
	flags.IntVarP(&jobs, "jobs", "j", 0, "Files analyzed in parallel (default: number of CPUs).")
	flags.BoolVar(&assumeStrict, "assume-strict", false, "Analyze as if every file began with \"use strict\".")

	return cmd
}

func checkReader(ctx context.Context, l *lint.Linter, r io.Reader) ([]lint.Diagnostic, []byte, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading stdin: %w", err)
	}
	diags, err := l.LintFile(contextOrBackground(ctx), src, stdinName)
	return diags, src, err
}

// checkPaths lints the files named by args with at most jobs files in
// flight. Diagnostics keep the order of the expanded arguments.
func checkPaths(ctx context.Context, l *lint.Linter, args, excludes []string, jobs int) ([]lint.Diagnostic, error) {
	paths, err := expandArgs(args)
	if err != nil {
		return nil, err
	}
	paths = filterExcludes(paths, excludes)
	log.Debugf("checking %d files", len(paths))

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([][]lint.Diagnostic, len(paths))
	g, gctx := errgroup.WithContext(contextOrBackground(ctx))
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			src, err := os.ReadFile(path) //#nosec G304
			if err != nil {
				return err
			}
			diags, err := l.LintFile(gctx, src, path)
			if err != nil {
				return err
			}
			results[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []lint.Diagnostic
	for _, diags := range results {
		all = append(all, diags...)
	}
	return all, nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
