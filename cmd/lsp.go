// Copyright © 2024 The perlscope authors

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luthersystems/perlscope/lsp"
)

// LSPCommand creates the "lsp" cobra command. Embedders can pass
// WithConfig, WithKnownFunctions or WithGlobals to adjust the diagnostics
// the server publishes.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the perlscope Language Server Protocol server",
		Long: `Start an LSP server for Perl source files.

The server publishes scope diagnostics as documents are opened and edited,
and answers code action, document symbol and folding range requests.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  perlscope lsp                      Start with stdio transport
  perlscope lsp --port 7998          Start with TCP on port 7998

Logs go to stderr, or to the file named by --log-file. Use -v or -vv for
more detail.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			l, err := cfg.linter()
			if err != nil {
				return usageError("%w", err)
			}
			srv := lsp.New(lsp.WithLinter(l))

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Noticef("perlscope LSP server listening on %s", addr)
				err = srv.RunTCP(addr)
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("lsp server: %w", err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
