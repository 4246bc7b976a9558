// Copyright © 2024 The perlscope authors

package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/luthersystems/perlscope/diagnostic"
	"github.com/luthersystems/perlscope/lint"
	"github.com/luthersystems/perlscope/parser/rdparser"
)

const helpText = `Enter Perl statements. Each complete statement is added to the buffer and
the buffer is analyzed again; new findings are printed.

  :ast      print the syntax tree of the buffer
  :source   print the buffer
  :reset    clear the buffer
  :help     show this message
  :quit     leave the REPL
`

type config struct {
	stdin       io.ReadCloser
	stderr      io.WriteCloser
	linter      *lint.Linter
	color       diagnostic.ColorMode
	historyFile string
}

func newConfig(opts ...Option) *config {
	config := &config{historyFile: historyPath()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithLinter sets the linter that analyzes the buffer.
func WithLinter(l *lint.Linter) Option {
	return func(c *config) {
		c.linter = l
	}
}

// WithColor sets the color mode of rendered findings.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// WithHistoryFile sets where input history is kept. An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.historyFile = path
	}
}

// RunRepl reads Perl source line by line and reports findings for each
// complete chunk until input ends.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	out := io.Writer(os.Stderr)
	if cfg.stderr != nil {
		out = cfg.stderr
	}

	p := rdparser.NewInteractive()
	p.SetPrompts(prompt, strings.Repeat(" ", len(prompt)))
	sess := NewSession(cfg.linter)

	ensureHistoryFilePermissions(cfg.historyFile)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            p.Prompt(),
		HistoryFile:       cfg.historyFile,
		HistorySearchFold: true,
		AutoComplete:      &completer{session: sess},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("starting line editor: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	ctx := context.Background()
	for {
		rl.SetPrompt(p.Prompt())
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			p.Reset()
			continue
		}
		if err != nil {
			return nil
		}
		if !p.IsParsing() {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				if quit := command(out, sess, trimmed); quit {
					return nil
				}
				continue
			}
		}
		chunk, ok := p.Feed(line)
		if !ok {
			continue
		}
		diags, err := sess.Eval(ctx, chunk)
		if err != nil {
			fmt.Fprintln(out, err) //nolint:errcheck // best-effort error display
			continue
		}
		renderDiagnostics(out, sess, cfg.color, diags)
	}
}

// command runs a ":" command and reports whether the REPL should exit.
func command(w io.Writer, sess *Session, cmd string) bool {
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":reset":
		sess.Reset()
		fmt.Fprintln(w, "buffer cleared") //nolint:errcheck // best-effort REPL output
	case ":ast":
		if err := sess.DumpAST(w); err != nil {
			fmt.Fprintln(w, err) //nolint:errcheck // best-effort error display
		}
	case ":source":
		io.WriteString(w, sess.Source()) //nolint:errcheck // best-effort REPL output
	case ":help":
		io.WriteString(w, helpText) //nolint:errcheck // best-effort REPL output
	default:
		fmt.Fprintf(w, "unknown command %s (try :help)\n", cmd) //nolint:errcheck // best-effort REPL output
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".perlscope_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // user's own history file
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}
