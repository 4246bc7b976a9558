// Copyright © 2024 The perlscope authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/luthersystems/perlscope/lint"
)

const defaultDebounce = 250 * time.Millisecond

// WatchCommand creates the "watch" cobra command.
func WatchCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		debounce time.Duration
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "watch [flags] [dirs...]",
		Short: "Re-check Perl files as they change",
		Long: `Check every Perl file under the given directories (default ".") and
check each file again whenever it is written. Stop with Ctrl-C.

Examples:
  perlscope watch                 Watch the current directory
  perlscope watch lib t           Watch two trees
  perlscope watch --exclude=blib  Ignore build output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc, err := cfg.lintConfig()
			if err != nil {
				return usageError("%w", err)
			}
			lc.Exclude = append(lc.Exclude, excludes...)
			l, err := lint.NewLinter(lc)
			if err != nil {
				return usageError("%w", err)
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
			defer stop()

			w := &watcher{linter: l, excludes: lc.Exclude, jobs: lc.Jobs, out: cmd.ErrOrStderr()}
			initial := make([]string, len(args))
			for i, arg := range args {
				initial[i] = arg + "/..."
			}
			w.check(ctx, initial)
			err = watchWithFSNotify(ctx, args, debounce, lc.Exclude, func(changed []string) {
				w.check(ctx, changed)
			})
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce,
		"Wait this long after the last change before checking.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files and directories to ignore (may be repeated).")
	return cmd
}

// watcher checks files and reports the results of each round.
type watcher struct {
	linter   *lint.Linter
	excludes []string
	jobs     int
	out      io.Writer
}

func (w *watcher) check(ctx context.Context, paths []string) {
	var files []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/...") || isPerlFile(p) {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return
	}
	diags, err := checkPaths(ctx, w.linter, files, w.excludes, w.jobs)
	stamp := time.Now().Format("15:04:05")
	if err != nil {
		fmt.Fprintf(w.out, "[%s] %v\n", stamp, err)
		return
	}
	if len(diags) == 0 {
		fmt.Fprintf(w.out, "[%s] ok\n", stamp)
		return
	}
	if err := renderLintDiagnostics(w.out, newRenderer(), diags); err != nil {
		log.Errorf("rendering diagnostics: %s", err)
	}
}

// watchWithFSNotify watches the directory trees under roots and calls
// onChange with the sorted paths changed since the previous call, once no
// event arrived for the debounce interval. It returns when ctx is done.
func watchWithFSNotify(ctx context.Context, roots []string, debounce time.Duration, excludes []string, onChange func(changed []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, root := range roots {
		if err := addWatchRecursive(fw, filepath.Clean(root), excludes); err != nil {
			return err
		}
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if shouldIgnoreWatchPath(path, excludes) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					_ = addWatchRecursive(fw, path, excludes)
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("changed: %s", path)
			pending[path] = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				if _, err := os.Stat(path); err == nil {
					changed = append(changed, path)
				}
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			if len(changed) > 0 {
				onChange(changed)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func addWatchRecursive(fw *fsnotify.Watcher, root string, excludes []string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && shouldSkipWatchDir(entry.Name(), path, excludes) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func shouldSkipWatchDir(name, path string, excludes []string) bool {
	if strings.HasPrefix(name, ".") || name == "blib" || name == "local" {
		return true
	}
	return matchesAny(path, excludes)
}

func shouldIgnoreWatchPath(path string, excludes []string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~") {
		return true
	}
	return matchesAny(path, excludes)
}

func init() {
	rootCmd.AddCommand(WatchCommand())
}
