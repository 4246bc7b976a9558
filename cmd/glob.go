// Copyright © 2024 The perlscope authors

package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// perlExtensions are the file extensions analyzed when a directory is
// expanded.
var perlExtensions = []string{".pl", ".pm", ".t"}

func isPerlFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range perlExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// expandArgs expands arguments, resolving patterns ending with "/..." and
// plain directories to all Perl files found recursively under them.
// Other arguments pass through unchanged.
func expandArgs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if !recursive {
			if info, err := os.Stat(arg); err != nil || !info.IsDir() {
				out = append(out, arg)
				continue
			}
		}
		files, err := findPerlFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return out, nil
}

func findPerlFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isPerlFile(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes drops the paths matching any of the patterns.
func filterExcludes(paths, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !matchesAny(p, patterns) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether path, its base name or one of its directory
// components matches a glob pattern.
func matchesAny(path string, patterns []string) bool {
	path = filepath.Clean(path)
	components := splitPath(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		for _, c := range components {
			if ok, _ := filepath.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}

// splitPath returns the components of path.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(path), "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
