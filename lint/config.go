// Copyright © 2024 The perlscope authors

package lint

import (
	"fmt"
	"slices"

	"github.com/luthersystems/perlscope/analysis"
	"github.com/luthersystems/perlscope/parser/token"
)

// Config is the decoded form of the perlscope configuration file. A nil
// *Config is valid and selects the defaults.
type Config struct {
	// Checks enables only the named analyzers. Empty means all of them.
	Checks []string `mapstructure:"checks" json:"checks,omitempty"`

	// Disable removes analyzers from the enabled set.
	Disable []string `mapstructure:"disable" json:"disable,omitempty"`

	// Severity overrides the severity of an analyzer by name. Values are
	// "error", "warning" or "info".
	Severity map[string]string `mapstructure:"severity" json:"severity,omitempty"`

	// AssumeStrict treats every file as if it began with "use strict".
	AssumeStrict bool `mapstructure:"assume-strict" json:"assume-strict,omitempty"`

	// IgnoreSyntax drops diagnostics for parse errors.
	IgnoreSyntax bool `mapstructure:"ignore-syntax" json:"ignore-syntax,omitempty"`

	// KnownFunctions are barewords accepted under strict subs, typically
	// functions imported from modules the analyzer cannot see.
	KnownFunctions []string `mapstructure:"known-functions" json:"known-functions,omitempty"`

	// Globals are variables, with sigil, which need no declaration.
	Globals []string `mapstructure:"globals" json:"globals,omitempty"`

	// Exclude lists glob patterns of files the command line skips.
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`

	// Jobs bounds the number of files linted in parallel. Zero means one
	// per CPU.
	Jobs int `mapstructure:"jobs" json:"jobs,omitempty"`
}

// Validate checks that every analyzer name and severity in c is known.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	names := append(AnalyzerNames(), SyntaxAnalyzer)
	for _, list := range [][]string{c.Checks, c.Disable} {
		for _, name := range list {
			if !slices.Contains(names, name) {
				return fmt.Errorf("unknown check: %q", name)
			}
		}
	}
	for name, sev := range c.Severity {
		if !slices.Contains(names, name) {
			return fmt.Errorf("severity: unknown check: %q", name)
		}
		if _, err := ParseSeverity(sev); err != nil {
			return fmt.Errorf("severity of %s: %w", name, err)
		}
	}
	return nil
}

// Select returns the analyzers of all that c enables, in order.
func (c *Config) Select(all []*Analyzer) ([]*Analyzer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		return all, nil
	}
	var selected []*Analyzer
	for _, a := range all {
		if len(c.Checks) > 0 && !slices.Contains(c.Checks, a.Name) {
			continue
		}
		if slices.Contains(c.Disable, a.Name) {
			continue
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func (c *Config) severity(analyzer string) (Severity, bool) {
	if c == nil {
		return severityUnset, false
	}
	s, ok := c.Severity[analyzer]
	if !ok {
		return severityUnset, false
	}
	sev, err := ParseSeverity(s)
	return sev, err == nil
}

func (c *Config) assumeStrict() bool {
	return c != nil && c.AssumeStrict
}

func (c *Config) ignoreSyntax() bool {
	if c == nil {
		return false
	}
	return c.IgnoreSyntax || slices.Contains(c.Disable, SyntaxAnalyzer) ||
		len(c.Checks) > 0 && !slices.Contains(c.Checks, SyntaxAnalyzer)
}

func (c *Config) analysisConfig(lines *token.Lines) *analysis.Config {
	cfg := &analysis.Config{Lines: lines}
	if c != nil {
		cfg.KnownFunctions = c.KnownFunctions
		cfg.Globals = c.Globals
	}
	return cfg
}
