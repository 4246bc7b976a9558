// Copyright © 2024 The perlscope authors

package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/luthersystems/perlscope/lint"
)

// Option configures an exported command factory (CheckCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	config         *lint.Config
	knownFunctions []string
	globals        []string
}

// WithConfig replaces the configuration read from the config file and the
// environment.
func WithConfig(cfg *lint.Config) Option {
	return func(c *cmdConfig) { c.config = cfg }
}

// WithKnownFunctions adds barewords accepted under strict subs. Embedders
// use it for functions their Perl environment provides without a visible
// declaration.
func WithKnownFunctions(names ...string) Option {
	return func(c *cmdConfig) { c.knownFunctions = append(c.knownFunctions, names...) }
}

// WithGlobals adds variables, with sigil, which need no declaration.
func WithGlobals(names ...string) Option {
	return func(c *cmdConfig) { c.globals = append(c.globals, names...) }
}

func newCmdConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// lintConfig returns the effective configuration: the injected config or
// the one decoded from viper, plus names added by options. The result is a
// copy the caller may modify.
func (c *cmdConfig) lintConfig() (*lint.Config, error) {
	var cfg lint.Config
	if c.config != nil {
		cfg = *c.config
	} else if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Checks = append([]string(nil), cfg.Checks...)
	cfg.Disable = append([]string(nil), cfg.Disable...)
	cfg.Exclude = append([]string(nil), cfg.Exclude...)
	cfg.KnownFunctions = append(append([]string(nil), cfg.KnownFunctions...), c.knownFunctions...)
	cfg.Globals = append(append([]string(nil), cfg.Globals...), c.globals...)
	return &cfg, nil
}

// linter builds a linter from the effective configuration.
func (c *cmdConfig) linter() (*lint.Linter, error) {
	cfg, err := c.lintConfig()
	if err != nil {
		return nil, err
	}
	return lint.NewLinter(cfg)
}
