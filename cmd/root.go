// Copyright © 2024 The perlscope authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // log backend

	"github.com/luthersystems/perlscope/diagnostic"
)

var (
	cfgFile   string
	colorFlag string
	verbosity int
	logFile   string
	traceFlag bool
)

var log = commonlog.GetLogger("perlscope.cmd")

// stopTracing flushes the tracer provider installed for --trace.
var stopTracing = func() {}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "perlscope",
	Short: "Scope analysis for Perl source",
	Long: `perlscope finds scoping mistakes in Perl code: variables used but never
declared, declared but never used, shadowed, redeclared or read before they
are assigned, and barewords that "use strict" rejects.

Getting started:
  perlscope check script.pl        Analyze a file
  perlscope check lib/...          Analyze every .pl, .pm and .t file under lib
  perlscope watch lib              Re-analyze files as they change
  perlscope checks                 Describe the available checks
  perlscope lsp                    Run as a language server on stdio
  perlscope repl                   Analyze statements as you type them

Configuration is read from .perlscope.yaml in the current directory or your
home directory, or from the file named by --config. Every key can also be set
with a PERLSCOPE_ environment variable, e.g. PERLSCOPE_ASSUME_STRICT=true.

  checks:          [unused-variable, undeclared-variable]   # default: all
  disable:         [missing-warnings]
  severity:        {unused-variable: error}
  assume-strict:   true
  known-functions: [try, catch]
  globals:         [$Config]
  exclude:         [blib, "*.generated.pl"]
  jobs:            4`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := diagnostic.ParseColorMode(colorFlag); err != nil {
			return usageError("--color: %w", err)
		}
		var path *string
		if logFile != "" {
			path = &logFile
		}
		commonlog.Configure(verbosity, path)
		if !viper.GetBool("trace") {
			return nil
		}
		stopTracing = startTracing(cmd.ErrOrStderr())
		return nil
	},
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError reports a bad invocation, exit code 2.
func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 2
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	stopTracing()
	var ee *exitError
	if err != nil && (!errors.As(err, &ee) || ee.err != nil) {
		fmt.Fprintln(os.Stderr, "perlscope:", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.perlscope.yaml or $HOME/.perlscope.yaml)")
	flags.StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.CountVarP(&verbosity, "verbose", "v", "Log more; repeat for debug output.")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr.")
	flags.BoolVar(&traceFlag, "trace", false, "Print the duration of each analysis step to stderr.")
	_ = viper.BindPFlag("trace", flags.Lookup("trace"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".perlscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("perlscope")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Infof("using config file %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "perlscope:", err)
		os.Exit(2)
	}
}
