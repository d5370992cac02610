package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/slogutil"
	"algoscope/internal/version"
)

// Exit codes.
const (
	exitOK = iota
	exitFailure
	exitParseFailure
	exitExecutionError
)

var (
	// configPath is the --config flag value
	configPath string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "algoscope",
	Short: "algoscope - algorithm pattern recognition and execution tracing",
	Long: `algoscope recognizes the algorithmic pattern of a short Python program
(hash map, two pointers, sliding window, binary search, depth-first search,
dynamic programming, greedy), runs it in a restricted interpreter against a test
case, and explains each recorded step.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("algoscope version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a config file (default: .algoscope/config.toml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	cfg, err := config.LoadConfig(root, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(exitFailure)
	}
	return cfg
}

// newLogger writes to stderr. -v and -q override the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	return slogutil.NewFormattedLogger(os.Stderr, level, slogutil.Format(cfg.Logging.Format))
}

// newContext is cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// printError writes err with its code, line and suggested fixes when it has them.
func printError(err error) {
	e := errors.From(err)
	if e == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %s", e.Code, e.Message)
	if e.Line > 0 {
		fmt.Fprintf(os.Stderr, " (line %d)", e.Line)
	}
	fmt.Fprintln(os.Stderr)
	for _, fix := range e.SuggestedFixes {
		if fix.Description != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
		}
	}
}
