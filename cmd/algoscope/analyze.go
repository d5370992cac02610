package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"algoscope/internal/errors"
	"algoscope/internal/export"
	"algoscope/internal/pipeline"
)

var (
	analyzeFormat      string
	analyzeTimeout     float64
	analyzeTraceOut    string
	analyzeMetricsFile string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Detect the pattern of a program and trace it against a test case",
	Long: `Analyze a program: detect its algorithmic pattern, estimate its complexity,
and when a pattern is found run it in the sandbox and explain each step.

The first test case given with --input is used for the run. A program that
fails security validation, times out or recurses too deeply still gets its
static analysis; the failure is reported and the command exits with status 3.
A program that cannot be parsed exits with status 2.

Examples:
  algoscope analyze two_sum.py --input '{"nums": [2,7,11,15], "target": 9}' --expected '[0,1]'
  algoscope analyze search.py --problem @problem.txt --format human
  cat solution.py | algoscope analyze - --trace-out trace.json.zst`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAnalyze,
}

func init() {
	addSubmissionFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "Output format (json, yaml, human)")
	analyzeCmd.Flags().Float64Var(&analyzeTimeout, "timeout", 0, "Sandbox timeout in seconds (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeTraceOut, "trace-out", "", "Write the execution steps to a trace file (.zst to compress)")
	analyzeCmd.Flags().StringVar(&analyzeMetricsFile, "metrics-file", "", "Write pipeline metrics in Prometheus text format")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	src, prob := mustReadSubmission(cmd, args)

	cfg := mustLoadConfig()
	if analyzeTimeout > 0 {
		cfg.Sandbox.TimeoutSeconds = analyzeTimeout
	}
	logger := newLogger(cfg)

	reg := prometheus.NewRegistry()
	p, err := pipeline.New(cfg, pipeline.Options{Registerer: reg, Logger: logger})
	if err != nil {
		printError(err)
		os.Exit(exitFailure)
	}
	defer p.Close()

	ctx, cancel := newContext()
	defer cancel()

	a, err := p.Analyze(ctx, pipeline.Request{Source: src, Problem: prob})
	code := exitCode(a, err)
	if err != nil {
		printError(err)
		writeMetrics(reg)
		p.Close()
		os.Exit(code)
	}

	out, err := export.Render(a, analyzeFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		p.Close()
		os.Exit(exitFailure)
	}
	fmt.Println(string(out))

	if analyzeTraceOut != "" {
		if err := export.WriteTraceFile(analyzeTraceOut, export.NewBundle(a)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing trace file: %v\n", err)
			code = exitFailure
		}
	}
	writeMetrics(reg)

	logger.Debug("Analyze completed",
		"pattern", a.PrimaryPattern.String(),
		"steps", len(a.Steps),
		"duration", time.Since(start).Milliseconds())

	if code != exitOK {
		p.Close()
		os.Exit(code)
	}
}

// exitCode maps an analysis outcome to the process status.
func exitCode(a *pipeline.AlgorithmAnalysis, err error) int {
	switch {
	case err != nil && errors.Is(err, errors.ParseFailure):
		return exitParseFailure
	case err != nil:
		return exitFailure
	case a != nil && a.ExecutionError != nil:
		return exitExecutionError
	}
	return exitOK
}

func writeMetrics(reg *prometheus.Registry) {
	if analyzeMetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(analyzeMetricsFile, reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
	}
}
