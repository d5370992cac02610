package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"algoscope/internal/export"
	"algoscope/internal/patterns"
	"algoscope/internal/pipeline"
	"algoscope/internal/pyast"
	"algoscope/internal/trace"
)

var (
	tracePattern string
	traceFormat  string
	traceOut     string
	traceTimeout float64
)

var traceCmd = &cobra.Command{
	Use:   "trace [file|-]",
	Short: "Run a program in the sandbox and print its explained steps",
	Long: `Run a program against the test case given with --input and print the
recorded steps with their explanations.

Pattern matching is skipped when --pattern is given; otherwise the best
heuristic match is used to choose the explanations.

Examples:
  algoscope trace search.py --pattern binary_search --input '{"nums": [1,3,5,7,9], "target": 7}'
  algoscope trace two_sum.py --format human --input '{"nums": [3,2,4], "target": 6}'
  algoscope trace solution.py --input '{"s": "abcabcbb"}' --out steps.json.zst`,
	Args: cobra.MaximumNArgs(1),
	Run:  runTrace,
}

func init() {
	addSubmissionFlags(traceCmd)
	traceCmd.Flags().StringVar(&tracePattern, "pattern", "", "Pattern to explain the steps for (e.g. binary_search)")
	traceCmd.Flags().StringVar(&traceFormat, "format", "json", "Output format (json, human)")
	traceCmd.Flags().StringVar(&traceOut, "out", "", "Write a trace file instead of printing (.zst to compress)")
	traceCmd.Flags().Float64Var(&traceTimeout, "timeout", 0, "Sandbox timeout in seconds (overrides config)")
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) {
	start := time.Now()
	src, prob := mustReadSubmission(cmd, args)

	kind := patterns.None
	if tracePattern != "" {
		k, ok := patterns.ParseKind(tracePattern)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown pattern %q\n", tracePattern)
			os.Exit(exitFailure)
		}
		kind = k
	}

	cfg := mustLoadConfig()
	if traceTimeout > 0 {
		cfg.Sandbox.TimeoutSeconds = traceTimeout
	}
	logger := newLogger(cfg)

	p, err := pipeline.New(cfg, pipeline.Options{Logger: logger})
	if err != nil {
		printError(err)
		os.Exit(exitFailure)
	}

	ctx, cancel := newContext()
	prog, err := pyast.Parse(ctx, src)
	if err != nil {
		printError(err)
		cancel()
		p.Close()
		os.Exit(exitParseFailure)
	}
	if kind == patterns.None {
		res, _ := pipeline.Patterns(prog, prob)
		kind = res.Pattern
	}

	out, err := p.Trace(ctx, prog, kind, prob)
	cancel()
	p.Close()
	if err != nil {
		printError(err)
		os.Exit(exitExecutionError)
	}

	b := outcomeBundle(out, kind)
	logger.Debug("Trace completed",
		"pattern", kind.String(),
		"executor", out.Executor,
		"steps", len(out.Steps),
		"duration", time.Since(start).Milliseconds())

	if traceOut != "" {
		if err := export.WriteTraceFile(traceOut, b); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing trace file: %v\n", err)
			os.Exit(exitFailure)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d steps to %s\n", b.StepCount, traceOut)
		return
	}

	switch traceFormat {
	case "human":
		fmt.Print(export.FormatSteps(out.Steps))
		if out.RunErr != nil {
			fmt.Printf("\nRun error: %v\n", out.RunErr)
		}
	case "json":
		data, err := export.MarshalBundle(b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFailure)
		}
		fmt.Println(string(data))
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported format: %s\n", traceFormat)
		os.Exit(exitFailure)
	}
}

// outcomeBundle packages the steps of a trace run that had no full analysis.
func outcomeBundle(out *trace.Outcome, kind patterns.Kind) *export.Bundle {
	return &export.Bundle{
		Version:   export.BundleVersion,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Pattern:   string(kind),
		Executor:  out.Executor,
		Truncated: out.Truncated,
		StepCount: len(out.Steps),
		Steps:     out.Steps,
	}
}
