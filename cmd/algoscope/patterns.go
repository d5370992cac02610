package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/pipeline"
	"algoscope/internal/pyast"
	"algoscope/internal/structure"
)

var patternsFormat string

var patternsCmd = &cobra.Command{
	Use:   "patterns [file|-]",
	Short: "Score a program against every known pattern without running it",
	Long: `Score a program against each pattern rule and report the best match.

No code is executed and the statistical classifier is not consulted.

Examples:
  algoscope patterns solution.py
  algoscope patterns --format human --problem "Find two numbers in the array that add up to target" solution.py`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPatterns,
}

func init() {
	addSubmissionFlags(patternsCmd)
	patternsCmd.Flags().StringVar(&patternsFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(patternsCmd)
}

// PatternsResponseCLI is the output of the patterns command.
type PatternsResponseCLI struct {
	matcher.Result
	DataStructures []structure.DataStructure `json:"data_structures,omitempty"`
	LoopCount      int                       `json:"loop_count"`
	MaxLoopNesting int                       `json:"max_loop_nesting"`
}

func runPatterns(cmd *cobra.Command, args []string) {
	src, prob := mustReadSubmission(cmd, args)
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	ctx, cancel := newContext()
	defer cancel()

	prog, err := pyast.Parse(ctx, src)
	if err != nil {
		printError(err)
		cancel()
		os.Exit(exitParseFailure)
	}

	res, cs := pipeline.Patterns(prog, prob)
	resp := &PatternsResponseCLI{
		Result:         res,
		DataStructures: cs.DataStructures,
		LoopCount:      cs.LoopCount,
		MaxLoopNesting: cs.MaxLoopNesting,
	}
	logger.Debug("Patterns scored",
		"pattern", res.Pattern.String(),
		"confidence", res.Confidence)

	switch patternsFormat {
	case "human":
		fmt.Print(formatPatternsHuman(resp))
	case "json":
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
			cancel()
			os.Exit(exitFailure)
		}
		fmt.Println(string(data))
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported format: %s\n", patternsFormat)
		cancel()
		os.Exit(exitFailure)
	}
}

func formatPatternsHuman(resp *PatternsResponseCLI) string {
	var b strings.Builder

	if resp.Pattern == patterns.None {
		b.WriteString("No pattern detected\n")
	} else {
		b.WriteString(fmt.Sprintf("Pattern: %s (confidence %.2f)\n", resp.Pattern.DisplayName(), resp.Confidence))
	}

	scores := make([]patterns.Score, len(resp.Scores))
	copy(scores, resp.Scores)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	b.WriteString("\nScores:\n")
	for _, s := range scores {
		bar := strings.Repeat("#", int(s.Score*20+0.5))
		b.WriteString(fmt.Sprintf("  %-22s %.2f  %s\n", s.Kind.DisplayName(), s.Score, bar))
	}

	if len(resp.DataStructures) > 0 {
		ds := make([]string, len(resp.DataStructures))
		for i, d := range resp.DataStructures {
			ds[i] = string(d)
		}
		b.WriteString(fmt.Sprintf("\nData structures: %s\n", strings.Join(ds, ", ")))
	}
	b.WriteString(fmt.Sprintf("Loops: %d (max nesting %d)\n", resp.LoopCount, resp.MaxLoopNesting))
	return b.String()
}
