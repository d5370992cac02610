package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"algoscope/internal/problem"
)

// Submission flags shared by analyze, patterns, trace and validate.
var (
	codeFlag     string
	problemFlag  string
	inputFlag    string
	expectedFlag string
)

func addSubmissionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&codeFlag, "code", "", "Program source given inline instead of a file")
	cmd.Flags().StringVar(&problemFlag, "problem", "", "Problem statement text, or @path to read it from a file")
	cmd.Flags().StringVar(&inputFlag, "input", "", `Test case input as a JSON object, e.g. '{"nums": [2,7,11,15], "target": 9}'`)
	cmd.Flags().StringVar(&expectedFlag, "expected", "", "Expected return value as JSON")
}

// readSource returns the program text from --code, a file argument or stdin ("-").
func readSource(args []string, code string, stdin io.Reader) ([]byte, error) {
	switch {
	case code != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a file argument or --code, not both")
	case code != "":
		return []byte(code), nil
	case len(args) == 0:
		return nil, fmt.Errorf("no program given (pass a file, - for stdin, or --code)")
	case args[0] == "-":
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// loadProblem builds the problem context from the statement and test case flags.
// It returns nil when none of them is set.
func loadProblem(statement, input, expected string) (*problem.Data, error) {
	if statement == "" && input == "" && expected == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(statement, "@"); ok {
		data, err := os.ReadFile(rest)
		if err != nil {
			return nil, fmt.Errorf("reading problem statement: %w", err)
		}
		statement = string(data)
	}

	var cases []problem.TestCase
	if input != "" {
		tc, err := problem.DecodeTestCase([]byte(input), []byte(expected))
		if err != nil {
			return nil, err
		}
		cases = append(cases, *tc)
	} else if expected != "" {
		return nil, fmt.Errorf("--expected needs --input")
	}
	return problem.Parse(statement, cases), nil
}

// mustReadSubmission exits on bad input.
func mustReadSubmission(cmd *cobra.Command, args []string) ([]byte, *problem.Data) {
	src, err := readSource(args, codeFlag, cmd.InOrStdin())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	prob, err := loadProblem(problemFlag, inputFlag, expectedFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	return src, prob
}
