package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"algoscope/internal/pyast"
	"algoscope/internal/sandbox"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check a program against the sandbox security rules without running it",
	Long: `Parse a program and check it for imports, denied calls and dunder
attribute access. Exits 0 when the program would be allowed to run.

Examples:
  algoscope validate solution.py
  algoscope validate --code 'import os'`,
	Args: cobra.MaximumNArgs(1),
	Run:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&codeFlag, "code", "", "Program source given inline instead of a file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	src, err := readSource(args, codeFlag, cmd.InOrStdin())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}

	ctx, cancel := newContext()
	prog, err := pyast.Parse(ctx, src)
	cancel()
	if err != nil {
		printError(err)
		os.Exit(exitParseFailure)
	}
	if err := sandbox.Validate(prog); err != nil {
		printError(err)
		os.Exit(exitExecutionError)
	}
	fmt.Println("OK")
}
