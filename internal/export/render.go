package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"algoscope/internal/patterns"
	"algoscope/internal/pipeline"
	"algoscope/internal/trace"
)

// Output formats understood by Render.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatHuman = "human"
)

// MarshalAnalysis renders an analysis as indented JSON with the step encoding
// of EncodeSteps.
func MarshalAnalysis(a *pipeline.AlgorithmAnalysis) ([]byte, error) {
	steps, err := EncodeSteps(a.Steps)
	if err != nil {
		return nil, err
	}
	cp := *a
	cp.Steps = nil
	if a.Summary != nil {
		sum := *a.Summary
		sum.ReturnValue = encodeValue(sum.ReturnValue)
		cp.Summary = &sum
	}

	type plain pipeline.AlgorithmAnalysis
	return json.MarshalIndent(struct {
		*plain
		Steps json.RawMessage `json:"execution_steps"`
	}{(*plain)(&cp), steps}, "", "  ")
}

// Render formats an analysis as json, yaml or human-readable text.
func Render(a *pipeline.AlgorithmAnalysis, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return MarshalAnalysis(a)
	case FormatYAML:
		return yaml.Marshal(a)
	case FormatHuman:
		return []byte(FormatText(a)), nil
	}
	return nil, fmt.Errorf("unknown format %q (want json, yaml or human)", format)
}

// FormatText renders an analysis for a terminal.
func FormatText(a *pipeline.AlgorithmAnalysis) string {
	var sb strings.Builder

	name := "none"
	if a.PrimaryPattern != patterns.None {
		name = a.PrimaryPattern.DisplayName()
	}
	sb.WriteString(fmt.Sprintf("# Pattern: %s (confidence %.2f, %s)\n", name, a.Confidence, a.Provenance))
	sb.WriteString(fmt.Sprintf("# Complexity: time %s | space %s | alignment %.2f\n", a.TimeComplexity, a.SpaceComplexity, a.ProblemAlignment))
	if len(a.DataStructures) > 0 {
		ds := make([]string, len(a.DataStructures))
		for i, d := range a.DataStructures {
			ds[i] = string(d)
		}
		sb.WriteString(fmt.Sprintf("# Data structures: %s\n", strings.Join(ds, ", ")))
	}
	sb.WriteString("\n")

	if a.ExecutionError != nil {
		sb.WriteString(fmt.Sprintf("! %s: %s", a.ExecutionError.Code, a.ExecutionError.Message))
		if a.ExecutionError.Line > 0 {
			sb.WriteString(fmt.Sprintf(" (line %d)", a.ExecutionError.Line))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(FormatSteps(a.Steps))

	if s := a.Summary; s != nil {
		sb.WriteString("\n---\n")
		sb.WriteString(fmt.Sprintf("Executor: %s | steps: %d | significant: %d", s.Executor, s.TotalLinesExecuted, s.SignificantSteps))
		if s.Truncated {
			sb.WriteString(" | truncated")
		}
		sb.WriteString("\n")
		if s.OutputMatches != nil {
			sb.WriteString(fmt.Sprintf("Output matches expected: %v\n", *s.OutputMatches))
		}
		if s.RunError != nil {
			sb.WriteString(fmt.Sprintf("Run error: %s\n", s.RunError.Message))
		}
		for _, op := range s.KeyOperations {
			sb.WriteString(fmt.Sprintf("  * %s\n", op))
		}
		for _, note := range s.PerformanceNotes {
			sb.WriteString(fmt.Sprintf("  - %s\n", note))
		}
		if s.Stdout != "" {
			sb.WriteString("Output:\n")
			sb.WriteString(s.Stdout)
			if !strings.HasSuffix(s.Stdout, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	for _, issue := range a.PotentialIssues {
		sb.WriteString(fmt.Sprintf("warning: %s\n", issue))
	}
	return sb.String()
}

// FormatSteps renders one line per step, marking significant steps with "*",
// followed by the step's variable changes.
func FormatSteps(steps []trace.Step) string {
	var sb strings.Builder
	for i := range steps {
		writeStep(&sb, &steps[i])
	}
	return sb.String()
}

func writeStep(sb *strings.Builder, s *trace.Step) {
	marker := " "
	if s.Significant {
		marker = "*"
	}
	line := fmt.Sprintf("%s %3d  L%-3d %-6s %s", marker, s.Number, s.Line, s.Event, strings.TrimSpace(s.CodeLine))
	for len(line) < 48 {
		line += " "
	}
	if s.Explanation != "" {
		line += "  # " + s.Explanation
	}
	sb.WriteString(strings.TrimRight(line, " ") + "\n")

	for _, n := range s.ChangedNames() {
		c := s.Changes[n]
		if c.Type == trace.ChangeModified {
			sb.WriteString(fmt.Sprintf("        %s: %v -> %v\n", n, c.Old, c.New))
		} else {
			sb.WriteString(fmt.Sprintf("        %s = %v\n", n, c.New))
		}
	}
}
