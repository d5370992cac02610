package pipeline

import (
	"encoding/json"
	"reflect"
	"strings"

	"algoscope/internal/errors"
	"algoscope/internal/patterns"
	"algoscope/internal/trace"
)

// OperationCounts tallies what the executed steps did.
type OperationCounts struct {
	VariableAssignments int `json:"variable_assignments" yaml:"variable_assignments"`
	FunctionCalls       int `json:"function_calls" yaml:"function_calls"`
	ControlFlow         int `json:"control_flow" yaml:"control_flow"`
	DataOperations      int `json:"data_operations" yaml:"data_operations"`
}

// ComplexityTable is the textbook complexity of a pattern.
type ComplexityTable struct {
	Time  string `json:"time" yaml:"time"`
	Space string `json:"space" yaml:"space"`
}

// Summary describes one execution of the submission.
type Summary struct {
	TotalLinesExecuted int             `json:"total_lines_executed" yaml:"total_lines_executed"`
	SignificantSteps   int             `json:"significant_steps" yaml:"significant_steps"`
	Pattern            patterns.Kind   `json:"algorithm_pattern" yaml:"algorithm_pattern"`
	OperationCounts    OperationCounts `json:"operation_counts" yaml:"operation_counts"`
	KeyOperations      []string        `json:"key_operations" yaml:"key_operations"`
	PerformanceNotes   []string        `json:"performance_notes" yaml:"performance_notes"`
	Complexity         ComplexityTable `json:"complexity_analysis" yaml:"complexity_analysis"`
	Truncated          bool            `json:"truncated" yaml:"truncated"`
	// OutputMatches is set only when the run returned a value and an expected output was given
	OutputMatches *bool          `json:"output_matches_expected,omitempty" yaml:"output_matches_expected,omitempty"`
	ReturnValue   interface{}    `json:"return_value,omitempty" yaml:"return_value,omitempty"`
	Stdout        string         `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Executor      string         `json:"executor" yaml:"executor"`
	Explainers    map[string]int `json:"explainers,omitempty" yaml:"explainers,omitempty"`
	// RunError is the learner's runtime error when the run failed and steps came from source
	RunError *errors.Error `json:"run_error,omitempty" yaml:"run_error,omitempty"`
}

var (
	controlKeywords = []string{"if", "while", "for", "else"}
	dataKeywords    = []string{"append", "pop", "insert", "remove"}
	pointerNames    = []string{"left", "right", "start", "end"}
)

var complexityTable = map[patterns.Kind]ComplexityTable{
	patterns.HashMap:            {Time: ComplexityLinear, Space: ComplexityLinear},
	patterns.TwoPointers:        {Time: ComplexityLinear, Space: ComplexityConstant},
	patterns.SlidingWindow:      {Time: ComplexityLinear, Space: ComplexityConstant},
	patterns.BinarySearch:       {Time: ComplexityLogarithmic, Space: ComplexityConstant},
	patterns.DepthFirstSearch:   {Time: "O(V + E)", Space: "O(V)"},
	patterns.DynamicProgramming: {Time: "O(n·m)", Space: "O(n·m)"},
	patterns.Greedy:             {Time: "O(n log n)", Space: ComplexityConstant},
}

var performanceNotes = map[patterns.Kind][]string{
	patterns.HashMap: {
		"Hash table operations provide O(1) average lookup time",
		"Space complexity is O(n) for storing key-value pairs",
	},
	patterns.TwoPointers: {
		"Two pointers technique reduces time complexity to O(n)",
		"Space complexity is O(1), only pointer variables are kept",
	},
	patterns.SlidingWindow: {
		"Sliding window avoids nested loops, maintaining O(n) complexity",
		"Efficient for subarray and substring problems",
	},
	patterns.BinarySearch: {
		"Binary search achieves O(log n) by halving search space each iteration",
		"Requires sorted input data for correctness",
	},
	patterns.DepthFirstSearch: {
		"Each vertex and edge is visited at most once",
		"Recursion depth grows with the longest path",
	},
	patterns.DynamicProgramming: {
		"Each subproblem is solved once and stored in the table",
	},
	patterns.Greedy: {
		"Sorting usually dominates the running time",
	},
}

// Complexity returns the textbook complexity of kind, "O(?)" when unknown.
func Complexity(kind patterns.Kind) ComplexityTable {
	if c, ok := complexityTable[kind]; ok {
		return c
	}
	return ComplexityTable{Time: "O(?)", Space: "O(?)"}
}

// CountOperations tallies assignments, calls, control flow and container operations.
func CountOperations(steps []trace.Step) OperationCounts {
	var c OperationCounts
	for i := range steps {
		s := &steps[i]
		code := strings.ToLower(s.CodeLine)
		if len(s.Changes) > 0 {
			c.VariableAssignments++
		}
		if s.Event == trace.EventCall {
			c.FunctionCalls++
		}
		if containsAny(code, controlKeywords) {
			c.ControlFlow++
		}
		if containsAny(code, dataKeywords) {
			c.DataOperations++
		}
	}
	return c
}

// KeyOperations names the pattern-defining operations seen in the steps, each once,
// in first-seen order.
func KeyOperations(steps []trace.Step, kind patterns.Kind) []string {
	ops := []string{}
	seen := make(map[string]bool)
	add := func(op string) {
		if !seen[op] {
			seen[op] = true
			ops = append(ops, op)
		}
	}
	for i := range steps {
		s := &steps[i]
		code := strings.ToLower(s.CodeLine)
		switch kind {
		case patterns.HashMap:
			if strings.Contains(code, "in ") {
				add("Hash table lookup")
			} else if strings.Contains(code, "[") && strings.Contains(code, "=") {
				add("Hash table insertion")
			}
		case patterns.TwoPointers:
			if s.Changed(pointerNames...) {
				add("Pointer movement")
			}
		case patterns.SlidingWindow:
			if strings.Contains(code, "while") || strings.Contains(code, "for") {
				add("Window adjustment")
			}
		case patterns.BinarySearch:
			if s.Changed("mid") {
				add("Search space division")
			}
		case patterns.DepthFirstSearch:
			if s.Event == trace.EventCall {
				add("Recursive descent")
			}
		case patterns.DynamicProgramming:
			if strings.Contains(code, "dp[") && strings.Contains(code, "=") {
				add("Table update")
			}
		case patterns.Greedy:
			if strings.Contains(code, "sort") {
				add("Sort by key")
			}
		}
	}
	return ops
}

// PerformanceNotes returns the canned performance notes for kind.
func PerformanceNotes(kind patterns.Kind) []string {
	return append([]string{}, performanceNotes[kind]...)
}

// Summarize builds the execution summary of an outcome.
func Summarize(out *trace.Outcome, kind patterns.Kind, expected interface{}) *Summary {
	sum := &Summary{
		TotalLinesExecuted: len(out.Steps),
		Pattern:            kind,
		OperationCounts:    CountOperations(out.Steps),
		KeyOperations:      KeyOperations(out.Steps, kind),
		PerformanceNotes:   PerformanceNotes(kind),
		Complexity:         Complexity(kind),
		Truncated:          out.Truncated,
		Executor:           out.Executor,
	}
	for i := range out.Steps {
		if out.Steps[i].Significant {
			sum.SignificantSteps++
		}
	}
	if out.Run != nil {
		sum.Stdout = out.Run.Output
		if out.Run.Return != nil {
			sum.ReturnValue = trace.SnapshotValue(out.Run.Return)
			if expected != nil {
				ok := SameValue(sum.ReturnValue, expected)
				sum.OutputMatches = &ok
			}
		}
	}
	return sum
}

// SameValue compares a returned value with an expected one through their JSON
// forms, so integers and floats of equal value match.
func SameValue(got, want interface{}) bool {
	a, err := normalize(got)
	if err != nil {
		return false
	}
	b, err := normalize(want)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = json.Unmarshal(data, &out)
	return out, err
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
