// Package problem models the problem statement and test cases a submission is judged against.
package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Type is the broad category of a problem.
type Type string

const (
	TypeNone   Type = ""
	TypeArray  Type = "array"
	TypeString Type = "string"
	TypeTree   Type = "tree"
	TypeGraph  Type = "graph"
)

// typeKeywords is checked in order; the first category with a hit wins.
var typeKeywords = []struct {
	kind     Type
	keywords []string
}{
	{TypeArray, []string{"array", "list"}},
	{TypeString, []string{"string", "character"}},
	{TypeTree, []string{"tree", "binary tree", "node"}},
	{TypeGraph, []string{"graph", "vertex", "edge", "path"}},
}

// ConstraintTimeComplexity is the only constraint type currently extracted.
const ConstraintTimeComplexity = "time_complexity"

// Constraint is a requirement stated in the problem text.
type Constraint struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// TestCase is one input binding plus the expected result.
type TestCase struct {
	InputData      map[string]interface{} `json:"input_data" yaml:"input_data"`
	ExpectedOutput interface{}            `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
}

// Data is the parsed problem.
type Data struct {
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	TestCases   []TestCase   `json:"test_cases,omitempty" yaml:"test_cases,omitempty"`
	Type        Type         `json:"problem_type,omitempty" yaml:"problem_type,omitempty"`
}

var constraintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)O\(([^)]+)\)`),
	regexp.MustCompile(`(?i)linear time`),
	regexp.MustCompile(`(?i)constant time`),
}

// Parse builds Data from a free-text statement. The title is the first non-empty line.
func Parse(statement string, testCases []TestCase) *Data {
	text := strings.TrimSpace(statement)
	d := &Data{
		Title:       "Unknown Problem",
		Description: text,
		Constraints: extractConstraints(text),
		TestCases:   testCases,
		Type:        classify(text),
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			d.Title = line
			break
		}
	}
	return d
}

func extractConstraints(text string) []Constraint {
	var out []Constraint
	for _, re := range constraintPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			out = append(out, Constraint{Type: ConstraintTimeComplexity, Value: value})
		}
	}
	return out
}

func classify(text string) Type {
	lower := strings.ToLower(text)
	for _, entry := range typeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return TypeNone
}

// SelectedTestCase returns the test case that drives execution tracing, or nil.
func (d *Data) SelectedTestCase() *TestCase {
	if d == nil || len(d.TestCases) == 0 {
		return nil
	}
	return &d.TestCases[0]
}

// Text returns the lower-cased title and description used for vocabulary checks.
func (d *Data) Text() string {
	if d == nil {
		return ""
	}
	return strings.ToLower(d.Title + "\n" + d.Description)
}

// Mentions reports whether the problem text contains any of the phrases.
func (d *Data) Mentions(phrases ...string) bool {
	text := d.Text()
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// RequiresLinearTime reports whether a constraint asks for linear time.
func (d *Data) RequiresLinearTime() bool {
	if d == nil {
		return false
	}
	for _, c := range d.Constraints {
		if c.Type == ConstraintTimeComplexity && strings.Contains(strings.ToLower(c.Value), "linear") {
			return true
		}
	}
	return false
}

// DecodeJSON decodes a JSON document keeping integer literals distinguishable from
// floats (they decode as json.Number).
func DecodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeTestCase builds a TestCase from JSON-encoded input bindings and an optional
// JSON-encoded expected output.
func DecodeTestCase(input, expected []byte) (*TestCase, error) {
	raw, err := DecodeJSON(input)
	if err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	bindings, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("input must be a JSON object mapping parameter names to values")
	}
	tc := &TestCase{InputData: bindings}
	if len(bytes.TrimSpace(expected)) > 0 {
		if tc.ExpectedOutput, err = DecodeJSON(expected); err != nil {
			return nil, fmt.Errorf("decoding expected output: %w", err)
		}
	}
	return tc, nil
}
