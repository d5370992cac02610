package pipeline

import (
	"algoscope/internal/errors"
	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/problem"
	"algoscope/internal/structure"
	"algoscope/internal/trace"
)

// Complexity classes reported by the estimators.
const (
	ComplexityConstant    = "O(1)"
	ComplexityLogarithmic = "O(log n)"
	ComplexityLinear      = "O(n)"
	ComplexityQuadratic   = "O(n²)"
)

// AlgorithmAnalysis is the full result of analyzing one submission.
type AlgorithmAnalysis struct {
	ID               string                    `json:"id" yaml:"id"`
	PrimaryPattern   patterns.Kind             `json:"primary_pattern" yaml:"primary_pattern"`
	Confidence       float64                   `json:"confidence" yaml:"confidence"`
	Provenance       matcher.Provenance        `json:"provenance" yaml:"provenance"`
	PatternScores    []patterns.Score          `json:"pattern_scores,omitempty" yaml:"pattern_scores,omitempty"`
	ProblemAlignment float64                   `json:"problem_alignment" yaml:"problem_alignment"`
	DataStructures   []structure.DataStructure `json:"data_structures_used" yaml:"data_structures_used"`
	TimeComplexity   string                    `json:"time_complexity" yaml:"time_complexity"`
	SpaceComplexity  string                    `json:"space_complexity" yaml:"space_complexity"`
	Optimizations    []string                  `json:"optimization_techniques" yaml:"optimization_techniques"`
	PotentialIssues  []string                  `json:"potential_issues" yaml:"potential_issues"`
	Structure        *structure.CodeStructure  `json:"code_structure" yaml:"code_structure"`
	Steps            []trace.Step              `json:"execution_steps" yaml:"execution_steps"`
	Summary          *Summary                  `json:"execution_summary,omitempty" yaml:"execution_summary,omitempty"`
	ExecutionError   *errors.Error             `json:"execution_error,omitempty" yaml:"execution_error,omitempty"`
}

// TimeComplexity estimates the time class from loop structure and the primary pattern.
func TimeComplexity(cs *structure.CodeStructure, kind patterns.Kind) string {
	switch {
	case cs.HasNestedLoops():
		return ComplexityQuadratic
	case kind == patterns.BinarySearch:
		return ComplexityLogarithmic
	case cs.HasLoop():
		return ComplexityLinear
	}
	return ComplexityConstant
}

// SpaceComplexity estimates the auxiliary space class from the data structures built.
func SpaceComplexity(cs *structure.CodeStructure) string {
	if cs.HasDataStructure(structure.HashMap) || cs.HasDataStructure(structure.Array) {
		return ComplexityLinear
	}
	return ComplexityConstant
}

// ProblemAlignment scores in [0, 1] how well the code fits the problem.
func ProblemAlignment(cs *structure.CodeStructure, p *problem.Data, kind patterns.Kind) float64 {
	score := 0.0
	if p != nil {
		switch {
		case p.Type == problem.TypeArray && cs.HasDataStructure(structure.Array):
			score += 0.3
		case p.Type == problem.TypeString && cs.HasDataStructure(structure.String):
			score += 0.3
		}
		if kind == patterns.HashMap && p.Mentions("lookup") {
			score += 0.4
		}
	}
	if !violatesLinearTime(cs, p) {
		score += 0.3
	}
	if score > 1 {
		score = 1
	}
	return score
}

func violatesLinearTime(cs *structure.CodeStructure, p *problem.Data) bool {
	return cs.HasNestedLoops() && p.RequiresLinearTime()
}

// Optimizations lists the techniques the code uses, or could use.
func Optimizations(cs *structure.CodeStructure) []string {
	notes := []string{}
	if cs.HasDataStructure(structure.HashMap) {
		notes = append(notes, "Hash table lookup for O(1) access")
	}
	if cs.HasNestedLoops() {
		notes = append(notes, "Could potentially be optimized to reduce nested loops")
	}
	return notes
}

// PotentialIssues lists problems spotted in the code relative to the problem.
func PotentialIssues(cs *structure.CodeStructure, p *problem.Data) []string {
	issues := []string{}
	if cs.HasNestedLoops() && (p.Mentions("linear") || p.RequiresLinearTime()) {
		issues = append(issues, "Nested loops may violate linear time complexity requirement")
	}
	if len(cs.Functions) == 0 {
		issues = append(issues, "No function definition found")
	}
	return issues
}
