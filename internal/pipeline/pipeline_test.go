//go:build cgo

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/trace"
)

const twoSumSrc = `def two_sum(nums, target):
    lookup = {}
    for i, n in enumerate(nums):
        lookup[n] = i
    for i, n in enumerate(nums):
        complement = target - n
        if complement in lookup and lookup[complement] != i:
            return [i, lookup[complement]]
    return []
`

const binarySearchSrc = `def search(nums, target):
    left, right = 0, len(nums) - 1
    while left <= right:
        mid = (left + right) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            left = mid + 1
        else:
            right = mid - 1
    return -1
`

func newPipeline(t *testing.T, reg prometheus.Registerer, seconds float64) *Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Sandbox.TimeoutSeconds = seconds
	p, err := New(cfg, Options{Registerer: reg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestAnalyze_TwoSum(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newPipeline(t, reg, 5)
	prob := problem.Parse("Two Sum\nGiven an array of integers, return indices of the two numbers that add up to target.", []problem.TestCase{{
		InputData:      map[string]interface{}{"nums": []interface{}{2, 7, 11, 15}, "target": 9},
		ExpectedOutput: []interface{}{0, 1},
	}})

	a, err := p.Analyze(context.Background(), Request{Source: []byte(twoSumSrc), Problem: prob})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.ID == "" || a.PrimaryPattern != patterns.HashMap || a.Provenance != matcher.ProvenanceHeuristic {
		t.Errorf("analysis = %s %s %s", a.ID, a.PrimaryPattern, a.Provenance)
	}
	if a.ExecutionError != nil {
		t.Fatalf("ExecutionError = %v", a.ExecutionError)
	}
	if a.TimeComplexity != ComplexityLinear || a.SpaceComplexity != ComplexityLinear {
		t.Errorf("complexity = %s / %s", a.TimeComplexity, a.SpaceComplexity)
	}
	if len(a.Steps) == 0 {
		t.Fatal("no steps")
	}
	last := a.Steps[len(a.Steps)-1]
	if last.Event != trace.EventReturn {
		t.Fatalf("last step = %+v", last)
	}
	if !SameValue(last.Changes[trace.ReturnValueKey].New, []interface{}{0, 1}) {
		t.Errorf("return value = %v", last.Changes[trace.ReturnValueKey].New)
	}
	if a.Summary == nil || a.Summary.OutputMatches == nil || !*a.Summary.OutputMatches {
		t.Errorf("summary = %+v", a.Summary)
	}
	if a.Summary.Executor != trace.ExecutorTraced {
		t.Errorf("executor = %s", a.Summary.Executor)
	}
	for i := range a.Steps {
		if a.Steps[i].Visualization == nil {
			t.Errorf("step %d has no visualization", i)
		}
	}

	if got := testutil.ToFloat64(p.Metrics().analyses.WithLabelValues("ok")); got != 1 {
		t.Errorf("analyses ok = %v", got)
	}
	if got := testutil.ToFloat64(p.Metrics().executors.WithLabelValues(trace.ExecutorTraced)); got != 1 {
		t.Errorf("traced executions = %v", got)
	}
	if got := testutil.ToFloat64(p.Metrics().provenance.WithLabelValues("heuristic", "hash_map")); got != 1 {
		t.Errorf("provenance = %v", got)
	}
}

func TestAnalyze_BinarySearch(t *testing.T) {
	p := newPipeline(t, nil, 5)
	prob := problem.Parse("Search\nFind target in a sorted array.", []problem.TestCase{{
		InputData: map[string]interface{}{"nums": []interface{}{1, 3, 5, 7, 9, 11}, "target": 7},
	}})

	a, err := p.Analyze(context.Background(), Request{Source: []byte(binarySearchSrc), Problem: prob})
	if err != nil {
		t.Fatal(err)
	}
	if a.PrimaryPattern != patterns.BinarySearch || a.TimeComplexity != ComplexityLogarithmic {
		t.Errorf("pattern = %s, time = %s", a.PrimaryPattern, a.TimeComplexity)
	}

	sawMid := false
	var lastSignificant *trace.Step
	for i := range a.Steps {
		s := &a.Steps[i]
		if c, ok := s.Changes["mid"]; ok && c.New == int64(3) {
			sawMid = true
		}
		if s.Significant {
			lastSignificant = s
		}
	}
	if !sawMid {
		t.Error("no step sets mid to 3")
	}
	if lastSignificant == nil || lastSignificant.Explanation != "Target found at index 3" {
		t.Errorf("last significant step = %+v", lastSignificant)
	}
	found := false
	for _, op := range a.Summary.KeyOperations {
		if op == "Search space division" {
			found = true
		}
	}
	if !found {
		t.Errorf("KeyOperations = %v", a.Summary.KeyOperations)
	}
}

func TestAnalyze_SecurityViolation(t *testing.T) {
	p := newPipeline(t, nil, 5)
	a, err := p.Analyze(context.Background(), Request{Source: []byte("import os\n" + binarySearchSrc)})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.ExecutionError == nil || a.ExecutionError.Code != errors.SecurityViolation {
		t.Fatalf("ExecutionError = %v", a.ExecutionError)
	}
	if len(a.Steps) != 0 || a.Summary != nil {
		t.Errorf("steps = %d, summary = %+v", len(a.Steps), a.Summary)
	}
	if a.PrimaryPattern != patterns.BinarySearch {
		t.Errorf("static analysis missing: pattern = %s", a.PrimaryPattern)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	p := newPipeline(t, nil, 0.2)
	src := `def search(nums, target):
    left, right = 0, len(nums) - 1
    while True:
        mid = (left + right) // 2
    return -1
`
	prob := problem.Parse("Search", []problem.TestCase{{InputData: map[string]interface{}{"nums": []interface{}{1}, "target": 1}}})

	start := time.Now()
	a, err := p.Analyze(context.Background(), Request{Source: []byte(src), Problem: prob})
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Analyze took %s", elapsed)
	}
	if a.ExecutionError == nil || a.ExecutionError.Code != errors.TimeoutExceeded {
		t.Fatalf("ExecutionError = %v", a.ExecutionError)
	}
	if len(a.Steps) != 0 {
		t.Errorf("steps = %d, want 0", len(a.Steps))
	}
}

func TestAnalyze_NoPattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newPipeline(t, reg, 5)
	a, err := p.Analyze(context.Background(), Request{Source: []byte("def answer():\n    return 42\n")})
	if err != nil {
		t.Fatal(err)
	}
	if a.PrimaryPattern != patterns.None || a.Provenance != matcher.ProvenanceNone || a.Confidence != 0 {
		t.Errorf("analysis = %s %s %v", a.PrimaryPattern, a.Provenance, a.Confidence)
	}
	if len(a.Steps) != 0 || a.Summary != nil || a.ExecutionError != nil {
		t.Errorf("execution was not skipped: %+v", a)
	}
	if a.TimeComplexity != ComplexityConstant {
		t.Errorf("time = %s", a.TimeComplexity)
	}
}

func TestAnalyze_NoTestCase(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newPipeline(t, reg, 5)
	prob := problem.Parse("Two Sum\nFind a pair using a lookup.", nil)
	a, err := p.Analyze(context.Background(), Request{Source: []byte(twoSumSrc), Problem: prob})
	if err != nil {
		t.Fatal(err)
	}
	if a.PrimaryPattern != patterns.HashMap {
		t.Errorf("pattern = %s, want hash_map", a.PrimaryPattern)
	}
	if len(a.Steps) != 0 || a.Summary != nil || a.ExecutionError != nil {
		t.Errorf("execution was not skipped: steps = %d, summary = %+v, error = %v", len(a.Steps), a.Summary, a.ExecutionError)
	}
	if n := testutil.CollectAndCount(p.Metrics().executors); n != 0 {
		t.Errorf("executor ran %d times", n)
	}
	if got := testutil.ToFloat64(p.Metrics().analyses.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok analyses = %v", got)
	}
}

func TestAnalyze_ParseFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newPipeline(t, reg, 5)
	_, err := p.Analyze(context.Background(), Request{Source: []byte("def broken(:\n")})
	if !errors.Is(err, errors.ParseFailure) {
		t.Fatalf("Analyze() error = %v, want ParseFailure", err)
	}
	if got := testutil.ToFloat64(p.Metrics().analyses.WithLabelValues("parse_failure")); got != 1 {
		t.Errorf("parse failures = %v", got)
	}
}

func TestTrace_GivenPattern(t *testing.T) {
	p := newPipeline(t, nil, 5)
	prob := problem.Parse("Search", []problem.TestCase{{InputData: map[string]interface{}{"nums": []interface{}{1, 3, 5}, "target": 5}}})
	out, err := p.Trace(context.Background(), pyast.MustParse(binarySearchSrc), patterns.BinarySearch, prob)
	if err != nil {
		t.Fatal(err)
	}
	last := out.Steps[len(out.Steps)-1]
	if last.Explanation != "Target found at index 2" {
		t.Errorf("last explanation = %q", last.Explanation)
	}
}
