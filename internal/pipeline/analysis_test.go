package pipeline

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"algoscope/internal/patterns"
	"algoscope/internal/problem"
	"algoscope/internal/sandbox"
	"algoscope/internal/structure"
	"algoscope/internal/trace"
)

func codeStructure(loops int, nested bool, ds ...structure.DataStructure) *structure.CodeStructure {
	cs := &structure.CodeStructure{
		DataStructures:       ds,
		ComplexityIndicators: map[string]string{},
		LoopCount:            loops,
		Functions:            []structure.Function{{Name: "f"}},
	}
	if nested {
		cs.ComplexityIndicators[structure.IndicatorNestedLoops] = "O(n²) or higher"
	}
	return cs
}

func TestTimeComplexity(t *testing.T) {
	tests := []struct {
		name string
		cs   *structure.CodeStructure
		kind patterns.Kind
		want string
	}{
		{"nested", codeStructure(2, true), patterns.BinarySearch, ComplexityQuadratic},
		{"binary search", codeStructure(1, false), patterns.BinarySearch, ComplexityLogarithmic},
		{"single loop", codeStructure(1, false), patterns.HashMap, ComplexityLinear},
		{"straight line", codeStructure(0, false), patterns.None, ComplexityConstant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeComplexity(tt.cs, tt.kind); got != tt.want {
				t.Errorf("TimeComplexity() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSpaceComplexity(t *testing.T) {
	if got := SpaceComplexity(codeStructure(1, false, structure.HashMap)); got != ComplexityLinear {
		t.Errorf("hash map = %s", got)
	}
	if got := SpaceComplexity(codeStructure(1, false, structure.Array)); got != ComplexityLinear {
		t.Errorf("array = %s", got)
	}
	if got := SpaceComplexity(codeStructure(1, false, structure.Set)); got != ComplexityConstant {
		t.Errorf("set only = %s", got)
	}
}

func TestProblemAlignment(t *testing.T) {
	lookup := problem.Parse("Two Sum\nGiven an array, use a lookup to find the pair in linear time.", nil)
	tests := []struct {
		name string
		cs   *structure.CodeStructure
		p    *problem.Data
		kind patterns.Kind
		want float64
	}{
		{"no problem", codeStructure(1, false), nil, patterns.HashMap, 0.3},
		{"full match", codeStructure(1, false, structure.Array, structure.HashMap), lookup, patterns.HashMap, 1.0},
		{"nested loops break linear time", codeStructure(2, true, structure.Array), lookup, patterns.TwoPointers, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProblemAlignment(tt.cs, tt.p, tt.kind); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ProblemAlignment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptimizationsAndIssues(t *testing.T) {
	cs := codeStructure(2, true, structure.HashMap)
	if got := Optimizations(cs); len(got) != 2 {
		t.Errorf("Optimizations() = %v", got)
	}
	p := problem.Parse("Pairs\nSolve it in linear time.", nil)
	issues := PotentialIssues(cs, p)
	if len(issues) != 1 || !strings.Contains(issues[0], "linear time") {
		t.Errorf("PotentialIssues() = %v", issues)
	}
	empty := &structure.CodeStructure{}
	if got := PotentialIssues(empty, nil); !reflect.DeepEqual(got, []string{"No function definition found"}) {
		t.Errorf("PotentialIssues(empty) = %v", got)
	}
}

func binarySearchSteps() []trace.Step {
	return []trace.Step{
		{Number: 0, Event: trace.EventCall, CodeLine: "def search(nums, target):", Significant: true},
		{Number: 1, Event: trace.EventLine, CodeLine: "while left <= right:", Significant: true},
		{Number: 2, Event: trace.EventLine, CodeLine: "mid = (left + right) // 2", Significant: true,
			Changes: map[string]trace.Change{"mid": {Type: trace.ChangeNew, New: int64(2)}}},
		{Number: 3, Event: trace.EventLine, CodeLine: "result.append(mid)",
			Changes: map[string]trace.Change{"result": {Type: trace.ChangeModified, New: []interface{}{int64(2)}}}},
		{Number: 4, Event: trace.EventReturn, CodeLine: "return 2", Significant: true,
			Changes: map[string]trace.Change{trace.ReturnValueKey: {New: int64(2)}}},
	}
}

func TestCountOperations(t *testing.T) {
	want := OperationCounts{VariableAssignments: 3, FunctionCalls: 1, ControlFlow: 1, DataOperations: 1}
	if got := CountOperations(binarySearchSteps()); got != want {
		t.Errorf("CountOperations() = %+v, want %+v", got, want)
	}
}

func TestKeyOperations(t *testing.T) {
	if got := KeyOperations(binarySearchSteps(), patterns.BinarySearch); !reflect.DeepEqual(got, []string{"Search space division"}) {
		t.Errorf("binary search = %v", got)
	}
	steps := []trace.Step{
		{CodeLine: "if target - n in seen:"},
		{CodeLine: "seen[n] = i"},
		{CodeLine: "if n in seen:"},
	}
	if got := KeyOperations(steps, patterns.HashMap); !reflect.DeepEqual(got, []string{"Hash table lookup", "Hash table insertion"}) {
		t.Errorf("hash map = %v", got)
	}
	if got := KeyOperations(steps, patterns.None); len(got) != 0 {
		t.Errorf("no pattern = %v", got)
	}
}

func TestComplexityTable(t *testing.T) {
	if got := Complexity(patterns.BinarySearch); got.Time != ComplexityLogarithmic || got.Space != ComplexityConstant {
		t.Errorf("binary search = %+v", got)
	}
	if got := Complexity(patterns.None); got.Time != "O(?)" {
		t.Errorf("none = %+v", got)
	}
	for _, k := range patterns.Kinds {
		if len(PerformanceNotes(k)) == 0 {
			t.Errorf("%s has no performance notes", k)
		}
	}
}

func TestSameValue(t *testing.T) {
	tests := []struct {
		got, want interface{}
		same      bool
	}{
		{[]interface{}{int64(0), int64(1)}, []interface{}{0, 1}, true},
		{int64(2), 2.0, true},
		{"abc", "abc", true},
		{[]interface{}{int64(1), int64(0)}, []interface{}{0, 1}, false},
		{nil, nil, true},
		{map[string]interface{}{"a": int64(1)}, map[string]interface{}{"a": 1}, true},
	}
	for _, tt := range tests {
		if got := SameValue(tt.got, tt.want); got != tt.same {
			t.Errorf("SameValue(%v, %v) = %v, want %v", tt.got, tt.want, got, tt.same)
		}
	}
}

func TestSummarize(t *testing.T) {
	out := &trace.Outcome{
		Steps:    binarySearchSteps(),
		Executor: trace.ExecutorTraced,
		Run:      &sandbox.Result{Output: "ran\n"},
	}
	sum := Summarize(out, patterns.BinarySearch, 2)
	if sum.TotalLinesExecuted != 5 || sum.SignificantSteps != 4 {
		t.Errorf("counts = %d lines, %d significant", sum.TotalLinesExecuted, sum.SignificantSteps)
	}
	if sum.Stdout != "ran\n" || sum.Executor != trace.ExecutorTraced {
		t.Errorf("summary = %+v", sum)
	}
	// no return value was captured, so nothing is compared
	if sum.OutputMatches != nil {
		t.Errorf("OutputMatches = %v, want nil", *sum.OutputMatches)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.recordCache(3, 1)
	m.recordCache(0, 2)
	if got := testutil.ToFloat64(m.cache.WithLabelValues("hit")); got != 3 {
		t.Errorf("hits = %v", got)
	}
	if got := testutil.ToFloat64(m.cache.WithLabelValues("miss")); got != 3 {
		t.Errorf("misses = %v", got)
	}
	if n := testutil.CollectAndCount(m.cache); n != 2 {
		t.Errorf("cache series = %d", n)
	}

	// nil registerer still yields usable collectors
	NewMetrics(nil).analyses.WithLabelValues("ok").Inc()
}
