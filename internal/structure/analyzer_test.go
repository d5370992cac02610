//go:build cgo

package structure

import (
	"reflect"
	"testing"

	"algoscope/internal/pyast"
)

func TestAnalyze_TwoSum(t *testing.T) {
	prog := pyast.MustParse(`def two_sum(nums, target):
    seen = {}
    for i, n in enumerate(nums):
        if target - n in seen:
            return [seen[target - n], i]
        seen[n] = i
    return []
`)
	cs := Analyze(prog)

	if len(cs.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(cs.Functions))
	}
	fn := cs.Functions[0]
	if fn.Name != "two_sum" || !reflect.DeepEqual(fn.Params, []string{"nums", "target"}) {
		t.Errorf("Function = %+v", fn)
	}
	if fn.ReturnCount != 2 {
		t.Errorf("ReturnCount = %d, want 2", fn.ReturnCount)
	}
	if fn.MaxLoopNesting != 1 || fn.Recursive {
		t.Errorf("MaxLoopNesting/Recursive = %d/%v", fn.MaxLoopNesting, fn.Recursive)
	}
	if fn.StartLine != 1 || fn.EndLine != 7 {
		t.Errorf("lines = %d-%d, want 1-7", fn.StartLine, fn.EndLine)
	}
	// for + if
	if fn.Cyclomatic != 3 {
		t.Errorf("Cyclomatic = %d, want 3", fn.Cyclomatic)
	}
	// for (1) + if nested once (2)
	if fn.Cognitive != 3 {
		t.Errorf("Cognitive = %d, want 3", fn.Cognitive)
	}

	if cs.Variables["seen"] != "dict" {
		t.Errorf("Variables[seen] = %q, want dict", cs.Variables["seen"])
	}
	if !cs.HasDataStructure(HashMap) {
		t.Errorf("DataStructures = %v, want hash_map", cs.DataStructures)
	}
	if !reflect.DeepEqual(cs.ControlFlow, []string{FlowFor, FlowConditional}) {
		t.Errorf("ControlFlow = %v", cs.ControlFlow)
	}
	if cs.HasNestedLoops() {
		t.Error("no nested loops expected")
	}
	if cs.ReturnPattern != ReturnList {
		t.Errorf("ReturnPattern = %q, want list", cs.ReturnPattern)
	}
}

func TestAnalyze_NestedLoopsAndRecursion(t *testing.T) {
	prog := pyast.MustParse(`def pairs(xs):
    out = []
    for i in range(len(xs)):
        for j in range(i + 1, len(xs)):
            out.append((xs[i], xs[j]))
    return out

def fact(n):
    if n <= 1:
        return 1
    return n * fact(n - 1)
`)
	cs := Analyze(prog)

	if !cs.HasNestedLoops() {
		t.Error("expected nested_loops indicator")
	}
	if cs.ComplexityIndicators[IndicatorRecursion] != "recursive calls" {
		t.Errorf("indicators = %v", cs.ComplexityIndicators)
	}
	if cs.MaxLoopNesting != 2 || cs.LoopCount != 2 {
		t.Errorf("MaxLoopNesting/LoopCount = %d/%d", cs.MaxLoopNesting, cs.LoopCount)
	}
	if f := cs.Function("pairs"); f == nil || f.MaxLoopNesting != 2 {
		t.Errorf("pairs = %+v", f)
	}
	if f := cs.Function("fact"); f == nil || !f.Recursive {
		t.Errorf("fact = %+v", f)
	}
	if cs.ReturnPattern != ReturnExpression {
		t.Errorf("ReturnPattern = %q", cs.ReturnPattern)
	}
}

func TestAnalyze_DataStructureSet(t *testing.T) {
	prog := pyast.MustParse(`def f(graph, root):
    a = {}
    b = {}
    memo = dict()
    stack = [graph[root]]
    visited = set()
    queue = [root]
    name = "x"
    while stack:
        node = stack.pop()
        stack.append(node.left)
        queue.pop(0)
    return a
`)
	cs := Analyze(prog)

	seen := map[DataStructure]int{}
	for _, k := range cs.DataStructures {
		seen[k]++
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("%s recorded %d times", k, n)
		}
	}
	for _, want := range []DataStructure{HashMap, Array, Set, String, Stack, Queue, Tree, Graph} {
		if !cs.HasDataStructure(want) {
			t.Errorf("missing %s in %v", want, cs.DataStructures)
		}
	}

	// order is first detection in source order
	again := Analyze(prog)
	if !reflect.DeepEqual(cs.DataStructures, again.DataStructures) {
		t.Errorf("non-deterministic order: %v vs %v", cs.DataStructures, again.DataStructures)
	}
}

func TestAnalyze_MapLikeNames(t *testing.T) {
	cs := Analyze(pyast.MustParse("def f(xs):\n    lookup = build(xs)\n    return lookup\n"))
	if !cs.HasDataStructure(HashMap) {
		t.Errorf("lookup should register hash_map, got %v", cs.DataStructures)
	}
	if cs.Variables["lookup"] != "unknown" {
		t.Errorf("Variables[lookup] = %q", cs.Variables["lookup"])
	}
}

func TestAnalyze_MutualRecursionNotDetected(t *testing.T) {
	cs := Analyze(pyast.MustParse(`def is_even(n):
    return True if n == 0 else is_odd(n - 1)

def is_odd(n):
    return False if n == 0 else is_even(n - 1)
`))
	if cs.HasRecursion() {
		t.Error("mutual recursion is not detected by the direct-call check")
	}
}

func TestAnalyze_EmptyProgram(t *testing.T) {
	cs := Analyze(pyast.MustParse("x = 1\n"))
	if len(cs.Functions) != 0 || cs.HasLoop() || len(cs.ControlFlow) != 0 {
		t.Errorf("unexpected structure: %+v", cs)
	}
	if cs.Variables["x"] != "int" {
		t.Errorf("Variables[x] = %q", cs.Variables["x"])
	}
}
