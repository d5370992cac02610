package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"algoscope/internal/errors"
	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/pipeline"
	"algoscope/internal/trace"
)

func sampleSteps() []trace.Step {
	return []trace.Step{
		{
			Number: 0, Line: 1, CodeLine: "def search(nums, target):", Function: "search", Event: trace.EventCall,
			Before:  trace.Vars{},
			After:   trace.Vars{"nums": []interface{}{int64(1), int64(3), int64(5)}, "target": int64(5)},
			Changes: map[string]trace.Change{},
		},
		{
			Number: 1, Line: 4, CodeLine: "mid = (left + right) // 2", Function: "search", Event: trace.EventLine,
			Before: trace.Vars{"left": int64(0), "ratio": 0.5},
			After:  trace.Vars{"left": int64(0), "ratio": 3.0, "mid": int64(1)},
			Changes: map[string]trace.Change{
				"mid":   {Type: trace.ChangeNew, New: int64(1)},
				"ratio": {Type: trace.ChangeModified, Old: 0.5, New: 3.0},
			},
			Significant: true,
			Explanation: "Calculate middle index for binary search",
			Visualization: &trace.Visualization{
				StepType:           "line",
				Pointers:           map[string]interface{}{"left": int64(0), "mid": int64(1)},
				DataStructureState: map[string]interface{}{"seen": map[string]interface{}{"type": "hash_map", "entries": map[string]interface{}{"1": 2.0}}},
				Highlights:         []string{"mid", "ratio"},
			},
		},
		{
			Number: 2, Line: 6, CodeLine: "return 2", Function: "search", Event: trace.EventReturn,
			Changes:     map[string]trace.Change{trace.ReturnValueKey: {New: int64(2)}},
			Significant: true,
			Explanation: "Target found at index 2",
		},
	}
}

func TestEncodeSteps_RoundTrip(t *testing.T) {
	steps := sampleSteps()
	data, err := EncodeSteps(steps)
	if err != nil {
		t.Fatalf("EncodeSteps() error = %v", err)
	}
	for _, key := range []string{`"step_number"`, `"code_line"`, `"variable_changes"`, `"visualization_data"`, `"is_significant"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoding lacks %s", key)
		}
	}
	if !strings.Contains(string(data), `"new":3.0`) {
		t.Errorf("float lost its decimal point: %s", data)
	}

	got, err := DecodeSteps(data)
	if err != nil {
		t.Fatalf("DecodeSteps() error = %v", err)
	}
	if !reflect.DeepEqual(got, steps) {
		t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", got, steps)
	}
}

func TestDecodeSteps_Invalid(t *testing.T) {
	if _, err := DecodeSteps([]byte(`{"step_number": 0}`)); err == nil {
		t.Error("object accepted as step list")
	}
	if _, err := DecodeSteps([]byte(`[{"variable_changes": {"x": {"new": 1e999}}}]`)); err == nil {
		t.Error("out-of-range float accepted")
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{0.25, "0.25"},
		{-2, "-2.0"},
		{1e21, "1e+21"},
		{math.Inf(1), `"inf"`},
		{math.NaN(), `"nan"`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(decimal(tt.in))
		if err != nil || string(got) != tt.want {
			t.Errorf("decimal(%v) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestTraceFile(t *testing.T) {
	for _, name := range []string{"trace.json", "nested/trace.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			b := &Bundle{Version: BundleVersion, AnalysisID: "abc", Pattern: "binary_search", Executor: trace.ExecutorTraced, Steps: sampleSteps()}
			if err := WriteTraceFile(path, b); err != nil {
				t.Fatalf("WriteTraceFile() error = %v", err)
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			isJSON := json.Valid(raw)
			if isJSON == strings.HasSuffix(name, CompressedExt) {
				t.Errorf("compressed=%v but valid JSON=%v", strings.HasSuffix(name, CompressedExt), isJSON)
			}

			got, err := ReadTraceFile(path)
			if err != nil {
				t.Fatalf("ReadTraceFile() error = %v", err)
			}
			if got.AnalysisID != "abc" || got.StepCount != 3 || !reflect.DeepEqual(got.Steps, b.Steps) {
				t.Errorf("bundle = %+v", got)
			}
		})
	}
}

func TestUnmarshalBundle_Version(t *testing.T) {
	if _, err := UnmarshalBundle([]byte(`{"version": 99, "execution_steps": []}`)); err == nil {
		t.Error("unknown version accepted")
	}
	if _, err := UnmarshalBundle([]byte(`{"version": 1, "step_count": 2, "execution_steps": []}`)); err == nil {
		t.Error("step count mismatch accepted")
	}
}

func sampleAnalysis() *pipeline.AlgorithmAnalysis {
	ok := true
	return &pipeline.AlgorithmAnalysis{
		ID:              "id-1",
		PrimaryPattern:  patterns.BinarySearch,
		Confidence:      0.9,
		Provenance:      matcher.ProvenanceHeuristic,
		TimeComplexity:  pipeline.ComplexityLogarithmic,
		SpaceComplexity: pipeline.ComplexityConstant,
		Steps:           sampleSteps(),
		Summary: &pipeline.Summary{
			TotalLinesExecuted: 3,
			SignificantSteps:   2,
			Executor:           trace.ExecutorTraced,
			OutputMatches:      &ok,
			ReturnValue:        4.0,
			KeyOperations:      []string{"Search space division"},
		},
		PotentialIssues: []string{"No function definition found"},
	}
}

func TestMarshalAnalysis(t *testing.T) {
	data, err := MarshalAnalysis(sampleAnalysis())
	if err != nil {
		t.Fatalf("MarshalAnalysis() error = %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["primary_pattern"] != "binary_search" {
		t.Errorf("primary_pattern = %v", doc["primary_pattern"])
	}
	if steps, ok := doc["execution_steps"].([]interface{}); !ok || len(steps) != 3 {
		t.Errorf("execution_steps = %v", doc["execution_steps"])
	}
	if !strings.Contains(string(data), `"return_value": 4.0`) {
		t.Errorf("summary return value lost its decimal point")
	}
}

func TestRender(t *testing.T) {
	a := sampleAnalysis()
	a.ExecutionError = errors.Newf(errors.RecursionOverflow, "Code execution caused infinite recursion").AtLine(3)

	out, err := Render(a, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "primary_pattern: binary_search") {
		t.Errorf("yaml = %s", out)
	}

	out, err = Render(a, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	for _, want := range []string{
		"# Pattern: Binary Search",
		"RECURSION_OVERFLOW",
		"(line 3)",
		"# Calculate middle index for binary search",
		"ratio: 0.5 -> 3",
		"* Search space division",
		"warning: No function definition found",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text lacks %q:\n%s", want, text)
		}
	}

	if _, err := Render(a, "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}
