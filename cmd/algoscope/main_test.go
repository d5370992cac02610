package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/pipeline"
	"algoscope/internal/structure"
	"algoscope/internal/trace"
)

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solution.py")
	if err := os.WriteFile(path, []byte("def f():\n    return 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		code    string
		stdin   string
		want    string
		wantErr bool
	}{
		{"inline code", nil, "x = 1", "", "x = 1", false},
		{"file", []string{path}, "", "", "def f():\n    return 1\n", false},
		{"stdin", []string{"-"}, "", "y = 2\n", "y = 2\n", false},
		{"nothing given", nil, "", "", "", true},
		{"both given", []string{path}, "x = 1", "", "", true},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.py")}, "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readSource(tt.args, tt.code, strings.NewReader(tt.stdin))
			if (err != nil) != tt.wantErr {
				t.Fatalf("readSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("readSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadProblem(t *testing.T) {
	if p, err := loadProblem("", "", ""); p != nil || err != nil {
		t.Errorf("loadProblem with no flags = %v, %v; want nil, nil", p, err)
	}

	p, err := loadProblem("Two Sum\nFind indices in the array.", `{"nums": [2, 7], "target": 9}`, `[0, 1]`)
	if err != nil {
		t.Fatalf("loadProblem() error = %v", err)
	}
	if p.Title != "Two Sum" {
		t.Errorf("Title = %q", p.Title)
	}
	tc := p.SelectedTestCase()
	if tc == nil {
		t.Fatal("no test case")
	}
	if tc.InputData["target"] != json.Number("9") {
		t.Errorf("target = %#v", tc.InputData["target"])
	}
	if tc.ExpectedOutput == nil {
		t.Error("expected output dropped")
	}

	stmt := filepath.Join(t.TempDir(), "problem.txt")
	if err := os.WriteFile(stmt, []byte("Binary Search\nSorted array, O(log n)."), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = loadProblem("@"+stmt, "", "")
	if err != nil {
		t.Fatalf("loadProblem(@file) error = %v", err)
	}
	if p.Title != "Binary Search" {
		t.Errorf("Title from file = %q", p.Title)
	}

	for _, bad := range [][3]string{
		{"", `[1, 2]`, ""},
		{"", `{"a": `, ""},
		{"", "", `[0, 1]`},
		{"@" + filepath.Join(t.TempDir(), "missing.txt"), "", ""},
	} {
		if _, err := loadProblem(bad[0], bad[1], bad[2]); err == nil {
			t.Errorf("loadProblem(%q, %q, %q) accepted", bad[0], bad[1], bad[2])
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		a    *pipeline.AlgorithmAnalysis
		err  error
		want int
	}{
		{"ok", &pipeline.AlgorithmAnalysis{}, nil, exitOK},
		{"parse failure", nil, errors.Newf(errors.ParseFailure, "invalid syntax").AtLine(1), exitParseFailure},
		{"other error", nil, errors.Newf(errors.InternalError, "boom"), exitFailure},
		{"execution error", &pipeline.AlgorithmAnalysis{
			ExecutionError: errors.Newf(errors.TimeoutExceeded, "Code execution timed out"),
		}, nil, exitExecutionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.a, tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnvVars(t *testing.T) {
	vars := envVars(config.DefaultConfig())
	want := map[string]bool{
		"ALGOSCOPE_SANDBOX_TIMEOUTSECONDS":      false,
		"ALGOSCOPE_MATCHER_CONFIDENCETHRESHOLD": false,
		"ALGOSCOPE_LOGGING_LEVEL":               false,
	}
	for _, v := range vars {
		if _, ok := want[v]; ok {
			want[v] = true
		}
		if strings.Contains(v, ".") {
			t.Errorf("variable %q contains a dot", v)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing %s in %v", name, vars)
		}
	}
}

func TestFormatPatternsHuman(t *testing.T) {
	resp := &PatternsResponseCLI{
		Result: matcher.Result{
			Pattern:    patterns.BinarySearch,
			Confidence: 0.8,
			Provenance: matcher.ProvenanceHeuristic,
			Scores: []patterns.Score{
				{Kind: patterns.HashMap, Score: 0.1},
				{Kind: patterns.BinarySearch, Score: 0.8},
			},
		},
		DataStructures: []structure.DataStructure{"array"},
		LoopCount:      1,
		MaxLoopNesting: 1,
	}
	out := formatPatternsHuman(resp)
	for _, want := range []string{"Pattern: Binary Search (confidence 0.80)", "Data structures: array", "Loops: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	scores := out[strings.Index(out, "Scores:"):]
	if strings.Index(scores, "Binary Search") > strings.Index(scores, "Hash Map") {
		t.Errorf("scores not sorted high to low:\n%s", out)
	}

	resp.Pattern = patterns.None
	if out := formatPatternsHuman(resp); !strings.HasPrefix(out, "No pattern detected") {
		t.Errorf("no-pattern output = %q", out)
	}
}

func TestOutcomeBundle(t *testing.T) {
	out := &trace.Outcome{
		Steps:     []trace.Step{{Number: 0}, {Number: 1}},
		Executor:  trace.ExecutorSimple,
		Truncated: true,
	}
	b := outcomeBundle(out, patterns.TwoPointers)
	if b.StepCount != 2 || b.Pattern != "two_pointers" || b.Executor != trace.ExecutorSimple || !b.Truncated {
		t.Errorf("bundle = %+v", b)
	}
}
