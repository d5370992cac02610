package problem

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	statement := `
Two Sum
Given an array of integers nums and an integer target, return indices of the two numbers
that add up to target. Aim for O(n) using a lookup table, ideally in linear time.`

	d := Parse(statement, nil)

	if d.Title != "Two Sum" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.Type != TypeArray {
		t.Errorf("Type = %q, want array", d.Type)
	}
	if len(d.Constraints) != 2 {
		t.Fatalf("Constraints = %+v, want 2", d.Constraints)
	}
	if d.Constraints[0].Value != "n" || d.Constraints[1].Value != "linear time" {
		t.Errorf("Constraints = %+v", d.Constraints)
	}
	if !d.RequiresLinearTime() {
		t.Error("expected linear time requirement")
	}
	if !d.Mentions("lookup") || d.Mentions("palindrome") {
		t.Error("Mentions mismatch")
	}
}

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		text string
		want Type
	}{
		{"Reverse the characters of a string", TypeString},
		{"Find the depth of a binary tree", TypeTree},
		{"Count connected components of the graph", TypeGraph},
		{"Compute the nth Fibonacci number", TypeNone},
		{"", TypeNone},
	}
	for _, tt := range tests {
		if got := Parse(tt.text, nil).Type; got != tt.want {
			t.Errorf("Parse(%q).Type = %q, want %q", tt.text, got, tt.want)
		}
	}
	if Parse("", nil).Title != "Unknown Problem" {
		t.Error("empty statement should get the placeholder title")
	}
}

func TestDecodeTestCase(t *testing.T) {
	tc, err := DecodeTestCase([]byte(`{"nums": [2, 7, 11, 15], "target": 9, "ratio": 0.5}`), []byte(`[0, 1]`))
	if err != nil {
		t.Fatalf("DecodeTestCase() error = %v", err)
	}
	target, ok := tc.InputData["target"].(json.Number)
	if !ok || target.String() != "9" {
		t.Errorf("target = %#v, want json.Number 9", tc.InputData["target"])
	}
	if _, ok := tc.InputData["nums"].([]interface{}); !ok {
		t.Errorf("nums = %T", tc.InputData["nums"])
	}
	if out, ok := tc.ExpectedOutput.([]interface{}); !ok || len(out) != 2 {
		t.Errorf("ExpectedOutput = %#v", tc.ExpectedOutput)
	}

	if _, err := DecodeTestCase([]byte(`[1, 2]`), nil); err == nil {
		t.Error("non-object input should fail")
	}
	tc, err = DecodeTestCase([]byte(`{}`), nil)
	if err != nil || tc.ExpectedOutput != nil {
		t.Errorf("missing expected output should stay nil: %v %v", tc, err)
	}
}

func TestSelectedTestCase(t *testing.T) {
	var nilData *Data
	if nilData.SelectedTestCase() != nil {
		t.Error("nil data has no test case")
	}
	d := Parse("x", []TestCase{{InputData: map[string]interface{}{"a": 1}}, {}})
	if tc := d.SelectedTestCase(); tc == nil || tc.InputData["a"] != 1 {
		t.Errorf("SelectedTestCase() = %+v", tc)
	}
}
