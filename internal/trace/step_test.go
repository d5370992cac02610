package trace

import (
	"reflect"
	"testing"

	"algoscope/internal/interp"
	"algoscope/internal/pyast"
)

func TestDiff(t *testing.T) {
	prev := Vars{"a": int64(1), "xs": []interface{}{int64(1)}, "gone": "x"}
	cur := Vars{"a": int64(1), "xs": []interface{}{int64(1), int64(2)}, "b": "new"}

	got := diff(prev, cur)
	want := map[string]Change{
		"xs": {Type: ChangeModified, Old: []interface{}{int64(1)}, New: []interface{}{int64(1), int64(2)}},
		"b":  {Type: ChangeNew, New: "new"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diff() = %#v, want %#v", got, want)
	}
	if len(diff(cur, cur)) != 0 {
		t.Error("diff of identical snapshots is not empty")
	}
}

func TestSnapshotValue(t *testing.T) {
	cyclic := interp.NewList(interp.Int(1))
	cyclic.Items = append(cyclic.Items, cyclic)

	tests := []struct {
		name string
		v    interp.Value
		want interface{}
	}{
		{"int", interp.Int(3), int64(3)},
		{"list", interp.NewList(interp.Str("a"), interp.None), []interface{}{"a", nil}},
		{"function", &interp.Function{Name: "helper"}, "<function helper>"},
		{"cycle", cyclic, "[1, [...]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotValue(tt.v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SnapshotValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSourceSteps(t *testing.T) {
	src := "# header\n\ndef f(a):\n    # note\n    return a\n"
	steps := SourceSteps(pyast.NewProgram(nil, []byte(src)), "")
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}
	if steps[0].Line != 3 || steps[0].CodeLine != "def f(a):" || steps[0].Function != "main" {
		t.Errorf("steps[0] = %+v", steps[0])
	}
	if steps[1].Number != 1 || steps[1].Line != 5 || len(steps[1].Changes) != 0 {
		t.Errorf("steps[1] = %+v", steps[1])
	}
}

func TestStaticSteps(t *testing.T) {
	src := "def f(a, *rest):\n    x = a\n    y = x\n    return y\n"
	ret := &pyast.Return{Span: pyast.Span{Start: 4, End: 4}}
	body := []pyast.Stmt{
		&pyast.Assign{Span: pyast.Span{Start: 2, End: 2}},
		&pyast.Assign{Span: pyast.Span{Start: 3, End: 3}},
		ret,
	}
	fn := &pyast.FunctionDef{
		Span:   pyast.Span{Start: 1, End: 4},
		Name:   "f",
		Params: []*pyast.Param{{Name: "a"}, {Name: "rest", Kind: pyast.ParamVarArgs}},
		Body:   body,
	}
	prog := pyast.NewProgram([]pyast.Stmt{fn}, []byte(src))

	steps := StaticSteps(prog, map[string]interface{}{"a": 1}, 0)
	if len(steps) != 4 {
		t.Fatalf("len(steps) = %d, want 4", len(steps))
	}
	call := steps[0]
	if call.Event != EventCall || call.CodeLine != "def f(a, *rest):" || call.After["a"] != int64(1) {
		t.Errorf("call step = %+v", call)
	}
	for i, s := range steps {
		if s.Number != i {
			t.Errorf("steps[%d].Number = %d", i, s.Number)
		}
		if len(s.Changes) != 0 {
			t.Errorf("steps[%d] has changes %v", i, s.Changes)
		}
	}
	if steps[3].CodeLine != "return y" {
		t.Errorf("last step code = %q", steps[3].CodeLine)
	}

	if got := len(StaticSteps(prog, nil, 2)); got != 2 {
		t.Errorf("capped len = %d, want 2", got)
	}
}
