package interp

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestRepr(t *testing.T) {
	d := NewDict()
	_ = d.Set(Str("a"), Int(1))
	_ = d.Set(Int(2), NewList(Float(1.5), None))

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"int", Int(-3), "-3"},
		{"float whole", Float(2), "2.0"},
		{"float small", Float(0.0001), "0.0001"},
		{"float exp", Float(1e16), "1e+16"},
		{"float tiny", Float(1.5e-7), "1.5e-07"},
		{"inf", Float(math.Inf(-1)), "-inf"},
		{"str", Str("it's"), `"it's"`},
		{"str plain", Str("ab"), "'ab'"},
		{"bool", Bool(true), "True"},
		{"none", None, "None"},
		{"single tuple", Tuple{Int(1)}, "(1,)"},
		{"tuple", Tuple{Int(1), Str("x")}, "(1, 'x')"},
		{"empty set", NewSet(), "set()"},
		{"dict", d, "{'a': 1, 2: [1.5, None]}"},
		{"range", &Range{Start: 0, Stop: 5, Step: 1}, "range(0, 5)"},
		{"range step", &Range{Start: 5, Stop: 0, Step: -2}, "range(5, 0, -2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Repr(tt.v); got != tt.want {
				t.Errorf("Repr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRepr_Cycle(t *testing.T) {
	l := NewList(Int(1))
	l.Items = append(l.Items, l)
	if got := Repr(l); got != "[1, [...]]" {
		t.Errorf("Repr() = %q", got)
	}

	d := NewDict()
	_ = d.Set(Str("self"), d)
	if got := Repr(d); got != "{'self': {...}}" {
		t.Errorf("Repr() = %q", got)
	}
}

func TestSnapshot(t *testing.T) {
	d := NewDict()
	_ = d.Set(Int(1), Tuple{Str("a"), Float(math.Inf(1))})
	_ = d.Set(Str("k"), NewList(Bool(false), None))

	got, err := Snapshot(d)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	want := map[string]interface{}{
		"1": []interface{}{"a", "inf"},
		"k": []interface{}{false, nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %#v, want %#v", got, want)
	}

	l := NewList()
	l.Items = append(l.Items, l)
	if _, err := Snapshot(l); !errors.Is(err, ErrRecursive) {
		t.Errorf("Snapshot(cycle) error = %v, want ErrRecursive", err)
	}

	shared := NewList(Int(1))
	v, err := Snapshot(NewList(shared, shared))
	if err != nil {
		t.Fatalf("Snapshot(shared) error = %v", err)
	}
	if !reflect.DeepEqual(v, []interface{}{[]interface{}{int64(1)}, []interface{}{int64(1)}}) {
		t.Errorf("Snapshot(shared) = %#v", v)
	}

	if _, err := Snapshot(&Function{Name: "f"}); err == nil {
		t.Error("Snapshot(function) should fail")
	}
}

func TestSnapshot_DictKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []Value
		want []string
	}{
		{"ints", []Value{Int(2), Int(7)}, []string{"2", "7"}},
		{"int and str", []Value{Int(1), Str("1")}, []string{"1", "'1'"}},
		{"str before int", []Value{Str("1"), Int(1)}, []string{"'1'", "1"}},
		{"none and str", []Value{None, Str("None"), Str("x")}, []string{"None", "'None'", "x"}},
		{"tuple and str", []Value{Tuple{Int(1), Int(2)}, Str("(1, 2)")}, []string{"(1, 2)", "'(1, 2)'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDict()
			for i, k := range tt.keys {
				if err := d.Set(k, Int(int64(i))); err != nil {
					t.Fatal(err)
				}
			}
			got, err := Snapshot(d)
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			m := got.(map[string]interface{})
			if len(m) != len(tt.keys) {
				t.Fatalf("Snapshot() = %#v, want %d keys", m, len(tt.keys))
			}
			for i, k := range tt.want {
				if m[k] != int64(i) {
					t.Errorf("Snapshot()[%q] = %#v, want %d", k, m[k], i)
				}
			}
		})
	}
}

func TestDict_NumericKeysCollide(t *testing.T) {
	d := NewDict()
	_ = d.Set(Int(1), Str("int"))
	_ = d.Set(Float(1.0), Str("float"))
	_ = d.Set(Bool(true), Str("bool"))

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	e := d.Entries()[0]
	if e.Key != Int(1) || e.Value != Str("bool") {
		t.Errorf("entry = %v: %v, want 1: 'bool'", e.Key, e.Value)
	}

	if err := d.Set(NewList(), None); err == nil || !IsException(err, "TypeError") {
		t.Errorf("Set(list key) error = %v, want TypeError", err)
	}
}

func TestDict_DeleteKeepsOrder(t *testing.T) {
	d := NewDict()
	for i := 0; i < 10; i++ {
		_ = d.Set(Int(i), Int(i*i))
	}
	for i := 0; i < 8; i++ {
		if _, ok, _ := d.Delete(Int(i)); !ok {
			t.Fatalf("Delete(%d) not found", i)
		}
	}
	_ = d.Set(Int(0), Int(0))

	var keys []string
	for _, k := range d.Keys() {
		keys = append(keys, Repr(k))
	}
	if got := strings.Join(keys, ","); got != "8,9,0" {
		t.Errorf("keys = %s, want 8,9,0", got)
	}
	if v, ok, _ := d.Get(Int(9)); !ok || v != Int(81) {
		t.Errorf("Get(9) = %v, %v", v, ok)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    Value
		spec string
		want string
	}{
		{Float(3.14159), ".2f", "3.14"},
		{Int(42), "05d", "00042"},
		{Int(-42), "06", "-00042"},
		{Int(1234567), ",", "1,234,567"},
		{Str("ab"), ">4", "  ab"},
		{Str("ab"), "^6", "  ab  "},
		{Str("abc"), "*<5", "abc**"},
		{Int(255), "x", "ff"},
		{Int(5), "#b", "0b101"},
		{Float(0.25), ".0%", "25%"},
		{Float(2), ".2", "2.0"},
		{Float(1234.5), ",.1f", "1,234.5"},
		{Int(7), "+d", "+7"},
		{Float(12345.678), ".2e", "1.23e+04"},
		{Bool(true), "", "True"},
	}
	for _, tt := range tests {
		got, err := FormatValue(tt.v, tt.spec)
		if err != nil {
			t.Errorf("FormatValue(%v, %q) error = %v", tt.v, tt.spec, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.v, tt.spec, got, tt.want)
		}
	}

	if _, err := FormatValue(Str("x"), "d"); err == nil {
		t.Error("FormatValue(str, d) should fail")
	}
}

func TestFormatMethodAndPercent(t *testing.T) {
	s, err := formatMethod("{} + {} = {total:>3}", []Value{Int(1), Int(2)}, []Kwarg{{Name: "total", Value: Int(3)}})
	if err != nil || s != "1 + 2 =   3" {
		t.Errorf("formatMethod() = %q, %v", s, err)
	}
	if s, _ := formatMethod("{{literal}} {0!r}", []Value{Str("x")}, nil); s != "{literal} 'x'" {
		t.Errorf("formatMethod() = %q", s)
	}

	v, err := percentFormat("%s has %d items (%.1f%%)", Tuple{Str("cart"), Int(3), Float(37.5)})
	if err != nil || v != Str("cart has 3 items (37.5%)") {
		t.Errorf("percentFormat() = %v, %v", v, err)
	}
	if _, err := percentFormat("%d %d", Int(1)); err == nil {
		t.Error("percentFormat() with missing argument should fail")
	}
}

func TestFromGo(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"nums": [2, 7.0, 1e3], "target": 9, "name": "x", "flag": null}`))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		t.Fatal(err)
	}
	v, err := FromGo(raw)
	if err != nil {
		t.Fatalf("FromGo() error = %v", err)
	}
	if got := Repr(v); got != "{'flag': None, 'name': 'x', 'nums': [2, 7.0, 1000.0], 'target': 9}" {
		t.Errorf("FromGo() = %s", got)
	}

	if _, err := FromGo(struct{}{}); err == nil {
		t.Error("FromGo(struct) should fail")
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b Value
		want Value
	}{
		{"//", Int(-7), Int(2), Int(-4)},
		{"%", Int(-7), Int(2), Int(1)},
		{"%", Int(7), Int(-2), Int(-1)},
		{"/", Int(7), Int(2), Float(3.5)},
		{"**", Int(2), Int(10), Int(1024)},
		{"**", Int(2), Int(-1), Float(0.5)},
		{"//", Float(-7), Int(2), Float(-4)},
		{"%", Float(-1), Float(3), Float(2)},
		{"+", Bool(true), Int(1), Int(2)},
		{"&", Bool(true), Bool(false), Bool(false)},
		{">>", Int(-9), Int(1), Int(-5)},
	}
	for _, tt := range tests {
		got, err := binaryOp(tt.op, tt.a, tt.b)
		if err != nil {
			t.Errorf("%v %s %v error = %v", tt.a, tt.op, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%v %s %v = %v (%T), want %v", tt.a, tt.op, tt.b, got, got, tt.want)
		}
	}

	errs := []struct {
		op   string
		a, b Value
		typ  string
	}{
		{"/", Int(1), Int(0), "ZeroDivisionError"},
		{"//", Int(1), Int(0), "ZeroDivisionError"},
		{"%", Float(1), Float(0), "ZeroDivisionError"},
		{"*", Int(math.MaxInt64), Int(2), "OverflowError"},
		{"+", Int(math.MaxInt64), Int(1), "OverflowError"},
		{"**", Int(10), Int(30), "OverflowError"},
		{"+", Str("a"), Int(1), "TypeError"},
		{"<<", Int(1), Int(-1), "ValueError"},
	}
	for _, tt := range errs {
		if _, err := binaryOp(tt.op, tt.a, tt.b); !IsException(err, tt.typ) {
			t.Errorf("%v %s %v error = %v, want %s", tt.a, tt.op, tt.b, err, tt.typ)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op   string
		a, b Value
		want bool
	}{
		{"<", Int(1), Float(1.5), true},
		{"==", Int(1), Float(1.0), true},
		{"<", Str("abc"), Str("abd"), true},
		{"<", Tuple{Int(1), Int(2)}, Tuple{Int(1), Int(3)}, true},
		{"<", NewList(Int(1)), NewList(Int(1), Int(0)), true},
		{"in", Int(3), &Range{Start: 0, Stop: 10, Step: 3}, true},
		{"in", Int(4), &Range{Start: 0, Stop: 10, Step: 3}, false},
		{"in", Str("ell"), Str("hello"), true},
		{"not in", Int(2), NewList(Int(1)), true},
		{"is", None, None, true},
		{"is not", NewList(), NewList(), true},
		{"==", NewList(), NewList(), true},
	}
	for _, tt := range tests {
		got, err := compare(tt.op, tt.a, tt.b)
		if err != nil {
			t.Errorf("%v %s %v error = %v", tt.a, tt.op, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%v %s %v = %v, want %v", tt.a, tt.op, tt.b, got, tt.want)
		}
	}

	if _, err := compare("<", Int(1), Str("a")); !IsException(err, "TypeError") {
		t.Errorf("1 < 'a' error = %v, want TypeError", err)
	}
}

func TestSliceIndices(t *testing.T) {
	tests := []struct {
		lower, upper, step Value
		n                  int
		want               []int
	}{
		{None, None, None, 4, []int{0, 1, 2, 3}},
		{Int(1), Int(-1), None, 4, []int{1, 2}},
		{None, None, Int(-1), 3, []int{2, 1, 0}},
		{Int(-10), Int(10), Int(2), 5, []int{0, 2, 4}},
		{Int(3), Int(1), None, 5, nil},
		{None, Int(0), Int(-2), 5, []int{4, 2}},
	}
	for _, tt := range tests {
		got, err := sliceIndices(&Slice{Lower: tt.lower, Upper: tt.upper, Step: tt.step}, tt.n)
		if err != nil {
			t.Fatalf("sliceIndices() error = %v", err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("[%v:%v:%v] over %d = %v, want %v", tt.lower, tt.upper, tt.step, tt.n, got, tt.want)
		}
	}
	if _, err := sliceIndices(&Slice{Lower: None, Upper: None, Step: Int(0)}, 3); !IsException(err, "ValueError") {
		t.Errorf("zero step error = %v", err)
	}
}
