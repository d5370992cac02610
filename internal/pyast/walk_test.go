package pyast

import (
	"reflect"
	"testing"
)

// sample builds, by hand,
//
//	def f(xs):
//	    for x in xs:
//	        if x > 0:
//	            return x
func sample() *Program {
	x := &Name{Span: Span{2, 2}, ID: "x"}
	ret := &Return{Span: Span{4, 4}, Value: &Name{Span: Span{4, 4}, ID: "x"}}
	cond := &Compare{
		Span:        Span{3, 3},
		Left:        &Name{Span: Span{3, 3}, ID: "x"},
		Ops:         []string{">"},
		Comparators: []Expr{&Constant{Span: Span{3, 3}, Kind: ConstInt, Int: 0}},
	}
	loop := &For{
		Span:   Span{2, 4},
		Target: x,
		Iter:   &Name{Span: Span{2, 2}, ID: "xs"},
		Body:   []Stmt{&If{Span: Span{3, 4}, Cond: cond, Body: []Stmt{ret}}},
	}
	fn := &FunctionDef{
		Span:   Span{1, 4},
		Name:   "f",
		Params: []*Param{{Span: Span{1, 1}, Name: "xs"}},
		Body:   []Stmt{loop},
	}
	src := "def f(xs):\n    for x in xs:\n        if x > 0:\n            return x\n"
	return NewProgram([]Stmt{fn}, []byte(src))
}

func TestInspect_PreOrder(t *testing.T) {
	var kinds []string
	sample().Inspect(func(n Node) bool {
		kinds = append(kinds, reflect.TypeOf(n).Elem().Name())
		return true
	})

	want := []string{
		"FunctionDef", "Param", "For", "Name", "Name", "If", "Compare", "Name", "Constant", "Return", "Name",
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Inspect order = %v, want %v", kinds, want)
	}
}

func TestInspect_SkipChildren(t *testing.T) {
	count := 0
	sample().Inspect(func(n Node) bool {
		count++
		_, isFor := n.(*For)
		return !isFor
	})
	// FunctionDef, Param, For
	if count != 3 {
		t.Errorf("visited %d nodes, want 3", count)
	}
}

type depthVisitor struct {
	depth, max int
}

func (v *depthVisitor) Visit(n Node) Visitor {
	if _, ok := n.(*For); ok {
		v.depth++
		if v.depth > v.max {
			v.max = v.depth
		}
	}
	return v
}

func (v *depthVisitor) Leave(n Node) {
	if _, ok := n.(*For); ok {
		v.depth--
	}
}

func TestWalk_EnterLeave(t *testing.T) {
	v := &depthVisitor{}
	for _, s := range sample().Body {
		Walk(v, s)
	}
	if v.max != 1 || v.depth != 0 {
		t.Errorf("max=%d depth=%d, want 1 and 0", v.max, v.depth)
	}
}

func TestProgram_Lines(t *testing.T) {
	p := sample()

	if got := p.Line(2); got != "    for x in xs:" {
		t.Errorf("Line(2) = %q", got)
	}
	if p.Line(0) != "" || p.Line(99) != "" {
		t.Error("out of range lines should be empty")
	}
	if fn := p.TargetFunction(); fn == nil || fn.Name != "f" {
		t.Errorf("TargetFunction() = %v", fn)
	}
}

func TestHelpers(t *testing.T) {
	sub := &Subscript{
		Value: &Subscript{Value: &Name{ID: "dp"}, Index: &Name{ID: "i"}},
		Index: &Name{ID: "j"},
	}
	if got := BaseName(sub); got != "dp" {
		t.Errorf("BaseName = %q, want dp", got)
	}

	call := &Call{Func: &Attribute{Value: &Name{ID: "stack"}, Attr: "append"}}
	if got := CalleeName(call); got != "append" {
		t.Errorf("CalleeName = %q, want append", got)
	}

	target := &Tuple{Elts: []Expr{&Name{ID: "a"}, &Starred{Value: &Name{ID: "rest"}}}}
	if got := TargetNames(target); !reflect.DeepEqual(got, []string{"a", "rest"}) {
		t.Errorf("TargetNames = %v", got)
	}

	if !Mentions(sub, "j") || Mentions(sub, "k") {
		t.Error("Mentions mismatch")
	}
}
