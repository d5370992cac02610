// Package interp is a tree-walking interpreter for the Python subset accepted by pyast.
//
// Values follow Python semantics closely enough for learner algorithms: arbitrary
// nesting of lists, tuples, dicts and sets, closures, keyword and default arguments,
// floor division toward negative infinity, chained comparisons and Python-named
// runtime errors. Integers are 64-bit; overflow raises OverflowError.
package interp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"algoscope/internal/pyast"
)

// Value is any runtime value.
type Value interface {
	// Type returns the Python type name, e.g. "int" or "list"
	Type() string
}

// Snapshotter is implemented by values that can be copied into plain Go data:
// nil, bool, int64, finite float64, string, []interface{} and map[string]interface{}.
type Snapshotter interface {
	Snapshot() (interface{}, error)
}

type (
	// Int is a Python int.
	Int int64
	// Float is a Python float.
	Float float64
	// Str is a Python str.
	Str string
	// Bool is a Python bool.
	Bool bool
	// NoneType is the type of None.
	NoneType struct{}
	// Tuple is an immutable sequence.
	Tuple []Value
)

// None is the only NoneType value.
var None = NoneType{}

// List is a mutable sequence.
type List struct {
	Items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Range is the lazy sequence returned by range().
type Range struct {
	Start, Stop, Step int64
}

// Len returns the number of elements.
func (r *Range) Len() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	case r.Step < 0 && r.Start > r.Stop:
		return (r.Start - r.Stop - r.Step - 1) / -r.Step
	}
	return 0
}

// At returns element i, which must be in range.
func (r *Range) At(i int64) Int {
	return Int(r.Start + i*r.Step)
}

// Function is a user-defined function or lambda.
type Function struct {
	Name     string
	Params   []*pyast.Param
	Defaults []Value
	Body     []pyast.Stmt
	Expr     pyast.Expr // lambda body
	Line     int

	info    *scopeInfo
	closure *scope
}

// Kwarg is a keyword argument.
type Kwarg struct {
	Name  string
	Value Value
}

// NativeFunc implements a builtin.
type NativeFunc func(in *Interp, args []Value, kwargs []Kwarg) (Value, error)

// Builtin is a function implemented in Go.
type Builtin struct {
	Name string
	Fn   NativeFunc
}

// BoundMethod is a builtin method bound to its receiver.
type BoundMethod struct {
	Self Value
	Name string
	Fn   NativeFunc
}

// Iterator is a one-shot iterator produced by enumerate, zip, reversed and iter-like builtins.
type Iterator struct {
	Name string
	next func() (Value, bool, error)
}

// View is a live dict view returned by keys(), values() and items().
type View struct {
	Kind string
	Dict *Dict
}

func (Int) Type() string          { return "int" }
func (Float) Type() string        { return "float" }
func (Str) Type() string          { return "str" }
func (Bool) Type() string         { return "bool" }
func (NoneType) Type() string     { return "NoneType" }
func (Tuple) Type() string        { return "tuple" }
func (*List) Type() string        { return "list" }
func (*Range) Type() string       { return "range" }
func (*Function) Type() string    { return "function" }
func (*Builtin) Type() string     { return "builtin_function_or_method" }
func (*BoundMethod) Type() string { return "builtin_function_or_method" }
func (it *Iterator) Type() string { return it.Name }
func (v *View) Type() string      { return "dict_" + v.Kind }

func (v Int) String() string          { return Repr(v) }
func (v Float) String() string        { return Repr(v) }
func (v Str) String() string          { return Repr(v) }
func (v Bool) String() string         { return Repr(v) }
func (v NoneType) String() string     { return Repr(v) }
func (v Tuple) String() string        { return Repr(v) }
func (v *List) String() string        { return Repr(v) }
func (v *Range) String() string       { return Repr(v) }
func (v *Function) String() string    { return Repr(v) }
func (v *Builtin) String() string     { return Repr(v) }
func (v *BoundMethod) String() string { return Repr(v) }
func (v *Iterator) String() string    { return Repr(v) }
func (v *View) String() string        { return Repr(v) }

// Repr renders v the way Python's repr() does.
func Repr(v Value) string {
	var b strings.Builder
	r := reprState{b: &b, seen: make(map[Value]bool)}
	r.write(v)
	return b.String()
}

// ToStr renders v the way Python's str() does.
func ToStr(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Repr(v)
}

// reprState tracks the containers being printed so cycles render as [...].
type reprState struct {
	b    *strings.Builder
	seen map[Value]bool
}

func (r reprState) enter(v Value, placeholder string) bool {
	if r.seen[v] {
		r.b.WriteString(placeholder)
		return false
	}
	r.seen[v] = true
	return true
}

func (r reprState) write(v Value) {
	b := r.b
	switch x := v.(type) {
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		b.WriteString(formatFloat(float64(x)))
	case Str:
		b.WriteString(quoteStr(string(x)))
	case Bool:
		if x {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case NoneType:
		b.WriteString("None")
	case *List:
		if r.enter(x, "[...]") {
			r.seq("[", "]", x.Items)
			delete(r.seen, x)
		}
	case Tuple:
		if len(x) == 1 {
			b.WriteString("(")
			r.write(x[0])
			b.WriteString(",)")
			return
		}
		r.seq("(", ")", x)
	case *Dict:
		if !r.enter(x, "{...}") {
			return
		}
		b.WriteString("{")
		for i, e := range x.Entries() {
			if i > 0 {
				b.WriteString(", ")
			}
			r.write(e.Key)
			b.WriteString(": ")
			r.write(e.Value)
		}
		b.WriteString("}")
		delete(r.seen, x)
	case *Set:
		if x.Len() == 0 {
			b.WriteString("set()")
			return
		}
		r.seq("{", "}", x.Items())
	case *Range:
		if x.Step == 1 {
			fmt.Fprintf(b, "range(%d, %d)", x.Start, x.Stop)
		} else {
			fmt.Fprintf(b, "range(%d, %d, %d)", x.Start, x.Stop, x.Step)
		}
	case *Function:
		fmt.Fprintf(b, "<function %s>", x.Name)
	case *Builtin:
		fmt.Fprintf(b, "<built-in function %s>", x.Name)
	case *BoundMethod:
		fmt.Fprintf(b, "<built-in method %s of %s object>", x.Name, x.Self.Type())
	case *Iterator:
		fmt.Fprintf(b, "<%s object>", x.Name)
	case *View:
		b.WriteString("dict_" + x.Kind + "(")
		r.seq("[", "]", x.items())
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "<%s>", v.Type())
	}
}

func (r reprState) seq(open, close string, items []Value) {
	r.b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			r.b.WriteString(", ")
		}
		r.write(it)
	}
	r.b.WriteString(close)
}

// quoteStr quotes like Python: single quotes unless the text contains one and no double quote.
func quoteStr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// formatFloat matches Python's float repr: shortest round-trip digits, positional
// notation for exponents in [-4, 16).
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	exp := int(math.Floor(math.Log10(math.Abs(f))))
	// Log10 can be off by one at exact powers of ten; confirm with the 'e' form.
	if e := strconv.FormatFloat(f, 'e', -1, 64); strings.Contains(e, "e") {
		if n, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:]); err == nil {
			exp = n
		}
	}
	if exp >= -4 && exp < 16 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(s, "e")
	sign := expPart[0]
	digits := strings.TrimLeft(expPart[1:], "0")
	if len(digits) < 2 {
		digits = strings.Repeat("0", 2-len(digits)) + digits
	}
	return mant + "e" + string(sign) + digits
}

// ---- snapshots ----

func (v Int) Snapshot() (interface{}, error)  { return int64(v), nil }
func (v Bool) Snapshot() (interface{}, error) { return bool(v), nil }
func (v Str) Snapshot() (interface{}, error)  { return string(v), nil }

func (NoneType) Snapshot() (interface{}, error) { return nil, nil }

func (v Float) Snapshot() (interface{}, error) {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return formatFloat(f), nil
	}
	return f, nil
}

func (v Tuple) Snapshot() (interface{}, error) { return Snapshot(v) }
func (v *List) Snapshot() (interface{}, error) { return Snapshot(v) }
func (v *Set) Snapshot() (interface{}, error)  { return Snapshot(v) }
func (v *View) Snapshot() (interface{}, error) { return Snapshot(v) }
func (v *Dict) Snapshot() (interface{}, error) { return Snapshot(v) }

// ErrRecursive is returned when snapshotting a container that contains itself.
var ErrRecursive = errors.New("recursive data structure")

// Snapshot deep-copies v into plain Go data. It fails for values without a data form
// (functions, iterators) and for self-referencing containers.
func Snapshot(v Value) (interface{}, error) {
	return snapshotter{seen: make(map[Value]bool)}.copy(v)
}

type snapshotter struct {
	seen map[Value]bool
}

func (s snapshotter) copy(v Value) (interface{}, error) {
	switch x := v.(type) {
	case *List:
		if s.seen[x] {
			return nil, ErrRecursive
		}
		s.seen[x] = true
		defer delete(s.seen, x)
		return s.seq(x.Items)
	case Tuple:
		return s.seq(x)
	case *Set:
		return s.seq(x.Items())
	case *View:
		return s.seq(x.items())
	case *Dict:
		if s.seen[x] {
			return nil, ErrRecursive
		}
		s.seen[x] = true
		defer delete(s.seen, x)
		entries := x.Entries()
		// A str key that reads like another key keeps its quotes.
		shadowed := make(map[string]bool)
		for _, e := range entries {
			if _, ok := e.Key.(Str); !ok {
				shadowed[ToStr(e.Key)] = true
			}
		}
		out := make(map[string]interface{}, len(entries))
		for _, e := range entries {
			val, err := s.copy(e.Value)
			if err != nil {
				return nil, err
			}
			name := ToStr(e.Key)
			if _, ok := e.Key.(Str); ok && shadowed[name] {
				name = Repr(e.Key)
			}
			out[name] = val
		}
		return out, nil
	case Snapshotter:
		return x.Snapshot()
	}
	return nil, fmt.Errorf("%s has no data form", v.Type())
}

func (s snapshotter) seq(items []Value) (interface{}, error) {
	out := make([]interface{}, len(items))
	for i, it := range items {
		v, err := s.copy(it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
