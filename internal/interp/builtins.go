package interp

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var builtinFuncs = map[string]NativeFunc{
	"len":       builtinLen,
	"range":     builtinRange,
	"enumerate": builtinEnumerate,
	"max":       func(in *Interp, args []Value, kw []Kwarg) (Value, error) { return in.extreme("max", args, kw) },
	"min":       func(in *Interp, args []Value, kw []Kwarg) (Value, error) { return in.extreme("min", args, kw) },
	"sum":       builtinSum,
	"int":       builtinInt,
	"float":     builtinFloat,
	"str":       builtinStr,
	"bool":      builtinBool,
	"list":      builtinList,
	"dict":      builtinDict,
	"set":       builtinSet,
	"tuple":     builtinTuple,
	"abs":       builtinAbs,
	"round":     builtinRound,
	"sorted":    builtinSorted,
	"reversed":  builtinReversed,
	"zip":       builtinZip,
	"all":       func(in *Interp, args []Value, kw []Kwarg) (Value, error) { return in.allAny("all", args, kw) },
	"any":       func(in *Interp, args []Value, kw []Kwarg) (Value, error) { return in.allAny("any", args, kw) },
	"print":     builtinPrint,
}

// BuiltinNames lists every builtin the interpreter implements.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFuncs))
	for name := range builtinFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a fresh builtin namespace holding every implemented builtin.
func Builtins() map[string]Value {
	return BuiltinsNamed(BuiltinNames()...)
}

// BuiltinsNamed returns a namespace holding only the named builtins. Unknown names
// are ignored.
func BuiltinsNamed(names ...string) map[string]Value {
	out := make(map[string]Value, len(names))
	for _, name := range names {
		if fn, ok := builtinFuncs[name]; ok {
			out[name] = &Builtin{Name: name, Fn: fn}
		}
	}
	return out
}

// Len returns len(v).
func Len(v Value) (int, error) {
	switch x := v.(type) {
	case Str:
		return utf8.RuneCountInString(string(x)), nil
	case *List:
		return len(x.Items), nil
	case Tuple:
		return len(x), nil
	case *Dict:
		return x.Len(), nil
	case *Set:
		return x.Len(), nil
	case *Range:
		return int(x.Len()), nil
	case *View:
		return x.Dict.Len(), nil
	}
	return 0, typeErrorf("object of type '%s' has no len()", v.Type())
}

func builtinLen(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("len", kw); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("len() takes exactly one argument (%d given)", len(args))
	}
	n, err := Len(args[0])
	return Int(n), err
}

func builtinRange(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("range", kw); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, typeErrorf("range expected at least 1 argument, got 0")
	}
	if len(args) > 3 {
		return nil, typeErrorf("range expected at most 3 arguments, got %d", len(args))
	}
	nums := make([]int64, len(args))
	for i, a := range args {
		n, ok := asInt(a)
		if !ok {
			return nil, typeErrorf("'%s' object cannot be interpreted as an integer", a.Type())
		}
		nums[i] = n
	}
	r := &Range{Step: 1}
	switch len(nums) {
	case 1:
		r.Stop = nums[0]
	case 2:
		r.Start, r.Stop = nums[0], nums[1]
	case 3:
		r.Start, r.Stop, r.Step = nums[0], nums[1], nums[2]
		if r.Step == 0 {
			return nil, valueErrorf("range() arg 3 must not be zero")
		}
	}
	return r, nil
}

func builtinEnumerate(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("enumerate", kw, "start"); err != nil {
		return nil, err
	}
	if err := arity("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	start := int64(0)
	startArg, ok := kwarg(kw, "start")
	if len(args) == 2 {
		startArg, ok = args[1], true
	}
	if ok {
		n, isInt := asInt(startArg)
		if !isInt {
			return nil, typeErrorf("'%s' object cannot be interpreted as an integer", startArg.Type())
		}
		start = n
	}
	next, err := in.iterate(args[0])
	if err != nil {
		return nil, err
	}
	i := start
	return &Iterator{Name: "enumerate", next: func() (Value, bool, error) {
		v, ok, err := next()
		if err != nil || !ok {
			return nil, ok, err
		}
		i++
		return Tuple{Int(i - 1), v}, true, nil
	}}, nil
}

// extreme implements max and min: the first extreme item wins ties.
func (in *Interp) extreme(name string, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs(name, kw, "key", "default"); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, typeErrorf("%s expected at least 1 argument, got 0", name)
	}
	if len(args) > 1 {
		if _, ok := kwarg(kw, "default"); ok {
			return nil, typeErrorf("Cannot specify a default for %s() with multiple positional arguments", name)
		}
	}

	key, _ := kwarg(kw, "key")
	if key != nil && isNone(key) {
		key = nil
	}
	keyOf := func(v Value) (Value, error) {
		if key == nil {
			return v, nil
		}
		return in.call(key, []Value{v}, nil)
	}

	var best, bestKey Value
	visit := func(it Value) (bool, error) {
		k, err := keyOf(it)
		if err != nil {
			return true, err
		}
		if best == nil {
			best, bestKey = it, k
			return false, nil
		}
		var better bool
		if name == "max" {
			better, err = lessThan(bestKey, k)
		} else {
			better, err = lessThan(k, bestKey)
		}
		if better {
			best, bestKey = it, k
		}
		return err != nil, err
	}

	if len(args) == 1 {
		if err := in.each(args[0], visit); err != nil {
			return nil, err
		}
	} else {
		for _, it := range args {
			if _, err := visit(it); err != nil {
				return nil, err
			}
		}
	}
	if best == nil {
		if def, ok := kwarg(kw, "default"); ok {
			return def, nil
		}
		return nil, valueErrorf("%s() arg is an empty sequence", name)
	}
	return best, nil
}

func builtinSum(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("sum", kw, "start"); err != nil {
		return nil, err
	}
	if err := arity("sum", args, 1, 2); err != nil {
		return nil, err
	}
	var total Value = Int(0)
	if v, ok := kwarg(kw, "start"); ok {
		total = v
	}
	if len(args) == 2 {
		total = args[1]
	}
	if _, ok := total.(Str); ok {
		return nil, typeErrorf("sum() can't sum strings [use ''.join(seq) instead]")
	}
	err := in.each(args[0], func(it Value) (bool, error) {
		var err error
		total, err = binaryOp("+", total, it)
		return false, err
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

func builtinInt(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("int", kw, "base"); err != nil {
		return nil, err
	}
	if err := arity("int", args, 0, 2); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Int(0), nil
	}
	baseArg, hasBase := kwarg(kw, "base")
	if len(args) == 2 {
		baseArg, hasBase = args[1], true
	}
	if hasBase {
		s, ok := args[0].(Str)
		if !ok {
			return nil, typeErrorf("int() can't convert non-string with explicit base")
		}
		base, ok := asInt(baseArg)
		if !ok || base == 1 || base < 0 || base > 36 {
			return nil, valueErrorf("int() base must be >= 2 and <= 36, or 0")
		}
		return parseInt(string(s), int(base))
	}

	switch x := args[0].(type) {
	case Int:
		return x, nil
	case Bool:
		n, _ := asInt(x)
		return Int(n), nil
	case Float:
		f := float64(x)
		switch {
		case math.IsInf(f, 0):
			return nil, raise("OverflowError", "cannot convert float infinity to integer")
		case math.IsNaN(f):
			return nil, valueErrorf("cannot convert float NaN to integer")
		case math.Abs(f) >= 1<<63:
			return nil, overflow()
		}
		return Int(int64(f)), nil
	case Str:
		return parseInt(string(x), 10)
	}
	return nil, typeErrorf("int() argument must be a string, a bytes-like object or a real number, not '%s'", args[0].Type())
}

func parseInt(s string, base int) (Value, error) {
	text := strings.TrimSpace(s)
	clean := strings.ReplaceAll(text, "_", "")
	if base == 0 || base == 16 || base == 8 || base == 2 {
		lower := strings.ToLower(strings.TrimLeft(clean, "+-"))
		if base == 0 && !strings.HasPrefix(lower, "0x") && !strings.HasPrefix(lower, "0o") && !strings.HasPrefix(lower, "0b") {
			base = 10
		}
	}
	n, err := strconv.ParseInt(strings.Replace(strings.Replace(clean, "0o", "0", 1), "0O", "0", 1), base, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, overflow()
		}
		return nil, valueErrorf("invalid literal for int() with base %d: %s", base, quoteStr(s))
	}
	return Int(n), nil
}

// ParseFloat parses a float the way float() does, accepting inf, infinity and nan.
func ParseFloat(s string) (float64, bool) {
	text := strings.ToLower(strings.TrimSpace(s))
	sign := 1.0
	body := text
	if strings.HasPrefix(body, "-") {
		sign, body = -1, body[1:]
	} else if strings.HasPrefix(body, "+") {
		body = body[1:]
	}
	switch body {
	case "inf", "infinity":
		return math.Inf(int(sign)), true
	case "nan":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func builtinFloat(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("float", kw); err != nil {
		return nil, err
	}
	if err := arity("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Float(0), nil
	}
	if s, ok := args[0].(Str); ok {
		f, ok := ParseFloat(string(s))
		if !ok {
			return nil, valueErrorf("could not convert string to float: %s", quoteStr(string(s)))
		}
		return Float(f), nil
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, typeErrorf("float() argument must be a string or a real number, not '%s'", args[0].Type())
	}
	return Float(f), nil
}

func builtinStr(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("str", kw); err != nil {
		return nil, err
	}
	if err := arity("str", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Str(""), nil
	}
	return Str(ToStr(args[0])), nil
}

func builtinBool(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("bool", kw); err != nil {
		return nil, err
	}
	if err := arity("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Bool(false), nil
	}
	return Bool(Truthy(args[0])), nil
}

func builtinList(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("list", kw); err != nil {
		return nil, err
	}
	if err := arity("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewList(), nil
	}
	items, err := in.collect(args[0])
	if err != nil {
		return nil, err
	}
	return NewList(items...), nil
}

func builtinTuple(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("tuple", kw); err != nil {
		return nil, err
	}
	if err := arity("tuple", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Tuple{}, nil
	}
	items, err := in.collect(args[0])
	if err != nil {
		return nil, err
	}
	return Tuple(items), nil
}

func builtinSet(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("set", kw); err != nil {
		return nil, err
	}
	if err := arity("set", args, 0, 1); err != nil {
		return nil, err
	}
	out := NewSet()
	if len(args) == 0 {
		return out, nil
	}
	items, err := in.collect(args[0])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := out.Add(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func builtinDict(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := arity("dict", args, 0, 1); err != nil {
		return nil, err
	}
	out := NewDict()
	if len(args) == 1 {
		if err := in.updateDict(out, args[0]); err != nil {
			return nil, err
		}
	}
	for _, k := range kw {
		_ = out.Set(Str(k.Name), k.Value)
	}
	return out, nil
}

// updateDict merges a mapping or an iterable of pairs into d.
func (in *Interp) updateDict(d *Dict, src Value) error {
	if m, ok := src.(*Dict); ok {
		for _, e := range m.Entries() {
			if err := d.Set(e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	}
	items, err := in.collect(src)
	if err != nil {
		return err
	}
	for i, it := range items {
		pair, err := in.collect(it)
		if err != nil {
			return typeErrorf("cannot convert dictionary update sequence element #%d to a sequence", i)
		}
		if len(pair) != 2 {
			return valueErrorf("dictionary update sequence element #%d has length %d; 2 is required", i, len(pair))
		}
		if err := d.Set(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

func builtinAbs(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("abs", kw); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("abs() takes exactly one argument (%d given)", len(args))
	}
	if n, ok := asInt(args[0]); ok {
		if n == math.MinInt64 {
			return nil, overflow()
		}
		if n < 0 {
			n = -n
		}
		return Int(n), nil
	}
	if f, ok := args[0].(Float); ok {
		return Float(math.Abs(float64(f))), nil
	}
	return nil, typeErrorf("bad operand type for abs(): '%s'", args[0].Type())
}

func builtinRound(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("round", kw, "ndigits"); err != nil {
		return nil, err
	}
	if err := arity("round", args, 1, 2); err != nil {
		return nil, err
	}
	nd, hasDigits := kwarg(kw, "ndigits")
	if len(args) == 2 {
		nd, hasDigits = args[1], true
	}
	if hasDigits && isNone(nd) {
		hasDigits = false
	}

	if n, ok := asInt(args[0]); ok {
		if !hasDigits {
			return Int(n), nil
		}
		digits, ok := asInt(nd)
		if !ok {
			return nil, typeErrorf("'%s' object cannot be interpreted as an integer", nd.Type())
		}
		if digits >= 0 {
			return Int(n), nil
		}
		p := math.Pow10(int(-digits))
		return Int(int64(math.RoundToEven(float64(n)/p) * p)), nil
	}

	f, ok := args[0].(Float)
	if !ok {
		return nil, typeErrorf("type %s doesn't define __round__ method", args[0].Type())
	}
	x := float64(f)
	if !hasDigits {
		if math.IsInf(x, 0) {
			return nil, raise("OverflowError", "cannot convert float infinity to integer")
		}
		if math.IsNaN(x) {
			return nil, valueErrorf("cannot convert float NaN to integer")
		}
		return Int(int64(math.RoundToEven(x))), nil
	}
	digits, ok := asInt(nd)
	if !ok {
		return nil, typeErrorf("'%s' object cannot be interpreted as an integer", nd.Type())
	}
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return f, nil
	}
	// round through the shortest decimal form, as CPython does
	s := strconv.FormatFloat(x, 'f', int(clampDigits(digits)), 64)
	r, _ := strconv.ParseFloat(s, 64)
	return Float(r), nil
}

func clampDigits(d int64) int64 {
	if d < 0 {
		return 0
	}
	if d > 17 {
		return 17
	}
	return d
}

func builtinSorted(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("sorted", kw, "key", "reverse"); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("sorted expected 1 argument, got %d", len(args))
	}
	items, err := in.collect(args[0])
	if err != nil {
		return nil, err
	}
	key, _ := kwarg(kw, "key")
	rev, _ := kwarg(kw, "reverse")
	if err := in.sortValues(items, key, rev != nil && Truthy(rev)); err != nil {
		return nil, err
	}
	return NewList(items...), nil
}

// sortValues is a stable sort by key; reverse keeps equal items in original order.
func (in *Interp) sortValues(items []Value, key Value, reverse bool) error {
	keys := items
	if key != nil && !isNone(key) {
		keys = make([]Value, len(items))
		for i, it := range items {
			k, err := in.call(key, []Value{it}, nil)
			if err != nil {
				return err
			}
			keys[i] = k
		}
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		x, y := keys[idx[a]], keys[idx[b]]
		if reverse {
			x, y = y, x
		}
		less, err := lessThan(x, y)
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}
	sorted := make([]Value, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
	return nil
}

func builtinReversed(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("reversed", kw); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("reversed expected 1 argument, got %d", len(args))
	}
	var items []Value
	switch x := args[0].(type) {
	case *List, Tuple, Str, *Range, *Dict, *View:
		var err error
		if items, err = in.collect(x); err != nil {
			return nil, err
		}
	default:
		return nil, typeErrorf("'%s' object is not reversible", args[0].Type())
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return sliceIterator("reversed", items), nil
}

func builtinZip(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("zip", kw, "strict"); err != nil {
		return nil, err
	}
	nexts := make([]func() (Value, bool, error), len(args))
	for i, a := range args {
		next, err := in.iterate(a)
		if err != nil {
			return nil, typeErrorf("zip argument #%d must support iteration", i+1)
		}
		nexts[i] = next
	}
	done := len(nexts) == 0
	return &Iterator{Name: "zip", next: func() (Value, bool, error) {
		if done {
			return nil, false, nil
		}
		row := make(Tuple, len(nexts))
		for i, next := range nexts {
			v, ok, err := next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				done = true
				return nil, false, nil
			}
			row[i] = v
		}
		return row, true, nil
	}}, nil
}

func (in *Interp) allAny(name string, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs(name, kw); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("%s() takes exactly one argument (%d given)", name, len(args))
	}
	want := name == "any"
	result := !want
	err := in.each(args[0], func(v Value) (bool, error) {
		if Truthy(v) == want {
			result = want
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return Bool(result), nil
}

func builtinPrint(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("print", kw, "sep", "end", "flush"); err != nil {
		return nil, err
	}
	sep, end := " ", "\n"
	for _, opt := range []struct {
		name string
		dst  *string
	}{{"sep", &sep}, {"end", &end}} {
		v, ok := kwarg(kw, opt.name)
		if !ok || isNone(v) {
			continue
		}
		s, isStr := v.(Str)
		if !isStr {
			return nil, typeErrorf("%s must be None or a string, not %s", opt.name, v.Type())
		}
		*opt.dst = string(s)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ToStr(a)
	}
	if _, err := io.WriteString(in.stdout, strings.Join(parts, sep)+end); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return None, nil
}
