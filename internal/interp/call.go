package interp

import (
	"strings"
	"unicode/utf8"

	"algoscope/internal/pyast"
)

func (in *Interp) call(fn Value, args []Value, kwargs []Kwarg) (Value, error) {
	switch f := fn.(type) {
	case *Function:
		return in.callFunction(f, args, kwargs)
	case *Builtin:
		return f.Fn(in, args, kwargs)
	case *BoundMethod:
		return f.Fn(in, append([]Value{f.Self}, args...), kwargs)
	}
	return nil, typeErrorf("'%s' object is not callable", fn.Type())
}

func (in *Interp) callFunction(f *Function, args []Value, kwargs []Kwarg) (Value, error) {
	if in.depth >= in.maxDepth {
		return nil, raise("RecursionError", "maximum recursion depth exceeded")
	}
	s := newScope(f.info, f.closure)
	if err := bindArgs(f, s, args, kwargs); err != nil {
		return nil, err
	}

	in.calls[f.Name]++
	in.depth++
	defer func() { in.depth-- }()

	frame := &Frame{Function: f.Name, Line: f.Line, Depth: in.depth, scope: s}
	in.hooks.Call(frame)

	if f.Expr != nil {
		v, err := in.eval(s, f.Expr)
		if err != nil {
			return nil, err
		}
		in.hooks.Return(frame, v)
		return v, nil
	}

	c, err := in.execBlock(frame, f.Body)
	if err != nil {
		return nil, err
	}
	result := Value(None)
	if c == ctrlReturn {
		result = frame.ret
	}
	in.hooks.Return(frame, result)
	return result, nil
}

// bindArgs matches call arguments to parameters the way CPython does for
// positional-or-keyword, *args and **kwargs parameters.
func bindArgs(f *Function, s *scope, args []Value, kwargs []Kwarg) error {
	var plain []int
	varArgs, kwArgs := -1, -1
	for i, p := range f.Params {
		switch p.Kind {
		case pyast.ParamVarArgs:
			varArgs = i
		case pyast.ParamKwArgs:
			kwArgs = i
		default:
			if varArgs < 0 {
				plain = append(plain, i)
			}
		}
	}

	bound := make(map[string]bool, len(f.Params))
	for i, a := range args {
		if i < len(plain) {
			name := f.Params[plain[i]].Name
			s.set(name, a)
			bound[name] = true
			continue
		}
		if varArgs < 0 {
			return typeErrorf("%s() takes %d positional argument%s but %d were given",
				f.Name, len(plain), plural(len(plain)), len(args))
		}
		break
	}
	if varArgs >= 0 {
		var extra Tuple
		if len(args) > len(plain) {
			extra = append(extra, args[len(plain):]...)
		}
		s.set(f.Params[varArgs].Name, extra)
		bound[f.Params[varArgs].Name] = true
	}

	var rest *Dict
	if kwArgs >= 0 {
		rest = NewDict()
	}
	for _, kw := range kwargs {
		idx := -1
		for i, p := range f.Params {
			if p.Name == kw.Name && p.Kind == pyast.ParamPlain {
				idx = i
				break
			}
		}
		if idx < 0 {
			if rest == nil {
				return typeErrorf("%s() got an unexpected keyword argument '%s'", f.Name, kw.Name)
			}
			_ = rest.Set(Str(kw.Name), kw.Value)
			continue
		}
		if bound[kw.Name] {
			return typeErrorf("%s() got multiple values for argument '%s'", f.Name, kw.Name)
		}
		s.set(kw.Name, kw.Value)
		bound[kw.Name] = true
	}
	if rest != nil {
		s.set(f.Params[kwArgs].Name, rest)
	}

	var missing []string
	for i, p := range f.Params {
		if p.Kind != pyast.ParamPlain || bound[p.Name] {
			continue
		}
		if f.Defaults[i] != nil {
			s.set(p.Name, f.Defaults[i])
			continue
		}
		missing = append(missing, "'"+p.Name+"'")
	}
	if len(missing) > 0 {
		return typeErrorf("%s() missing %d required positional argument%s: %s",
			f.Name, len(missing), plural(len(missing)), joinNames(missing))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}

func getAttr(obj Value, name string) (Value, error) {
	if m, ok := methods[obj.Type()][name]; ok {
		return &BoundMethod{Self: obj, Name: name, Fn: m}, nil
	}
	return nil, raise("AttributeError", "'%s' object has no attribute '%s'", obj.Type(), name)
}

// index normalizes a possibly negative index into [0, n).
func index(v Value, n int, what string) (int, error) {
	i, ok := asInt(v)
	if !ok {
		return 0, typeErrorf("%s indices must be integers or slices, not %s", what, v.Type())
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, raise("IndexError", "%s index out of range", what)
	}
	return int(i), nil
}

// sliceIndices returns the positions selected by sl over a sequence of length n.
func sliceIndices(sl *Slice, n int) ([]int, error) {
	step := int64(1)
	if !isNone(sl.Step) {
		s, ok := asInt(sl.Step)
		if !ok {
			return nil, typeErrorf("slice indices must be integers or None")
		}
		if s == 0 {
			return nil, valueErrorf("slice step cannot be zero")
		}
		step = s
	}
	bound := func(v Value, def int64) (int64, error) {
		if isNone(v) {
			return def, nil
		}
		i, ok := asInt(v)
		if !ok {
			return 0, typeErrorf("slice indices must be integers or None")
		}
		size := int64(n)
		if i < 0 {
			i += size
			if i < 0 {
				if step < 0 {
					return -1, nil
				}
				return 0, nil
			}
		} else if i >= size {
			if step < 0 {
				return size - 1, nil
			}
			return size, nil
		}
		return i, nil
	}

	var lo, hi int64
	var err error
	if step > 0 {
		if lo, err = bound(sl.Lower, 0); err != nil {
			return nil, err
		}
		if hi, err = bound(sl.Upper, int64(n)); err != nil {
			return nil, err
		}
	} else {
		if lo, err = bound(sl.Lower, int64(n)-1); err != nil {
			return nil, err
		}
		if hi, err = bound(sl.Upper, -1); err != nil {
			return nil, err
		}
	}

	var out []int
	for i := lo; (step > 0 && i < hi) || (step < 0 && i > hi); i += step {
		out = append(out, int(i))
	}
	return out, nil
}

func (in *Interp) getItem(obj, idx Value) (Value, error) {
	sl, isSlice := idx.(*Slice)
	switch x := obj.(type) {
	case *List:
		if isSlice {
			pos, err := sliceIndices(sl, len(x.Items))
			if err != nil {
				return nil, err
			}
			out := make([]Value, len(pos))
			for i, p := range pos {
				out[i] = x.Items[p]
			}
			return NewList(out...), nil
		}
		i, err := index(idx, len(x.Items), "list")
		if err != nil {
			return nil, err
		}
		return x.Items[i], nil

	case Tuple:
		if isSlice {
			pos, err := sliceIndices(sl, len(x))
			if err != nil {
				return nil, err
			}
			out := make(Tuple, len(pos))
			for i, p := range pos {
				out[i] = x[p]
			}
			return out, nil
		}
		i, err := index(idx, len(x), "tuple")
		if err != nil {
			return nil, err
		}
		return x[i], nil

	case Str:
		if utf8.RuneCountInString(string(x)) == len(x) {
			return indexBytes(string(x), idx, sl, isSlice)
		}
		runes := []rune(string(x))
		if isSlice {
			pos, err := sliceIndices(sl, len(runes))
			if err != nil {
				return nil, err
			}
			out := make([]rune, len(pos))
			for i, p := range pos {
				out[i] = runes[p]
			}
			return Str(out), nil
		}
		i, err := index(idx, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return Str(runes[i]), nil

	case *Range:
		n := x.Len()
		if isSlice {
			pos, err := sliceIndices(sl, int(n))
			if err != nil {
				return nil, err
			}
			out := make([]Value, len(pos))
			for i, p := range pos {
				out[i] = x.At(int64(p))
			}
			return NewList(out...), nil
		}
		i, err := index(idx, int(n), "range object")
		if err != nil {
			return nil, err
		}
		return x.At(int64(i)), nil

	case *Dict:
		v, ok, err := x.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, raise("KeyError", "%s", Repr(idx))
		}
		return v, nil
	}
	return nil, typeErrorf("'%s' object is not subscriptable", obj.Type())
}

func indexBytes(s string, idx Value, sl *Slice, isSlice bool) (Value, error) {
	if isSlice {
		pos, err := sliceIndices(sl, len(s))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(pos))
		for i, p := range pos {
			out[i] = s[p]
		}
		return Str(out), nil
	}
	i, err := index(idx, len(s), "string")
	if err != nil {
		return nil, err
	}
	return Str(s[i : i+1]), nil
}

func (in *Interp) setItem(obj, idx, v Value) error {
	switch x := obj.(type) {
	case *List:
		if sl, ok := idx.(*Slice); ok {
			return in.setSlice(x, sl, v)
		}
		i, ok := asInt(idx)
		if !ok {
			return typeErrorf("list indices must be integers or slices, not %s", idx.Type())
		}
		if i < 0 {
			i += int64(len(x.Items))
		}
		if i < 0 || i >= int64(len(x.Items)) {
			return raise("IndexError", "list assignment index out of range")
		}
		x.Items[i] = v
		return nil
	case *Dict:
		return x.Set(idx, v)
	}
	return typeErrorf("'%s' object does not support item assignment", obj.Type())
}

func (in *Interp) setSlice(x *List, sl *Slice, v Value) error {
	items, err := in.collect(v)
	if err != nil {
		return typeErrorf("can only assign an iterable")
	}
	if isNone(sl.Step) || Equal(sl.Step, Int(1)) {
		pos, err := sliceIndices(&Slice{Lower: sl.Lower, Upper: sl.Upper, Step: None}, len(x.Items))
		if err != nil {
			return err
		}
		lo, hi := 0, 0
		if len(pos) > 0 {
			lo, hi = pos[0], pos[len(pos)-1]+1
		} else {
			// empty selection: insert at the clamped lower bound
			b, err := sliceIndices(&Slice{Lower: sl.Lower, Upper: None, Step: None}, len(x.Items))
			if err != nil {
				return err
			}
			lo = len(x.Items)
			if len(b) > 0 {
				lo = b[0]
			}
			hi = lo
		}
		out := make([]Value, 0, len(x.Items)-(hi-lo)+len(items))
		out = append(out, x.Items[:lo]...)
		out = append(out, items...)
		x.Items = append(out, x.Items[hi:]...)
		return nil
	}
	pos, err := sliceIndices(sl, len(x.Items))
	if err != nil {
		return err
	}
	if len(pos) != len(items) {
		return valueErrorf("attempt to assign sequence of size %d to extended slice of size %d", len(items), len(pos))
	}
	for i, p := range pos {
		x.Items[p] = items[i]
	}
	return nil
}

func (in *Interp) delItem(obj, idx Value) error {
	switch x := obj.(type) {
	case *List:
		if sl, ok := idx.(*Slice); ok {
			pos, err := sliceIndices(sl, len(x.Items))
			if err != nil {
				return err
			}
			drop := make(map[int]bool, len(pos))
			for _, p := range pos {
				drop[p] = true
			}
			out := x.Items[:0:0]
			for i, it := range x.Items {
				if !drop[i] {
					out = append(out, it)
				}
			}
			x.Items = out
			return nil
		}
		i, err := index(idx, len(x.Items), "list")
		if err != nil {
			if IsException(err, "IndexError") {
				return raise("IndexError", "list assignment index out of range")
			}
			return err
		}
		x.Items = append(x.Items[:i], x.Items[i+1:]...)
		return nil
	case *Dict:
		_, ok, err := x.Delete(idx)
		if err != nil {
			return err
		}
		if !ok {
			return raise("KeyError", "%s", Repr(idx))
		}
		return nil
	}
	return typeErrorf("'%s' object doesn't support item deletion", obj.Type())
}

func sliceIterator(name string, items []Value) *Iterator {
	i := 0
	return &Iterator{Name: name, next: func() (Value, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		i++
		return items[i-1], true, nil
	}}
}

// iterate returns a next function over an iterable value. Lists are iterated live,
// so appends during iteration are visited; dicts and sets fail if resized.
func (in *Interp) iterate(v Value) (func() (Value, bool, error), error) {
	switch x := v.(type) {
	case *List:
		i := 0
		return func() (Value, bool, error) {
			if i >= len(x.Items) {
				return nil, false, nil
			}
			i++
			return x.Items[i-1], true, nil
		}, nil
	case Tuple:
		return sliceIterator("tuple_iterator", x).next, nil
	case Str:
		rest := string(x)
		return func() (Value, bool, error) {
			if rest == "" {
				return nil, false, nil
			}
			_, size := utf8.DecodeRuneInString(rest)
			ch := rest[:size]
			rest = rest[size:]
			return Str(ch), true, nil
		}, nil
	case *Range:
		n, i := x.Len(), int64(0)
		return func() (Value, bool, error) {
			if i >= n {
				return nil, false, nil
			}
			i++
			return x.At(i - 1), true, nil
		}, nil
	case *Dict:
		return guarded(x, "dictionary", x.Keys()), nil
	case *View:
		return guarded(x.Dict, "dictionary", x.items()), nil
	case *Set:
		return guarded(x.d, "Set", x.Items()), nil
	case *Iterator:
		return x.next, nil
	}
	return nil, typeErrorf("'%s' object is not iterable", v.Type())
}

func guarded(d *Dict, what string, items []Value) func() (Value, bool, error) {
	version := d.version
	i := 0
	return func() (Value, bool, error) {
		if d.version != version {
			return nil, false, raise("RuntimeError", "%s changed size during iteration", what)
		}
		if i >= len(items) {
			return nil, false, nil
		}
		i++
		return items[i-1], true, nil
	}
}

// collect materializes an iterable into a slice.
func (in *Interp) collect(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		return append([]Value(nil), x.Items...), nil
	case Tuple:
		return append([]Value(nil), x...), nil
	}
	if r, ok := v.(*Range); ok && r.Len() > maxItems {
		return nil, raise("MemoryError", "")
	}
	next, err := in.iterate(v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		if len(out)%1024 == 0 {
			if err := in.tick(); err != nil {
				return nil, err
			}
		}
		it, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		if len(out) >= maxItems {
			return nil, raise("MemoryError", "")
		}
		out = append(out, it)
	}
}

// each feeds the items of an iterable to fn one at a time until fn reports done.
// It checks the run budget as it goes.
func (in *Interp) each(v Value, fn func(Value) (done bool, err error)) error {
	next, err := in.iterate(v)
	if err != nil {
		return err
	}
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := in.tick(); err != nil {
				return err
			}
		}
		it, ok, err := next()
		if err != nil || !ok {
			return err
		}
		if done, err := fn(it); done || err != nil {
			return err
		}
	}
}

// mustStr returns a string argument or a TypeError naming the function.
func mustStr(fn string, v Value) (string, error) {
	s, ok := v.(Str)
	if !ok {
		return "", typeErrorf("%s() argument must be str, not %s", fn, v.Type())
	}
	return string(s), nil
}

func arity(fn string, args []Value, min, max int) error {
	if len(args) < min {
		return typeErrorf("%s() takes at least %d argument%s (%d given)", fn, min, plural(min), len(args))
	}
	if max >= 0 && len(args) > max {
		return typeErrorf("%s() takes at most %d argument%s (%d given)", fn, max, plural(max), len(args))
	}
	return nil
}

func noKwargs(fn string, kwargs []Kwarg) error {
	if len(kwargs) > 0 {
		return typeErrorf("%s() takes no keyword arguments", fn)
	}
	return nil
}

func kwarg(kwargs []Kwarg, name string) (Value, bool) {
	for _, kw := range kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

func onlyKwargs(fn string, kwargs []Kwarg, allowed ...string) error {
	for _, kw := range kwargs {
		ok := false
		for _, a := range allowed {
			if kw.Name == a {
				ok = true
				break
			}
		}
		if !ok {
			return typeErrorf("%s() got an unexpected keyword argument '%s'", fn, kw.Name)
		}
	}
	return nil
}
