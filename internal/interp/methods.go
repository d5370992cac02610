package interp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// methods maps a type name to its builtin methods. Each method receives its
// receiver as args[0].
var methods map[string]map[string]NativeFunc

func init() {
	methods = map[string]map[string]NativeFunc{
		"list": {
			"append":  listAppend,
			"pop":     listPop,
			"insert":  listInsert,
			"extend":  listExtend,
			"remove":  listRemove,
			"index":   seqIndex,
			"count":   seqCount,
			"sort":    listSort,
			"reverse": listReverse,
			"copy":    listCopy,
			"clear":   listClear,
		},
		"tuple": {
			"index": seqIndex,
			"count": seqCount,
		},
		"dict": {
			"get":        dictGet,
			"keys":       dictView("keys"),
			"values":     dictView("values"),
			"items":      dictView("items"),
			"pop":        dictPop,
			"setdefault": dictSetDefault,
			"update":     dictUpdate,
			"copy":       dictCopy,
			"clear":      dictClear,
		},
		"set": {
			"add":                  setAdd,
			"remove":               setRemove(true),
			"discard":              setRemove(false),
			"pop":                  setPop,
			"update":               setUpdate,
			"union":                setAlgebra("|"),
			"intersection":         setAlgebra("&"),
			"difference":           setAlgebra("-"),
			"symmetric_difference": setAlgebra("^"),
			"copy":                 setCopy,
			"clear":                setClear,
			"issubset":             setRelation(true),
			"issuperset":           setRelation(false),
		},
		"str": {
			"join":       strJoin,
			"split":      strSplit,
			"strip":      strStrip(strings.Trim, strings.TrimSpace),
			"lstrip":     strStrip(strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
			"rstrip":     strStrip(strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
			"lower":      strMap(strings.ToLower),
			"upper":      strMap(strings.ToUpper),
			"capitalize": strMap(capitalize),
			"title":      strMap(title),
			"startswith": strAffix(strings.HasPrefix),
			"endswith":   strAffix(strings.HasSuffix),
			"find":       strFind(false, false),
			"rfind":      strFind(true, false),
			"index":      strFind(false, true),
			"count":      strCount,
			"replace":    strReplace,
			"isdigit":    strIs(unicode.IsDigit),
			"isalpha":    strIs(unicode.IsLetter),
			"isalnum":    strIs(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }),
			"isspace":    strIs(unicode.IsSpace),
			"format":     strFormat,
		},
	}
}

// ---- list ----

func listAppend(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("append", args, 1, kw); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	if err := checkLen(len(l.Items) + 1); err != nil {
		return nil, err
	}
	l.Items = append(l.Items, args[1])
	return None, nil
}

func listPop(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("pop", kw); err != nil {
		return nil, err
	}
	if err := arity("pop", args[1:], 0, 1); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	if len(l.Items) == 0 {
		return nil, raise("IndexError", "pop from empty list")
	}
	i := len(l.Items) - 1
	if len(args) == 2 {
		var err error
		if i, err = index(args[1], len(l.Items), "list"); err != nil {
			if IsException(err, "IndexError") {
				return nil, raise("IndexError", "pop index out of range")
			}
			return nil, err
		}
	}
	v := l.Items[i]
	l.Items = append(l.Items[:i], l.Items[i+1:]...)
	return v, nil
}

func listInsert(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("insert", args, 2, kw); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	if err := checkLen(len(l.Items) + 1); err != nil {
		return nil, err
	}
	pos, ok := asInt(args[1])
	if !ok {
		return nil, typeErrorf("'%s' object cannot be interpreted as an integer", args[1].Type())
	}
	n := int64(len(l.Items))
	if pos < 0 {
		pos += n
		if pos < 0 {
			pos = 0
		}
	}
	if pos > n {
		pos = n
	}
	l.Items = append(l.Items, nil)
	copy(l.Items[pos+1:], l.Items[pos:])
	l.Items[pos] = args[2]
	return None, nil
}

func listExtend(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("extend", args, 1, kw); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	items, err := in.collect(args[1])
	if err != nil {
		return nil, err
	}
	if err := checkLen(len(l.Items) + len(items)); err != nil {
		return nil, err
	}
	l.Items = append(l.Items, items...)
	return None, nil
}

func listRemove(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("remove", args, 1, kw); err != nil {
		return nil, err
	}
	l := args[0].(*List)
	for i, it := range l.Items {
		if Equal(it, args[1]) {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return None, nil
		}
	}
	return nil, valueErrorf("list.remove(x): x not in list")
}

func seqItems(v Value) []Value {
	if l, ok := v.(*List); ok {
		return l.Items
	}
	return v.(Tuple)
}

func seqIndex(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("index", kw); err != nil {
		return nil, err
	}
	if err := arity("index", args[1:], 1, 3); err != nil {
		return nil, err
	}
	items := seqItems(args[0])
	start, stop := 0, len(items)
	if len(args) > 2 {
		pos, err := sliceIndices(&Slice{Lower: args[2], Upper: None, Step: None}, len(items))
		if err != nil {
			return nil, err
		}
		start = len(items)
		if len(pos) > 0 {
			start = pos[0]
		}
	}
	if len(args) > 3 {
		if n, ok := asInt(args[3]); ok {
			if n < 0 {
				n += int64(len(items))
			}
			if n < int64(stop) {
				stop = int(max(n, 0))
			}
		}
	}
	for i := start; i < stop; i++ {
		if Equal(items[i], args[1]) {
			return Int(i), nil
		}
	}
	return nil, valueErrorf("%s is not in %s", Repr(args[1]), args[0].Type())
}

func seqCount(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("count", args, 1, kw); err != nil {
		return nil, err
	}
	n := 0
	for _, it := range seqItems(args[0]) {
		if Equal(it, args[1]) {
			n++
		}
	}
	return Int(n), nil
}

func listSort(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("sort", kw, "key", "reverse"); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("sort() takes no positional arguments")
	}
	l := args[0].(*List)
	key, _ := kwarg(kw, "key")
	rev, _ := kwarg(kw, "reverse")
	items := append([]Value(nil), l.Items...)
	if err := in.sortValues(items, key, rev != nil && Truthy(rev)); err != nil {
		return nil, err
	}
	l.Items = items
	return None, nil
}

func listReverse(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("reverse", args, 0, kw); err != nil {
		return nil, err
	}
	items := args[0].(*List).Items
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return None, nil
}

func listCopy(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("copy", args, 0, kw); err != nil {
		return nil, err
	}
	return NewList(append([]Value(nil), args[0].(*List).Items...)...), nil
}

func listClear(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("clear", args, 0, kw); err != nil {
		return nil, err
	}
	args[0].(*List).Items = nil
	return None, nil
}

// exactArgs checks a method call with n arguments after the receiver.
func exactArgs(name string, args []Value, n int, kw []Kwarg) error {
	if err := noKwargs(name, kw); err != nil {
		return err
	}
	if got := len(args) - 1; got != n {
		if n == 0 {
			return typeErrorf("%s() takes no arguments (%d given)", name, got)
		}
		return typeErrorf("%s() takes exactly %d argument%s (%d given)", name, n, plural(n), got)
	}
	return nil
}

// ---- dict ----

func dictGet(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("get", kw); err != nil {
		return nil, err
	}
	if err := arity("get", args[1:], 1, 2); err != nil {
		return nil, err
	}
	v, ok, err := args[0].(*Dict).Get(args[1])
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return None, nil
}

func dictView(kind string) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs(kind, args, 0, kw); err != nil {
			return nil, err
		}
		return &View{Kind: kind, Dict: args[0].(*Dict)}, nil
	}
}

func dictPop(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("pop", kw); err != nil {
		return nil, err
	}
	if err := arity("pop", args[1:], 1, 2); err != nil {
		return nil, err
	}
	v, ok, err := args[0].(*Dict).Delete(args[1])
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return nil, raise("KeyError", "%s", Repr(args[1]))
}

func dictSetDefault(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("setdefault", kw); err != nil {
		return nil, err
	}
	if err := arity("setdefault", args[1:], 1, 2); err != nil {
		return nil, err
	}
	d := args[0].(*Dict)
	v, ok, err := d.Get(args[1])
	if err != nil || ok {
		return v, err
	}
	def := Value(None)
	if len(args) == 3 {
		def = args[2]
	}
	return def, d.Set(args[1], def)
}

func dictUpdate(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := arity("update", args[1:], 0, 1); err != nil {
		return nil, err
	}
	d := args[0].(*Dict)
	if len(args) == 2 {
		if err := in.updateDict(d, args[1]); err != nil {
			return nil, err
		}
	}
	for _, k := range kw {
		_ = d.Set(Str(k.Name), k.Value)
	}
	return None, nil
}

func dictCopy(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("copy", args, 0, kw); err != nil {
		return nil, err
	}
	return args[0].(*Dict).Copy(), nil
}

func dictClear(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("clear", args, 0, kw); err != nil {
		return nil, err
	}
	args[0].(*Dict).Clear()
	return None, nil
}

// ---- set ----

func setAdd(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("add", args, 1, kw); err != nil {
		return nil, err
	}
	return None, args[0].(*Set).Add(args[1])
}

func setRemove(strict bool) NativeFunc {
	name := "discard"
	if strict {
		name = "remove"
	}
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs(name, args, 1, kw); err != nil {
			return nil, err
		}
		ok, err := args[0].(*Set).Remove(args[1])
		if err != nil {
			return nil, err
		}
		if !ok && strict {
			return nil, raise("KeyError", "%s", Repr(args[1]))
		}
		return None, nil
	}
}

func setPop(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("pop", args, 0, kw); err != nil {
		return nil, err
	}
	s := args[0].(*Set)
	items := s.Items()
	if len(items) == 0 {
		return nil, raise("KeyError", "'pop from an empty set'")
	}
	_, _ = s.Remove(items[0])
	return items[0], nil
}

func setUpdate(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("update", kw); err != nil {
		return nil, err
	}
	s := args[0].(*Set)
	for _, other := range args[1:] {
		items, err := in.collect(other)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if err := s.Add(it); err != nil {
				return nil, err
			}
		}
	}
	return None, nil
}

func (in *Interp) toSet(v Value) (*Set, error) {
	if s, ok := v.(*Set); ok {
		return s, nil
	}
	items, err := in.collect(v)
	if err != nil {
		return nil, err
	}
	out := NewSet()
	for _, it := range items {
		if err := out.Add(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func setAlgebra(op string) NativeFunc {
	return func(in *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := noKwargs("set", kw); err != nil {
			return nil, err
		}
		result := args[0].(*Set).Copy()
		for _, other := range args[1:] {
			o, err := in.toSet(other)
			if err != nil {
				return nil, err
			}
			r, err := setOp(op, result, o)
			if err != nil {
				return nil, err
			}
			result = r.(*Set)
		}
		return result, nil
	}
}

func setRelation(subset bool) NativeFunc {
	return func(in *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs("issubset", args, 1, kw); err != nil {
			return nil, err
		}
		other, err := in.toSet(args[1])
		if err != nil {
			return nil, err
		}
		if subset {
			return Bool(isSubset(args[0].(*Set), other)), nil
		}
		return Bool(isSubset(other, args[0].(*Set))), nil
	}
}

func setCopy(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("copy", args, 0, kw); err != nil {
		return nil, err
	}
	return args[0].(*Set).Copy(), nil
}

func setClear(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("clear", args, 0, kw); err != nil {
		return nil, err
	}
	args[0].(*Set).d.Clear()
	return None, nil
}

// ---- str ----

func strJoin(in *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("join", args, 1, kw); err != nil {
		return nil, err
	}
	items, err := in.collect(args[1])
	if err != nil {
		return nil, err
	}
	sep := string(args[0].(Str))
	parts := make([]string, len(items))
	size := 0
	for i, it := range items {
		s, ok := it.(Str)
		if !ok {
			return nil, typeErrorf("sequence item %d: expected str instance, %s found", i, it.Type())
		}
		parts[i] = string(s)
		size += len(s) + len(sep)
		if err := checkLen(size - len(sep)); err != nil {
			return nil, err
		}
	}
	return Str(strings.Join(parts, sep)), nil
}

func strSplit(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := onlyKwargs("split", kw, "sep", "maxsplit"); err != nil {
		return nil, err
	}
	if err := arity("split", args[1:], 0, 2); err != nil {
		return nil, err
	}
	s := string(args[0].(Str))
	sepArg, hasSep := kwarg(kw, "sep")
	if len(args) > 1 {
		sepArg, hasSep = args[1], true
	}
	limit := int64(-1)
	if v, ok := kwarg(kw, "maxsplit"); ok {
		limit, _ = asInt(v)
	}
	if len(args) > 2 {
		limit, _ = asInt(args[2])
	}

	var parts []string
	if !hasSep || isNone(sepArg) {
		fields := strings.Fields(s)
		if limit >= 0 && int64(len(fields)) > limit+1 {
			// keep the remainder of the string after the limit intact
			rest := strings.TrimLeftFunc(s, unicode.IsSpace)
			parts = nil
			for i := int64(0); i < limit; i++ {
				end := strings.IndexFunc(rest, unicode.IsSpace)
				parts = append(parts, rest[:end])
				rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
			}
			parts = append(parts, rest)
		} else {
			parts = fields
		}
	} else {
		sep, err := mustStr("split", sepArg)
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, valueErrorf("empty separator")
		}
		n := -1
		if limit >= 0 {
			n = int(limit) + 1
		}
		parts = strings.SplitN(s, sep, n)
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return NewList(out...), nil
}

func strStrip(trim func(string, string) string, space func(string) string) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := noKwargs("strip", kw); err != nil {
			return nil, err
		}
		if err := arity("strip", args[1:], 0, 1); err != nil {
			return nil, err
		}
		s := string(args[0].(Str))
		if len(args) == 1 || isNone(args[1]) {
			return Str(space(s)), nil
		}
		chars, err := mustStr("strip", args[1])
		if err != nil {
			return nil, err
		}
		return Str(trim(s, chars)), nil
	}
}

func strMap(fn func(string) string) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs("str", args, 0, kw); err != nil {
			return nil, err
		}
		return Str(fn(string(args[0].(Str)))), nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func title(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

func strAffix(match func(string, string) bool) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs("startswith", args, 1, kw); err != nil {
			return nil, err
		}
		s := string(args[0].(Str))
		candidates := []Value{args[1]}
		if t, ok := args[1].(Tuple); ok {
			candidates = t
		}
		for _, c := range candidates {
			affix, ok := c.(Str)
			if !ok {
				return nil, typeErrorf("startswith first arg must be str or a tuple of str, not %s", c.Type())
			}
			if match(s, string(affix)) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}
}

func strFind(last, strict bool) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs("find", args, 1, kw); err != nil {
			return nil, err
		}
		s := string(args[0].(Str))
		sub, err := mustStr("find", args[1])
		if err != nil {
			return nil, err
		}
		i := strings.Index(s, sub)
		if last {
			i = strings.LastIndex(s, sub)
		}
		if i < 0 {
			if strict {
				return nil, valueErrorf("substring not found")
			}
			return Int(-1), nil
		}
		return Int(utf8.RuneCountInString(s[:i])), nil
	}
}

func strCount(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := exactArgs("count", args, 1, kw); err != nil {
		return nil, err
	}
	sub, err := mustStr("count", args[1])
	if err != nil {
		return nil, err
	}
	s := string(args[0].(Str))
	if sub == "" {
		return Int(utf8.RuneCountInString(s) + 1), nil
	}
	return Int(strings.Count(s, sub)), nil
}

func strReplace(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	if err := noKwargs("replace", kw); err != nil {
		return nil, err
	}
	if err := arity("replace", args[1:], 2, 3); err != nil {
		return nil, err
	}
	old, err := mustStr("replace", args[1])
	if err != nil {
		return nil, err
	}
	repl, err := mustStr("replace", args[2])
	if err != nil {
		return nil, err
	}
	n := -1
	if len(args) == 4 {
		c, ok := asInt(args[3])
		if !ok {
			return nil, typeErrorf("'%s' object cannot be interpreted as an integer", args[3].Type())
		}
		n = int(c)
	}
	s := string(args[0].(Str))
	if len(repl) > len(old) {
		count := strings.Count(s, old)
		if n >= 0 && n < count {
			count = n
		}
		if err := checkLen(len(s) + count*(len(repl)-len(old))); err != nil {
			return nil, err
		}
	}
	return Str(strings.Replace(s, old, repl, n)), nil
}

func strIs(pred func(rune) bool) NativeFunc {
	return func(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
		if err := exactArgs("is", args, 0, kw); err != nil {
			return nil, err
		}
		s := string(args[0].(Str))
		if s == "" {
			return Bool(false), nil
		}
		for _, r := range s {
			if !pred(r) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	}
}

func strFormat(_ *Interp, args []Value, kw []Kwarg) (Value, error) {
	s, err := formatMethod(string(args[0].(Str)), args[1:], kw)
	if err != nil {
		return nil, err
	}
	return Str(s), nil
}
