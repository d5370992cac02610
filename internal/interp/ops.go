package interp

import (
	"math"
	"strings"
)

// maxItems bounds the length of every list, tuple and string (in bytes) the
// interpreter builds.
const maxItems = 10_000_000

// checkLen raises MemoryError for a result of n items beyond maxItems.
func checkLen(n int) error {
	if n > maxItems {
		return raise("MemoryError", "")
	}
	return nil
}

// Slice is the value of a `lower:upper:step` subscript.
type Slice struct {
	Lower, Upper, Step Value
}

func (*Slice) Type() string { return "slice" }

func isNone(v Value) bool {
	_, ok := v.(NoneType)
	return ok
}

// Truthy reports Python truthiness.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case Str:
		return x != ""
	case NoneType:
		return false
	case Tuple:
		return len(x) > 0
	case *List:
		return len(x.Items) > 0
	case *Dict:
		return x.Len() > 0
	case *Set:
		return x.Len() > 0
	case *Range:
		return x.Len() > 0
	case *View:
		return x.Dict.Len() > 0
	}
	return true
}

func asInt(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int:
		return int64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat(v Value) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	if f, ok := v.(Float); ok {
		return float64(f), true
	}
	return 0, false
}

func isNumber(v Value) bool {
	_, ok := asFloat(v)
	return ok
}

// Equal reports Python == equality.
func Equal(a, b Value) bool {
	return equalDepth(a, b, 0)
}

func equalDepth(a, b Value, depth int) bool {
	if depth > 500 {
		return false
	}
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return ai == bi
		}
	}
	if isNumber(a) && isNumber(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		return af == bf
	}
	switch x := a.(type) {
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalSeq(x, y, depth)
	case *List:
		y, ok := b.(*List)
		return ok && (x == y || equalSeq(x.Items, y.Items, depth))
	case *Range:
		y, ok := b.(*Range)
		if !ok {
			return false
		}
		n := x.Len()
		if n != y.Len() {
			return false
		}
		return n == 0 || (x.Start == y.Start && (n == 1 || x.Step == y.Step))
	case *Dict:
		y, ok := b.(*Dict)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.Len() != y.Len() {
			return false
		}
		for _, e := range x.Entries() {
			other, found, err := y.Get(e.Key)
			if err != nil || !found || !equalDepth(e.Value, other, depth+1) {
				return false
			}
		}
		return true
	case *Set:
		y, ok := b.(*Set)
		if !ok || x.Len() != y.Len() {
			return false
		}
		return isSubset(x, y)
	case *Function:
		return a == b
	case *Builtin:
		return a == b
	case *View:
		return a == b
	case *Iterator:
		return a == b
	}
	return false
}

func equalSeq(x, y []Value, depth int) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !equalDepth(x[i], y[i], depth+1) {
			return false
		}
	}
	return true
}

func isSubset(x, y *Set) bool {
	for _, it := range x.Items() {
		if ok, _ := y.Contains(it); !ok {
			return false
		}
	}
	return true
}

// identical implements `is`.
func identical(a, b Value) bool {
	switch x := a.(type) {
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Str:
		y, ok := b.(Str)
		return ok && x == y
	case Tuple:
		y, ok := b.(Tuple)
		return ok && len(x) == 0 && len(y) == 0
	case Float:
		return false
	case *List, *Dict, *Set, *Range, *Function, *Builtin, *Iterator, *View:
		return a == b
	}
	return false
}

// compare evaluates one comparison operator.
func compare(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return Equal(a, b), nil
	case "!=":
		return !Equal(a, b), nil
	case "is":
		return identical(a, b), nil
	case "is not":
		return !identical(a, b), nil
	case "in":
		return contains(b, a)
	case "not in":
		ok, err := contains(b, a)
		return !ok, err
	}
	return order(op, a, b)
}

func order(op string, a, b Value) (bool, error) {
	if ai, ok := asInt(a); ok {
		if bi, ok := asInt(b); ok {
			return cmpOp(op, ai, bi), nil
		}
	}
	if isNumber(a) && isNumber(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		return cmpOp(op, af, bf), nil
	}
	switch x := a.(type) {
	case Str:
		if y, ok := b.(Str); ok {
			return cmpOp(op, string(x), string(y)), nil
		}
	case Tuple:
		if y, ok := b.(Tuple); ok {
			return orderSeq(op, x, y)
		}
	case *List:
		if y, ok := b.(*List); ok {
			return orderSeq(op, x.Items, y.Items)
		}
	case *Set:
		if y, ok := b.(*Set); ok {
			switch op {
			case "<=":
				return isSubset(x, y), nil
			case "<":
				return x.Len() < y.Len() && isSubset(x, y), nil
			case ">=":
				return isSubset(y, x), nil
			case ">":
				return y.Len() < x.Len() && isSubset(y, x), nil
			}
		}
	}
	return false, typeErrorf("'%s' not supported between instances of '%s' and '%s'", op, a.Type(), b.Type())
}

func orderSeq(op string, x, y []Value) (bool, error) {
	for i := 0; i < len(x) && i < len(y); i++ {
		if !Equal(x[i], y[i]) {
			return order(op, x[i], y[i])
		}
	}
	return cmpOp(op, len(x), len(y)), nil
}

type ordered interface {
	~int | ~int64 | ~float64 | ~string
}

func cmpOp[T ordered](op string, a, b T) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

// lessThan is the ordering used by sort, min and max.
func lessThan(a, b Value) (bool, error) {
	return order("<", a, b)
}

func contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case Str:
		s, ok := item.(Str)
		if !ok {
			return false, typeErrorf("'in <string>' requires string as left operand, not %s", item.Type())
		}
		return strings.Contains(string(c), string(s)), nil
	case *List:
		return containsSeq(c.Items, item), nil
	case Tuple:
		return containsSeq(c, item), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case *Set:
		return c.Contains(item)
	case *Range:
		i, ok := asInt(item)
		if !ok {
			if f, isFloat := item.(Float); isFloat && float64(f) == math.Trunc(float64(f)) {
				i, ok = int64(f), true
			}
		}
		if !ok || c.Step == 0 {
			return false, nil
		}
		if c.Step > 0 && (i < c.Start || i >= c.Stop) || c.Step < 0 && (i > c.Start || i <= c.Stop) {
			return false, nil
		}
		return (i-c.Start)%c.Step == 0, nil
	case *View:
		if c.Kind == "keys" {
			_, ok, err := c.Dict.Get(item)
			return ok, err
		}
		return containsSeq(c.items(), item), nil
	case *Iterator:
		for {
			v, ok, err := c.next()
			if err != nil || !ok {
				return false, err
			}
			if Equal(v, item) {
				return true, nil
			}
		}
	}
	return false, typeErrorf("argument of type '%s' is not iterable", container.Type())
}

func containsSeq(items []Value, item Value) bool {
	for _, it := range items {
		if identical(it, item) || Equal(it, item) {
			return true
		}
	}
	return false
}

func overflow() error {
	return raise("OverflowError", "integer result exceeds 64 bits")
}

func addInt(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, overflow()
	}
	return s, nil
}

func subInt(a, b int64) (int64, error) {
	s := a - b
	if (a >= 0 && b < 0 && s < 0) || (a < 0 && b > 0 && s >= 0) {
		return 0, overflow()
	}
	return s, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, overflow()
	}
	return p, nil
}

func powInt(base, exp int64) (int64, error) {
	result := int64(1)
	for exp > 0 {
		var err error
		if exp&1 == 1 {
			if result, err = mulInt(result, base); err != nil {
				return 0, err
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, err = mulInt(base, base); err != nil {
				return 0, err
			}
		}
	}
	return result, nil
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floorModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// binaryOp evaluates an arithmetic or bitwise operator.
func binaryOp(op string, a, b Value) (Value, error) {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		return intOp(op, ai, bi, a, b)
	}
	if isNumber(a) && isNumber(b) {
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		if v, ok, err := floatOp(op, af, bf); ok || err != nil {
			return v, err
		}
	}

	switch op {
	case "+":
		switch x := a.(type) {
		case Str:
			if y, ok := b.(Str); ok {
				if err := checkLen(len(x) + len(y)); err != nil {
					return nil, err
				}
				return x + y, nil
			}
			return nil, typeErrorf(`can only concatenate str (not "%s") to str`, b.Type())
		case *List:
			if y, ok := b.(*List); ok {
				if err := checkLen(len(x.Items) + len(y.Items)); err != nil {
					return nil, err
				}
				items := make([]Value, 0, len(x.Items)+len(y.Items))
				items = append(items, x.Items...)
				return NewList(append(items, y.Items...)...), nil
			}
			return nil, typeErrorf(`can only concatenate list (not "%s") to list`, b.Type())
		case Tuple:
			if y, ok := b.(Tuple); ok {
				if err := checkLen(len(x) + len(y)); err != nil {
					return nil, err
				}
				items := make(Tuple, 0, len(x)+len(y))
				items = append(items, x...)
				return append(items, y...), nil
			}
			return nil, typeErrorf(`can only concatenate tuple (not "%s") to tuple`, b.Type())
		}
	case "*":
		if n, ok := asInt(b); ok {
			if v, ok, err := repeat(a, n); ok {
				return v, err
			}
		}
		if n, ok := asInt(a); ok {
			if v, ok, err := repeat(b, n); ok {
				return v, err
			}
		}
	case "-", "&", "|", "^":
		if x, ok := a.(*Set); ok {
			if y, ok := b.(*Set); ok {
				return setOp(op, x, y)
			}
		}
		if x, ok := a.(*Dict); ok && op == "|" {
			if y, ok := b.(*Dict); ok {
				out := x.Copy()
				for _, e := range y.Entries() {
					_ = out.Set(e.Key, e.Value)
				}
				return out, nil
			}
		}
	case "%":
		if f, ok := a.(Str); ok {
			return percentFormat(string(f), b)
		}
	}
	return nil, typeErrorf("unsupported operand type(s) for %s: '%s' and '%s'", op, a.Type(), b.Type())
}

func intOp(op string, a, b int64, av, bv Value) (Value, error) {
	switch op {
	case "+":
		v, err := addInt(a, b)
		return Int(v), err
	case "-":
		v, err := subInt(a, b)
		return Int(v), err
	case "*":
		v, err := mulInt(a, b)
		return Int(v), err
	case "/":
		if b == 0 {
			return nil, raise("ZeroDivisionError", "division by zero")
		}
		return Float(float64(a) / float64(b)), nil
	case "//":
		if b == 0 {
			return nil, raise("ZeroDivisionError", "integer division or modulo by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow()
		}
		return Int(floorDivInt(a, b)), nil
	case "%":
		if b == 0 {
			return nil, raise("ZeroDivisionError", "integer modulo by zero")
		}
		if b == -1 {
			return Int(0), nil
		}
		return Int(floorModInt(a, b)), nil
	case "**":
		if b < 0 {
			if a == 0 {
				return nil, raise("ZeroDivisionError", "0.0 cannot be raised to a negative power")
			}
			return Float(math.Pow(float64(a), float64(b))), nil
		}
		v, err := powInt(a, b)
		return Int(v), err
	case "&", "|", "^":
		var r int64
		switch op {
		case "&":
			r = a & b
		case "|":
			r = a | b
		default:
			r = a ^ b
		}
		_, aBool := av.(Bool)
		_, bBool := bv.(Bool)
		if aBool && bBool {
			return Bool(r != 0), nil
		}
		return Int(r), nil
	case "<<":
		if b < 0 {
			return nil, valueErrorf("negative shift count")
		}
		if b >= 63 {
			if a == 0 {
				return Int(0), nil
			}
			return nil, overflow()
		}
		r := a << uint(b)
		if r>>uint(b) != a {
			return nil, overflow()
		}
		return Int(r), nil
	case ">>":
		if b < 0 {
			return nil, valueErrorf("negative shift count")
		}
		if b >= 63 {
			if a < 0 {
				return Int(-1), nil
			}
			return Int(0), nil
		}
		return Int(a >> uint(b)), nil
	}
	return nil, typeErrorf("unsupported operand type(s) for %s: '%s' and '%s'", op, av.Type(), bv.Type())
}

func floatOp(op string, a, b float64) (Value, bool, error) {
	switch op {
	case "+":
		return Float(a + b), true, nil
	case "-":
		return Float(a - b), true, nil
	case "*":
		return Float(a * b), true, nil
	case "/":
		if b == 0 {
			return nil, true, raise("ZeroDivisionError", "float division by zero")
		}
		return Float(a / b), true, nil
	case "//":
		if b == 0 {
			return nil, true, raise("ZeroDivisionError", "float floor division by zero")
		}
		return Float(math.Floor(a / b)), true, nil
	case "%":
		if b == 0 {
			return nil, true, raise("ZeroDivisionError", "float modulo")
		}
		return Float(floorModFloat(a, b)), true, nil
	case "**":
		if a == 0 && b < 0 {
			return nil, true, raise("ZeroDivisionError", "0.0 cannot be raised to a negative power")
		}
		r := math.Pow(a, b)
		if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
			return nil, true, raise("OverflowError", "(34, 'Numerical result out of range')")
		}
		return Float(r), true, nil
	}
	return nil, false, nil
}

func repeat(seq Value, n int64) (Value, bool, error) {
	if n < 0 {
		n = 0
	}
	var size int64
	switch x := seq.(type) {
	case Str:
		size = int64(len(x))
	case *List:
		size = int64(len(x.Items))
	case Tuple:
		size = int64(len(x))
	default:
		return nil, false, nil
	}
	if size > 0 && n > maxItems/size {
		return nil, true, raise("MemoryError", "")
	}
	switch x := seq.(type) {
	case Str:
		return Str(strings.Repeat(string(x), int(n))), true, nil
	case *List:
		items := make([]Value, 0, size*n)
		for i := int64(0); i < n; i++ {
			items = append(items, x.Items...)
		}
		return NewList(items...), true, nil
	case Tuple:
		items := make(Tuple, 0, size*n)
		for i := int64(0); i < n; i++ {
			items = append(items, x...)
		}
		return items, true, nil
	}
	return nil, false, nil
}

func setOp(op string, x, y *Set) (Value, error) {
	out := NewSet()
	switch op {
	case "-":
		for _, it := range x.Items() {
			if ok, _ := y.Contains(it); !ok {
				_ = out.Add(it)
			}
		}
	case "&":
		for _, it := range x.Items() {
			if ok, _ := y.Contains(it); ok {
				_ = out.Add(it)
			}
		}
	case "|":
		for _, it := range x.Items() {
			_ = out.Add(it)
		}
		for _, it := range y.Items() {
			_ = out.Add(it)
		}
	case "^":
		for _, it := range x.Items() {
			if ok, _ := y.Contains(it); !ok {
				_ = out.Add(it)
			}
		}
		for _, it := range y.Items() {
			if ok, _ := x.Contains(it); !ok {
				_ = out.Add(it)
			}
		}
	}
	return out, nil
}

// inplaceOp implements augmented assignment. Lists, sets and dicts are updated in place.
func (in *Interp) inplaceOp(op string, cur, v Value) (Value, error) {
	switch x := cur.(type) {
	case *List:
		switch op {
		case "+":
			items, err := in.collect(v)
			if err != nil {
				return nil, err
			}
			if err := checkLen(len(x.Items) + len(items)); err != nil {
				return nil, err
			}
			x.Items = append(x.Items, items...)
			return x, nil
		case "*":
			n, ok := asInt(v)
			if !ok {
				break
			}
			r, _, err := repeat(x, n)
			if err != nil {
				return nil, err
			}
			x.Items = r.(*List).Items
			return x, nil
		}
	case *Set:
		if y, ok := v.(*Set); ok && strings.Contains("-&|^", op) {
			r, err := setOp(op, x, y)
			if err != nil {
				return nil, err
			}
			*x = *r.(*Set)
			return x, nil
		}
	case *Dict:
		if y, ok := v.(*Dict); ok && op == "|" {
			for _, e := range y.Entries() {
				if err := x.Set(e.Key, e.Value); err != nil {
					return nil, err
				}
			}
			return x, nil
		}
	}
	return binaryOp(op, cur, v)
}

// unaryOp evaluates -x, +x, ~x and not x.
func unaryOp(op string, v Value) (Value, error) {
	if op == "not" {
		return Bool(!Truthy(v)), nil
	}
	if i, ok := asInt(v); ok {
		switch op {
		case "-":
			if i == math.MinInt64 {
				return nil, overflow()
			}
			return Int(-i), nil
		case "+":
			return Int(i), nil
		case "~":
			return Int(^i), nil
		}
	}
	if f, ok := v.(Float); ok {
		switch op {
		case "-":
			return -f, nil
		case "+":
			return f, nil
		}
	}
	return nil, typeErrorf("bad operand type for unary %s: '%s'", op, v.Type())
}
