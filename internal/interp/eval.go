package interp

import (
	"strings"

	"algoscope/internal/pyast"
)

func (in *Interp) eval(s *scope, e pyast.Expr) (Value, error) {
	switch x := e.(type) {
	case *pyast.Name:
		return in.lookup(s, x.ID)

	case *pyast.Constant:
		switch x.Kind {
		case pyast.ConstBool:
			return Bool(x.Bool), nil
		case pyast.ConstInt:
			return Int(x.Int), nil
		case pyast.ConstFloat:
			return Float(x.Float), nil
		case pyast.ConstStr:
			return Str(x.Str), nil
		}
		return None, nil

	case *pyast.JoinedStr:
		var b strings.Builder
		for _, part := range x.Values {
			v, err := in.eval(s, part)
			if err != nil {
				return nil, err
			}
			b.WriteString(ToStr(v))
		}
		return Str(b.String()), nil

	case *pyast.FormattedValue:
		v, err := in.eval(s, x.Value)
		if err != nil {
			return nil, err
		}
		return formatField(v, x.Conversion, x.Spec)

	case *pyast.List:
		items, err := in.evalElts(s, x.Elts)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil

	case *pyast.Tuple:
		items, err := in.evalElts(s, x.Elts)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil

	case *pyast.Set:
		items, err := in.evalElts(s, x.Elts)
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

	case *pyast.Dict:
		out := NewDict()
		for i := range x.Keys {
			k, err := in.eval(s, x.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := in.eval(s, x.Values[i])
			if err != nil {
				return nil, err
			}
			if err := out.Set(k, v); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *pyast.Starred:
		return nil, raise("SyntaxError", "can't use starred expression here")

	case *pyast.BinOp:
		l, err := in.eval(s, x.Left)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(s, x.Right)
		if err != nil {
			return nil, err
		}
		return binaryOp(x.Op, l, r)

	case *pyast.UnaryOp:
		v, err := in.eval(s, x.Operand)
		if err != nil {
			return nil, err
		}
		return unaryOp(x.Op, v)

	case *pyast.BoolOp:
		l, err := in.eval(s, x.Left)
		if err != nil {
			return nil, err
		}
		if (x.Op == "and") != Truthy(l) {
			return l, nil
		}
		return in.eval(s, x.Right)

	case *pyast.Compare:
		l, err := in.eval(s, x.Left)
		if err != nil {
			return nil, err
		}
		for i, op := range x.Ops {
			r, err := in.eval(s, x.Comparators[i])
			if err != nil {
				return nil, err
			}
			ok, err := compare(op, l, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				return Bool(false), nil
			}
			l = r
		}
		return Bool(true), nil

	case *pyast.Call:
		return in.evalCall(s, x)

	case *pyast.Attribute:
		obj, err := in.eval(s, x.Value)
		if err != nil {
			return nil, err
		}
		return getAttr(obj, x.Attr)

	case *pyast.Subscript:
		obj, err := in.eval(s, x.Value)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(s, x.Index)
		if err != nil {
			return nil, err
		}
		return in.getItem(obj, idx)

	case *pyast.Slice:
		sl := &Slice{Lower: None, Upper: None, Step: None}
		for _, part := range []struct {
			e   pyast.Expr
			dst *Value
		}{{x.Lower, &sl.Lower}, {x.Upper, &sl.Upper}, {x.Step, &sl.Step}} {
			if part.e == nil {
				continue
			}
			v, err := in.eval(s, part.e)
			if err != nil {
				return nil, err
			}
			*part.dst = v
		}
		return sl, nil

	case *pyast.IfExp:
		cond, err := in.eval(s, x.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return in.eval(s, x.Body)
		}
		return in.eval(s, x.OrElse)

	case *pyast.Lambda:
		return in.makeFunction(s, x, "<lambda>", x.Params, nil, x.Body)

	case *pyast.NamedExpr:
		v, err := in.eval(s, x.Value)
		if err != nil {
			return nil, err
		}
		return v, in.assignNamed(s, x.Target, v)

	case *pyast.ListComp:
		out := NewList()
		err := in.comprehend(s, x.Generators, func(cs *scope) error {
			v, err := in.eval(cs, x.Elt)
			if err != nil {
				return err
			}
			if len(out.Items) >= maxItems {
				return raise("MemoryError", "")
			}
			out.Items = append(out.Items, v)
			return nil
		})
		return out, err

	case *pyast.GeneratorExp:
		var items []Value
		err := in.comprehend(s, x.Generators, func(cs *scope) error {
			v, err := in.eval(cs, x.Elt)
			if err != nil {
				return err
			}
			if len(items) >= maxItems {
				return raise("MemoryError", "")
			}
			items = append(items, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return sliceIterator("generator", items), nil

	case *pyast.SetComp:
		out := NewSet()
		err := in.comprehend(s, x.Generators, func(cs *scope) error {
			v, err := in.eval(cs, x.Elt)
			if err != nil {
				return err
			}
			return out.Add(v)
		})
		return out, err

	case *pyast.DictComp:
		out := NewDict()
		err := in.comprehend(s, x.Generators, func(cs *scope) error {
			k, err := in.eval(cs, x.Key)
			if err != nil {
				return err
			}
			v, err := in.eval(cs, x.Value)
			if err != nil {
				return err
			}
			return out.Set(k, v)
		})
		return out, err
	}
	return nil, raise("SyntaxError", "unsupported expression")
}

// evalElts evaluates display elements, expanding *iterable.
func (in *Interp) evalElts(s *scope, elts []pyast.Expr) ([]Value, error) {
	out := make([]Value, 0, len(elts))
	for _, el := range elts {
		if st, ok := el.(*pyast.Starred); ok {
			v, err := in.eval(s, st.Value)
			if err != nil {
				return nil, err
			}
			items, err := in.collect(v)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}
		v, err := in.eval(s, el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// comprehend runs the generator clauses in a fresh scope, calling emit for each
// combination that passes the filters. The first iterable is evaluated in the
// enclosing scope.
func (in *Interp) comprehend(s *scope, gens []*pyast.Comprehension, emit func(*scope) error) error {
	cs := newScope(nil, s)
	cs.comp = true
	first, err := in.eval(s, gens[0].Iter)
	if err != nil {
		return err
	}
	var run func(i int, iterable Value) error
	run = func(i int, iterable Value) error {
		g := gens[i]
		next, err := in.iterate(iterable)
		if err != nil {
			return err
		}
		for {
			if err := in.tick(); err != nil {
				return err
			}
			v, ok, err := next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := in.assignTarget(cs, g.Target, v); err != nil {
				return err
			}
			pass := true
			for _, cond := range g.Ifs {
				c, err := in.eval(cs, cond)
				if err != nil {
					return err
				}
				if !Truthy(c) {
					pass = false
					break
				}
			}
			if !pass {
				continue
			}
			if i+1 == len(gens) {
				if err := emit(cs); err != nil {
					return err
				}
				continue
			}
			inner, err := in.eval(cs, gens[i+1].Iter)
			if err != nil {
				return err
			}
			if err := run(i+1, inner); err != nil {
				return err
			}
		}
	}
	return run(0, first)
}

func (in *Interp) evalCall(s *scope, c *pyast.Call) (Value, error) {
	fn, err := in.eval(s, c.Func)
	if err != nil {
		return nil, err
	}
	args, err := in.evalElts(s, c.Args)
	if err != nil {
		return nil, err
	}
	var kwargs []Kwarg
	for _, kw := range c.Keywords {
		v, err := in.eval(s, kw.Value)
		if err != nil {
			return nil, err
		}
		kwargs = append(kwargs, Kwarg{Name: kw.Name, Value: v})
	}
	return in.call(fn, args, kwargs)
}

func (in *Interp) makeFunction(s *scope, key pyast.Node, name string, params []*pyast.Param, body []pyast.Stmt, expr pyast.Expr) (*Function, error) {
	fn := &Function{
		Name:     name,
		Params:   params,
		Defaults: make([]Value, len(params)),
		Body:     body,
		Expr:     expr,
		Line:     key.Line(),
		closure:  s,
	}
	for i, p := range params {
		if p.Default == nil {
			continue
		}
		v, err := in.eval(s, p.Default)
		if err != nil {
			return nil, err
		}
		fn.Defaults[i] = v
	}
	if expr != nil {
		fn.info = in.scopeInfo(key, params, []pyast.Stmt{&pyast.Return{Value: expr}})
	} else {
		fn.info = in.scopeInfo(key, params, body)
	}
	return fn, nil
}
