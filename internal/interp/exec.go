package interp

import (
	"algoscope/internal/pyast"
)

// ctrl is the way a block finished.
type ctrl int

const (
	ctrlNext ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

func (in *Interp) execBlock(f *Frame, body []pyast.Stmt) (ctrl, error) {
	for _, st := range body {
		switch st.(type) {
		case *pyast.For, *pyast.While:
			// loops report their own header line once per iteration
		default:
			if err := in.tick(); err != nil {
				return ctrlNext, err
			}
			f.Line = st.Line()
			in.hooks.Line(f, f.Line)
		}
		c, err := in.exec(f, st)
		if err != nil {
			return ctrlNext, atLine(err, st.Line())
		}
		if c != ctrlNext {
			return c, nil
		}
	}
	return ctrlNext, nil
}

// header fires the line event of a loop header.
func (in *Interp) header(f *Frame, line int) error {
	if err := in.tick(); err != nil {
		return err
	}
	f.Line = line
	in.hooks.Line(f, line)
	return nil
}

func (in *Interp) exec(f *Frame, st pyast.Stmt) (ctrl, error) {
	s := f.scope
	switch x := st.(type) {
	case *pyast.FunctionDef:
		fn, err := in.makeFunction(s, x, x.Name, x.Params, x.Body, nil)
		if err != nil {
			return ctrlNext, err
		}
		return ctrlNext, in.assign(s, x.Name, fn)

	case *pyast.Return:
		f.ret = None
		if x.Value != nil {
			v, err := in.eval(s, x.Value)
			if err != nil {
				return ctrlNext, err
			}
			f.ret = v
		}
		return ctrlReturn, nil

	case *pyast.Assign:
		v, err := in.eval(s, x.Value)
		if err != nil {
			return ctrlNext, err
		}
		for _, t := range x.Targets {
			if err := in.assignTarget(s, t, v); err != nil {
				return ctrlNext, err
			}
		}
		return ctrlNext, nil

	case *pyast.AugAssign:
		return ctrlNext, in.augAssign(s, x)

	case *pyast.ExprStmt:
		_, err := in.eval(s, x.X)
		return ctrlNext, err

	case *pyast.If:
		cond, err := in.eval(s, x.Cond)
		if err != nil {
			return ctrlNext, err
		}
		if Truthy(cond) {
			return in.execBlock(f, x.Body)
		}
		return in.execBlock(f, x.Else)

	case *pyast.For:
		return in.execFor(f, x)

	case *pyast.While:
		return in.execWhile(f, x)

	case *pyast.Break:
		return ctrlBreak, nil
	case *pyast.Continue:
		return ctrlContinue, nil
	case *pyast.Pass, *pyast.Global, *pyast.Nonlocal:
		return ctrlNext, nil

	case *pyast.Delete:
		for _, t := range x.Targets {
			if err := in.deleteTarget(s, t); err != nil {
				return ctrlNext, err
			}
		}
		return ctrlNext, nil

	case *pyast.Assert:
		v, err := in.eval(s, x.Test)
		if err != nil {
			return ctrlNext, err
		}
		if Truthy(v) {
			return ctrlNext, nil
		}
		msg := ""
		if x.Msg != nil {
			m, err := in.eval(s, x.Msg)
			if err != nil {
				return ctrlNext, err
			}
			msg = ToStr(m)
		}
		return ctrlNext, &Exception{Type: "AssertionError", Message: msg}

	case *pyast.Import:
		return ctrlNext, raise("ImportError", "import of '%s' is not allowed", x.Module)
	}
	return ctrlNext, raise("SyntaxError", "unsupported statement")
}

func (in *Interp) execFor(f *Frame, x *pyast.For) (ctrl, error) {
	s := f.scope
	if err := in.header(f, x.Line()); err != nil {
		return ctrlNext, err
	}
	iterable, err := in.eval(s, x.Iter)
	if err != nil {
		return ctrlNext, err
	}
	next, err := in.iterate(iterable)
	if err != nil {
		return ctrlNext, err
	}
	for first := true; ; first = false {
		if !first {
			if err := in.header(f, x.Line()); err != nil {
				return ctrlNext, err
			}
		}
		v, ok, err := next()
		if err != nil {
			return ctrlNext, err
		}
		if !ok {
			break
		}
		if err := in.assignTarget(s, x.Target, v); err != nil {
			return ctrlNext, err
		}
		c, err := in.execBlock(f, x.Body)
		if err != nil {
			return ctrlNext, err
		}
		switch c {
		case ctrlBreak:
			return ctrlNext, nil
		case ctrlReturn:
			return c, nil
		}
	}
	return in.execBlock(f, x.Else)
}

func (in *Interp) execWhile(f *Frame, x *pyast.While) (ctrl, error) {
	s := f.scope
	for {
		if err := in.header(f, x.Line()); err != nil {
			return ctrlNext, err
		}
		cond, err := in.eval(s, x.Cond)
		if err != nil {
			return ctrlNext, err
		}
		if !Truthy(cond) {
			break
		}
		c, err := in.execBlock(f, x.Body)
		if err != nil {
			return ctrlNext, err
		}
		switch c {
		case ctrlBreak:
			return ctrlNext, nil
		case ctrlReturn:
			return c, nil
		}
	}
	return in.execBlock(f, x.Else)
}

// assignTarget binds v to a name, an unpacking pattern or a subscript.
func (in *Interp) assignTarget(s *scope, target pyast.Expr, v Value) error {
	switch t := target.(type) {
	case *pyast.Name:
		return in.assign(s, t.ID, v)
	case *pyast.Tuple:
		return in.unpack(s, t.Elts, v)
	case *pyast.List:
		return in.unpack(s, t.Elts, v)
	case *pyast.Subscript:
		obj, err := in.eval(s, t.Value)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		return in.setItem(obj, idx, v)
	case *pyast.Attribute:
		obj, err := in.eval(s, t.Value)
		if err != nil {
			return err
		}
		return raise("AttributeError", "'%s' object attribute '%s' is read-only", obj.Type(), t.Attr)
	case *pyast.Starred:
		return raise("SyntaxError", "starred assignment target must be in a list or tuple")
	}
	return raise("SyntaxError", "cannot assign to expression")
}

func (in *Interp) unpack(s *scope, targets []pyast.Expr, v Value) error {
	items, err := in.collect(v)
	if err != nil {
		if IsException(err, "TypeError") {
			return typeErrorf("cannot unpack non-iterable %s object", v.Type())
		}
		return err
	}

	star := -1
	for i, t := range targets {
		if _, ok := t.(*pyast.Starred); ok {
			star = i
		}
	}
	if star < 0 {
		switch {
		case len(items) > len(targets):
			return valueErrorf("too many values to unpack (expected %d)", len(targets))
		case len(items) < len(targets):
			return valueErrorf("not enough values to unpack (expected %d, got %d)", len(targets), len(items))
		}
		for i, t := range targets {
			if err := in.assignTarget(s, t, items[i]); err != nil {
				return err
			}
		}
		return nil
	}

	after := len(targets) - star - 1
	if len(items) < len(targets)-1 {
		return valueErrorf("not enough values to unpack (expected at least %d, got %d)", len(targets)-1, len(items))
	}
	for i := 0; i < star; i++ {
		if err := in.assignTarget(s, targets[i], items[i]); err != nil {
			return err
		}
	}
	rest := append([]Value(nil), items[star:len(items)-after]...)
	if err := in.assignTarget(s, targets[star].(*pyast.Starred).Value, NewList(rest...)); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := in.assignTarget(s, targets[star+1+i], items[len(items)-after+i]); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interp) augAssign(s *scope, x *pyast.AugAssign) error {
	switch t := x.Target.(type) {
	case *pyast.Name:
		cur, err := in.lookup(s, t.ID)
		if err != nil {
			return err
		}
		v, err := in.eval(s, x.Value)
		if err != nil {
			return err
		}
		res, err := in.inplaceOp(x.Op, cur, v)
		if err != nil {
			return err
		}
		return in.assign(s, t.ID, res)
	case *pyast.Subscript:
		obj, err := in.eval(s, t.Value)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		cur, err := in.getItem(obj, idx)
		if err != nil {
			return err
		}
		v, err := in.eval(s, x.Value)
		if err != nil {
			return err
		}
		res, err := in.inplaceOp(x.Op, cur, v)
		if err != nil {
			return err
		}
		return in.setItem(obj, idx, res)
	}
	return raise("SyntaxError", "illegal expression for augmented assignment")
}

func (in *Interp) deleteTarget(s *scope, target pyast.Expr) error {
	switch t := target.(type) {
	case *pyast.Name:
		return in.unbind(s, t.ID)
	case *pyast.Tuple:
		for _, el := range t.Elts {
			if err := in.deleteTarget(s, el); err != nil {
				return err
			}
		}
		return nil
	case *pyast.List:
		for _, el := range t.Elts {
			if err := in.deleteTarget(s, el); err != nil {
				return err
			}
		}
		return nil
	case *pyast.Subscript:
		obj, err := in.eval(s, t.Value)
		if err != nil {
			return err
		}
		idx, err := in.eval(s, t.Index)
		if err != nil {
			return err
		}
		return in.delItem(obj, idx)
	}
	return raise("SyntaxError", "cannot delete expression")
}
