package interp

import (
	"algoscope/internal/pyast"
)

// scopeInfo is the static name classification of one function body.
type scopeInfo struct {
	locals    map[string]bool
	globals   map[string]bool
	nonlocals map[string]bool
}

// analyzeScope finds the names a function binds. Nested function and lambda bodies
// and comprehension targets belong to their own scopes.
func analyzeScope(params []*pyast.Param, body []pyast.Stmt) *scopeInfo {
	info := &scopeInfo{
		locals:    make(map[string]bool),
		globals:   make(map[string]bool),
		nonlocals: make(map[string]bool),
	}
	for _, p := range params {
		info.locals[p.Name] = true
	}
	bind := func(names ...string) {
		for _, n := range names {
			info.locals[n] = true
		}
	}

	pyast.InspectAll(body, func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.FunctionDef:
			bind(x.Name)
			return false
		case *pyast.Lambda:
			return false
		case *pyast.Assign:
			for _, t := range x.Targets {
				bind(pyast.TargetNames(t)...)
			}
		case *pyast.AugAssign:
			if name, ok := x.Target.(*pyast.Name); ok {
				bind(name.ID)
			}
		case *pyast.For:
			bind(pyast.TargetNames(x.Target)...)
		case *pyast.Delete:
			for _, t := range x.Targets {
				bind(pyast.TargetNames(t)...)
			}
		case *pyast.NamedExpr:
			bind(x.Target)
		case *pyast.Global:
			for _, name := range x.Names {
				info.globals[name] = true
			}
		case *pyast.Nonlocal:
			for _, name := range x.Names {
				info.nonlocals[name] = true
			}
		}
		return true
	})

	for name := range info.globals {
		delete(info.locals, name)
	}
	for name := range info.nonlocals {
		delete(info.locals, name)
	}
	return info
}

// scope holds the variables of the module, one function call or one comprehension.
type scope struct {
	vars  map[string]Value
	order []string
	// info is nil for the module and for comprehensions
	info   *scopeInfo
	parent *scope
	comp   bool
}

func newScope(info *scopeInfo, parent *scope) *scope {
	return &scope{vars: make(map[string]Value), info: info, parent: parent}
}

func (s *scope) isModule() bool {
	return s.parent == nil
}

func (s *scope) set(name string, v Value) {
	if _, ok := s.vars[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vars[name] = v
}

func (s *scope) remove(name string) bool {
	if _, ok := s.vars[name]; !ok {
		return false
	}
	delete(s.vars, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// function returns the nearest enclosing scope that is not a comprehension.
func (s *scope) function() *scope {
	for s.comp {
		s = s.parent
	}
	return s
}

func (in *Interp) lookup(s *scope, name string) (Value, error) {
	first := true
	for cur := s; cur != nil; cur = cur.parent {
		if cur.info != nil && cur.info.globals[name] {
			break
		}
		if v, ok := cur.vars[name]; ok {
			return v, nil
		}
		if cur.info != nil && cur.info.locals[name] {
			if first {
				return nil, raise("UnboundLocalError", "cannot access local variable '%s' where it is not associated with a value", name)
			}
			return nil, raise("NameError", "cannot access free variable '%s' where it is not associated with a value in enclosing scope", name)
		}
		if !cur.comp {
			first = false
		}
	}
	if v, ok := in.module.vars[name]; ok {
		return v, nil
	}
	if v, ok := in.builtins[name]; ok {
		return v, nil
	}
	return nil, raise("NameError", "name '%s' is not defined", name)
}

// assign binds name in the scope that owns it. Comprehension targets bind in the
// comprehension itself; walrus targets skip past comprehensions.
func (in *Interp) assign(s *scope, name string, v Value) error {
	if s.comp {
		s.set(name, v)
		return nil
	}
	owner, err := in.owner(s, name)
	if err != nil {
		return err
	}
	owner.set(name, v)
	return nil
}

func (in *Interp) assignNamed(s *scope, name string, v Value) error {
	return in.assign(s.function(), name, v)
}

func (in *Interp) owner(s *scope, name string) (*scope, error) {
	if s.info == nil {
		return s, nil
	}
	if s.info.globals[name] {
		return in.module, nil
	}
	if !s.info.nonlocals[name] {
		return s, nil
	}
	for cur := s.parent; cur != nil && !cur.isModule(); cur = cur.parent {
		if cur.comp || cur.info == nil {
			continue
		}
		if _, ok := cur.vars[name]; ok || cur.info.locals[name] {
			return cur, nil
		}
	}
	return nil, raise("SyntaxError", "no binding for nonlocal '%s' found", name)
}

func (in *Interp) unbind(s *scope, name string) error {
	owner, err := in.owner(s.function(), name)
	if err != nil {
		return err
	}
	if !owner.remove(name) {
		return raise("NameError", "name '%s' is not defined", name)
	}
	return nil
}

// Local is one variable of a frame.
type Local struct {
	Name  string
	Value Value
}

// Frame is an executing function, lambda or the module body.
type Frame struct {
	// Function is the function name, "<module>" or "<lambda>"
	Function string
	// Line is the line currently executing
	Line int
	// Depth is 0 for the module and grows by one per call
	Depth int

	scope *scope
	ret   Value
}

// Locals returns the frame's variables in the order they were first bound.
func (f *Frame) Locals() []Local {
	out := make([]Local, 0, len(f.scope.order))
	for _, name := range f.scope.order {
		out = append(out, Local{Name: name, Value: f.scope.vars[name]})
	}
	return out
}

// Lookup returns the value of a frame variable.
func (f *Frame) Lookup(name string) (Value, bool) {
	v, ok := f.scope.vars[name]
	return v, ok
}

// Hooks observe execution. Line fires before each statement, before every fetch of a
// for loop and before every condition test of a while loop. Return fires only when a
// function returns normally.
type Hooks interface {
	Call(f *Frame)
	Line(f *Frame, line int)
	Return(f *Frame, value Value)
}

type noHooks struct{}

func (noHooks) Call(*Frame)          {}
func (noHooks) Line(*Frame, int)     {}
func (noHooks) Return(*Frame, Value) {}
