package structure

import (
	"strings"

	"algoscope/internal/pyast"
)

// mapLikeFragments mark a variable as a hash map even without a dict literal,
// catching reassigned or aliased containers.
var mapLikeFragments = []string{"map", "memo", "seen", "cache", "lookup"}

// IsMapLikeName reports whether a variable name suggests a hash map.
func IsMapLikeName(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range mapLikeFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Analyze walks prog once and returns its CodeStructure.
func Analyze(prog *pyast.Program) *CodeStructure {
	a := &analyzer{
		vars:       make(map[string]string),
		indicators: make(map[string]string),
		dsSeen:     make(map[DataStructure]bool),
		appendOn:   make(map[string]bool),
		popOn:      make(map[string]bool),
	}
	for _, s := range prog.Body {
		pyast.Walk(a, s)
	}
	for base := range a.appendOn {
		if a.popOn[base] {
			a.addDS(Stack)
			break
		}
	}
	for _, fn := range a.functions {
		if fn.Recursive {
			a.indicators[IndicatorRecursion] = "recursive calls"
			break
		}
	}

	return &CodeStructure{
		Functions:            a.functions,
		Variables:            a.vars,
		DataStructures:       a.ds,
		ControlFlow:          a.flow,
		ComplexityIndicators: a.indicators,
		ReturnPattern:        a.returnPattern,
		LoopCount:            a.loops,
		MaxLoopNesting:       a.maxDepth,
	}
}

// analyzer is the single-pass visitor behind Analyze. It tracks loop depth on
// entry and exit so nesting reflects static structure.
type analyzer struct {
	functions     []Function
	vars          map[string]string
	ds            []DataStructure
	dsSeen        map[DataStructure]bool
	flow          []string
	indicators    map[string]string
	returnPattern string

	loops    int
	depth    int
	maxDepth int

	appendOn map[string]bool
	popOn    map[string]bool
}

func (a *analyzer) addDS(kind DataStructure) {
	if a.dsSeen[kind] {
		return
	}
	a.dsSeen[kind] = true
	a.ds = append(a.ds, kind)
}

func (a *analyzer) Visit(n pyast.Node) pyast.Visitor {
	switch x := n.(type) {
	case *pyast.FunctionDef:
		a.functions = append(a.functions, describeFunction(x))

	case *pyast.Assign:
		a.assignment(x)

	case *pyast.For:
		a.enterLoop(x, FlowFor)
	case *pyast.While:
		a.enterLoop(x, FlowWhile)

	case *pyast.If:
		a.flow = append(a.flow, FlowConditional)

	case *pyast.Return:
		a.returnPattern = returnPattern(x)

	case *pyast.Call:
		a.call(x)

	case *pyast.Attribute:
		switch x.Attr {
		case "left", "right", "children":
			a.addDS(Tree)
		}

	case *pyast.Name:
		lower := strings.ToLower(x.ID)
		if strings.Contains(lower, "graph") || strings.Contains(lower, "adj") {
			a.addDS(Graph)
		}
	}
	return a
}

func (a *analyzer) Leave(n pyast.Node) {
	switch n.(type) {
	case *pyast.For, *pyast.While:
		a.depth--
	}
}

func (a *analyzer) enterLoop(loop pyast.Stmt, token string) {
	a.flow = append(a.flow, token)
	a.loops++
	a.depth++
	if a.depth > a.maxDepth {
		a.maxDepth = a.depth
	}
	if containsLoop(loop) {
		a.indicators[IndicatorNestedLoops] = "O(n²) or higher"
	}
}

func (a *analyzer) assignment(as *pyast.Assign) {
	if kind, ok := literalKind(as.Value); ok {
		a.addDS(kind)
	}
	for _, target := range as.Targets {
		name, ok := target.(*pyast.Name)
		if !ok {
			continue
		}
		a.vars[name.ID] = InferType(as.Value)
		if IsMapLikeName(name.ID) {
			a.addDS(HashMap)
		}
	}
}

func (a *analyzer) call(c *pyast.Call) {
	attr, ok := c.Func.(*pyast.Attribute)
	if !ok {
		return
	}
	base := pyast.BaseName(attr.Value)
	switch attr.Attr {
	case "append":
		a.appendOn[base] = true
	case "pop":
		if len(c.Args) == 1 {
			if k, ok := c.Args[0].(*pyast.Constant); ok && k.Kind == pyast.ConstInt && k.Int == 0 {
				a.addDS(Queue)
				return
			}
		}
		a.popOn[base] = true
	case "popleft":
		a.addDS(Queue)
	}
}

// literalKind maps the right-hand side of an assignment to the container it builds.
func literalKind(value pyast.Expr) (DataStructure, bool) {
	switch v := value.(type) {
	case *pyast.Dict, *pyast.DictComp:
		return HashMap, true
	case *pyast.List, *pyast.ListComp:
		return Array, true
	case *pyast.Set, *pyast.SetComp:
		return Set, true
	case *pyast.JoinedStr:
		return String, true
	case *pyast.Constant:
		if v.Kind == pyast.ConstStr {
			return String, true
		}
	case *pyast.BinOp:
		// [0] * n
		if v.Op == "*" {
			if _, ok := v.Left.(*pyast.List); ok {
				return Array, true
			}
		}
	case *pyast.Call:
		switch pyast.CalleeName(v) {
		case "dict":
			return HashMap, true
		case "list":
			return Array, true
		case "set":
			return Set, true
		case "str":
			return String, true
		}
	}
	return "", false
}

// InferType names the Python type an assignment value evidently has.
func InferType(value pyast.Expr) string {
	switch v := value.(type) {
	case *pyast.Dict, *pyast.DictComp:
		return "dict"
	case *pyast.List, *pyast.ListComp:
		return "list"
	case *pyast.Set, *pyast.SetComp:
		return "set"
	case *pyast.Tuple:
		return "tuple"
	case *pyast.JoinedStr:
		return "str"
	case *pyast.Constant:
		switch v.Kind {
		case pyast.ConstInt:
			return "int"
		case pyast.ConstFloat:
			return "float"
		case pyast.ConstStr:
			return "str"
		case pyast.ConstBool:
			return "bool"
		default:
			return "NoneType"
		}
	}
	return "unknown"
}

func returnPattern(r *pyast.Return) string {
	switch r.Value.(type) {
	case nil:
		return ReturnVoid
	case *pyast.List:
		return ReturnList
	case *pyast.Constant:
		return ReturnConstant
	}
	return ReturnExpression
}

// containsLoop reports whether a loop statement has another loop anywhere inside it.
func containsLoop(loop pyast.Stmt) bool {
	found := false
	for _, child := range pyast.Children(loop) {
		pyast.Inspect(child, func(n pyast.Node) bool {
			switch n.(type) {
			case *pyast.For, *pyast.While:
				found = true
			}
			return !found
		})
	}
	return found
}

func describeFunction(fn *pyast.FunctionDef) Function {
	f := Function{
		Name:       fn.Name,
		Params:     make([]string, 0, len(fn.Params)),
		StartLine:  fn.Line(),
		EndLine:    fn.LastLine(),
		Cyclomatic: Cyclomatic(fn),
		Cognitive:  Cognitive(fn),
	}
	for _, p := range fn.Params {
		f.Params = append(f.Params, p.Name)
	}

	depth := &loopDepth{}
	for _, s := range fn.Body {
		pyast.Walk(depth, s)
	}
	f.MaxLoopNesting = depth.max

	pyast.InspectAll(fn.Body, func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Return:
			f.ReturnCount++
		case *pyast.Call:
			if name, ok := x.Func.(*pyast.Name); ok && name.ID == fn.Name {
				f.Recursive = true
			}
		}
		return true
	})
	return f
}

// loopDepth tracks the deepest for/while nesting.
type loopDepth struct {
	cur, max int
}

func (v *loopDepth) Visit(n pyast.Node) pyast.Visitor {
	switch n.(type) {
	case *pyast.For, *pyast.While:
		v.cur++
		if v.cur > v.max {
			v.max = v.cur
		}
	}
	return v
}

func (v *loopDepth) Leave(n pyast.Node) {
	switch n.(type) {
	case *pyast.For, *pyast.While:
		v.cur--
	}
}
