package pyast

// Inspect traverses the tree rooted at node in depth-first pre-order, calling f for
// each node. If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil {
		return
	}
	if !f(node) {
		return
	}
	for _, c := range Children(node) {
		Inspect(c, f)
	}
}

// InspectAll runs Inspect over every statement of a block.
func InspectAll(body []Stmt, f func(Node) bool) {
	for _, s := range body {
		Inspect(s, f)
	}
}

// Visitor is called on entry to a node and, when Visit returns a non-nil visitor,
// on each child with that visitor; Leave runs after all children.
type Visitor interface {
	Visit(n Node) Visitor
	Leave(n Node)
}

// Walk traverses the tree with enter and leave callbacks, the shape used by
// depth-tracking analyses.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	w := v.Visit(node)
	if w == nil {
		return
	}
	for _, c := range Children(node) {
		Walk(w, c)
	}
	v.Leave(node)
}

// Children returns the direct children of node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			add(e)
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			add(s)
		}
	}
	addParams := func(ps []*Param) {
		for _, p := range ps {
			add(p)
		}
	}
	addGens := func(gs []*Comprehension) {
		for _, g := range gs {
			add(g.Target, g.Iter)
			addExprs(g.Ifs)
		}
	}

	switch n := node.(type) {
	case *Param:
		if n.Default != nil {
			add(n.Default)
		}
	case *FunctionDef:
		addParams(n.Params)
		addStmts(n.Body)
	case *Return:
		if n.Value != nil {
			add(n.Value)
		}
	case *Assign:
		addExprs(n.Targets)
		add(n.Value)
	case *AugAssign:
		add(n.Target, n.Value)
	case *ExprStmt:
		add(n.X)
	case *If:
		add(n.Cond)
		addStmts(n.Body)
		addStmts(n.Else)
	case *For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
		addStmts(n.Else)
	case *While:
		add(n.Cond)
		addStmts(n.Body)
		addStmts(n.Else)
	case *Delete:
		addExprs(n.Targets)
	case *Assert:
		add(n.Test)
		if n.Msg != nil {
			add(n.Msg)
		}
	case *JoinedStr:
		addExprs(n.Values)
	case *FormattedValue:
		add(n.Value)
	case *List:
		addExprs(n.Elts)
	case *Tuple:
		addExprs(n.Elts)
	case *Set:
		addExprs(n.Elts)
	case *Dict:
		for i := range n.Keys {
			add(n.Keys[i], n.Values[i])
		}
	case *Starred:
		add(n.Value)
	case *BinOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Operand)
	case *BoolOp:
		add(n.Left, n.Right)
	case *Compare:
		add(n.Left)
		addExprs(n.Comparators)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
		for _, kw := range n.Keywords {
			add(kw.Value)
		}
	case *Attribute:
		add(n.Value)
	case *Subscript:
		add(n.Value, n.Index)
	case *Slice:
		add(n.Lower, n.Upper, n.Step)
	case *IfExp:
		add(n.Body, n.Cond, n.OrElse)
	case *Lambda:
		addParams(n.Params)
		add(n.Body)
	case *NamedExpr:
		add(n.Value)
	case *ListComp:
		add(n.Elt)
		addGens(n.Generators)
	case *SetComp:
		add(n.Elt)
		addGens(n.Generators)
	case *DictComp:
		add(n.Key, n.Value)
		addGens(n.Generators)
	case *GeneratorExp:
		add(n.Elt)
		addGens(n.Generators)
	}
	return out
}
