//go:build cgo

package pyast

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"algoscope/internal/errors"
)

// converter turns a tree-sitter concrete syntax tree into pyast nodes. The first
// unsupported construct is recorded in err; conversion keeps going with nil
// placeholders so the caller only checks once.
type converter struct {
	src []byte
	err *errors.Error
}

func (c *converter) fail(n *sitter.Node, format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	line := int(n.StartPoint().Row) + 1
	msg := fmt.Sprintf(format, args...)
	c.err = errors.Newf(errors.ParseFailure, "line %d: %s", line, msg).AtLine(line)
}

func (c *converter) span(n *sitter.Node) Span {
	return Span{Start: int(n.StartPoint().Row) + 1, End: int(n.EndPoint().Row) + 1}
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

// named returns the named children of n, without comments.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// ---- statements ----

func (c *converter) block(n *sitter.Node) []Stmt {
	var out []Stmt
	for _, child := range named(n) {
		if s := c.stmt(child); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *converter) stmt(n *sitter.Node) Stmt {
	sp := c.span(n)
	switch n.Type() {
	case "function_definition":
		if isAsync(n) {
			c.fail(n, "async functions are not supported")
			return nil
		}
		return &FunctionDef{
			Span:   sp,
			Name:   c.text(n.ChildByFieldName("name")),
			Params: c.params(n.ChildByFieldName("parameters")),
			Body:   c.block(n.ChildByFieldName("body")),
		}

	case "expression_statement":
		kids := named(n)
		if len(kids) == 1 {
			switch kids[0].Type() {
			case "assignment":
				return c.assignment(kids[0])
			case "augmented_assignment":
				return c.augAssign(kids[0])
			}
			return &ExprStmt{Span: sp, X: c.expr(kids[0])}
		}
		return &ExprStmt{Span: sp, X: &Tuple{Span: sp, Elts: c.exprs(kids)}}

	case "return_statement":
		ret := &Return{Span: sp}
		if kids := named(n); len(kids) > 0 {
			ret.Value = c.expr(kids[0])
		}
		return ret

	case "if_statement":
		return c.ifStmt(n)

	case "for_statement":
		if isAsync(n) {
			c.fail(n, "async for is not supported")
			return nil
		}
		return &For{
			Span:   sp,
			Target: c.target(n.ChildByFieldName("left")),
			Iter:   c.expr(n.ChildByFieldName("right")),
			Body:   c.block(n.ChildByFieldName("body")),
			Else:   c.elseBlock(n.ChildByFieldName("alternative")),
		}

	case "while_statement":
		return &While{
			Span: sp,
			Cond: c.expr(n.ChildByFieldName("condition")),
			Body: c.block(n.ChildByFieldName("body")),
			Else: c.elseBlock(n.ChildByFieldName("alternative")),
		}

	case "pass_statement":
		return &Pass{Span: sp}
	case "break_statement":
		return &Break{Span: sp}
	case "continue_statement":
		return &Continue{Span: sp}

	case "delete_statement":
		del := &Delete{Span: sp}
		for _, kid := range named(n) {
			if kid.Type() == "expression_list" {
				del.Targets = append(del.Targets, c.exprs(named(kid))...)
				continue
			}
			del.Targets = append(del.Targets, c.expr(kid))
		}
		return del

	case "global_statement":
		return &Global{Span: sp, Names: c.identifiers(n)}
	case "nonlocal_statement":
		return &Nonlocal{Span: sp, Names: c.identifiers(n)}

	case "assert_statement":
		kids := named(n)
		if len(kids) == 0 {
			c.fail(n, "empty assert")
			return nil
		}
		a := &Assert{Span: sp, Test: c.expr(kids[0])}
		if len(kids) > 1 {
			a.Msg = c.expr(kids[1])
		}
		return a

	case "import_statement":
		imp := &Import{Span: sp}
		for _, kid := range named(n) {
			name := kid
			if kid.Type() == "aliased_import" {
				name = kid.ChildByFieldName("name")
			}
			imp.Names = append(imp.Names, c.text(name))
		}
		if len(imp.Names) > 0 {
			imp.Module = imp.Names[0]
		}
		return imp

	case "import_from_statement":
		mod := n.ChildByFieldName("module_name")
		imp := &Import{Span: sp, Module: c.text(mod), From: true}
		for _, kid := range named(n) {
			if mod != nil && kid.StartByte() == mod.StartByte() {
				continue
			}
			imp.Names = append(imp.Names, c.text(kid))
		}
		return imp

	case "future_import_statement":
		return &Import{Span: sp, Module: "__future__", From: true}

	case "print_statement":
		call := &Call{Span: sp, Func: &Name{Span: sp, ID: "print"}}
		for _, kid := range named(n) {
			if kid.Type() == "chevron" {
				c.fail(kid, "print redirection is not supported")
				return nil
			}
			call.Args = append(call.Args, c.expr(kid))
		}
		return &ExprStmt{Span: sp, X: call}

	case "exec_statement":
		call := &Call{Span: sp, Func: &Name{Span: sp, ID: "exec"}}
		if code := n.ChildByFieldName("code"); code != nil {
			call.Args = []Expr{c.expr(code)}
		}
		return &ExprStmt{Span: sp, X: call}

	case "class_definition":
		c.fail(n, "classes are not supported")
	case "decorated_definition":
		c.fail(n, "decorators are not supported")
	case "try_statement", "with_statement", "raise_statement", "match_statement":
		c.fail(n, "%s is not supported", strings.TrimSuffix(n.Type(), "_statement"))
	default:
		c.fail(n, "unsupported statement %s", n.Type())
	}
	return nil
}

func (c *converter) ifStmt(n *sitter.Node) Stmt {
	var alts []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && (child.Type() == "elif_clause" || child.Type() == "else_clause") {
			alts = append(alts, child)
		}
	}

	var orElse []Stmt
	end := int(n.EndPoint().Row) + 1
	for i := len(alts) - 1; i >= 0; i-- {
		alt := alts[i]
		if alt.Type() == "else_clause" {
			orElse = c.block(alt.ChildByFieldName("body"))
			continue
		}
		orElse = []Stmt{&If{
			Span: Span{Start: int(alt.StartPoint().Row) + 1, End: end},
			Cond: c.expr(alt.ChildByFieldName("condition")),
			Body: c.block(alt.ChildByFieldName("consequence")),
			Else: orElse,
		}}
	}

	return &If{
		Span: c.span(n),
		Cond: c.expr(n.ChildByFieldName("condition")),
		Body: c.block(n.ChildByFieldName("consequence")),
		Else: orElse,
	}
}

func (c *converter) elseBlock(n *sitter.Node) []Stmt {
	if n == nil {
		return nil
	}
	return c.block(n.ChildByFieldName("body"))
}

func (c *converter) assignment(n *sitter.Node) Stmt {
	as := &Assign{Span: c.span(n)}
	cur := n
	for {
		left := cur.ChildByFieldName("left")
		right := cur.ChildByFieldName("right")
		if right == nil {
			// bare annotation `x: int`
			if len(as.Targets) == 0 {
				return &Pass{Span: c.span(n)}
			}
			c.fail(cur, "incomplete assignment")
			return nil
		}
		as.Targets = append(as.Targets, c.target(left))
		if right.Type() == "assignment" {
			cur = right
			continue
		}
		as.Value = c.expr(right)
		return as
	}
}

func (c *converter) augAssign(n *sitter.Node) Stmt {
	op := n.ChildByFieldName("operator")
	return &AugAssign{
		Span:   c.span(n),
		Target: c.target(n.ChildByFieldName("left")),
		Op:     strings.TrimSuffix(c.text(op), "="),
		Value:  c.expr(n.ChildByFieldName("right")),
	}
}

func (c *converter) identifiers(n *sitter.Node) []string {
	var out []string
	for _, kid := range named(n) {
		out = append(out, c.text(kid))
	}
	return out
}

func (c *converter) params(n *sitter.Node) []*Param {
	var out []*Param
	for _, kid := range named(n) {
		p := &Param{Span: c.span(kid)}
		switch kid.Type() {
		case "identifier":
			p.Name = c.text(kid)
		case "default_parameter", "typed_default_parameter":
			p.Name = c.text(kid.ChildByFieldName("name"))
			p.Default = c.expr(kid.ChildByFieldName("value"))
		case "typed_parameter":
			inner := named(kid)
			if len(inner) == 0 {
				c.fail(kid, "malformed parameter")
				continue
			}
			p.Name, p.Kind = c.splatParam(inner[0])
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name, p.Kind = c.splatParam(kid)
		case "keyword_separator", "positional_separator":
			continue
		default:
			c.fail(kid, "unsupported parameter %s", kid.Type())
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *converter) splatParam(n *sitter.Node) (string, ParamKind) {
	switch n.Type() {
	case "list_splat_pattern":
		return c.text(firstNamed(n)), ParamVarArgs
	case "dictionary_splat_pattern":
		return c.text(firstNamed(n)), ParamKwArgs
	}
	return c.text(n), ParamPlain
}

// ---- expressions ----

func (c *converter) exprs(ns []*sitter.Node) []Expr {
	out := make([]Expr, 0, len(ns))
	for _, n := range ns {
		out = append(out, c.expr(n))
	}
	return out
}

// target converts an assignment or loop target.
func (c *converter) target(n *sitter.Node) Expr {
	if n == nil {
		return nil
	}
	e := c.expr(n)
	if !validTarget(e) {
		c.fail(n, "cannot assign to %s", n.Type())
	}
	return e
}

func validTarget(e Expr) bool {
	switch t := e.(type) {
	case nil:
		return true // conversion already failed
	case *Name, *Subscript, *Attribute:
		return true
	case *Starred:
		return validTarget(t.Value)
	case *Tuple:
		for _, el := range t.Elts {
			if !validTarget(el) {
				return false
			}
		}
		return true
	case *List:
		for _, el := range t.Elts {
			if !validTarget(el) {
				return false
			}
		}
		return true
	}
	return false
}

func (c *converter) expr(n *sitter.Node) Expr {
	if n == nil {
		return nil
	}
	sp := c.span(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &Name{Span: sp, ID: c.text(n)}

	case "integer":
		return c.integer(n)
	case "float":
		lit := strings.ReplaceAll(c.text(n), "_", "")
		if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
			c.fail(n, "complex numbers are not supported")
			return nil
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			c.fail(n, "invalid float literal %s", lit)
			return nil
		}
		return &Constant{Span: sp, Kind: ConstFloat, Float: f}

	case "string":
		return c.str(n)
	case "concatenated_string":
		return c.concatenated(n)

	case "true":
		return &Constant{Span: sp, Kind: ConstBool, Bool: true}
	case "false":
		return &Constant{Span: sp, Kind: ConstBool, Bool: false}
	case "none":
		return &Constant{Span: sp, Kind: ConstNone}

	case "list", "list_pattern":
		return &List{Span: sp, Elts: c.exprs(named(n))}
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return &Tuple{Span: sp, Elts: c.exprs(named(n))}
	case "set":
		return &Set{Span: sp, Elts: c.exprs(named(n))}
	case "dictionary":
		d := &Dict{Span: sp}
		for _, kid := range named(n) {
			if kid.Type() != "pair" {
				c.fail(kid, "unsupported dict entry %s", kid.Type())
				return nil
			}
			d.Keys = append(d.Keys, c.expr(kid.ChildByFieldName("key")))
			d.Values = append(d.Values, c.expr(kid.ChildByFieldName("value")))
		}
		return d

	case "parenthesized_expression":
		kids := named(n)
		if len(kids) != 1 {
			c.fail(n, "unsupported parenthesized expression")
			return nil
		}
		return c.expr(kids[0])

	case "binary_operator":
		return &BinOp{
			Span:  sp,
			Left:  c.expr(n.ChildByFieldName("left")),
			Op:    c.operator(n),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "unary_operator":
		return &UnaryOp{Span: sp, Op: c.operator(n), Operand: c.expr(n.ChildByFieldName("argument"))}
	case "not_operator":
		return &UnaryOp{Span: sp, Op: "not", Operand: c.expr(n.ChildByFieldName("argument"))}
	case "boolean_operator":
		return &BoolOp{
			Span:  sp,
			Op:    c.operator(n),
			Left:  c.expr(n.ChildByFieldName("left")),
			Right: c.expr(n.ChildByFieldName("right")),
		}
	case "comparison_operator":
		return c.compare(n)

	case "conditional_expression":
		kids := named(n)
		if len(kids) != 3 {
			c.fail(n, "malformed conditional expression")
			return nil
		}
		return &IfExp{Span: sp, Body: c.expr(kids[0]), Cond: c.expr(kids[1]), OrElse: c.expr(kids[2])}

	case "call":
		return c.call(n)
	case "attribute":
		return &Attribute{
			Span:  sp,
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.text(n.ChildByFieldName("attribute")),
		}
	case "subscript":
		kids := named(n)
		if len(kids) < 2 {
			c.fail(n, "malformed subscript")
			return nil
		}
		sub := &Subscript{Span: sp, Value: c.expr(kids[0])}
		if len(kids) == 2 {
			sub.Index = c.expr(kids[1])
		} else {
			sub.Index = &Tuple{Span: sp, Elts: c.exprs(kids[1:])}
		}
		return sub
	case "slice":
		return c.slice(n)

	case "lambda":
		return &Lambda{
			Span:   sp,
			Params: c.params(n.ChildByFieldName("parameters")),
			Body:   c.expr(n.ChildByFieldName("body")),
		}
	case "named_expression":
		return &NamedExpr{
			Span:   sp,
			Target: c.text(n.ChildByFieldName("name")),
			Value:  c.expr(n.ChildByFieldName("value")),
		}

	case "list_comprehension":
		return &ListComp{Span: sp, Elt: c.expr(n.ChildByFieldName("body")), Generators: c.generators(n)}
	case "set_comprehension":
		return &SetComp{Span: sp, Elt: c.expr(n.ChildByFieldName("body")), Generators: c.generators(n)}
	case "generator_expression":
		return &GeneratorExp{Span: sp, Elt: c.expr(n.ChildByFieldName("body")), Generators: c.generators(n)}
	case "dictionary_comprehension":
		pair := n.ChildByFieldName("body")
		if pair == nil || pair.Type() != "pair" {
			c.fail(n, "malformed dict comprehension")
			return nil
		}
		return &DictComp{
			Span:       sp,
			Key:        c.expr(pair.ChildByFieldName("key")),
			Value:      c.expr(pair.ChildByFieldName("value")),
			Generators: c.generators(n),
		}

	case "list_splat", "list_splat_pattern":
		return &Starred{Span: sp, Value: c.expr(firstNamed(n))}

	case "await", "yield", "ellipsis", "dictionary_splat":
		c.fail(n, "%s is not supported", n.Type())
	default:
		c.fail(n, "unsupported expression %s", n.Type())
	}
	return nil
}

// operator returns the token of a node's operator field.
func (c *converter) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func (c *converter) integer(n *sitter.Node) Expr {
	sp := c.span(n)
	lit := strings.ReplaceAll(c.text(n), "_", "")
	lit = strings.TrimRight(lit, "lL")
	if strings.HasSuffix(lit, "j") || strings.HasSuffix(lit, "J") {
		c.fail(n, "complex numbers are not supported")
		return nil
	}
	if v, err := strconv.ParseInt(lit, 0, 64); err == nil {
		return &Constant{Span: sp, Kind: ConstInt, Int: v}
	}
	// out of int64 range: keep the magnitude as a float
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return &Constant{Span: sp, Kind: ConstFloat, Float: f}
	}
	c.fail(n, "invalid integer literal %s", lit)
	return nil
}

func (c *converter) compare(n *sitter.Node) Expr {
	cmp := &Compare{Span: c.span(n)}
	var operands []Expr
	var pending string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if child.IsNamed() {
			operands = append(operands, c.expr(child))
			continue
		}
		tok := child.Type()
		switch {
		case pending == "not" && tok == "in":
			cmp.Ops = append(cmp.Ops, "not in")
			pending = ""
		case pending == "is" && tok == "not":
			cmp.Ops = append(cmp.Ops, "is not")
			pending = ""
		case tok == "not" || tok == "is":
			if pending != "" {
				cmp.Ops = append(cmp.Ops, pending)
			}
			pending = tok
		default:
			if pending != "" {
				cmp.Ops = append(cmp.Ops, pending)
				pending = ""
			}
			if tok == "<>" {
				tok = "!="
			}
			cmp.Ops = append(cmp.Ops, tok)
		}
	}
	if pending != "" {
		cmp.Ops = append(cmp.Ops, pending)
	}
	if len(operands) < 2 || len(cmp.Ops) != len(operands)-1 {
		c.fail(n, "malformed comparison")
		return nil
	}
	cmp.Left = operands[0]
	cmp.Comparators = operands[1:]
	return cmp
}

func (c *converter) call(n *sitter.Node) Expr {
	call := &Call{Span: c.span(n), Func: c.expr(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	if args.Type() == "generator_expression" {
		call.Args = []Expr{c.expr(args)}
		return call
	}
	for _, kid := range named(args) {
		switch kid.Type() {
		case "keyword_argument":
			call.Keywords = append(call.Keywords, &Keyword{
				Name:  c.text(kid.ChildByFieldName("name")),
				Value: c.expr(kid.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			c.fail(kid, "keyword argument unpacking is not supported")
		default:
			call.Args = append(call.Args, c.expr(kid))
		}
	}
	return call
}

func (c *converter) slice(n *sitter.Node) Expr {
	s := &Slice{Span: c.span(n)}
	colons := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if !child.IsNamed() {
			if child.Type() == ":" {
				colons++
			}
			continue
		}
		e := c.expr(child)
		switch colons {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s
}

func (c *converter) generators(n *sitter.Node) []*Comprehension {
	var gens []*Comprehension
	for _, kid := range named(n) {
		switch kid.Type() {
		case "for_in_clause":
			if isAsync(kid) {
				c.fail(kid, "async comprehensions are not supported")
				return nil
			}
			gens = append(gens, &Comprehension{
				Target: c.target(kid.ChildByFieldName("left")),
				Iter:   c.expr(kid.ChildByFieldName("right")),
			})
		case "if_clause":
			if len(gens) == 0 {
				c.fail(kid, "if clause before for clause")
				return nil
			}
			last := gens[len(gens)-1]
			last.Ifs = append(last.Ifs, c.expr(firstNamed(kid)))
		}
	}
	if len(gens) == 0 {
		c.fail(n, "comprehension without a for clause")
	}
	return gens
}

// ---- strings ----

func (c *converter) str(n *sitter.Node) Expr {
	sp := c.span(n)
	text := c.text(n)
	lit, err := splitStringLiteral(text)
	if err != nil {
		c.fail(n, "%v", err)
		return nil
	}
	if !lit.format {
		return &Constant{Span: sp, Kind: ConstStr, Str: decodeSegment(text[lit.bodyStart:lit.bodyEnd], lit)}
	}

	js := &JoinedStr{Span: sp}
	base := int(n.StartByte())
	pos := lit.bodyStart
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() != "interpolation" {
			continue
		}
		start, end := int(child.StartByte())-base, int(child.EndByte())-base
		if start > pos {
			js.Values = append(js.Values, &Constant{Span: sp, Kind: ConstStr, Str: decodeSegment(text[pos:start], lit)})
		}
		if fv := c.interpolation(child); fv != nil {
			js.Values = append(js.Values, fv)
		}
		pos = end
	}
	if pos < lit.bodyEnd {
		js.Values = append(js.Values, &Constant{Span: sp, Kind: ConstStr, Str: decodeSegment(text[pos:lit.bodyEnd], lit)})
	}
	return js
}

func (c *converter) interpolation(n *sitter.Node) *FormattedValue {
	fv := &FormattedValue{Span: c.span(n)}
	expr := n.ChildByFieldName("expression")
	for _, kid := range named(n) {
		switch kid.Type() {
		case "type_conversion":
			conv := strings.TrimPrefix(c.text(kid), "!")
			if conv != "" {
				fv.Conversion = conv[0]
			}
		case "format_specifier":
			spec := strings.TrimPrefix(c.text(kid), ":")
			if strings.ContainsRune(spec, '{') {
				c.fail(kid, "nested format specifiers are not supported")
				return nil
			}
			fv.Spec = spec
		default:
			if expr == nil {
				expr = kid
			}
		}
	}
	if expr == nil {
		c.fail(n, "empty f-string field")
		return nil
	}
	fv.Value = c.expr(expr)
	return fv
}

func (c *converter) concatenated(n *sitter.Node) Expr {
	sp := c.span(n)
	var parts []Expr
	allConst := true
	for _, kid := range named(n) {
		e := c.expr(kid)
		if e == nil {
			return nil
		}
		if js, ok := e.(*JoinedStr); ok {
			allConst = false
			parts = append(parts, js.Values...)
			continue
		}
		parts = append(parts, e)
	}
	if !allConst {
		return &JoinedStr{Span: sp, Values: parts}
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.(*Constant).Str)
	}
	return &Constant{Span: sp, Kind: ConstStr, Str: b.String()}
}

// ---- helpers ----

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func isAsync(n *sitter.Node) bool {
	if n.ChildCount() == 0 {
		return false
	}
	first := n.Child(0)
	return first != nil && first.Type() == "async"
}
