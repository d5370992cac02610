package pyast

import "strings"

// Program is a parsed learner submission. It is immutable once built.
type Program struct {
	Body   []Stmt
	Source []byte
	lines  []string
}

// NewProgram wraps an already converted body together with its source text.
func NewProgram(body []Stmt, source []byte) *Program {
	text := strings.ReplaceAll(string(source), "\r\n", "\n")
	return &Program{
		Body:   body,
		Source: source,
		lines:  strings.Split(text, "\n"),
	}
}

// Line returns the raw text of 1-based line n, or "" when n is out of range.
func (p *Program) Line(n int) string {
	if n < 1 || n > len(p.lines) {
		return ""
	}
	return p.lines[n-1]
}

// Lines returns all source lines.
func (p *Program) Lines() []string {
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// Functions returns the module-level function definitions in source order.
func (p *Program) Functions() []*FunctionDef {
	var out []*FunctionDef
	for _, s := range p.Body {
		if fn, ok := s.(*FunctionDef); ok {
			out = append(out, fn)
		}
	}
	return out
}

// TargetFunction returns the first module-level function, which is the
// function a submission is judged by. It is nil for a script with no def.
func (p *Program) TargetFunction() *FunctionDef {
	fns := p.Functions()
	if len(fns) == 0 {
		return nil
	}
	return fns[0]
}

// Inspect walks every statement of the program.
func (p *Program) Inspect(f func(Node) bool) {
	InspectAll(p.Body, f)
}

// CalleeName returns the called name of a call: `f` for f(x) and `append` for xs.append(x).
func CalleeName(c *Call) string {
	switch fn := c.Func.(type) {
	case *Name:
		return fn.ID
	case *Attribute:
		return fn.Attr
	}
	return ""
}

// BaseName returns the identifier at the root of a name, attribute or subscript chain:
// `dp` for dp[i][j], `node` for node.left.val.
func BaseName(e Expr) string {
	for {
		switch x := e.(type) {
		case *Name:
			return x.ID
		case *Subscript:
			e = x.Value
		case *Attribute:
			e = x.Value
		default:
			return ""
		}
	}
}

// TargetNames returns every identifier bound by an assignment target, descending into
// tuple and list unpacking.
func TargetNames(e Expr) []string {
	switch x := e.(type) {
	case *Name:
		return []string{x.ID}
	case *Tuple:
		var out []string
		for _, el := range x.Elts {
			out = append(out, TargetNames(el)...)
		}
		return out
	case *List:
		var out []string
		for _, el := range x.Elts {
			out = append(out, TargetNames(el)...)
		}
		return out
	case *Starred:
		return TargetNames(x.Value)
	}
	return nil
}

// Mentions reports whether the identifier name occurs anywhere inside e.
func Mentions(e Expr, name string) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if found {
			return false
		}
		if id, ok := n.(*Name); ok && id.ID == name {
			found = true
		}
		return true
	})
	return found
}
