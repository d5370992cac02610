// Package pyast parses learner programs written in a Python subset into a small typed syntax tree.
//
// The tree-sitter Python grammar does the parsing; its concrete syntax tree is converted once
// into the node types below, which downstream packages read but never mutate.
package pyast

// Node is any syntax tree node. Lines are 1-based.
type Node interface {
	Line() int
	LastLine() int
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Span records the source lines covered by a node.
type Span struct {
	Start int
	End   int
}

// Line returns the first line of the node.
func (s Span) Line() int { return s.Start }

// LastLine returns the last line of the node.
func (s Span) LastLine() int { return s.End }

// ParamKind distinguishes plain, *args and **kwargs parameters.
type ParamKind int

const (
	ParamPlain ParamKind = iota
	ParamVarArgs
	ParamKwArgs
)

// Param is one function or lambda parameter.
type Param struct {
	Span
	Name    string
	Default Expr
	Kind    ParamKind
}

// ---- statements ----

type (
	// FunctionDef is a def statement.
	FunctionDef struct {
		Span
		Name   string
		Params []*Param
		Body   []Stmt
	}

	// Return is a return statement; Value is nil for a bare return.
	Return struct {
		Span
		Value Expr
	}

	// Assign is `t1 = t2 = value`. Targets holds every target left to right.
	Assign struct {
		Span
		Targets []Expr
		Value   Expr
	}

	// AugAssign is `target op= value`; Op is the binary operator without "=".
	AugAssign struct {
		Span
		Target Expr
		Op     string
		Value  Expr
	}

	// ExprStmt is an expression evaluated for its side effects.
	ExprStmt struct {
		Span
		X Expr
	}

	// If is an if statement. An elif chain is a nested If as the only Else statement.
	If struct {
		Span
		Cond Expr
		Body []Stmt
		Else []Stmt
	}

	// For is a for loop with an optional else block.
	For struct {
		Span
		Target Expr
		Iter   Expr
		Body   []Stmt
		Else   []Stmt
	}

	// While is a while loop with an optional else block.
	While struct {
		Span
		Cond Expr
		Body []Stmt
		Else []Stmt
	}

	// Break is a break statement.
	Break struct{ Span }

	// Continue is a continue statement.
	Continue struct{ Span }

	// Pass is a pass statement, also used for bare annotations.
	Pass struct{ Span }

	// Delete is a del statement.
	Delete struct {
		Span
		Targets []Expr
	}

	// Global declares module-level names inside a function.
	Global struct {
		Span
		Names []string
	}

	// Nonlocal declares enclosing-function names inside a nested function.
	Nonlocal struct {
		Span
		Names []string
	}

	// Assert raises AssertionError when Test is falsy.
	Assert struct {
		Span
		Test Expr
		Msg  Expr
	}

	// Import is `import a.b` or `from a import b`. It is kept in the tree so
	// that validation can reject it.
	Import struct {
		Span
		Module string
		Names  []string
		From   bool
	}
)

// ---- expressions ----

// ConstKind is the kind of a literal constant.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstStr
)

type (
	// Name is an identifier reference.
	Name struct {
		Span
		ID string
	}

	// Constant is a literal. Only the field matching Kind is meaningful.
	Constant struct {
		Span
		Kind  ConstKind
		Bool  bool
		Int   int64
		Float float64
		Str   string
	}

	// JoinedStr is an f-string; Values are string Constants and FormattedValues.
	JoinedStr struct {
		Span
		Values []Expr
	}

	// FormattedValue is one `{expr!conv:spec}` field of an f-string.
	FormattedValue struct {
		Span
		Value      Expr
		Conversion byte
		Spec       string
	}

	// List is a list display.
	List struct {
		Span
		Elts []Expr
	}

	// Tuple is a tuple display or an unparenthesized expression list.
	Tuple struct {
		Span
		Elts []Expr
	}

	// Set is a set display.
	Set struct {
		Span
		Elts []Expr
	}

	// Dict is a dict display.
	Dict struct {
		Span
		Keys   []Expr
		Values []Expr
	}

	// Starred is `*value` inside a call, display or assignment target.
	Starred struct {
		Span
		Value Expr
	}

	// BinOp is an arithmetic or bitwise binary operation.
	BinOp struct {
		Span
		Left  Expr
		Op    string
		Right Expr
	}

	// UnaryOp is `-x`, `+x`, `~x` or `not x`.
	UnaryOp struct {
		Span
		Op      string
		Operand Expr
	}

	// BoolOp is `left and right` or `left or right`.
	BoolOp struct {
		Span
		Op    string
		Left  Expr
		Right Expr
	}

	// Compare is a possibly chained comparison `left op1 c1 op2 c2 ...`.
	Compare struct {
		Span
		Left        Expr
		Ops         []string
		Comparators []Expr
	}

	// Keyword is a `name=value` call argument.
	Keyword struct {
		Name  string
		Value Expr
	}

	// Call is a function call.
	Call struct {
		Span
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
	}

	// Attribute is `value.attr`.
	Attribute struct {
		Span
		Value Expr
		Attr  string
	}

	// Subscript is `value[index]`; Index may be a Slice.
	Subscript struct {
		Span
		Value Expr
		Index Expr
	}

	// Slice is `lower:upper:step`; absent parts are nil.
	Slice struct {
		Span
		Lower Expr
		Upper Expr
		Step  Expr
	}

	// IfExp is `body if cond else orelse`.
	IfExp struct {
		Span
		Cond   Expr
		Body   Expr
		OrElse Expr
	}

	// Lambda is an anonymous function.
	Lambda struct {
		Span
		Params []*Param
		Body   Expr
	}

	// NamedExpr is `target := value`.
	NamedExpr struct {
		Span
		Target string
		Value  Expr
	}

	// Comprehension is one `for target in iter if cond...` clause.
	Comprehension struct {
		Target Expr
		Iter   Expr
		Ifs    []Expr
	}

	// ListComp is a list comprehension.
	ListComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	// SetComp is a set comprehension.
	SetComp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}

	// DictComp is a dict comprehension.
	DictComp struct {
		Span
		Key        Expr
		Value      Expr
		Generators []*Comprehension
	}

	// GeneratorExp is a generator expression. It is evaluated eagerly.
	GeneratorExp struct {
		Span
		Elt        Expr
		Generators []*Comprehension
	}
)

func (*FunctionDef) stmtNode() {}
func (*Return) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Delete) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}

func (*Name) exprNode()           {}
func (*Constant) exprNode()       {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}
func (*List) exprNode()           {}
func (*Tuple) exprNode()          {}
func (*Set) exprNode()            {}
func (*Dict) exprNode()           {}
func (*Starred) exprNode()        {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*Call) exprNode()           {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Slice) exprNode()          {}
func (*IfExp) exprNode()          {}
func (*Lambda) exprNode()         {}
func (*NamedExpr) exprNode()      {}
func (*ListComp) exprNode()       {}
func (*SetComp) exprNode()        {}
func (*DictComp) exprNode()       {}
func (*GeneratorExp) exprNode()   {}
