//go:build cgo

package pyast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"algoscope/internal/errors"
)

// Parser wraps a tree-sitter parser configured for Python. A Parser is not safe
// for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source and converts it into a Program. Syntax errors and constructs
// outside the supported subset are reported as a ParseFailure.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Program, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.New(errors.ParseFailure, "parse error", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		bad := firstErrorNode(root)
		line := 0
		if bad != nil {
			line = int(bad.StartPoint().Row) + 1
		}
		return nil, errors.Newf(errors.ParseFailure, "syntax error near line %d", line).AtLine(line)
	}

	c := &converter{src: source}
	body := c.block(root)
	if c.err != nil {
		return nil, c.err
	}
	return NewProgram(body, source), nil
}

// Parse parses source with a fresh parser.
func Parse(ctx context.Context, source []byte) (*Program, error) {
	return NewParser().Parse(ctx, source)
}

// MustParse parses source and panics on failure. Intended for tests and fixtures.
func MustParse(source string) *Program {
	prog, err := Parse(context.Background(), []byte(source))
	if err != nil {
		panic(fmt.Sprintf("pyast.MustParse: %v", err))
	}
	return prog
}

// firstErrorNode finds the first ERROR or MISSING node in document order.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			if found := firstErrorNode(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// IsAvailable returns whether parsing is available.
// Returns true when CGO is enabled.
func IsAvailable() bool {
	return true
}
