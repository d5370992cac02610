//go:build !cgo

package pyast

import (
	"context"
	stderrors "errors"

	"algoscope/internal/errors"
)

// ErrNoCGO is returned when parsing is unavailable due to missing CGO.
var ErrNoCGO = stderrors.New("python parsing requires CGO (tree-sitter)")

// Parser wraps tree-sitter parsing functionality.
// This is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new tree-sitter parser.
// Returns nil when CGO is disabled.
func NewParser() *Parser {
	return nil
}

// Parse returns a ParseFailure wrapping ErrNoCGO.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Program, error) {
	return nil, errors.New(errors.ParseFailure, "parser unavailable", ErrNoCGO)
}

// Parse returns a ParseFailure wrapping ErrNoCGO.
func Parse(ctx context.Context, source []byte) (*Program, error) {
	return nil, errors.New(errors.ParseFailure, "parser unavailable", ErrNoCGO)
}

// MustParse panics; parsing needs CGO.
func MustParse(source string) *Program {
	panic(ErrNoCGO)
}

// IsAvailable returns whether parsing is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
