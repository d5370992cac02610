package interp

import (
	"context"
	"io"

	"algoscope/internal/pyast"
)

// DefaultMaxDepth matches CPython's default recursion limit.
const DefaultMaxDepth = 1000

// Options configures an interpreter.
type Options struct {
	// MaxDepth is the deepest call nesting before RecursionError; 0 selects DefaultMaxDepth
	MaxDepth int
	Hooks    Hooks
	// Stdout receives print output; nil discards it
	Stdout io.Writer
	// Builtins replaces the builtin namespace; nil selects Builtins()
	Builtins map[string]Value
}

// Interp executes one program. It is not safe for concurrent use.
type Interp struct {
	maxDepth int
	hooks    Hooks
	stdout   io.Writer
	builtins map[string]Value

	module *scope
	infos  map[pyast.Node]*scopeInfo
	calls  map[string]int
	depth  int

	// done is the cancellation channel of the run in progress
	ctx  context.Context
	done <-chan struct{}
}

// New creates an interpreter with an empty module namespace.
func New(opts Options) *Interp {
	in := &Interp{
		maxDepth: opts.MaxDepth,
		hooks:    opts.Hooks,
		stdout:   opts.Stdout,
		builtins: opts.Builtins,
		module:   newScope(nil, nil),
		infos:    make(map[pyast.Node]*scopeInfo),
		calls:    make(map[string]int),
	}
	if in.maxDepth <= 0 {
		in.maxDepth = DefaultMaxDepth
	}
	if in.hooks == nil {
		in.hooks = noHooks{}
	}
	if in.stdout == nil {
		in.stdout = io.Discard
	}
	if in.builtins == nil {
		in.builtins = Builtins()
	}
	return in
}

func (in *Interp) bind(ctx context.Context) func() {
	prev, prevDone := in.ctx, in.done
	in.ctx, in.done = ctx, ctx.Done()
	return func() { in.ctx, in.done = prev, prevDone }
}

// tick returns the context error once the run is cancelled.
func (in *Interp) tick() error {
	select {
	case <-in.done:
		return in.ctx.Err()
	default:
		return nil
	}
}

// ExecModule runs the program's top-level statements. Runtime errors are returned
// as *Exception; cancellation returns the context's error.
func (in *Interp) ExecModule(ctx context.Context, prog *pyast.Program) error {
	defer in.bind(ctx)()
	frame := &Frame{Function: "<module>", scope: in.module}
	in.hooks.Call(frame)
	c, err := in.execBlock(frame, prog.Body)
	if err != nil {
		return err
	}
	if c == ctrlReturn {
		return raise("SyntaxError", "'return' outside function")
	}
	in.hooks.Return(frame, None)
	return nil
}

// Call invokes a callable with positional and keyword arguments.
func (in *Interp) Call(ctx context.Context, fn Value, args []Value, kwargs []Kwarg) (Value, error) {
	defer in.bind(ctx)()
	return in.call(fn, args, kwargs)
}

// Global returns a module-level variable.
func (in *Interp) Global(name string) (Value, bool) {
	v, ok := in.module.vars[name]
	return v, ok
}

// SetGlobal binds a module-level variable.
func (in *Interp) SetGlobal(name string, v Value) {
	in.module.set(name, v)
}

// CallCount returns how many times functions named name have been called.
func (in *Interp) CallCount(name string) int {
	return in.calls[name]
}

func (in *Interp) scopeInfo(key pyast.Node, params []*pyast.Param, body []pyast.Stmt) *scopeInfo {
	if info, ok := in.infos[key]; ok {
		return info
	}
	info := analyzeScope(params, body)
	in.infos[key] = info
	return info
}
