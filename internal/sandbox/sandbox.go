// Package sandbox runs validated learner programs inside the restricted interpreter,
// bounded by a time budget and a recursion limit.
package sandbox

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/interp"
	"algoscope/internal/pyast"
	"algoscope/internal/slogutil"
)

// allowedBuiltins is the complete builtin namespace of a sandboxed run.
var allowedBuiltins = []string{
	"len", "range", "enumerate", "max", "min", "sum",
	"int", "float", "str", "bool", "list", "dict", "set", "tuple",
	"abs", "round", "sorted", "reversed", "zip", "all", "any",
	"print",
}

// AllowedBuiltins returns the builtin names visible to sandboxed code.
func AllowedBuiltins() []string {
	out := make([]string, len(allowedBuiltins))
	copy(out, allowedBuiltins)
	return out
}

// Namespace returns a fresh builtin namespace holding only the allowed builtins.
// print writes to the interpreter's Stdout, which the sandbox points at a per-run buffer.
func Namespace() map[string]interp.Value {
	return interp.BuiltinsNamed(allowedBuiltins...)
}

// Result is the outcome of one run.
type Result struct {
	// Return is the target function's return value when the sandbox called it
	Return interp.Value
	// Output is everything the program printed
	Output string
	// Target names the target function, empty for a script without one
	Target string
	// AutoCalled is set when the module body did not call the target itself
	AutoCalled bool
	Duration   time.Duration
}

// Sandbox executes programs. Untraced runs may proceed concurrently; traced runs
// are serialized through a guard and a second one fails fast.
type Sandbox struct {
	timeout  time.Duration
	mode     string
	maxDepth int
	tracing  sync.Mutex
	logger   *slog.Logger
}

// New creates a sandbox from its configuration section. Zero values select the
// interrupt timeout mode and the interpreter's default depth limit.
func New(cfg config.SandboxConfig, logger *slog.Logger) *Sandbox {
	mode := cfg.TimeoutMode
	if mode != config.TimeoutModeTimer {
		mode = config.TimeoutModeInterrupt
	}
	return &Sandbox{
		timeout:  time.Duration(cfg.TimeoutSeconds * float64(time.Second)),
		mode:     mode,
		maxDepth: cfg.MaxCallDepth,
		logger:   slogutil.ForComponent(logger, "sandbox"),
	}
}

// Timeout returns the per-run budget; zero means unbounded.
func (s *Sandbox) Timeout() time.Duration {
	return s.timeout
}

// Mode returns the timeout mode in effect.
func (s *Sandbox) Mode() string {
	return s.mode
}

// Run validates and executes prog with input bound to the target function's parameters.
func (s *Sandbox) Run(ctx context.Context, prog *pyast.Program, input map[string]interface{}) (*Result, error) {
	return s.run(ctx, prog, input, nil)
}

// RunTraced is Run with interpreter hooks installed. Only one traced run may be in
// flight per sandbox; a concurrent caller gets TracingUnavailable.
func (s *Sandbox) RunTraced(ctx context.Context, prog *pyast.Program, input map[string]interface{}, hooks interp.Hooks) (*Result, error) {
	if hooks == nil {
		return nil, errors.New(errors.InternalError, "traced run without hooks", nil)
	}
	if !s.tracing.TryLock() {
		s.logger.Warn("Traced run rejected, another is in progress")
		return nil, errors.New(errors.TracingUnavailable, "another traced run is in progress", nil)
	}
	defer s.tracing.Unlock()
	return s.run(ctx, prog, input, hooks)
}

func (s *Sandbox) run(ctx context.Context, prog *pyast.Program, input map[string]interface{}, hooks interp.Hooks) (*Result, error) {
	if err := Validate(prog); err != nil {
		s.logger.Warn("Program rejected",
			"error", err.Error())
		return nil, err
	}

	var out bytes.Buffer
	in := interp.New(interp.Options{
		MaxDepth: s.maxDepth,
		Hooks:    hooks,
		Stdout:   &out,
		Builtins: Namespace(),
	})

	runCtx, expired, stop := s.budget(ctx)
	defer stop()

	res := &Result{}
	start := time.Now()
	err := execute(runCtx, in, prog, input, res)
	res.Output = out.String()
	res.Duration = time.Since(start)

	if expired(err) {
		s.logger.Warn("Run exceeded time budget",
			"timeout", s.timeout.String(),
			"mode", s.mode)
		return res, errors.Newf(errors.TimeoutExceeded, "Code execution timed out after %s", s.timeout).
			WithDetails(map[string]interface{}{"seconds": s.timeout.Seconds()})
	}
	if err != nil {
		err = s.classify(err)
		s.logger.Debug("Run failed",
			"target", res.Target,
			"code", string(errors.Code(err)),
			"error", err.Error())
		return res, err
	}

	s.logger.Debug("Run finished",
		"target", res.Target,
		"autoCalled", res.AutoCalled,
		"traced", hooks != nil,
		"duration", res.Duration.String())
	return res, nil
}

// budget applies the run's time limit. In interrupt mode the interpreter sees a
// deadline and aborts mid-run. In timer mode a background timer only raises a flag
// that is inspected once the run has returned.
func (s *Sandbox) budget(ctx context.Context) (context.Context, func(error) bool, func()) {
	deadline := func(err error) bool { return stderrors.Is(err, context.DeadlineExceeded) }
	if s.timeout <= 0 {
		return ctx, deadline, func() {}
	}
	if s.mode == config.TimeoutModeTimer {
		var fired atomic.Bool
		t := time.AfterFunc(s.timeout, func() { fired.Store(true) })
		expired := func(err error) bool { return fired.Load() || deadline(err) }
		return ctx, expired, func() { t.Stop() }
	}
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	return runCtx, deadline, cancel
}

// execute runs the module body, then the target function unless the body already called it.
func execute(ctx context.Context, in *interp.Interp, prog *pyast.Program, input map[string]interface{}, res *Result) error {
	if err := in.ExecModule(ctx, prog); err != nil {
		return err
	}
	fn := prog.TargetFunction()
	if fn == nil {
		return nil
	}
	res.Target = fn.Name
	if in.CallCount(fn.Name) > 0 {
		return nil
	}
	callable, ok := in.Global(fn.Name)
	if !ok {
		return nil
	}
	kwargs, err := bindInput(fn, input)
	if err != nil {
		return err
	}
	res.AutoCalled = true
	v, err := in.Call(ctx, callable, nil, kwargs)
	if err != nil {
		return err
	}
	res.Return = v
	return nil
}

// bindInput maps input_data onto the target's parameters by name, in parameter
// order. Keys without a parameter are dropped unless the function takes **kwargs.
func bindInput(fn *pyast.FunctionDef, input map[string]interface{}) ([]interp.Kwarg, error) {
	var kwargs []interp.Kwarg
	used := make(map[string]bool, len(fn.Params))
	acceptsExtra := false
	for _, p := range fn.Params {
		switch p.Kind {
		case pyast.ParamVarArgs:
			continue
		case pyast.ParamKwArgs:
			acceptsExtra = true
			continue
		}
		used[p.Name] = true
		raw, ok := input[p.Name]
		if !ok {
			if p.Default != nil {
				continue
			}
			return nil, errors.Newf(errors.ExecutionError, "no input value for parameter '%s' of %s()", p.Name, fn.Name).AtLine(fn.Line())
		}
		v, err := interp.FromGo(raw)
		if err != nil {
			return nil, errors.New(errors.ExecutionError, "input for parameter '"+p.Name+"': "+err.Error(), err).AtLine(fn.Line())
		}
		kwargs = append(kwargs, interp.Kwarg{Name: p.Name, Value: v})
	}
	if !acceptsExtra {
		return kwargs, nil
	}
	extra := make(map[string]interface{})
	for k, raw := range input {
		if !used[k] {
			extra[k] = raw
		}
	}
	if len(extra) == 0 {
		return kwargs, nil
	}
	d, err := interp.FromGo(extra)
	if err != nil {
		return nil, errors.New(errors.ExecutionError, "input: "+err.Error(), err).AtLine(fn.Line())
	}
	for _, e := range d.(*interp.Dict).Entries() {
		kwargs = append(kwargs, interp.Kwarg{Name: string(e.Key.(interp.Str)), Value: e.Value})
	}
	return kwargs, nil
}

// classify maps interpreter failures onto error codes.
func (s *Sandbox) classify(err error) error {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return err
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.New(errors.ExecutionError, "execution cancelled", err)
	}
	var exc *interp.Exception
	if stderrors.As(err, &exc) {
		if exc.Type == "RecursionError" {
			return errors.New(errors.RecursionOverflow, "Code execution caused infinite recursion", err).AtLine(exc.Line)
		}
		return errors.Newf(errors.ExecutionError, "Execution error: %s: %s", exc.Type, exc.Message).
			AtLine(exc.Line).
			WithDetails(map[string]interface{}{"exception": exc.Type})
	}
	return errors.New(errors.ExecutionError, "Execution error: "+err.Error(), err)
}
