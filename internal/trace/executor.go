package trace

import (
	"context"
	"log/slog"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/fallback"
	"algoscope/internal/pyast"
	"algoscope/internal/sandbox"
	"algoscope/internal/slogutil"
)

// Executor names reported in an Outcome.
const (
	ExecutorTraced = "traced"
	ExecutorSimple = "simple"
	ExecutorSource = "source"
)

// Outcome is the step sequence of one execution together with the run result.
type Outcome struct {
	Steps     []Step
	Truncated bool
	// Executor names the tier that produced Steps
	Executor string
	// Run is the sandbox result of the run that produced Steps, nil when no run succeeded
	Run *sandbox.Result
	// RunErr is the absorbed execution error that forced a fallback, if any
	RunErr error
	// Attempts lists the tiers that failed before Executor
	Attempts []fallback.Attempt
}

type request struct {
	prog  *pyast.Program
	input map[string]interface{}
}

// Executor runs a program traced and falls back to the Simple Executor when
// tracing is unavailable or the traced run fails. Security violations, timeouts
// and recursion overflows end the chain with zero steps.
type Executor struct {
	sandbox *sandbox.Sandbox
	cfg     config.TraceConfig
	ladder  *fallback.Ladder[request, *Outcome]
	logger  *slog.Logger
}

// NewExecutor creates the tiered executor over a sandbox.
func NewExecutor(sb *sandbox.Sandbox, cfg config.TraceConfig, logger *slog.Logger) *Executor {
	e := &Executor{
		sandbox: sb,
		cfg:     cfg,
		logger:  slogutil.ForComponent(logger, "trace"),
	}
	traced := fallback.Func[request, *Outcome]{ID: ExecutorTraced, Fn: e.traced}
	simple := fallback.Func[request, *Outcome]{ID: ExecutorSimple, Fn: e.simple}
	e.ladder = fallback.New[request, *Outcome]("executor", logger, traced, simple).
		StopOn(errors.IsUserVisible)
	return e
}

// Execute produces the step sequence for prog run on input.
func (e *Executor) Execute(ctx context.Context, prog *pyast.Program, input map[string]interface{}) (*Outcome, error) {
	res, err := e.ladder.Run(ctx, request{prog: prog, input: input})
	if err != nil {
		e.logger.Warn("Execution produced no steps",
			"code", string(errors.Code(err)),
			"error", err.Error())
		return &Outcome{Attempts: res.Failed}, err
	}
	out := res.Value
	if out.Executor == "" {
		out.Executor = res.Provider
	}
	out.Attempts = res.Failed
	for _, a := range res.Failed {
		if out.RunErr == nil && errors.Is(a.Err, errors.ExecutionError) {
			out.RunErr = a.Err
		}
	}
	e.logger.Debug("Execution traced",
		"executor", out.Executor,
		"steps", len(out.Steps),
		"truncated", out.Truncated)
	return out, nil
}

func (e *Executor) traced(ctx context.Context, req request) (*Outcome, error) {
	target := ""
	if fn := req.prog.TargetFunction(); fn != nil {
		target = fn.Name
	}
	t := NewTracer(req.prog, target, TracerOptions{
		MaxSteps:        e.cfg.MaxSteps,
		MinVisibleSteps: e.cfg.MinVisibleSteps,
	})
	run, err := e.sandbox.RunTraced(ctx, req.prog, req.input, t)
	if err != nil {
		t.Discard()
		return nil, err
	}
	if t.Truncated() {
		e.logger.Info("Trace truncated",
			"maxSteps", e.cfg.MaxSteps)
	}
	return &Outcome{Steps: t.Steps(), Truncated: t.Truncated(), Run: run}, nil
}

// simple runs the program untraced for its side effects and derives steps from
// the target's structure, or from the raw source when even that run fails.
func (e *Executor) simple(ctx context.Context, req request) (*Outcome, error) {
	run, err := e.sandbox.Run(ctx, req.prog, req.input)
	if err != nil {
		if errors.IsUserVisible(err) {
			return nil, err
		}
		e.logger.Warn("Untraced run failed, deriving steps from source",
			"error", err.Error())
		target := ""
		if fn := req.prog.TargetFunction(); fn != nil {
			target = fn.Name
		}
		return &Outcome{
			Steps:    SourceSteps(req.prog, target),
			Executor: ExecutorSource,
			RunErr:   err,
		}, nil
	}
	return &Outcome{
		Steps: StaticSteps(req.prog, req.input, e.cfg.SimpleStepCap),
		Run:   run,
	}, nil
}
