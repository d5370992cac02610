package trace

import (
	"strings"

	"algoscope/internal/interp"
	"algoscope/internal/pyast"
)

// Default limits, matching the trace section of the configuration.
const (
	DefaultMaxSteps        = 10000
	DefaultMinVisibleSteps = 10
)

// TracerOptions bounds what a Tracer records.
type TracerOptions struct {
	// MaxSteps caps the recorded steps; later steps only mark the trace truncated
	MaxSteps int
	// MinVisibleSteps is how many line steps are recorded even without a change
	MinVisibleSteps int
}

// Tracer turns interpreter events of one function into steps. It is used for a
// single run and is not safe for concurrent use.
type Tracer struct {
	prog      *pyast.Program
	target    string
	opts      TracerOptions
	steps     []Step
	history   map[string]Vars
	truncated bool
}

// NewTracer traces the function named target. An empty target traces every
// function except the module body and lambdas.
func NewTracer(prog *pyast.Program, target string, opts TracerOptions) *Tracer {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.MinVisibleSteps < 0 {
		opts.MinVisibleSteps = 0
	}
	return &Tracer{
		prog:    prog,
		target:  target,
		opts:    opts,
		history: make(map[string]Vars),
	}
}

// Steps returns the recorded steps.
func (t *Tracer) Steps() []Step {
	return t.steps
}

// Truncated reports whether steps were dropped at the cap.
func (t *Tracer) Truncated() bool {
	return t.truncated
}

// Discard drops every recorded step, as required after a timed-out run.
func (t *Tracer) Discard() {
	t.steps = nil
	t.truncated = false
	t.history = make(map[string]Vars)
}

func (t *Tracer) traced(name string) bool {
	if t.target != "" {
		return name == t.target
	}
	return !strings.HasPrefix(name, "<")
}

func (t *Tracer) emit(s Step) {
	if len(t.steps) >= t.opts.MaxSteps {
		t.truncated = true
		return
	}
	s.Number = len(t.steps)
	s.Significant = true
	if s.Before == nil {
		s.Before = Vars{}
	}
	if s.After == nil {
		s.After = Vars{}
	}
	if s.Changes == nil {
		s.Changes = map[string]Change{}
	}
	t.steps = append(t.steps, s)
}

func (t *Tracer) source(line int) string {
	if t.prog == nil {
		return ""
	}
	return strings.TrimSpace(t.prog.Line(line))
}

// Call records entry into a traced function with its bound arguments.
func (t *Tracer) Call(f *interp.Frame) {
	if !t.traced(f.Function) {
		return
	}
	cur := snapshotLocals(f)
	code := t.source(f.Line)
	if code == "" {
		code = "def " + f.Function + "(...)"
	}
	t.emit(Step{
		Line:     f.Line,
		CodeLine: code,
		Function: f.Function,
		Event:    EventCall,
		After:    copyVars(cur),
	})
	t.history[f.Function] = cur
}

// Line records a line about to execute when locals changed since the previous
// event, or unconditionally while fewer than MinVisibleSteps steps exist.
func (t *Tracer) Line(f *interp.Frame, line int) {
	if !t.traced(f.Function) {
		return
	}
	cur := snapshotLocals(f)
	prev := t.history[f.Function]
	changes := diff(prev, cur)
	if len(changes) > 0 || len(t.steps) < t.opts.MinVisibleSteps {
		t.emit(Step{
			Line:     line,
			CodeLine: t.source(line),
			Function: f.Function,
			Event:    EventLine,
			Before:   copyVars(prev),
			After:    copyVars(cur),
			Changes:  changes,
		})
	}
	t.history[f.Function] = cur
}

// Return records a traced function's result under ReturnValueKey.
func (t *Tracer) Return(f *interp.Frame, v interp.Value) {
	if !t.traced(f.Function) {
		return
	}
	t.emit(Step{
		Line:     f.Line,
		CodeLine: "return " + interp.Repr(v),
		Function: f.Function,
		Event:    EventReturn,
		Changes:  map[string]Change{ReturnValueKey: {New: SnapshotValue(v)}},
	})
}

// copyVars copies the top level of a snapshot. Nested values are already
// private copies and are never mutated after snapshotting.
func copyVars(v Vars) Vars {
	out := make(Vars, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}
