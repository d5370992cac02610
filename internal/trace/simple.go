package trace

import (
	"strings"

	"algoscope/internal/interp"
	"algoscope/internal/pyast"
)

// Default caps of the static step derivations.
const (
	DefaultSimpleStepCap = 20
	sourceStepCap        = 10
)

// StaticSteps derives steps from the target function's structure alone: the
// entry call plus one line step per top-level body statement, capped at limit.
// The call step carries the input bindings; no step carries changes.
func StaticSteps(prog *pyast.Program, input map[string]interface{}, limit int) []Step {
	if limit <= 0 {
		limit = DefaultSimpleStepCap
	}
	fn := prog.TargetFunction()
	if fn == nil {
		return SourceSteps(prog, "")
	}

	vars := inputVars(input)
	steps := []Step{{
		Line:     fn.Line(),
		CodeLine: signature(fn),
		Function: fn.Name,
		Event:    EventCall,
		Before:   vars,
		After:    copyVars(vars),
	}}
	for _, stmt := range fn.Body {
		if len(steps) >= limit {
			break
		}
		steps = append(steps, Step{
			Line:     stmt.Line(),
			CodeLine: strings.TrimSpace(prog.Line(stmt.Line())),
			Function: fn.Name,
			Event:    EventLine,
		})
	}
	return finish(steps)
}

// SourceSteps is the last resort: one line step per non-blank, non-comment line
// among the first ten source lines.
func SourceSteps(prog *pyast.Program, function string) []Step {
	if function == "" {
		function = "main"
	}
	lines := prog.Lines()
	if len(lines) > sourceStepCap {
		lines = lines[:sourceStepCap]
	}
	var steps []Step
	for i, line := range lines {
		code := strings.TrimSpace(line)
		if code == "" || strings.HasPrefix(code, "#") {
			continue
		}
		steps = append(steps, Step{
			Line:     i + 1,
			CodeLine: code,
			Function: function,
			Event:    EventLine,
		})
	}
	return finish(steps)
}

func finish(steps []Step) []Step {
	for i := range steps {
		steps[i].Number = i
		steps[i].Significant = true
		if steps[i].Before == nil {
			steps[i].Before = Vars{}
		}
		if steps[i].After == nil {
			steps[i].After = Vars{}
		}
		steps[i].Changes = map[string]Change{}
	}
	return steps
}

func signature(fn *pyast.FunctionDef) string {
	names := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		switch p.Kind {
		case pyast.ParamVarArgs:
			names = append(names, "*"+p.Name)
		case pyast.ParamKwArgs:
			names = append(names, "**"+p.Name)
		default:
			names = append(names, p.Name)
		}
	}
	return "def " + fn.Name + "(" + strings.Join(names, ", ") + "):"
}

// inputVars snapshots the raw input through the interpreter's conversion so
// that the call step looks like a traced one.
func inputVars(input map[string]interface{}) Vars {
	out := make(Vars, len(input))
	for k, raw := range input {
		v, err := interp.FromGo(raw)
		if err != nil {
			out[k] = raw
			continue
		}
		out[k] = SnapshotValue(v)
	}
	return out
}
