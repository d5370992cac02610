// Package trace records the line-level execution of a learner's target function
// as a sequence of steps.
package trace

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"algoscope/internal/interp"
)

// EventType is the interpreter event a step was derived from.
type EventType string

const (
	EventLine   EventType = "line"
	EventCall   EventType = "call"
	EventReturn EventType = "return"
)

// ChangeType classifies a variable change.
type ChangeType string

const (
	ChangeNew      ChangeType = "new"
	ChangeModified ChangeType = "modified"
)

// ReturnValueKey is the synthetic variable a return step reports its value under.
const ReturnValueKey = "return_value"

// Change is one entry of a step's variable_changes. Return steps leave Type empty.
type Change struct {
	Type ChangeType  `json:"type,omitempty" yaml:"type,omitempty"`
	Old  interface{} `json:"old,omitempty" yaml:"old,omitempty"`
	New  interface{} `json:"new" yaml:"new"`
}

// Vars is a snapshot of a frame's locals in plain Go data.
type Vars map[string]interface{}

// Visualization is the pattern-agnostic rendering hint attached to a step.
type Visualization struct {
	StepType           string                 `json:"step_type" yaml:"step_type"`
	Pointers           map[string]interface{} `json:"pointers" yaml:"pointers"`
	DataStructureState map[string]interface{} `json:"data_structure_state" yaml:"data_structure_state"`
	Highlights         []string               `json:"highlights" yaml:"highlights"`
}

// Step is one recorded execution step.
type Step struct {
	Number        int               `json:"step_number" yaml:"step_number"`
	Line          int               `json:"line_number" yaml:"line_number"`
	CodeLine      string            `json:"code_line" yaml:"code_line"`
	Function      string            `json:"function_name" yaml:"function_name"`
	Event         EventType         `json:"event_type" yaml:"event_type"`
	Before        Vars              `json:"variables_before" yaml:"variables_before"`
	After         Vars              `json:"variables_after" yaml:"variables_after"`
	Changes       map[string]Change `json:"variable_changes" yaml:"variable_changes"`
	Significant   bool              `json:"is_significant" yaml:"is_significant"`
	Explanation   string            `json:"explanation" yaml:"explanation"`
	Visualization *Visualization    `json:"visualization_data,omitempty" yaml:"visualization_data,omitempty"`
}

// ChangedNames returns the changed variable names in sorted order.
func (s *Step) ChangedNames() []string {
	names := make([]string, 0, len(s.Changes))
	for name := range s.Changes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Changed reports whether any of names is among the step's changes.
func (s *Step) Changed(names ...string) bool {
	for _, n := range names {
		if _, ok := s.Changes[n]; ok {
			return true
		}
	}
	return false
}

// SnapshotValue copies v into plain data. Values without a data form are
// stringified, and values that cannot even be stringified become "<typename>".
func SnapshotValue(v interp.Value) (out interface{}) {
	if data, err := interp.Snapshot(v); err == nil {
		return data
	}
	defer func() {
		if recover() != nil {
			out = "<" + v.Type() + ">"
		}
	}()
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return interp.Repr(v)
}

// snapshotLocals copies a frame's locals, skipping underscore-prefixed names.
func snapshotLocals(f *interp.Frame) Vars {
	locals := f.Locals()
	out := make(Vars, len(locals))
	for _, l := range locals {
		if strings.HasPrefix(l.Name, "_") {
			continue
		}
		out[l.Name] = SnapshotValue(l.Value)
	}
	return out
}

// diff reports new and modified variables between two snapshots. Removed
// variables are not reported.
func diff(prev, cur Vars) map[string]Change {
	changes := make(map[string]Change)
	for name, v := range cur {
		old, ok := prev[name]
		switch {
		case !ok:
			changes[name] = Change{Type: ChangeNew, New: v}
		case !reflect.DeepEqual(old, v):
			changes[name] = Change{Type: ChangeModified, Old: old, New: v}
		}
	}
	return changes
}
