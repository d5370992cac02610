package enhance

import "algoscope/internal/trace"

// PointerNames are the locals surfaced as pointers in every visualization.
var PointerNames = []string{"left", "right", "start", "end", "low", "high", "mid", "i", "j"}

// Data structure kinds in a visualization.
const (
	KindArray   = "array"
	KindHashMap = "hash_map"
)

// Visualize builds the pattern-agnostic visualization of a step from its
// after-state: pointer variables, container variables with their full values,
// and the names of changed variables.
func Visualize(step *trace.Step) *trace.Visualization {
	v := &trace.Visualization{
		StepType:           string(step.Event),
		Pointers:           make(map[string]interface{}),
		DataStructureState: make(map[string]interface{}),
		Highlights:         step.ChangedNames(),
	}
	for _, name := range PointerNames {
		if val, ok := step.After[name]; ok {
			v.Pointers[name] = val
		}
	}
	for name, val := range step.After {
		switch x := val.(type) {
		case []interface{}:
			v.DataStructureState[name] = map[string]interface{}{"type": KindArray, "values": x}
		case map[string]interface{}:
			v.DataStructureState[name] = map[string]interface{}{"type": KindHashMap, "entries": x}
		}
	}
	return v
}
