//go:build cgo

package classifier

import (
	"testing"

	"algoscope/internal/pyast"
)

func TestExtractFeatures(t *testing.T) {
	prog := pyast.MustParse(`def pairs(xs):
    out = []
    for i in range(len(xs)):
        for j in range(i + 1, len(xs)):
            if xs[i] < xs[j]:
                out.append((i, j))
    return sorted(out)
`)
	f := ExtractFeatures(prog)

	tests := map[string]float64{
		"count_functiondef": 1,
		"count_for":         2,
		"count_if":          1,
		"count_assign":      1,
		"count_return":      1,
		"count_while":       0,
		"max_nested_loops":  2,
		"function_count":    1,
		"for_loop_count":    2,
		"subscript_count":   2,
		"has_range":         1,
		"has_len":           1,
		"has_sort":          1,
		"has_append":        1,
		"has_pop":           0,
		"has_enumerate":     0,
	}
	for name, want := range tests {
		if got, ok := f[name]; !ok || got != want {
			t.Errorf("%s = %v (present %v), want %v", name, got, ok, want)
		}
	}
	if f["tree_depth"] < 5 {
		t.Errorf("tree_depth = %v, want at least 5", f["tree_depth"])
	}
	if f["avg_function_complexity"] <= 0 || f["line_count"] != 8 {
		t.Errorf("avg_function_complexity = %v, line_count = %v", f["avg_function_complexity"], f["line_count"])
	}
}
