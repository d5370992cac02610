package classifier

import (
	"strings"

	"algoscope/internal/pyast"
)

// Features are the numeric structural and textual features sent to a statistical
// classifier. Keys are stable feature names.
type Features map[string]float64

// countedNodes are the node types reported as count_<name>.
var countedNodes = []string{
	"functiondef", "for", "while", "if", "assign", "augassign",
	"call", "subscript", "dict", "list", "set", "compare",
	"binop", "boolop", "return", "break", "continue",
}

// textMarkers are substring checks reported as 0/1 features.
var textMarkers = []struct {
	name    string
	needles []string
}{
	{"has_range", []string{"range("}},
	{"has_enumerate", []string{"enumerate("}},
	{"has_len", []string{"len("}},
	{"has_max", []string{"max("}},
	{"has_min", []string{"min("}},
	{"has_sort", []string{".sort(", "sorted("}},
	{"has_append", []string{".append("}},
	{"has_pop", []string{".pop("}},
}

func nodeName(n pyast.Node) string {
	switch n.(type) {
	case *pyast.FunctionDef:
		return "functiondef"
	case *pyast.For:
		return "for"
	case *pyast.While:
		return "while"
	case *pyast.If:
		return "if"
	case *pyast.Assign:
		return "assign"
	case *pyast.AugAssign:
		return "augassign"
	case *pyast.Call:
		return "call"
	case *pyast.Subscript:
		return "subscript"
	case *pyast.Dict:
		return "dict"
	case *pyast.List:
		return "list"
	case *pyast.Set:
		return "set"
	case *pyast.Compare:
		return "compare"
	case *pyast.BinOp:
		return "binop"
	case *pyast.BoolOp:
		return "boolop"
	case *pyast.Return:
		return "return"
	case *pyast.Break:
		return "break"
	case *pyast.Continue:
		return "continue"
	}
	return ""
}

// ExtractFeatures computes the feature vector of a program.
func ExtractFeatures(prog *pyast.Program) Features {
	f := make(Features)
	for _, name := range countedNodes {
		f["count_"+name] = 0
	}

	var functions, funcNodes int
	prog.Inspect(func(n pyast.Node) bool {
		if name := nodeName(n); name != "" {
			f["count_"+name]++
		}
		if fn, ok := n.(*pyast.FunctionDef); ok {
			functions++
			pyast.Inspect(fn, func(pyast.Node) bool {
				funcNodes++
				return true
			})
		}
		return true
	})

	depth := 0
	loops := 0
	for _, s := range prog.Body {
		if d := treeDepth(s, 1); d > depth {
			depth = d
		}
		if d := loopNesting(s, 0); d > loops {
			loops = d
		}
	}
	f["tree_depth"] = float64(depth)
	f["max_nested_loops"] = float64(loops)
	f["function_count"] = float64(functions)
	f["avg_function_complexity"] = 0
	if functions > 0 {
		f["avg_function_complexity"] = float64(funcNodes) / float64(functions)
	}

	f["for_loop_count"] = f["count_for"]
	f["while_loop_count"] = f["count_while"]
	f["if_count"] = f["count_if"]
	f["binary_op_count"] = f["count_binop"]
	f["comparison_count"] = f["count_compare"]
	f["assignment_count"] = f["count_assign"]
	f["function_call_count"] = f["count_call"]
	f["subscript_count"] = f["count_subscript"]
	f["return_count"] = f["count_return"]

	text := string(prog.Source)
	lines := strings.Split(text, "\n")
	total := 0
	for _, l := range lines {
		total += len(l)
	}
	f["line_count"] = float64(len(lines))
	f["char_count"] = float64(len(text))
	f["avg_line_length"] = float64(total) / float64(len(lines))

	for _, m := range textMarkers {
		f[m.name] = 0
		for _, needle := range m.needles {
			if strings.Contains(text, needle) {
				f[m.name] = 1
				break
			}
		}
	}
	return f
}

func treeDepth(n pyast.Node, depth int) int {
	deepest := depth
	for _, c := range pyast.Children(n) {
		if d := treeDepth(c, depth+1); d > deepest {
			deepest = d
		}
	}
	return deepest
}

func loopNesting(n pyast.Node, depth int) int {
	switch n.(type) {
	case *pyast.For, *pyast.While:
		depth++
	}
	deepest := depth
	for _, c := range pyast.Children(n) {
		if d := loopNesting(c, depth); d > deepest {
			deepest = d
		}
	}
	return deepest
}
