package structure

import "algoscope/internal/pyast"

// isDecision reports whether a node adds a branch to the control flow graph.
func isDecision(n pyast.Node) bool {
	switch n.(type) {
	case *pyast.If, *pyast.For, *pyast.While, *pyast.BoolOp, *pyast.IfExp,
		*pyast.ListComp, *pyast.SetComp, *pyast.DictComp, *pyast.GeneratorExp:
		return true
	}
	return false
}

// isNesting reports whether a node increases nesting depth for cognitive complexity.
func isNesting(n pyast.Node) bool {
	switch n.(type) {
	case *pyast.If, *pyast.For, *pyast.While, *pyast.Lambda,
		*pyast.ListComp, *pyast.SetComp, *pyast.DictComp, *pyast.GeneratorExp:
		return true
	}
	return false
}

// Cyclomatic calculates cyclomatic complexity: decision points + 1.
func Cyclomatic(fn *pyast.FunctionDef) int {
	complexity := 1
	pyast.InspectAll(fn.Body, func(n pyast.Node) bool {
		if isDecision(n) {
			complexity++
		}
		return true
	})
	return complexity
}

// Cognitive calculates cognitive complexity, which adds weight for nesting depth.
func Cognitive(fn *pyast.FunctionDef) int {
	total := 0
	for _, s := range fn.Body {
		total += cognitive(s, 0)
	}
	return total
}

func cognitive(n pyast.Node, nesting int) int {
	complexity := 0
	if isDecision(n) {
		// 1 for the construct plus the nesting penalty
		complexity += 1 + nesting
	}

	childNesting := nesting
	if isNesting(n) {
		childNesting++
	}
	for _, child := range pyast.Children(n) {
		complexity += cognitive(child, childNesting)
	}
	return complexity
}
