package patterns

import (
	"strings"

	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/structure"
)

var (
	pointerNames = nameSet("left", "right", "start", "end", "low", "high", "i", "j")
	lowerBounds  = nameSet("left", "low", "lo", "start")
	upperBounds  = nameSet("right", "high", "hi", "end")
	boundNames   = nameSet("left", "right", "low", "high", "lo", "hi", "start", "end")
)

func nameSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// assignedNames returns every plain identifier an assignment binds, lower-cased.
func assignedNames(as *pyast.Assign) []string {
	var out []string
	for _, t := range as.Targets {
		for _, name := range pyast.TargetNames(t) {
			out = append(out, strings.ToLower(name))
		}
	}
	return out
}

// namesIn collects every identifier in e, lower-cased.
func namesIn(e pyast.Expr) []string {
	var out []string
	pyast.Inspect(e, func(n pyast.Node) bool {
		if id, ok := n.(*pyast.Name); ok {
			out = append(out, strings.ToLower(id.ID))
		}
		return true
	})
	return out
}

func anyIn(names []string, set map[string]bool) bool {
	for _, n := range names {
		if set[n] {
			return true
		}
	}
	return false
}

func containsOp(e pyast.Expr, ops ...string) bool {
	found := false
	pyast.Inspect(e, func(n pyast.Node) bool {
		if b, ok := n.(*pyast.BinOp); ok {
			for _, op := range ops {
				if b.Op == op {
					found = true
				}
			}
		}
		return !found
	})
	return found
}

func loopBody(n pyast.Node) ([]pyast.Stmt, bool) {
	switch l := n.(type) {
	case *pyast.For:
		return append(append([]pyast.Stmt{}, l.Body...), l.Else...), true
	case *pyast.While:
		return append(append([]pyast.Stmt{}, l.Body...), l.Else...), true
	}
	return nil, false
}

// scoreHashMap rewards dict creation, keyed reads and writes inside loops, and
// membership tests against known maps.
func scoreHashMap(prog *pyast.Program, cs *structure.CodeStructure, p *problem.Data) float64 {
	maps := make(map[string]bool)
	if cs != nil {
		for name, typ := range cs.Variables {
			if typ == "dict" {
				maps[name] = true
			}
		}
	}
	prog.Inspect(func(n pyast.Node) bool {
		as, ok := n.(*pyast.Assign)
		if !ok {
			return true
		}
		isDict := false
		switch v := as.Value.(type) {
		case *pyast.Dict, *pyast.DictComp:
			isDict = true
		case *pyast.Call:
			isDict = pyast.CalleeName(v) == "dict"
		}
		for _, t := range as.Targets {
			if name, ok := t.(*pyast.Name); ok && (isDict || structure.IsMapLikeName(name.ID)) {
				maps[name.ID] = true
			}
		}
		return true
	})

	isMapBase := func(e pyast.Expr) bool {
		name, ok := e.(*pyast.Name)
		return ok && maps[name.ID]
	}

	score := 0.0
	var created, lookedUp, written bool
	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Assign:
			switch v := x.Value.(type) {
			case *pyast.Dict:
				created = true
				score += 0.2
			case *pyast.Call:
				if pyast.CalleeName(v) == "dict" {
					created = true
					score += 0.2
				}
			}

		case *pyast.For, *pyast.While:
			body, _ := loopBody(x)
			writes := make(map[*pyast.Subscript]bool)
			pyast.InspectAll(body, func(sub pyast.Node) bool {
				var targets []pyast.Expr
				switch s := sub.(type) {
				case *pyast.Assign:
					targets = s.Targets
				case *pyast.AugAssign:
					targets = []pyast.Expr{s.Target}
				}
				for _, t := range targets {
					if ss, ok := t.(*pyast.Subscript); ok && isMapBase(ss.Value) {
						writes[ss] = true
						written = true
						score += 0.2
					}
				}
				return true
			})
			pyast.InspectAll(body, func(sub pyast.Node) bool {
				if ss, ok := sub.(*pyast.Subscript); ok && !writes[ss] && isMapBase(ss.Value) {
					lookedUp = true
					score += 0.25
				}
				return true
			})

		case *pyast.Compare:
			for i, op := range x.Ops {
				if op != "in" && op != "not in" {
					continue
				}
				for name := range maps {
					if pyast.Mentions(x.Comparators[i], name) {
						score += 0.15
						break
					}
				}
			}
		}
		return true
	})

	if created && lookedUp && written {
		score += 0.2
	}
	if p.Mentions("two sum", "lookup", "complement", "pair", "indices") {
		score += 0.1
	}
	return clamp(score)
}

// scoreTwoPointers rewards two converging indices. Any mid variable caps the score so
// binary search is not mistaken for it.
func scoreTwoPointers(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0
	found := make(map[string]bool)
	var moved, converging, hasMid bool

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Assign:
			for _, name := range assignedNames(x) {
				if pointerNames[name] {
					found[name] = true
				}
				if strings.Contains(name, "mid") {
					hasMid = true
				}
			}
		case *pyast.AugAssign:
			if name, ok := x.Target.(*pyast.Name); ok && pointerNames[strings.ToLower(name.ID)] {
				moved = true
				score += 0.2
			}
		case *pyast.While:
			if _, ok := x.Cond.(*pyast.Compare); ok && anyIn(namesIn(x.Cond), pointerNames) {
				converging = true
				score += 0.2
			}
		}
		return true
	})

	if len(found) >= 2 {
		score += 0.3
	}
	if moved && converging {
		score += 0.2
	}
	if p.Mentions("sorted", "palindrome", "two sum", "container") {
		score += 0.1
	}
	if hasMid && score > 0.2 {
		score = 0.2
	}
	return clamp(score)
}

// scoreSlidingWindow rewards the expand-right, shrink-left idiom with a running best.
func scoreSlidingWindow(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0
	var leftZero, expanding, shrinking, leftAdvances, tracksBest bool

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Assign:
			if k, ok := x.Value.(*pyast.Constant); ok && k.Kind == pyast.ConstInt && k.Int == 0 {
				for _, t := range x.Targets {
					if name, ok := t.(*pyast.Name); ok && strings.ToLower(name.ID) == "left" {
						leftZero = true
						score += 0.1
					}
				}
			}
			if call, ok := x.Value.(*pyast.Call); ok {
				if fn, ok := call.Func.(*pyast.Name); ok && (fn.ID == "max" || fn.ID == "min") {
					tracksBest = true
					score += 0.2
				}
			}

		case *pyast.For:
			name, ok := x.Target.(*pyast.Name)
			call, isCall := x.Iter.(*pyast.Call)
			if ok && isCall && strings.ToLower(name.ID) == "right" {
				if fn, ok := call.Func.(*pyast.Name); ok && fn.ID == "range" {
					expanding = true
					score += 0.2
				}
			}

		case *pyast.While:
			shrinking = true
			pyast.InspectAll(x.Body, func(sub pyast.Node) bool {
				aug, ok := sub.(*pyast.AugAssign)
				if !ok || aug.Op != "+" {
					return true
				}
				if name, ok := aug.Target.(*pyast.Name); ok && strings.ToLower(name.ID) == "left" {
					leftAdvances = true
					score += 0.2
				}
				return true
			})
		}
		return true
	})

	if leftZero && expanding && shrinking && leftAdvances && tracksBest {
		score += 0.3
	}
	if p.Mentions("substring", "subarray", "window", "longest", "maximum", "sliding window") {
		score += 0.1
	}
	return clamp(score)
}

// scoreBinarySearch rewards a halving midpoint, a bounded while loop and conditional
// bound updates.
func scoreBinarySearch(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0
	var hasMid, bounded, updates bool

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Assign:
			if _, ok := x.Value.(*pyast.BinOp); !ok || !containsOp(x.Value, "//", ">>") {
				break
			}
			for _, name := range assignedNames(x) {
				if strings.Contains(name, "mid") {
					hasMid = true
					score += 0.4
				}
			}

		case *pyast.While:
			if _, ok := x.Cond.(*pyast.Compare); ok {
				names := namesIn(x.Cond)
				if anyIn(names, lowerBounds) && anyIn(names, upperBounds) {
					bounded = true
					score += 0.2
				}
			}

		case *pyast.If:
			body := append(append([]pyast.Stmt{}, x.Body...), x.Else...)
			pyast.InspectAll(body, func(sub pyast.Node) bool {
				if as, ok := sub.(*pyast.Assign); ok && anyIn(assignedNames(as), boundNames) {
					updates = true
					score += 0.2
				}
				return true
			})
		}
		return true
	})

	if p.Mentions("sorted", "search", "binary search", "log") {
		score += 0.1
	}
	if hasMid && bounded && updates {
		score += 0.2
	}
	return clamp(score)
}

// scoreDFS rewards recursion, visited tracking, stack operations and neighbour iteration.
func scoreDFS(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.FunctionDef:
			if callsItself(x) {
				score += 0.4
			}

		case *pyast.Assign:
			for _, name := range assignedNames(x) {
				if strings.Contains(name, "visit") {
					score += 0.2
				}
			}

		case *pyast.Call:
			if attr, ok := x.Func.(*pyast.Attribute); ok && (attr.Attr == "append" || attr.Attr == "pop") {
				score += 0.1
			}

		case *pyast.For:
			switch it := x.Iter.(type) {
			case *pyast.Attribute:
				attr := strings.ToLower(it.Attr)
				if strings.Contains(attr, "children") || strings.Contains(attr, "neighbors") || strings.Contains(attr, "adjacent") {
					score += 0.2
				}
			case *pyast.Subscript:
				base := strings.ToLower(pyast.BaseName(it))
				if strings.Contains(base, "graph") || strings.Contains(base, "adj") {
					score += 0.2
				}
			}
		}
		return true
	})

	if p.Mentions("tree", "graph", "path", "traverse", "connected") {
		score += 0.1
	}
	return clamp(score)
}

func callsItself(fn *pyast.FunctionDef) bool {
	found := false
	pyast.InspectAll(fn.Body, func(n pyast.Node) bool {
		if c, ok := n.(*pyast.Call); ok {
			if name, ok := c.Func.(*pyast.Name); ok && name.ID == fn.Name {
				found = true
			}
		}
		return !found
	})
	return found
}

// scoreDP rewards a dp table plus a recurrence that fills it from earlier entries.
func scoreDP(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0
	tables := make(map[string]bool)
	var filled, recurrence bool

	isTable := func(v pyast.Expr) bool {
		switch x := v.(type) {
		case *pyast.List, *pyast.Dict, *pyast.ListComp, *pyast.DictComp:
			return true
		case *pyast.BinOp:
			_, isList := x.Left.(*pyast.List)
			return x.Op == "*" && isList
		}
		return false
	}
	fill := func(targets []pyast.Expr, value pyast.Expr) {
		for _, t := range targets {
			ss, ok := t.(*pyast.Subscript)
			if !ok || !tables[pyast.BaseName(ss)] {
				continue
			}
			filled = true
			refersToTable := false
			for name := range tables {
				if pyast.Mentions(value, name) {
					refersToTable = true
					break
				}
			}
			if refersToTable && containsOp(value, "+", "-") {
				recurrence = true
				score += 0.3
			}
			return
		}
	}

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Assign:
			if isTable(x.Value) {
				for _, t := range x.Targets {
					if name, ok := t.(*pyast.Name); ok && strings.Contains(strings.ToLower(name.ID), "dp") {
						tables[name.ID] = true
						score += 0.3
					}
				}
			}
			fill(x.Targets, x.Value)
		case *pyast.AugAssign:
			fill([]pyast.Expr{x.Target}, x.Value)
		}
		return true
	})

	if filled && recurrence {
		score += 0.3
	}
	if p.Mentions("optimal", "maximum", "minimum", "count ways", "fibonacci", "dynamic programming", "dp") {
		score += 0.1
	}
	return clamp(score)
}

// scoreGreedy rewards sorting, local max/min choices and single-pass loops.
func scoreGreedy(prog *pyast.Program, _ *structure.CodeStructure, p *problem.Data) float64 {
	score := 0.0

	prog.Inspect(func(n pyast.Node) bool {
		switch x := n.(type) {
		case *pyast.Call:
			switch fn := x.Func.(type) {
			case *pyast.Attribute:
				if fn.Attr == "sort" {
					score += 0.3
				}
			case *pyast.Name:
				switch fn.ID {
				case "sorted":
					score += 0.3
				case "max", "min":
					score += 0.2
				}
			}
		case *pyast.For:
			if !containsFor(x) {
				score += 0.1
			}
		}
		return true
	})

	if p.Mentions("greedy", "interval", "schedule", "minimum", "maximum") {
		score += 0.2
	}
	return clamp(score)
}

func containsFor(loop *pyast.For) bool {
	found := false
	body := append(append([]pyast.Stmt{}, loop.Body...), loop.Else...)
	pyast.InspectAll(body, func(n pyast.Node) bool {
		if _, ok := n.(*pyast.For); ok {
			found = true
		}
		return !found
	})
	return found
}
