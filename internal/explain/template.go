package explain

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"algoscope/internal/patterns"
	"algoscope/internal/trace"
)

// Template explains steps with fixed, pattern-keyed phrases. It never fails and
// is the last tier behind every model backend.
type Template struct{}

// Name implements Explainer.
func (Template) Name() string { return "template" }

// Explain implements Explainer.
func (Template) Explain(_ context.Context, req Request) (string, error) {
	return Describe(req), nil
}

// Describe returns the deterministic explanation of a step.
func Describe(req Request) string {
	if req.Step != nil && req.Step.Event == trace.EventReturn {
		return describeReturn(req)
	}
	code := strings.ToLower(req.CodeLine())
	if req.Step != nil && req.Step.Event == trace.EventCall {
		return "Enter " + req.Step.Function + " with its input"
	}

	switch req.Pattern {
	case patterns.HashMap:
		switch {
		case strings.Contains(code, "complement"):
			return "Calculate complement for target sum"
		case strings.Contains(code, "in ") && (strings.Contains(code, "map") || strings.Contains(code, "dict") || strings.Contains(code, "seen")):
			return "Check if complement exists in hash map"
		case strings.Contains(code, "{}") || strings.Contains(code, "dict("):
			return "Initialize empty hash map"
		case strings.Contains(code, "[") && strings.Contains(code, "="):
			return "Store value-index pair in hash map"
		}
		return "Hash map operation for O(1) lookup"
	case patterns.TwoPointers:
		switch {
		case strings.Contains(code, "left") && strings.Contains(code, "+"):
			return "Move left pointer forward"
		case strings.Contains(code, "right") && strings.Contains(code, "-"):
			return "Move right pointer backward"
		case strings.Contains(code, "left") && strings.Contains(code, "right"):
			return "Compare values at both pointers"
		}
		return "Two pointers technique step"
	case patterns.BinarySearch:
		switch {
		case strings.Contains(code, "mid"):
			return "Calculate middle index for binary search"
		case strings.Contains(code, "left") || strings.Contains(code, "low"):
			return "Update left search boundary"
		case strings.Contains(code, "right") || strings.Contains(code, "high"):
			return "Update right search boundary"
		}
		return "Binary search step"
	case patterns.SlidingWindow:
		switch {
		case strings.Contains(code, "start") || strings.Contains(code, "left"):
			return "Adjust window start position"
		case strings.Contains(code, "end") || strings.Contains(code, "right"):
			return "Expand window to right"
		}
		return "Sliding window adjustment"
	case patterns.DepthFirstSearch:
		switch {
		case strings.Contains(code, "visited") || strings.Contains(code, "seen"):
			return "Mark node as visited"
		case strings.Contains(code, "stack"):
			return "Push or pop the traversal stack"
		}
	case patterns.DynamicProgramming:
		if strings.Contains(code, "dp") || strings.Contains(code, "memo") {
			return "Fill table entry from smaller subproblems"
		}
	case patterns.Greedy:
		if strings.Contains(code, "max(") || strings.Contains(code, "min(") {
			return "Keep the locally best choice so far"
		}
	}

	switch {
	case strings.HasPrefix(code, "return"):
		return "Return solution"
	case strings.HasPrefix(code, "if") || strings.HasPrefix(code, "elif"):
		return "Check condition"
	case strings.HasPrefix(code, "while") || strings.HasPrefix(code, "for"):
		return "Loop iteration"
	case strings.Contains(code, "="):
		return "Update variable"
	}
	return "Execute algorithm step"
}

func describeReturn(req Request) string {
	c, ok := req.Step.Changes[trace.ReturnValueKey]
	if !ok {
		return "Return from " + req.Step.Function
	}
	value := render(c.New)
	switch req.Pattern {
	case patterns.BinarySearch:
		if value == "-1" || value == "None" {
			return "Target not found, return " + value
		}
		return "Target found at index " + value
	case patterns.HashMap, patterns.TwoPointers:
		if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "(") {
			return "Return indices " + value + " of the matching pair"
		}
	}
	return "Return " + value + " as the result"
}

// render formats snapshot data the way the learner's language prints it.
func render(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = render(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + render(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}
