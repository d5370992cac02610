// Package patterns scores a program against the catalogue of algorithmic patterns.
//
// Every pattern is a Kind, and every Kind carries its own scorer. Scorers are
// deterministic, additive functions of the syntax tree, the derived CodeStructure and
// the problem text, clamped to [0, 1].
package patterns

import (
	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/structure"
)

// Kind identifies one algorithmic pattern.
type Kind string

const (
	None               Kind = ""
	HashMap            Kind = "hash_map"
	TwoPointers        Kind = "two_pointers"
	SlidingWindow      Kind = "sliding_window"
	BinarySearch       Kind = "binary_search"
	DepthFirstSearch   Kind = "depth_first_search"
	DynamicProgramming Kind = "dynamic_programming"
	Greedy             Kind = "greedy"
)

// Kinds lists every pattern in registration order. Ties go to the earlier entry.
var Kinds = []Kind{
	HashMap,
	TwoPointers,
	SlidingWindow,
	BinarySearch,
	DepthFirstSearch,
	DynamicProgramming,
	Greedy,
}

// Scorer rates how strongly a program exhibits one pattern.
type Scorer func(prog *pyast.Program, cs *structure.CodeStructure, p *problem.Data) float64

// Scorer returns the scoring rule for k, or nil for an unknown kind.
func (k Kind) Scorer() Scorer {
	switch k {
	case HashMap:
		return scoreHashMap
	case TwoPointers:
		return scoreTwoPointers
	case SlidingWindow:
		return scoreSlidingWindow
	case BinarySearch:
		return scoreBinarySearch
	case DepthFirstSearch:
		return scoreDFS
	case DynamicProgramming:
		return scoreDP
	case Greedy:
		return scoreGreedy
	}
	return nil
}

// Valid reports whether k is one of the registered kinds.
func (k Kind) Valid() bool {
	return k.Scorer() != nil
}

// DisplayName is the human readable name used in explanations and summaries.
func (k Kind) DisplayName() string {
	switch k {
	case HashMap:
		return "Hash Map"
	case TwoPointers:
		return "Two Pointers"
	case SlidingWindow:
		return "Sliding Window"
	case BinarySearch:
		return "Binary Search"
	case DepthFirstSearch:
		return "Depth-First Search"
	case DynamicProgramming:
		return "Dynamic Programming"
	case Greedy:
		return "Greedy"
	}
	return "No Pattern"
}

func (k Kind) String() string {
	if k == None {
		return "none"
	}
	return string(k)
}

// aliases accepts the short labels external classifiers tend to emit.
var aliases = map[string]Kind{
	"hashmap":  HashMap,
	"hash-map": HashMap,
	"dfs":      DepthFirstSearch,
	"dp":       DynamicProgramming,
}

// ParseKind resolves a label to a registered Kind.
func ParseKind(label string) (Kind, bool) {
	if k := Kind(label); k.Valid() {
		return k, true
	}
	if k, ok := aliases[label]; ok {
		return k, true
	}
	return None, false
}

// Score is one pattern's confidence.
type Score struct {
	Kind  Kind    `json:"pattern" yaml:"pattern"`
	Score float64 `json:"score" yaml:"score"`
}

// ScoreAll runs every scorer and returns the scores in registration order.
func ScoreAll(prog *pyast.Program, cs *structure.CodeStructure, p *problem.Data) []Score {
	if cs == nil {
		cs = structure.Analyze(prog)
	}
	out := make([]Score, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, Score{Kind: k, Score: k.Scorer()(prog, cs, p)})
	}
	return out
}

// Best returns the highest score; the first registered kind wins exact ties.
// ok is false when every score is zero.
func Best(scores []Score) (best Score, ok bool) {
	for _, s := range scores {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, best.Score > 0
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}
