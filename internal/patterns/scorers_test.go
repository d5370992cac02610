//go:build cgo

package patterns

import (
	"math"
	"testing"

	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/structure"
)

const twoSumSrc = `def two_sum(nums, target):
    lookup = {}
    for i, n in enumerate(nums):
        lookup[n] = i
    for i, n in enumerate(nums):
        complement = target - n
        if complement in lookup and lookup[complement] != i:
            return [i, lookup[complement]]
    return []
`

const binarySearchSrc = `def binary_search(nums, target):
    left, right = 0, len(nums) - 1
    while left <= right:
        mid = (left + right) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            left = mid + 1
        else:
            right = mid - 1
    return -1
`

const palindromeSrc = `def is_palindrome(s):
    left, right = 0, len(s) - 1
    while left < right:
        if s[left] != s[right]:
            return False
        left += 1
        right -= 1
    return True
`

const slidingWindowSrc = `def longest_unique(s):
    seen = set()
    left = 0
    best = 0
    for right in range(len(s)):
        while s[right] in seen:
            seen.remove(s[left])
            left += 1
        seen.add(s[right])
        best = max(best, right - left + 1)
    return best
`

const dfsSrc = `def count_reachable(graph, start):
    visited = set()
    def visit(node):
        visited.add(node)
        for nxt in graph[node]:
            if nxt not in visited:
                visit(nxt)
    visit(start)
    return len(visited)
`

const fibSrc = `def fib(n):
    dp = [0] * (n + 1)
    dp[1] = 1
    for i in range(2, n + 1):
        dp[i] = dp[i - 1] + dp[i - 2]
    return dp[n]
`

const meetingsSrc = `def max_meetings(intervals):
    intervals.sort()
    count = 0
    end = 0
    for s, e in intervals:
        if s >= end:
            count += 1
            end = e
    return count
`

func scoresFor(t *testing.T, src string, p *problem.Data) map[Kind]float64 {
	t.Helper()
	prog := pyast.MustParse(src)
	out := make(map[Kind]float64)
	for _, s := range ScoreAll(prog, structure.Analyze(prog), p) {
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("%s score %v outside [0, 1]", s.Kind, s.Score)
		}
		out[s.Kind] = s.Score
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreAll_ZeroSignalPrograms(t *testing.T) {
	programs := []string{
		"def add(a, b):\n    c = a + b\n    return c\n",
		"def greet(name):\n    msg = \"hi \" + name\n    print(msg)\n    return msg\n",
		"x = 1\ny = x * 2\n",
	}
	for _, src := range programs {
		prog := pyast.MustParse(src)
		scores := ScoreAll(prog, nil, nil)
		if len(scores) != len(Kinds) {
			t.Fatalf("len(scores) = %d", len(scores))
		}
		for i, s := range scores {
			if s.Kind != Kinds[i] {
				t.Errorf("scores[%d] = %s, want registration order", i, s.Kind)
			}
			if s.Score != 0 {
				t.Errorf("%q: %s = %v, want 0", src, s.Kind, s.Score)
			}
		}
		if _, ok := Best(scores); ok {
			t.Errorf("%q: Best() should report no pattern", src)
		}
	}
}

func TestScoreAll_PrimaryPattern(t *testing.T) {
	tests := []struct {
		name string
		src  string
		text string
		want Kind
	}{
		{"two sum", twoSumSrc, "", HashMap},
		{"binary search", binarySearchSrc, "", BinarySearch},
		{"palindrome", palindromeSrc, "", TwoPointers},
		{"sliding window", slidingWindowSrc, "", SlidingWindow},
		{"dfs", dfsSrc, "", DepthFirstSearch},
		{"fibonacci", fibSrc, "", DynamicProgramming},
		{"meetings", meetingsSrc, "Schedule the maximum number of non-overlapping intervals", Greedy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p *problem.Data
			if tt.text != "" {
				p = problem.Parse(tt.text, nil)
			}
			prog := pyast.MustParse(tt.src)
			best, ok := Best(ScoreAll(prog, structure.Analyze(prog), p))
			if !ok || best.Kind != tt.want {
				t.Errorf("Best() = %+v, %v; want %s", best, ok, tt.want)
			}
		})
	}
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
		want float64
	}{
		// recursion 0.4 + visited 0.2 + graph subscript 0.2; add() is not a stack op
		{"dfs", dfsSrc, DepthFirstSearch, 0.8},
		// table 0.3 + recurrence 0.3 + completion 0.3
		{"dp", fibSrc, DynamicProgramming, 0.9},
		// sort 0.3 + single pass 0.1
		{"greedy", meetingsSrc, Greedy, 0.4},
		// membership against seen
		{"membership", slidingWindowSrc, HashMap, 0.15},
		// bounded while, no mid
		{"palindrome as binary search", palindromeSrc, BinarySearch, 0.2},
		{"two sum clamps", twoSumSrc, HashMap, 1.0},
		{"binary search clamps", binarySearchSrc, BinarySearch, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoresFor(t, tt.src, nil)[tt.kind]
			if !approx(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestTwoPointers_MidCap(t *testing.T) {
	programs := []string{
		binarySearchSrc,
		`def f(nums, target):
    left, right = 0, len(nums) - 1
    while left < right:
        mid = (left + right) // 2
        if nums[mid] < target:
            left += 1
        else:
            right -= 1
    return left
`,
		`def g(s):
    i = 0
    j = len(s) - 1
    midpoint = 3
    while i < j:
        i += 1
        j -= 1
    return midpoint
`,
	}
	p := problem.Parse("Two sum over a sorted container, palindrome check", nil)
	for _, src := range programs {
		if got := scoresFor(t, src, p)[TwoPointers]; got > 0.2+1e-9 {
			t.Errorf("two_pointers = %v, want <= 0.2 for\n%s", got, src)
		}
	}

	// the same shape without mid scores high
	if got := scoresFor(t, palindromeSrc, p)[TwoPointers]; got < 0.9 {
		t.Errorf("two_pointers without mid = %v", got)
	}
}

func TestVocabularyBonus(t *testing.T) {
	src := "def f(xs):\n    total = 0\n    return total\n"
	tests := []struct {
		text string
		kind Kind
		want float64
	}{
		{"Find the pair of indices", HashMap, 0.1},
		{"Check if a string is a palindrome", TwoPointers, 0.1},
		{"Longest substring", SlidingWindow, 0.1},
		{"Search a sorted array", BinarySearch, 0.1},
		{"Traverse the tree", DepthFirstSearch, 0.1},
		{"Count ways to climb stairs", DynamicProgramming, 0.1},
		{"Greedy interval scheduling", Greedy, 0.2},
	}
	for _, tt := range tests {
		got := scoresFor(t, src, problem.Parse(tt.text, nil))[tt.kind]
		if !approx(got, tt.want) {
			t.Errorf("%q: %s = %v, want %v", tt.text, tt.kind, got, tt.want)
		}
	}
}

func TestScoreAll_Deterministic(t *testing.T) {
	prog := pyast.MustParse(slidingWindowSrc)
	cs := structure.Analyze(prog)
	first := ScoreAll(prog, cs, nil)
	for i := 0; i < 5; i++ {
		again := ScoreAll(prog, cs, nil)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: %+v != %+v", i, again[j], first[j])
			}
		}
	}
}
