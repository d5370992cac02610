package patterns

import "testing"

func TestKindsHaveScorers(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, k := range Kinds {
		if k.Scorer() == nil {
			t.Errorf("%s has no scorer", k)
		}
		if k.DisplayName() == "No Pattern" {
			t.Errorf("%s has no display name", k)
		}
		if seen[k] {
			t.Errorf("%s registered twice", k)
		}
		seen[k] = true
	}
	if len(Kinds) != 7 {
		t.Errorf("len(Kinds) = %d, want 7", len(Kinds))
	}
	if None.Valid() || Kind("bfs").Valid() {
		t.Error("unregistered kinds must not be valid")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		label string
		want  Kind
		ok    bool
	}{
		{"hash_map", HashMap, true},
		{"binary_search", BinarySearch, true},
		{"dfs", DepthFirstSearch, true},
		{"dp", DynamicProgramming, true},
		{"backtracking", None, false},
		{"", None, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseKind(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBest(t *testing.T) {
	tests := []struct {
		name   string
		scores []Score
		want   Kind
		ok     bool
	}{
		{
			name:   "all zero",
			scores: []Score{{HashMap, 0}, {TwoPointers, 0}},
			want:   None,
		},
		{
			name:   "arg max",
			scores: []Score{{HashMap, 0.3}, {TwoPointers, 0.8}, {Greedy, 0.5}},
			want:   TwoPointers,
			ok:     true,
		},
		{
			name:   "tie goes to first registered",
			scores: []Score{{HashMap, 0.6}, {SlidingWindow, 0.6}, {Greedy, 0.6}},
			want:   HashMap,
			ok:     true,
		},
		{
			name: "empty",
			want: None,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best(tt.scores)
			if got.Kind != tt.want || ok != tt.ok {
				t.Errorf("Best() = %+v, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if None.String() != "none" || Greedy.String() != "greedy" {
		t.Errorf("String() = %q, %q", None.String(), Greedy.String())
	}
}
