//go:build cgo

package matcher

import (
	"context"
	"testing"

	"algoscope/internal/classifier"
	"algoscope/internal/errors"
	"algoscope/internal/patterns"
	"algoscope/internal/pyast"
	"algoscope/internal/slogutil"
)

type stubClassifier struct {
	verdict classifier.Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(context.Context, classifier.Features, string) (classifier.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

const binarySearchSrc = `def search(nums, target):
    lo, hi = 0, len(nums) - 1
    while lo <= hi:
        mid = (lo + hi) // 2
        if nums[mid] < target:
            lo = mid + 1
        else:
            hi = mid - 1
    return lo
`

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubClassifier
		src        string
		want       patterns.Kind
		provenance Provenance
	}{
		{
			name:       "confident classifier wins",
			classifier: &stubClassifier{verdict: classifier.Verdict{Pattern: patterns.Greedy, Confidence: 0.9}},
			src:        binarySearchSrc,
			want:       patterns.Greedy,
			provenance: ProvenanceStatistical,
		},
		{
			name:       "threshold is inclusive",
			classifier: &stubClassifier{verdict: classifier.Verdict{Pattern: patterns.Greedy, Confidence: 0.7}},
			src:        binarySearchSrc,
			want:       patterns.Greedy,
			provenance: ProvenanceStatistical,
		},
		{
			name:       "low confidence falls back",
			classifier: &stubClassifier{verdict: classifier.Verdict{Pattern: patterns.Greedy, Confidence: 0.69}},
			src:        binarySearchSrc,
			want:       patterns.BinarySearch,
			provenance: ProvenanceHeuristic,
		},
		{
			name:       "no label falls back",
			classifier: &stubClassifier{verdict: classifier.Verdict{Confidence: 0.99}},
			src:        binarySearchSrc,
			want:       patterns.BinarySearch,
			provenance: ProvenanceHeuristic,
		},
		{
			name:       "classifier error is swallowed",
			classifier: &stubClassifier{err: errors.Newf(errors.ClassifierUnavailable, "down")},
			src:        binarySearchSrc,
			want:       patterns.BinarySearch,
			provenance: ProvenanceHeuristic,
		},
		{
			name:       "no signal means no pattern",
			classifier: &stubClassifier{err: classifier.ErrUnavailable},
			src:        "def f(a):\n    return a\n",
			want:       patterns.None,
			provenance: ProvenanceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.classifier, 0.7, slogutil.NewDiscardLogger())
			got := m.Match(context.Background(), pyast.MustParse(tt.src), nil, nil)
			if got.Pattern != tt.want || got.Provenance != tt.provenance {
				t.Errorf("Match() = %s/%s, want %s/%s", got.Pattern, got.Provenance, tt.want, tt.provenance)
			}
			if tt.classifier.calls != 1 {
				t.Errorf("classifier called %d times, want 1", tt.classifier.calls)
			}
			if got.Detected() != (tt.want != patterns.None) {
				t.Errorf("Detected() = %v", got.Detected())
			}
			if got.Provenance != ProvenanceStatistical && len(got.Scores) != len(patterns.Kinds) {
				t.Errorf("heuristic result carries %d scores", len(got.Scores))
			}
			if got.Provenance == ProvenanceNone && got.Confidence != 0 {
				t.Errorf("Confidence = %v, want 0", got.Confidence)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	m := New(nil, 0, nil)
	if m.threshold != DefaultThreshold {
		t.Errorf("threshold = %v", m.threshold)
	}
	got := m.Match(context.Background(), pyast.MustParse(binarySearchSrc), nil, nil)
	if got.Pattern != patterns.BinarySearch || got.Provenance != ProvenanceHeuristic {
		t.Errorf("Match() = %+v", got)
	}
}
