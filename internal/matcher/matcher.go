// Package matcher picks the primary pattern of a program: the statistical classifier
// first, the heuristic scorers when it has no confident verdict.
package matcher

import (
	"context"
	"log/slog"

	"algoscope/internal/classifier"
	"algoscope/internal/fallback"
	"algoscope/internal/patterns"
	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/slogutil"
	"algoscope/internal/structure"
)

// DefaultThreshold is the minimum classifier confidence that is accepted.
const DefaultThreshold = 0.7

// Provenance records which path produced the primary pattern.
type Provenance string

const (
	ProvenanceStatistical Provenance = "statistical"
	ProvenanceHeuristic   Provenance = "heuristic"
	ProvenanceNone        Provenance = "none"
)

// Result is the selected primary pattern.
type Result struct {
	Pattern    patterns.Kind    `json:"pattern" yaml:"pattern"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Provenance Provenance       `json:"provenance" yaml:"provenance"`
	Scores     []patterns.Score `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// Detected reports whether a pattern was found. Without one, execution tracing is skipped.
func (r Result) Detected() bool {
	return r.Pattern != patterns.None
}

// Input is everything the providers look at.
type Input struct {
	Program   *pyast.Program
	Structure *structure.CodeStructure
	Problem   *problem.Data
}

// Matcher runs the statistical then heuristic ladder.
type Matcher struct {
	ladder    *fallback.Ladder[Input, Result]
	threshold float64
	logger    *slog.Logger
}

// New creates a matcher. A nil classifier is treated as disabled; a threshold of
// zero or less selects DefaultThreshold.
func New(c classifier.Classifier, threshold float64, logger *slog.Logger) *Matcher {
	if c == nil {
		c = classifier.Disabled{}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Matcher{
		threshold: threshold,
		logger:    slogutil.ForComponent(logger, "matcher"),
	}

	statistical := fallback.Func[Input, Result]{
		ID: string(ProvenanceStatistical),
		Fn: func(ctx context.Context, in Input) (Result, error) {
			v, err := c.Classify(ctx, classifier.ExtractFeatures(in.Program), string(in.Program.Source))
			if err != nil {
				return Result{}, err
			}
			return Result{Pattern: v.Pattern, Confidence: v.Confidence, Provenance: ProvenanceStatistical}, nil
		},
	}
	heuristic := fallback.Func[Input, Result]{
		ID: string(ProvenanceHeuristic),
		Fn: func(_ context.Context, in Input) (Result, error) {
			return Heuristic(in.Program, in.Structure, in.Problem), nil
		},
	}

	m.ladder = fallback.New[Input, Result]("pattern", logger, statistical, heuristic).
		Accept(m.accept)
	return m
}

func (m *Matcher) accept(r Result) bool {
	if r.Provenance != ProvenanceStatistical {
		return true
	}
	return r.Pattern.Valid() && r.Confidence >= m.threshold
}

// Match selects the primary pattern. It never fails: classifier errors are logged and
// the heuristic scorers decide.
func (m *Matcher) Match(ctx context.Context, prog *pyast.Program, cs *structure.CodeStructure, p *problem.Data) Result {
	if cs == nil {
		cs = structure.Analyze(prog)
	}
	res, err := m.ladder.Run(ctx, Input{Program: prog, Structure: cs, Problem: p})
	if err != nil {
		m.logger.Warn("Pattern matching did not complete",
			"error", err.Error())
		return Heuristic(prog, cs, p)
	}

	m.logger.Debug("Pattern selected",
		"pattern", res.Value.Pattern.String(),
		"confidence", res.Value.Confidence,
		"provenance", string(res.Value.Provenance))
	return res.Value
}

// Heuristic runs every scorer and picks the arg-max. When every score is zero the
// result has no pattern and zero confidence.
func Heuristic(prog *pyast.Program, cs *structure.CodeStructure, p *problem.Data) Result {
	scores := patterns.ScoreAll(prog, cs, p)
	best, ok := patterns.Best(scores)
	if !ok {
		return Result{Pattern: patterns.None, Provenance: ProvenanceNone, Scores: scores}
	}
	return Result{
		Pattern:    best.Kind,
		Confidence: best.Score,
		Provenance: ProvenanceHeuristic,
		Scores:     scores,
	}
}
