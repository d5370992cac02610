// Package pipeline runs a submission through every stage: parse, structure,
// pattern matching, traced execution and step enhancement.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"algoscope/internal/classifier"
	"algoscope/internal/config"
	"algoscope/internal/enhance"
	"algoscope/internal/errors"
	"algoscope/internal/explain"
	"algoscope/internal/matcher"
	"algoscope/internal/patterns"
	"algoscope/internal/problem"
	"algoscope/internal/pyast"
	"algoscope/internal/sandbox"
	"algoscope/internal/slogutil"
	"algoscope/internal/structure"
	"algoscope/internal/trace"
)

// Options overrides the collaborators that would otherwise be built from config.
type Options struct {
	// Classifier replaces the configured statistical classifier
	Classifier classifier.Classifier
	// Explainer replaces the configured model explainer
	Explainer explain.Explainer
	// Registerer receives the pipeline metrics; nil keeps them unexported
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// Request is one submission.
type Request struct {
	Source  []byte
	Problem *problem.Data
}

// Pipeline is safe for concurrent use. Traced runs are serialized by the
// sandbox; a concurrent analysis falls back to the Simple Executor.
type Pipeline struct {
	cfg      *config.Config
	sandbox  *sandbox.Sandbox
	matcher  *matcher.Matcher
	executor *trace.Executor
	enhancer *enhance.Enhancer
	cache    *explain.Cached
	metrics  *Metrics
	logger   *slog.Logger

	cacheMu    sync.Mutex
	lastHits   uint64
	lastMisses uint64
}

// New wires a pipeline from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	c := opts.Classifier
	if c == nil {
		c = classifier.New(cfg.Classifier, logger)
	}

	p := &Pipeline{
		cfg:     cfg,
		matcher: matcher.New(c, cfg.Matcher.ConfidenceThreshold, logger),
		metrics: NewMetrics(opts.Registerer),
		logger:  slogutil.ForComponent(logger, "pipeline"),
	}
	p.sandbox = sandbox.New(cfg.Sandbox, logger)
	p.executor = trace.NewExecutor(p.sandbox, cfg.Trace, logger)

	ai := opts.Explainer
	if ai == nil {
		cached, err := explain.FromConfig(cfg.Explainer, logger)
		if err != nil {
			if !errors.Is(err, errors.ExplainerUnavailable) {
				return nil, err
			}
			p.logger.Warn("Model explainer unavailable, using templates",
				"provider", cfg.Explainer.Provider,
				"error", err.Error())
		} else if cached != nil {
			p.cache = cached
			ai = cached
		}
	}
	p.enhancer = enhance.New(ai, logger)
	return p, nil
}

// Close releases the explanation cache.
func (p *Pipeline) Close() {
	if p.cache != nil {
		p.cache.Close()
	}
}

// Sandbox returns the pipeline's sandbox.
func (p *Pipeline) Sandbox() *sandbox.Sandbox {
	return p.sandbox
}

// Metrics returns the pipeline's collectors.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Analyze parses and analyzes a submission. Only a parse failure is returned as
// an error; security, timeout and recursion failures are reported in
// AlgorithmAnalysis.ExecutionError alongside the static analysis.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*AlgorithmAnalysis, error) {
	start := time.Now()
	prog, err := pyast.Parse(ctx, req.Source)
	p.metrics.observeStage(StageParse, start)
	if err != nil {
		p.metrics.analyses.WithLabelValues("parse_failure").Inc()
		return nil, err
	}
	return p.AnalyzeProgram(ctx, prog, req.Problem), nil
}

// AnalyzeProgram analyzes an already parsed program.
func (p *Pipeline) AnalyzeProgram(ctx context.Context, prog *pyast.Program, prob *problem.Data) *AlgorithmAnalysis {
	start := time.Now()
	cs := structure.Analyze(prog)
	p.metrics.observeStage(StageStructure, start)

	start = time.Now()
	match := p.matcher.Match(ctx, prog, cs, prob)
	p.metrics.observeStage(StageMatch, start)
	p.metrics.provenance.WithLabelValues(string(match.Provenance), match.Pattern.String()).Inc()

	a := &AlgorithmAnalysis{
		ID:               uuid.New().String(),
		PrimaryPattern:   match.Pattern,
		Confidence:       match.Confidence,
		Provenance:       match.Provenance,
		PatternScores:    match.Scores,
		ProblemAlignment: ProblemAlignment(cs, prob, match.Pattern),
		DataStructures:   cs.DataStructures,
		TimeComplexity:   TimeComplexity(cs, match.Pattern),
		SpaceComplexity:  SpaceComplexity(cs),
		Optimizations:    Optimizations(cs),
		PotentialIssues:  PotentialIssues(cs, prob),
		Structure:        cs,
		Steps:            []trace.Step{},
	}

	if !match.Detected() {
		p.logger.Info("No pattern detected, skipping execution",
			"id", a.ID)
		p.metrics.analyses.WithLabelValues("ok").Inc()
		return a
	}

	if prob.SelectedTestCase() == nil {
		p.logger.Info("No test case, skipping execution",
			"id", a.ID,
			"pattern", a.PrimaryPattern.String())
		if err := sandbox.Validate(prog); err != nil {
			a.ExecutionError = errors.From(err)
			p.metrics.analyses.WithLabelValues("execution_error").Inc()
			return a
		}
		p.metrics.analyses.WithLabelValues("ok").Inc()
		return a
	}

	p.execute(ctx, a, prog, prob)
	if a.ExecutionError != nil {
		p.metrics.analyses.WithLabelValues("execution_error").Inc()
	} else {
		p.metrics.analyses.WithLabelValues("ok").Inc()
	}

	p.logger.Info("Analysis complete",
		"id", a.ID,
		"pattern", a.PrimaryPattern.String(),
		"provenance", string(a.Provenance),
		"steps", len(a.Steps))
	return a
}

func (p *Pipeline) execute(ctx context.Context, a *AlgorithmAnalysis, prog *pyast.Program, prob *problem.Data) {
	tc := prob.SelectedTestCase()
	input, expected := tc.InputData, tc.ExpectedOutput

	start := time.Now()
	out, err := p.executor.Execute(ctx, prog, input)
	p.metrics.observeStage(StageExecute, start)
	for _, attempt := range out.Attempts {
		p.metrics.fallbacks.WithLabelValues(attempt.Provider).Inc()
	}
	if err != nil {
		p.metrics.executors.WithLabelValues("none").Inc()
		if e := errors.From(err); e != nil && errors.IsUserVisible(err) {
			a.ExecutionError = e
		} else {
			a.ExecutionError = errors.New(errors.ExecutionError, "execution produced no steps", err)
		}
		return
	}
	p.metrics.executors.WithLabelValues(out.Executor).Inc()

	start = time.Now()
	stats := p.enhancer.Enhance(ctx, out.Steps, a.PrimaryPattern, problemText(prob))
	p.metrics.observeStage(StageEnhance, start)
	for name, n := range stats.ByProvider {
		p.metrics.explanations.WithLabelValues(name).Add(float64(n))
	}
	p.syncCacheMetrics()

	a.Steps = out.Steps
	a.Summary = Summarize(out, a.PrimaryPattern, expected)
	a.Summary.Explainers = stats.ByProvider
	if e := errors.From(out.RunErr); e != nil {
		a.Summary.RunError = e
	}
}

// syncCacheMetrics moves the cache counters into Prometheus.
func (p *Pipeline) syncCacheMetrics() {
	if p.cache == nil {
		return
	}
	hits, misses := p.cache.Stats()
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.metrics.recordCache(hits-p.lastHits, misses-p.lastMisses)
	p.lastHits, p.lastMisses = hits, misses
}

func problemText(prob *problem.Data) string {
	if prob == nil {
		return ""
	}
	if prob.Description == "" {
		return prob.Title
	}
	return prob.Title + "\n" + prob.Description
}

// Patterns scores a program against every pattern without executing it.
func Patterns(prog *pyast.Program, prob *problem.Data) (matcher.Result, *structure.CodeStructure) {
	cs := structure.Analyze(prog)
	return matcher.Heuristic(prog, cs, prob), cs
}

// Trace executes a program for a given pattern and enhances its steps, skipping
// pattern matching.
func (p *Pipeline) Trace(ctx context.Context, prog *pyast.Program, kind patterns.Kind, prob *problem.Data) (*trace.Outcome, error) {
	var input map[string]interface{}
	if tc := prob.SelectedTestCase(); tc != nil {
		input = tc.InputData
	}
	out, err := p.executor.Execute(ctx, prog, input)
	if err != nil {
		return out, err
	}
	p.enhancer.Enhance(ctx, out.Steps, kind, problemText(prob))
	p.syncCacheMetrics()
	return out, nil
}
