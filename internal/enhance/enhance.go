// Package enhance decides which steps matter to a learner and attaches an
// explanation and a visualization hint to each of them.
package enhance

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"algoscope/internal/explain"
	"algoscope/internal/fallback"
	"algoscope/internal/patterns"
	"algoscope/internal/slogutil"
	"algoscope/internal/trace"
)

// trivialMaxLen is the length below which a counter bump is not worth explaining.
const trivialMaxLen = 8

var counterBump = regexp.MustCompile(`^[A-Za-z_]\w*\s*(\+=|-=)\s*1$|^[A-Za-z_]\w*(\+\+|--)$`)

// IsSignificant reports whether a source line deserves an explanation. Blank and
// comment-only lines never do, nor do short counter bumps such as "i += 1".
func IsSignificant(codeLine string) bool {
	code := strings.TrimSpace(codeLine)
	if code == "" || strings.HasPrefix(code, "#") {
		return false
	}
	if len(code) < trivialMaxLen && counterBump.MatchString(code) {
		return false
	}
	return true
}

// Stats counts where explanations came from in one Enhance call.
type Stats struct {
	Significant   int
	Insignificant int
	// ByProvider counts explanations per explainer name
	ByProvider map[string]int
	// Reused counts steps answered from the request-scoped dedupe
	Reused int
}

// Enhancer explains steps through an optional model backend with the template
// explainer as the last tier.
type Enhancer struct {
	ai     explain.Explainer
	logger *slog.Logger
}

// New creates an enhancer. A nil ai explainer uses templates only.
func New(ai explain.Explainer, logger *slog.Logger) *Enhancer {
	return &Enhancer{ai: ai, logger: slogutil.ForComponent(logger, "enhance")}
}

// aiProvider is a model backend that stays disabled for the rest of a request
// once it has failed.
type aiProvider struct {
	explainer explain.Explainer
	down      *atomic.Bool
}

func (p aiProvider) Name() string    { return p.explainer.Name() }
func (p aiProvider) Available() bool { return !p.down.Load() }
func (p aiProvider) Provide(ctx context.Context, req explain.Request) (string, error) {
	text, err := p.explainer.Explain(ctx, req)
	if err != nil {
		p.down.Store(true)
	}
	return text, err
}

func (e *Enhancer) ladder() *fallback.Ladder[explain.Request, string] {
	var providers []fallback.Provider[explain.Request, string]
	if e.ai != nil {
		providers = append(providers, aiProvider{explainer: e.ai, down: new(atomic.Bool)})
	}
	tmpl := explain.Template{}
	providers = append(providers, fallback.Func[explain.Request, string]{ID: tmpl.Name(), Fn: tmpl.Explain})
	return fallback.New("explainer", e.logger, providers...).
		Accept(func(s string) bool { return strings.TrimSpace(s) != "" })
}

// Enhance sets significance, explanation and visualization on every step. Each
// step is written exactly once; identical steps within the call are explained once.
func (e *Enhancer) Enhance(ctx context.Context, steps []trace.Step, kind patterns.Kind, problemText string) Stats {
	stats := Stats{ByProvider: make(map[string]int)}
	ladder := e.ladder()
	seen := make(map[string]string)

	for i := range steps {
		step := &steps[i]
		step.Significant = IsSignificant(step.CodeLine)
		step.Visualization = Visualize(step)
		if !step.Significant {
			stats.Insignificant++
			step.Explanation = ""
			continue
		}
		stats.Significant++

		req := explain.Request{Pattern: kind, Step: step, Problem: problemText}
		key := explain.RequestKey(req)
		if step.Event != trace.EventReturn {
			if text, ok := seen[key]; ok {
				step.Explanation = text
				stats.Reused++
				continue
			}
		}

		res, err := ladder.Run(ctx, req)
		if err != nil {
			// only a cancelled context gets here; the template tier never fails
			step.Explanation = explain.Describe(req)
			stats.ByProvider[explain.Template{}.Name()]++
			continue
		}
		step.Explanation = res.Value
		stats.ByProvider[res.Provider]++
		if step.Event != trace.EventReturn {
			seen[key] = res.Value
		}
	}

	e.logger.Debug("Steps enhanced",
		"steps", len(steps),
		"significant", stats.Significant,
		"reused", stats.Reused)
	return stats
}
