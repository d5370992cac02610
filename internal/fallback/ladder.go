// Package fallback tries capability providers in preference order until one of them
// produces an acceptable result.
package fallback

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"algoscope/internal/slogutil"
)

// ErrRejected is recorded for a provider whose result failed the acceptance check.
var ErrRejected = stderrors.New("result rejected")

// ErrUnavailable is recorded for a provider that reported itself unavailable.
var ErrUnavailable = stderrors.New("provider unavailable")

// Provider produces a result of type Out for an input of type In.
type Provider[In, Out any] interface {
	// Name identifies the provider in logs and provenance
	Name() string

	// Available reports whether the provider can be tried at all
	Available() bool

	// Provide computes the result
	Provide(ctx context.Context, in In) (Out, error)
}

// Func adapts a plain function to an always-available Provider.
type Func[In, Out any] struct {
	ID string
	Fn func(ctx context.Context, in In) (Out, error)
}

func (f Func[In, Out]) Name() string    { return f.ID }
func (f Func[In, Out]) Available() bool { return f.Fn != nil }
func (f Func[In, Out]) Provide(ctx context.Context, in In) (Out, error) {
	return f.Fn(ctx, in)
}

// Attempt records one provider that did not produce the final result.
type Attempt struct {
	Provider string
	Err      error
}

// Result is the accepted value plus the ladder walk that led to it.
type Result[Out any] struct {
	Value    Out
	Provider string
	Failed   []Attempt
}

// FellBack reports whether the result came from anything but the first provider tried.
func (r Result[Out]) FellBack() bool {
	return len(r.Failed) > 0
}

// Ladder walks providers in preference order.
type Ladder[In, Out any] struct {
	name      string
	providers []Provider[In, Out]
	accept    func(Out) bool
	stop      func(error) bool
	logger    *slog.Logger
}

// New creates a ladder. Providers are tried in the order given.
func New[In, Out any](name string, logger *slog.Logger, providers ...Provider[In, Out]) *Ladder[In, Out] {
	return &Ladder[In, Out]{
		name:      name,
		providers: providers,
		logger:    slogutil.ForComponent(logger, "fallback"),
	}
}

// Accept sets the predicate a result must satisfy to end the walk.
func (l *Ladder[In, Out]) Accept(fn func(Out) bool) *Ladder[In, Out] {
	l.accept = fn
	return l
}

// StopOn sets the predicate for errors that end the walk immediately instead of
// falling through to the next provider.
func (l *Ladder[In, Out]) StopOn(fn func(error) bool) *Ladder[In, Out] {
	l.stop = fn
	return l
}

// Providers returns the provider names in preference order.
func (l *Ladder[In, Out]) Providers() []string {
	names := make([]string, 0, len(l.providers))
	for _, p := range l.providers {
		names = append(names, p.Name())
	}
	return names
}

// Run tries each provider in turn and returns the first accepted result. A stop
// error is returned as is, together with the attempts made so far.
func (l *Ladder[In, Out]) Run(ctx context.Context, in In) (Result[Out], error) {
	var res Result[Out]

	for _, p := range l.providers {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !p.Available() {
			l.logger.Debug("Provider not available",
				"ladder", l.name,
				"provider", p.Name())
			res.Failed = append(res.Failed, Attempt{Provider: p.Name(), Err: ErrUnavailable})
			continue
		}

		out, err := p.Provide(ctx, in)
		if err != nil {
			if l.stop != nil && l.stop(err) {
				res.Failed = append(res.Failed, Attempt{Provider: p.Name(), Err: err})
				return res, err
			}
			l.logger.Warn("Provider failed, falling back",
				"ladder", l.name,
				"provider", p.Name(),
				"error", err.Error())
			res.Failed = append(res.Failed, Attempt{Provider: p.Name(), Err: err})
			continue
		}

		if l.accept != nil && !l.accept(out) {
			l.logger.Debug("Provider result rejected",
				"ladder", l.name,
				"provider", p.Name())
			res.Failed = append(res.Failed, Attempt{Provider: p.Name(), Err: ErrRejected})
			continue
		}

		res.Value = out
		res.Provider = p.Name()
		if res.FellBack() {
			l.logger.Info("Fell back to provider",
				"ladder", l.name,
				"provider", p.Name(),
				"failed", len(res.Failed))
		}
		return res, nil
	}

	l.logger.Warn("No provider produced a result",
		"ladder", l.name,
		"tried", len(l.providers))
	return res, &ExhaustedError{Ladder: l.name, Attempts: res.Failed}
}

// ExhaustedError is returned when every provider failed or was rejected.
type ExhaustedError struct {
	Ladder   string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no providers configured", e.Ladder)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("%s: all %d providers failed, last %s: %v", e.Ladder, len(e.Attempts), last.Provider, last.Err)
}

// Unwrap exposes the last provider error.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
