// Package explain produces one-sentence, learner-facing explanations of execution
// steps, from a language model when one is configured and from pattern-keyed
// templates otherwise.
package explain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"algoscope/internal/patterns"
	"algoscope/internal/trace"
)

// MaxWords bounds an explanation after trimming.
const MaxWords = 15

// Request is one step to explain.
type Request struct {
	Pattern patterns.Kind
	Step    *trace.Step
	// Problem is the problem description, used as context by model backends
	Problem string
}

// CodeLine returns the trimmed source line of the step.
func (r Request) CodeLine() string {
	if r.Step == nil {
		return ""
	}
	return strings.TrimSpace(r.Step.CodeLine)
}

// Explainer turns a step into a short explanation.
type Explainer interface {
	// Name identifies the backend in logs and metrics
	Name() string
	Explain(ctx context.Context, req Request) (string, error)
}

// FormatChanges renders at most three changes as name=value, sorted by name and
// capped at 100 characters.
func FormatChanges(changes map[string]trace.Change) string {
	if len(changes) == 0 {
		return "No changes"
	}
	step := trace.Step{Changes: changes}
	names := step.ChangedNames()
	if len(names) > 3 {
		names = names[:3]
	}
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, clip(name, 20)+"="+clip(fmt.Sprint(render(changes[name].New)), 30))
	}
	out := strings.Join(parts, ", ")
	if len(out) > 100 {
		out = out[:100] + "..."
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var verbosePrefixes = []string{
	"The algorithm",
	"In this step",
	"This operation",
	"The hash map",
	"The two pointers",
	"We are",
	"This step",
	"Now we",
}

var sentenceEnd = regexp.MustCompile(`[.!?]`)

// Trim reduces model output to its first sentence without filler prefixes, at most
// MaxWords words, starting with a capital letter.
func Trim(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, prefix := range verbosePrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, ","))
		}
	}
	if loc := sentenceEnd.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[0]]
	}
	words := strings.Fields(cleaned)
	if len(words) > MaxWords {
		words = words[:MaxWords]
	}
	out := strings.Join(words, " ")
	if out == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(out)
	return string(unicode.ToUpper(r)) + out[size:]
}
