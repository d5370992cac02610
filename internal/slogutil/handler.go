// Package slogutil provides the slog handler and logger constructors used across algoscope.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// TextHandler formats records as a single line:
// TIMESTAMP [level] (component) Message | key=value, key=value
type TextHandler struct {
	w         io.Writer
	level     slog.Leveler
	component string
	attrs     []slog.Attr
	groups    []string
	mu        *sync.Mutex
}

// NewTextHandler creates a new line-oriented log handler.
func NewTextHandler(w io.Writer, opts *slog.HandlerOptions) *TextHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &TextHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString(r.Time.UTC().Format(time.RFC3339))
	buf.WriteString(" [")
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	if h.component != "" {
		buf.WriteString("(")
		buf.WriteString(h.component)
		buf.WriteString(") ")
	}
	buf.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.resolveAttr(a))
		return true
	})

	first := true
	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		if first {
			buf.WriteString(" | ")
			first = false
		} else {
			buf.WriteString(", ")
		}
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(formatValue(a.Value))
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
// A "component" attribute is lifted into the line prefix.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, a := range attrs {
		if a.Key == ComponentKey && len(h.groups) == 0 {
			clone.component = a.Value.String()
			continue
		}
		clone.attrs = append(clone.attrs, h.resolveAttr(a))
	}
	return clone
}

// WithGroup returns a new handler with the given group name added.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *TextHandler) clone() *TextHandler {
	attrs := make([]slog.Attr, len(h.attrs))
	copy(attrs, h.attrs)
	groups := make([]string, len(h.groups))
	copy(groups, h.groups)
	return &TextHandler{
		w:         h.w,
		level:     h.level,
		component: h.component,
		attrs:     attrs,
		groups:    groups,
		mu:        h.mu,
	}
}

// resolveAttr applies group prefixes to attribute keys.
func (h *TextHandler) resolveAttr(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return slog.Attr{Key: key, Value: a.Value}
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindGroup:
		var buf bytes.Buffer
		buf.WriteString("{")
		for i, a := range v.Group() {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(a.Key)
			buf.WriteString("=")
			buf.WriteString(formatValue(a.Value))
		}
		buf.WriteString("}")
		return buf.String()
	default:
		return fmt.Sprint(v.Any())
	}
}
