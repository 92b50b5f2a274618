// internal/ringlog/handler.go
package ringlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ModuleKey is the attribute whose value becomes the entry's module tag.
const ModuleKey = "module"

// Handler adapts a Buffer to slog.Handler, so every component of the
// daemon can log through the standard structured logger while the
// buffer retains a bounded query-friendly history.
type Handler struct {
	buf    *Buffer
	module string
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler wraps buf in a slog.Handler.
func NewHandler(buf *Buffer) *Handler {
	return &Handler{buf: buf}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.buf.MinLevel()
}

func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	module := h.module

	var sb strings.Builder
	sb.WriteString(rec.Message)

	appendAttr := func(a slog.Attr) {
		if a.Key == ModuleKey && len(h.groups) == 0 {
			module = a.Value.String()
			return
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fmt.Fprintf(&sb, " %s=%v", key, a.Value)
	}

	for _, a := range h.attrs {
		appendAttr(a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		appendAttr(a)
		return true
	})

	h.buf.Append(rec.Level, module, sb.String())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)

	// A top-level module attribute becomes the preset module tag.
	if len(h.groups) == 0 {
		for _, a := range attrs {
			if a.Key == ModuleKey {
				h2.module = a.Value.String()
			}
		}
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

// Fanout returns a handler that forwards each record to every handler.
// Used to keep the terminal handler and the ring buffer in sync.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanoutHandler(handlers)
}

type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
