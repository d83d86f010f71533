// Package ctxlogger carries slog attributes through a context so request-
// scoped fields show up on every log line without threading a logger around.
package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// AppendCtx returns a context carrying attr in addition to any attributes
// already present.
func AppendCtx(ctx context.Context, attr slog.Attr) context.Context {
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)

	appended := make([]slog.Attr, 0, len(attrs)+1)
	appended = append(appended, attrs...)
	appended = append(appended, attr)

	return context.WithValue(ctx, ctxKey{}, appended)
}

// ContextHandler decorates records with the attributes stored in the
// context before delegating to the wrapped handler.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}
