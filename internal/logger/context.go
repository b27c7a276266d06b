package logger

import (
	"context"
	"log/slog"
)

type requestIDKey struct{}
type dealerKey struct{}

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithDealer returns a new context carrying the resolved dealer slug.
func WithDealer(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, dealerKey{}, slug)
}

// Dealer extracts the dealer slug from the context, or "" on the main domain.
func Dealer(ctx context.Context) string {
	slug, _ := ctx.Value(dealerKey{}).(string)
	return slug
}

// contextHandler appends request_id and dealer_slug to records logged with a context.
type contextHandler struct {
	inner slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if ctx != nil {
		if id := RequestID(ctx); id != "" {
			rec.AddAttrs(slog.String("request_id", id))
		}
		if slug := Dealer(ctx); slug != "" {
			rec.AddAttrs(slog.String("dealer_slug", slug))
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
