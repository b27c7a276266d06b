package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ruedaya"

// StartSyncSpan starts a span for an OAuth account sync with the backend.
func StartSyncSpan(ctx context.Context, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "account.sync",
		trace.WithAttributes(
			attribute.String("oauth.provider", provider),
		),
	)
}

// StartDealerLookupSpan starts a span for a dealer context lookup.
func StartDealerLookupSpan(ctx context.Context, slug string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dealer.lookup",
		trace.WithAttributes(
			attribute.String("dealer.slug", slug),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
