package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps spans around resource operations and records their latency.
// Every span started with Start must be finished with End on the context
// Start returned.
type Tracer interface {
	Start(ctx context.Context, operation string, options ...trace.SpanStartOption) (context.Context, trace.Span)
	End(ctx context.Context, span trace.Span, err error, options ...trace.SpanEndOption)
}
