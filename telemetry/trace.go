package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans and measurements.
//
//nolint:gochecknoglobals // OpenTelemetry attribute keys must be global for reuse
var (
	AttrMethodKey = attribute.Key("resources_method")
	AttrStatusKey = attribute.Key("resources_status")
	AttrErrorKey  = attribute.Key("resources_error")
	AttrHolderKey = attribute.Key("resources_holder")
	AttrLocaleKey = attribute.Key("resources_locale")
	AttrKindKey   = attribute.Key("resources_kind")
	AttrCodeKey   = attribute.Key("resources_code")

	packageKey = attribute.Key("resources_package")
)

type timingKey struct{}

// timing is what Start leaves in the context for End.
type timing struct {
	operation string
	started   time.Time
}

type tracer struct {
	pkg     string
	tracer  trace.Tracer
	latency metric.Float64Histogram
}

// NewTracer creates the tracer of pkg. Spans and measurements go to the
// global providers current at the time of the call.
func NewTracer(pkg string, options ...trace.TracerOption) Tracer {
	return &tracer{
		pkg:     pkg,
		tracer:  otel.Tracer(pkg, options...),
		latency: LatencyMeasure(pkg),
	}
}

//nolint:spancheck // the caller ends the span with End
func (t *tracer) Start(
	ctx context.Context,
	operation string,
	options ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	options = append(options, trace.WithAttributes(AttrMethodKey.String(operation)))
	ctx, span := t.tracer.Start(ctx, operation, options...)
	return context.WithValue(ctx, timingKey{}, timing{
		operation: t.pkg + "/" + operation,
		started:   time.Now(),
	}), span
}

func (t *tracer) End(ctx context.Context, span trace.Span, err error, options ...trace.SpanEndOption) {
	if err != nil {
		span.SetAttributes(AttrErrorKey.String(err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(options...)

	tm, ok := ctx.Value(timingKey{}).(timing)
	if !ok {
		util.Log(ctx).Error("telemetry: span ended on a context Start did not return")
		return
	}
	t.latency.Record(ctx,
		float64(time.Since(tm.started).Microseconds())/float64(time.Millisecond/time.Microsecond),
		metric.WithAttributes(
			AttrStatusKey.String(ErrorCode(err)),
			AttrMethodKey.String(tm.operation)),
	)
}

// ErrorCode classifies err for the status attribute of latency measurements.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	default:
		return "err"
	}
}
