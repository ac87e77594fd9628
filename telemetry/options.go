package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Manager.
type Option func(ctx context.Context, m *manager)

// WithDisableTracing makes Init a no-op.
func WithDisableTracing() Option {
	return func(_ context.Context, m *manager) {
		m.disableTracing = true
	}
}

// WithServiceName overrides the configured service name.
func WithServiceName(name string) Option {
	return func(_ context.Context, m *manager) {
		m.serviceName = name
	}
}

// WithPropagationTextMap replaces the trace context and baggage propagator.
func WithPropagationTextMap(carrier propagation.TextMapPropagator) Option {
	return func(_ context.Context, m *manager) {
		m.traceTextMap = carrier
	}
}

// WithTraceExporter sends spans of injections and locale sweeps to exporter.
func WithTraceExporter(exporter sdktrace.SpanExporter) Option {
	return func(_ context.Context, m *manager) {
		m.traceExporter = exporter
	}
}

// WithTraceSampler replaces the ratio sampler built from configuration.
func WithTraceSampler(sampler sdktrace.Sampler) Option {
	return func(_ context.Context, m *manager) {
		m.traceSampler = sampler
	}
}

// WithMetricsReader collects the resource counters and latency histograms
// with reader.
func WithMetricsReader(reader sdkmetrics.Reader) Option {
	return func(_ context.Context, m *manager) {
		m.metricsReader = reader
	}
}
