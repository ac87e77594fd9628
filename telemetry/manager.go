package telemetry

import (
	"context"
	"errors"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/pitabwire/resources/config"
)

type Manager interface {
	Init(ctx context.Context) error
	Disabled() bool
	Shutdown(ctx context.Context) error
}

type manager struct {
	serviceName string

	cfg config.ConfigurationTelemetry

	disableTracing bool

	traceTextMap  propagation.TextMapPropagator
	traceExporter sdktrace.SpanExporter
	traceSampler  sdktrace.Sampler
	metricsReader sdkmetrics.Reader

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetrics.MeterProvider
}

func (m *manager) Disabled() bool {
	return m.disableTracing
}

// NewManager creates a new telemetry setup manager.
func NewManager(ctx context.Context, cfg config.ConfigurationTelemetry, opts ...Option) Manager {
	m := &manager{
		cfg: cfg,
	}

	if cfg != nil {
		m.serviceName = cfg.Name()
		m.disableTracing = cfg.DisableOpenTelemetry()
	}

	for _, opt := range opts {
		opt(ctx, m)
	}

	return m
}

// Init installs global tracer and meter providers. Spans go to the configured
// exporter and measurements to the configured reader; without them nothing
// leaves the process.
func (m *manager) Init(ctx context.Context) error {
	if m.Disabled() {
		return nil
	}

	res, err := m.setupResource()
	if err != nil {
		return err
	}

	m.setupTextMapPropagator()
	m.setupTraceSampler()

	return m.setupProviders(ctx, res)
}

// setupResource creates and returns the OpenTelemetry resource.
func (m *manager) setupResource() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(m.serviceName),
		semconv.ProcessPID(os.Getpid()),
		semconv.ProcessRuntimeName("go"),
		semconv.ProcessRuntimeVersion(runtime.Version()),
	}

	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// setupTextMapPropagator initializes the text map propagator if not already set.
func (m *manager) setupTextMapPropagator() {
	if m.traceTextMap == nil {
		m.traceTextMap = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{})
	}
}

// setupTraceSampler initializes the trace sampler if not already set.
func (m *manager) setupTraceSampler() {
	if m.traceSampler == nil {
		traceIDRatio := 1.0

		if m.cfg != nil {
			traceIDRatio = m.cfg.SamplingRatio()
		}

		m.traceSampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(traceIDRatio))
	}
}

// setupProviders initializes the OpenTelemetry providers.
func (m *manager) setupProviders(_ context.Context, res *resource.Resource) error {
	otel.SetTextMapPropagator(m.traceTextMap)

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(m.traceSampler),
		sdktrace.WithResource(res),
	}
	if m.traceExporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(m.traceExporter))
	}
	m.tracerProvider = sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(m.tracerProvider)

	meterOpts := []sdkmetrics.Option{sdkmetrics.WithResource(res), sdkmetrics.WithView(Views()...)}
	if m.metricsReader != nil {
		meterOpts = append(meterOpts, sdkmetrics.WithReader(m.metricsReader))
	}
	m.meterProvider = sdkmetrics.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(m.meterProvider)

	return nil
}

// Shutdown flushes and stops the providers installed by Init.
func (m *manager) Shutdown(ctx context.Context) error {
	var errs []error
	if m.tracerProvider != nil {
		errs = append(errs, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		errs = append(errs, m.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
