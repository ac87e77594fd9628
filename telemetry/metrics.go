package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// UCUM unit codes, see http://unitsofmeasure.org/ucum.html.
const (
	unitDimensionless = "1"
	unitMilliseconds  = "ms"
	unitBytes         = "B"

	latencySuffix = "/latency"
)

// Bundle loads and injections finish in well under a second unless a module
// is remote, so the buckets are dense at the low end.
//
//nolint:gochecknoglobals // histogram boundaries shared by every latency view
var latencyBoundaries = []float64{
	0, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000,
}

// Views keeps only the method and status attributes on latency histograms and
// buckets them for resource loading.
func Views() []sdkmetric.View {
	return []sdkmetric.View{
		func(inst sdkmetric.Instrument) (sdkmetric.Stream, bool) {
			if inst.Kind != sdkmetric.InstrumentKindHistogram || !strings.HasSuffix(inst.Name, latencySuffix) {
				return sdkmetric.Stream{}, false
			}
			return sdkmetric.Stream{
				Name:        inst.Name,
				Description: "Latency of resource operations, by method and status.",
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: latencyBoundaries},
				AttributeFilter: func(kv attribute.KeyValue) bool {
					return kv.Key == AttrMethodKey || kv.Key == AttrStatusKey
				},
			}, true
		},
	}
}

func meter(pkg string) metric.Meter {
	return otel.Meter(pkg, metric.WithInstrumentationAttributes(packageKey.String(pkg)))
}

// mustInstrument panics on the invalid names the meter rejects; names are
// fixed at compile time.
func mustInstrument[T any](pkg, name string, inst T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("telemetry: instrument %s%s: %v", pkg, name, err))
	}
	return inst
}

// LatencyMeasure returns the latency histogram of pkg in milliseconds.
func LatencyMeasure(pkg string) metric.Float64Histogram {
	h, err := meter(pkg).Float64Histogram(
		pkg+latencySuffix,
		metric.WithDescription("Latency of resource operations"),
		metric.WithUnit(unitMilliseconds),
	)
	return mustInstrument(pkg, latencySuffix, h, err)
}

func counter(pkg, name, description, unit string) metric.Int64Counter {
	c, err := meter(pkg).Int64Counter(pkg+name, metric.WithDescription(description), metric.WithUnit(unit))
	return mustInstrument(pkg, name, c, err)
}

// Instruments are the counters recorded by the injection engine.
type Instruments struct {
	// Missing counts resources that fell back or stayed empty.
	Missing metric.Int64Counter
	// Injections counts holder injections.
	Injections metric.Int64Counter
	// BinaryBytes adds up the size of binary resources read.
	BinaryBytes metric.Int64Counter
}

// NewInstruments creates the counters of pkg on the global meter provider.
func NewInstruments(pkg string) *Instruments {
	return &Instruments{
		Missing:     counter(pkg, "/missing_resources", "Count of resources not found, by kind and error code.", unitDimensionless),
		Injections:  counter(pkg, "/injections", "Count of holder injections, by holder.", unitDimensionless),
		BinaryBytes: counter(pkg, "/binary_bytes", "Bytes of binary resources read.", unitBytes),
	}
}

// RecordMissing counts a resource that was not found.
func (i *Instruments) RecordMissing(ctx context.Context, kind string, code int) {
	if i == nil {
		return
	}
	i.Missing.Add(ctx, 1, metric.WithAttributes(AttrKindKey.String(kind), AttrCodeKey.Int(code)))
}

// RecordInjection counts one holder injection.
func (i *Instruments) RecordInjection(ctx context.Context, holder string) {
	if i == nil {
		return
	}
	i.Injections.Add(ctx, 1, metric.WithAttributes(AttrHolderKey.String(holder)))
}

// RecordBinary adds n bytes read from a binary resource.
func (i *Instruments) RecordBinary(ctx context.Context, n int) {
	if i == nil {
		return
	}
	i.BinaryBytes.Add(ctx, int64(n))
}
