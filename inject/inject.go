// Package inject fills resource holders from string bundles and binary files.
//
// Injection is best effort: a field that cannot be resolved produces a
// Warning and never stops the remaining fields from being attempted. Missing
// strings receive a fallback value derived from their key, missing binaries
// stay empty.
package inject

import (
	"context"
	"reflect"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/cache"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/fallback"
	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/params"
	"github.com/pitabwire/resources/source"
	"github.com/pitabwire/resources/telemetry"
)

const instrumentationName = "resources/inject"

// WarningHandler receives the warnings of an injection as they occur.
type WarningHandler func(ctx context.Context, w *Warning)

// Injector injects resources for one locale. An Injector holds no per holder
// state and may be reused; a single injection is not safe for concurrent use
// with other code touching the same holder.
type Injector struct {
	locale   language.Tag
	registry *source.Registry
	bundles  *bundle.Loader
	binaries cache.Cache[[]byte]
	ttl      time.Duration

	tracer      telemetry.Tracer
	instruments *telemetry.Instruments
	onWarning   WarningHandler
}

// Option configures an Injector.
type Option func(*Injector)

// WithRegistry sets the modules resources are read from.
func WithRegistry(reg *source.Registry) Option {
	return func(in *Injector) {
		in.registry = reg
	}
}

// WithBundleLoader sets the loader of string bundles.
func WithBundleLoader(l *bundle.Loader) Option {
	return func(in *Injector) {
		in.bundles = l
	}
}

// WithBinaryCache keeps binary resources read in raw for ttl.
func WithBinaryCache(raw cache.RawCache, ttl time.Duration) Option {
	return func(in *Injector) {
		if raw == nil {
			in.binaries = nil
			return
		}
		in.binaries = cache.New[[]byte](raw, "binary")
		in.ttl = ttl
	}
}

// WithTracer sets the tracer spanning each injection.
func WithTracer(t telemetry.Tracer) Option {
	return func(in *Injector) {
		in.tracer = t
	}
}

// WithInstruments sets the counters of missing resources and injections.
func WithInstruments(i *telemetry.Instruments) Option {
	return func(in *Injector) {
		in.instruments = i
	}
}

// WithWarningHandler replaces the default handler, which logs every warning.
func WithWarningHandler(h WarningHandler) Option {
	return func(in *Injector) {
		in.onWarning = h
	}
}

// New creates an injector for locale. language.Und is the root locale.
func New(locale language.Tag, opts ...Option) *Injector {
	in := &Injector{locale: locale}
	for _, opt := range opts {
		opt(in)
	}
	if in.bundles == nil {
		in.bundles = bundle.NewLoader()
	}
	if in.tracer == nil {
		in.tracer = telemetry.NewTracer(instrumentationName)
	}
	if in.instruments == nil {
		in.instruments = telemetry.NewInstruments(instrumentationName)
	}
	if in.onWarning == nil {
		in.onWarning = LogWarning
	}
	return in
}

// Locale returns the locale resources are injected for.
func (in *Injector) Locale() language.Tag {
	return in.locale
}

// Registry returns the modules resources are read from.
func (in *Injector) Registry() *source.Registry {
	return in.registry
}

// LogWarning is the default WarningHandler.
func LogWarning(ctx context.Context, w *Warning) {
	log := util.Log(ctx).
		WithField("code", w.Code.Number()).
		WithField("holder", w.Holder)
	if w.Field != "" {
		log = log.WithField("field", w.Field)
	}
	if w.Key != "" {
		log = log.WithField("key", w.Key)
	}
	if w.Fallback != "" {
		log = log.WithField("fallback", w.Fallback)
	}
	if w.Err != nil {
		log = log.WithError(w.Err)
	}
	log.Warn(w.Code.Format(w.Args...))
}

// Inject fills the fields of h, which must be a non nil pointer to a struct,
// and records the locale on it. Previous values are overwritten.
func (in *Injector) Inject(ctx context.Context, h holder.Holder) Warnings {
	r := &run{in: in, ctx: ctx}

	v := reflect.ValueOf(h)
	if h == nil || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		r.holderName = "<nil>"
		if h != nil {
			r.holderName = v.Type().String()
		}
		r.warn(&Warning{Code: errorcode.TypeNotHolder, Args: []any{r.holderName}})
		return r.warnings
	}

	t := v.Elem().Type()
	r.holderName = t.String()

	spanCtx, span := in.tracer.Start(ctx, "Inject", trace.WithAttributes(
		telemetry.AttrHolderKey.String(r.holderName),
		telemetry.AttrLocaleKey.String(in.locale.String()),
	))
	r.ctx = spanCtx
	defer func() {
		span.SetAttributes(attribute.Int("resources_warnings", len(r.warnings)))
		in.tracer.End(spanCtx, span, nil)
	}()

	h.SetLocale(in.locale)
	in.instruments.RecordInjection(spanCtx, r.holderName)

	schema, err := holder.SchemaOf(t)
	if err != nil {
		r.warn(&Warning{Code: errorcode.TypeNotHolder, Args: []any{r.holderName}, Err: err})
		return r.warnings
	}
	if schema.Err != nil {
		r.warn(&Warning{Code: errorcode.Unknown, Err: schema.Err})
	}

	owner := in.registry.OwnerOf(t.PkgPath())
	r.params = params.FromSchema(schema, source.PackageOf(owner, t.PkgPath()))
	r.stringModule = r.params.StringModule(in.registry, owner)
	r.binaryModule = r.params.BinaryModule(in.registry, owner)
	r.deriver = fallback.New(in.locale)

	if !r.params.HasAnyResources() {
		r.warn(&Warning{Code: errorcode.HolderNotAnnotated, Args: []any{r.holderName}})
	}

	r.walk(v.Elem(), schema, "", "", schema.EnumTypes)
	return r.warnings
}

// Instantiate creates a zero H, injects it and returns it.
func Instantiate[H any, PH interface {
	*H
	holder.Holder
}](ctx context.Context, in *Injector) (*H, Warnings) {
	h := PH(new(H))
	warnings := in.Inject(ctx, h)
	if warnings.Has(errorcode.TypeNotHolder) {
		return nil, warnings
	}
	return (*H)(h), warnings
}
