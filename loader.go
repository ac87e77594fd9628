// Package resources keeps resource holders of an application in sync with
// its current locale.
//
// Callers register a callback per holder type. The Loader injects a fresh
// holder for the current locale right away and again after every locale
// change, always delivering to the callbacks in registration order:
//
//	_, loader, err := resources.NewLoader(ctx, resources.WithModule(appModule))
//	resources.Register[MainWindow](ctx, loader, resources.Func(func(ctx context.Context, w *MainWindow) {
//		title.SetText(w.TitleMainWindow)
//	}))
//	loader.SetLocale(ctx, language.German)
package resources

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/cache"
	"github.com/pitabwire/resources/config"
	"github.com/pitabwire/resources/events"
	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/inject"
	"github.com/pitabwire/resources/source"
	"github.com/pitabwire/resources/telemetry"
)

const instrumentationName = "resources"

type ctxKey string

func (c ctxKey) String() string {
	return "resources/" + string(c)
}

const ctxKeyLoader = ctxKey("loaderKey")

// Loader owns the current locale and the registered callbacks.
//
// Callbacks run on the goroutine calling Register, SetLocale or Refresh and
// no lock is held while they run, so a callback may register, unregister or
// change the locale itself.
type Loader struct {
	mu            sync.Mutex
	locale        language.Tag
	registrations []*registration
	// generation increases with every locale change and lets a sweep notice
	// that a nested SetLocale superseded it.
	generation uint64

	logger        *util.LogEntry
	configuration any

	registry    *source.Registry
	encoding    bundle.Encoding
	bundleCache cache.RawCache
	bundleTTL   time.Duration
	binaryCache cache.RawCache
	binaryTTL   time.Duration
	bundles     *bundle.Loader

	tracer           telemetry.Tracer
	instruments      *telemetry.Instruments
	telemetryManager telemetry.Manager
	warningHandler   inject.WarningHandler

	eventsManager events.Manager

	startupErrors []error
}

// NewLoader creates a Loader configured from the environment and then from
// opts, which take precedence. The returned context carries the loader, its
// configuration and its logger. Options that fail are reported together in
// the returned error; the Loader is usable regardless.
func NewLoader(ctx context.Context, opts ...Option) (context.Context, *Loader, error) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	l := &Loader{
		locale:   language.Und,
		logger:   defaultLogger,
		registry: source.NewRegistry(),
	}

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		l.addStartupError(ctx, err)
	} else {
		opts = append([]Option{WithConfig(&defaultCfg)}, opts...)
	}

	for _, opt := range opts {
		opt(ctx, l)
	}

	l.bundles = bundle.NewLoader(
		bundle.WithEncoding(l.encoding),
		bundle.WithCache(l.bundleCache, l.bundleTTL),
	)
	if l.tracer == nil {
		l.tracer = telemetry.NewTracer(instrumentationName)
	}
	if l.instruments == nil {
		l.instruments = telemetry.NewInstruments(instrumentationName)
	}

	ctx = ToContext(ctx, l)
	ctx = config.ToContext(ctx, l.configuration)
	ctx = util.ContextWithLogger(ctx, l.logger)
	return ctx, l, errors.Join(l.startupErrors...)
}

// ToContext pushes a loader into the supplied context.
func ToContext(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, ctxKeyLoader, l)
}

// FromContext obtains the loader propagated through ctx.
func FromContext(ctx context.Context) *Loader {
	l, ok := ctx.Value(ctxKeyLoader).(*Loader)
	if !ok {
		return nil
	}
	return l
}

func (l *Loader) addStartupError(ctx context.Context, err error) {
	l.Log(ctx).WithError(err).Error("resources: loader option failed")
	l.startupErrors = append(l.startupErrors, err)
}

// Log returns the loader's logger bound to ctx.
func (l *Loader) Log(ctx context.Context) *util.LogEntry {
	return l.logger.WithContext(ctx)
}

// Config returns the configuration the loader was set up with.
func (l *Loader) Config() any {
	return l.configuration
}

// Registry returns the modules resources are read from.
func (l *Loader) Registry() *source.Registry {
	return l.registry
}

// Events returns the manager publishing locale changes, nil when none is
// configured.
func (l *Loader) Events() events.Manager {
	return l.eventsManager
}

// Injector returns an injector for the current locale.
func (l *Loader) Injector() *inject.Injector {
	return l.injector(l.Locale())
}

// Inject fills h for the current locale without registering anything.
func (l *Loader) Inject(ctx context.Context, h holder.Holder) inject.Warnings {
	return l.Injector().Inject(ctx, h)
}

func (l *Loader) injector(locale language.Tag) *inject.Injector {
	opts := []inject.Option{
		inject.WithRegistry(l.registry),
		inject.WithBundleLoader(l.bundles),
		inject.WithBinaryCache(l.binaryCache, l.binaryTTL),
		inject.WithTracer(l.tracer),
		inject.WithInstruments(l.instruments),
	}
	if l.warningHandler != nil {
		opts = append(opts, inject.WithWarningHandler(l.warningHandler))
	}
	return inject.New(locale, opts...)
}

// Close releases the modules, caches, event topic and telemetry providers
// owned by the loader.
func (l *Loader) Close(ctx context.Context) error {
	var errs []error
	if l.eventsManager != nil {
		errs = append(errs, l.eventsManager.Close(ctx))
	}
	errs = append(errs, l.registry.Close())
	if l.bundleCache != nil {
		errs = append(errs, l.bundleCache.Close())
	}
	if l.binaryCache != nil && l.binaryCache != l.bundleCache {
		errs = append(errs, l.binaryCache.Close())
	}
	if l.telemetryManager != nil {
		errs = append(errs, l.telemetryManager.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
