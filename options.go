package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/cache"
	"github.com/pitabwire/resources/config"
	"github.com/pitabwire/resources/events"
	"github.com/pitabwire/resources/inject"
	"github.com/pitabwire/resources/source"
	"github.com/pitabwire/resources/telemetry"
)

// Option configures a Loader.
type Option func(ctx context.Context, l *Loader)

// WithLogger initializes the loader's logger, taking level, time format,
// colouring and stack traces from the configuration when it carries them.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, l *Loader) {
		if cfg, ok := l.Config().(config.ConfigurationLogLevel); ok {
			logLevel, err := util.ParseLevel(cfg.LoggingLevel())
			if err == nil {
				opts = append([]util.Option{util.WithLogLevel(logLevel)}, opts...)
			}
			base := []util.Option{
				util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
				util.WithLogNoColor(!cfg.LoggingColored()),
			}
			if cfg.LoggingShowStackTrace() {
				base = append(base, util.WithLogStackTrace())
			}
			opts = append(base, opts...)
		}

		l.logger = util.NewLogger(ctx, opts...)
	}
}

// WithConfig sets the configuration and applies what it describes: logger,
// initial locale, manifest modules, bundle caching and the locale topic.
// Telemetry is only installed through WithTelemetry.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, l *Loader) {
		l.configuration = cfg

		WithLogger()(ctx, l)

		resCfg, ok := cfg.(config.ConfigurationResources)
		if !ok {
			return
		}

		locale, err := resCfg.Locale()
		if err != nil {
			l.addStartupError(ctx, err)
		}

		if path := resCfg.ManifestPath(); path != "" {
			WithManifest(path)(ctx, l)
		}
		if locale != language.Und {
			WithLocale(locale)(ctx, l)
		}

		enc, err := bundle.ParseEncoding(resCfg.BundleEncoding())
		if err != nil {
			l.addStartupError(ctx, err)
		} else {
			WithBundleEncoding(enc)(ctx, l)
		}

		if ttl := resCfg.BundleCacheTTL(); ttl > 0 {
			WithBundleCache(cache.NewInMemoryCache(), ttl)(ctx, l)
		} else {
			WithBundleCache(nil, 0)(ctx, l)
		}

		if topic := resCfg.LocaleTopic(); topic != "" {
			WithLocaleTopic(topic)(ctx, l)
		}
	}
}

// WithLocale sets the initial locale. Nothing is registered yet when options
// run, so no callback fires.
func WithLocale(locale language.Tag) Option {
	return func(_ context.Context, l *Loader) {
		l.locale = locale
	}
}

// WithRegistry replaces the modules resources are read from.
func WithRegistry(reg *source.Registry) Option {
	return func(ctx context.Context, l *Loader) {
		if reg == nil {
			l.addStartupError(ctx, errors.New("resources: nil registry"))
			return
		}
		l.registry = reg
	}
}

// WithModule adds a module. The first module added becomes the default one.
func WithModule(m source.Module) Option {
	return func(ctx context.Context, l *Loader) {
		if err := l.registry.Register(m); err != nil {
			l.addStartupError(ctx, err)
		}
	}
}

// WithDefaultModule selects the module of holders outside every module root.
func WithDefaultModule(name string) Option {
	return func(ctx context.Context, l *Loader) {
		if err := l.registry.SetDefault(name); err != nil {
			l.addStartupError(ctx, err)
		}
	}
}

// WithManifest opens the modules described by the manifest file at path and
// starts in its default locale when it declares one.
func WithManifest(path string) Option {
	return func(ctx context.Context, l *Loader) {
		manifest, err := config.LoadManifest(path)
		if err != nil {
			l.addStartupError(ctx, err)
			return
		}
		reg, err := manifest.OpenRegistry(ctx)
		if err != nil {
			l.addStartupError(ctx, err)
			return
		}
		if err = l.registry.Close(); err != nil {
			l.Log(ctx).WithError(err).Warn("resources: could not close replaced modules")
		}
		l.registry = reg
		if manifest.DefaultLocale != "" {
			l.locale = manifest.Locale()
		}
	}
}

// WithBundleEncoding selects how property files are decoded.
func WithBundleEncoding(enc bundle.Encoding) Option {
	return func(_ context.Context, l *Loader) {
		l.encoding = enc
	}
}

// WithBundleCache keeps parsed property files in raw for ttl. A nil cache
// disables caching.
func WithBundleCache(raw cache.RawCache, ttl time.Duration) Option {
	return func(_ context.Context, l *Loader) {
		l.bundleCache = raw
		l.bundleTTL = ttl
	}
}

// WithBinaryCache keeps binary resources in raw for ttl. raw may be the
// bundle cache, entries are kept apart by namespace.
func WithBinaryCache(raw cache.RawCache, ttl time.Duration) Option {
	return func(_ context.Context, l *Loader) {
		l.binaryCache = raw
		l.binaryTTL = ttl
	}
}

// WithTracer replaces the tracer spanning injections and locale sweeps.
func WithTracer(t telemetry.Tracer) Option {
	return func(_ context.Context, l *Loader) {
		l.tracer = t
	}
}

// WithTelemetry installs OpenTelemetry providers configured from the loader
// configuration and opts.
func WithTelemetry(opts ...telemetry.Option) Option {
	return func(ctx context.Context, l *Loader) {
		cfg, _ := l.Config().(config.ConfigurationTelemetry)

		l.telemetryManager = telemetry.NewManager(ctx, cfg, opts...)
		if err := l.telemetryManager.Init(ctx); err != nil {
			l.addStartupError(ctx, fmt.Errorf("resources: telemetry: %w", err))
		}
	}
}

// WithWarningHandler receives injection warnings instead of the log.
func WithWarningHandler(h inject.WarningHandler) Option {
	return func(_ context.Context, l *Loader) {
		l.warningHandler = h
	}
}

// WithLocaleTopic publishes every locale change on the pubsub topic at url.
func WithLocaleTopic(url string) Option {
	return func(ctx context.Context, l *Loader) {
		mgr, err := events.NewManager(ctx, url)
		if err != nil {
			l.addStartupError(ctx, err)
			return
		}
		WithEventsManager(mgr)(ctx, l)
	}
}

// WithEventsManager publishes locale changes through mgr.
func WithEventsManager(mgr events.Manager) Option {
	return func(ctx context.Context, l *Loader) {
		if l.eventsManager != nil && l.eventsManager != mgr {
			if err := l.eventsManager.Close(ctx); err != nil {
				l.Log(ctx).WithError(err).Warn("resources: could not close replaced events manager")
			}
		}
		l.eventsManager = mgr
	}
}

// WithRegisterEvents adds handlers for received events. All events are unique
// and shouldn't share a name otherwise the last one registered wins.
func WithRegisterEvents(evt ...events.Event) Option {
	return func(ctx context.Context, l *Loader) {
		if l.eventsManager == nil {
			mgr, err := events.NewManager(ctx, "")
			if err != nil {
				l.addStartupError(ctx, err)
				return
			}
			l.eventsManager = mgr
		}
		for _, event := range evt {
			l.eventsManager.Add(event)
		}
	}
}

// WithFollowLocaleChanges applies locale changes received on the events
// topic, keeping several loaders on one locale.
func WithFollowLocaleChanges() Option {
	return func(ctx context.Context, l *Loader) {
		WithRegisterEvents(events.OnLocaleChanged(func(ctx context.Context, evt *events.LocaleChanged) error {
			_, to, err := evt.Locales()
			if err != nil {
				return err
			}
			l.SetLocale(ctx, to)
			return nil
		}))(ctx, l)
	}
}
