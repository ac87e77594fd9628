package resources

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/events"
	"github.com/pitabwire/resources/telemetry"
)

// Locale returns the current locale, language.Und being the root locale.
func (l *Loader) Locale() language.Tag {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locale
}

// SetLocale switches to locale and delivers freshly injected holders to all
// callbacks in registration order. Setting the current locale again does
// nothing; SetLocale reports whether the locale changed.
//
// A callback that changes the locale itself supersedes the running sweep:
// the nested sweep serves every callback and the outer one stops.
func (l *Loader) SetLocale(ctx context.Context, locale language.Tag) bool {
	l.mu.Lock()
	previous := l.locale
	if locale == previous {
		l.mu.Unlock()
		return false
	}
	l.locale = locale
	l.generation++
	l.mu.Unlock()

	l.Log(ctx).
		WithField("from", previous.String()).
		WithField("to", locale.String()).
		Info("resources: locale changed")

	l.sweep(ctx, "SetLocale")
	l.emitLocaleChanged(ctx, previous, locale)
	return true
}

// Refresh drops cached bundles and binaries and delivers freshly injected
// holders for the current locale to all callbacks.
func (l *Loader) Refresh(ctx context.Context) error {
	err := l.bundles.Flush(ctx)
	if err == nil && l.binaryCache != nil {
		err = l.binaryCache.Flush(ctx)
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.generation++
	l.mu.Unlock()

	l.sweep(ctx, "Refresh")
	return nil
}

func (l *Loader) sweep(ctx context.Context, method string) {
	regs, locale, generation := l.snapshot()

	ctx, span := l.tracer.Start(ctx, method, trace.WithAttributes(
		telemetry.AttrLocaleKey.String(locale.String()),
		attribute.Int("resources_registrations", len(regs)),
	))
	defer l.tracer.End(ctx, span, nil)

	in := l.injector(locale)
	for _, reg := range regs {
		skip, superseded := l.skip(reg, generation)
		if superseded {
			span.SetAttributes(attribute.Bool("resources_superseded", true))
			return
		}
		if skip {
			continue
		}
		l.deliver(ctx, in, reg)
	}
}

// skip reports whether reg was unregistered since the sweep started and
// whether a newer sweep took over.
func (l *Loader) skip(reg *registration, generation uint64) (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return reg.removed, l.generation != generation
}

func (l *Loader) emitLocaleChanged(ctx context.Context, from, to language.Tag) {
	if l.eventsManager == nil {
		return
	}
	err := l.eventsManager.Emit(ctx, events.LocaleChangedEvent, events.NewLocaleChanged(from, to))
	if err != nil {
		l.Log(ctx).WithError(err).Warn("resources: could not publish locale change")
	}
}
