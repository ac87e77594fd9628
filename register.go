package resources

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/rs/xid"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/inject"
)

// Callback receives freshly injected holders of type H.
type Callback[H any] interface {
	OnResources(ctx context.Context, res *H)
}

type funcCallback[H any] struct {
	fn func(ctx context.Context, res *H)
}

func (f *funcCallback[H]) OnResources(ctx context.Context, res *H) {
	f.fn(ctx, res)
}

// Func adapts fn into a Callback. Every call returns a distinct callback, keep
// the result to unregister it later.
func Func[H any](fn func(ctx context.Context, res *H)) Callback[H] {
	return &funcCallback[H]{fn: fn}
}

type registration struct {
	id       xid.ID
	holder   string
	callback any
	deliver  func(ctx context.Context, in *inject.Injector) error
	removed  bool
}

// Register appends cb for holders of type H and immediately delivers a holder
// injected for the current locale. A callback equal to cb that is already
// registered, for any holder type, is removed first; Register reports whether
// that happened.
//
// Registering from inside a callback during a locale sweep appends to the
// list without joining the running sweep; the new callback is served by its
// own immediate delivery.
func Register[H any, PH interface {
	*H
	holder.Holder
}](ctx context.Context, l *Loader, cb Callback[H]) bool {
	holderName := reflect.TypeFor[H]().String()
	reg := &registration{
		id:       xid.New(),
		holder:   holderName,
		callback: cb,
		deliver: func(ctx context.Context, in *inject.Injector) error {
			res, warnings := inject.Instantiate[H, PH](ctx, in)
			if res == nil {
				return fmt.Errorf("instantiate %s: %w", holderName, warnings.Err())
			}
			cb.OnResources(ctx, res)
			return nil
		},
	}

	l.mu.Lock()
	removed := l.remove(cb)
	l.registrations = append(l.registrations, reg)
	locale := l.locale
	l.mu.Unlock()

	l.Log(ctx).
		WithField("registration", reg.id.String()).
		WithField("holder", holderName).
		WithField("replaced", removed).
		Debug("resources: callback registered")

	l.deliver(ctx, l.injector(locale), reg)
	return removed
}

// Unregister removes the registration of cb and reports whether there was one.
func (l *Loader) Unregister(ctx context.Context, cb any) bool {
	l.mu.Lock()
	removed := l.remove(cb)
	l.mu.Unlock()

	if removed {
		l.Log(ctx).WithField("callback", fmt.Sprintf("%T", cb)).Debug("resources: callback unregistered")
	}
	return removed
}

// Len returns the number of registered callbacks.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.registrations)
}

// remove drops the registration of cb. l.mu must be held.
func (l *Loader) remove(cb any) bool {
	idx := slices.IndexFunc(l.registrations, func(reg *registration) bool {
		return sameCallback(reg.callback, cb)
	})
	if idx < 0 {
		return false
	}
	l.registrations[idx].removed = true
	l.registrations = slices.Delete(l.registrations, idx, idx+1)
	return true
}

// sameCallback compares callbacks with ==. Values of incomparable types are
// never equal to anything, not even to themselves.
func sameCallback(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func (l *Loader) deliver(ctx context.Context, in *inject.Injector, reg *registration) {
	err := reg.deliver(ctx, in)
	if err != nil {
		l.Log(ctx).
			WithError(err).
			WithField("registration", reg.id.String()).
			WithField("holder", reg.holder).
			WithField("locale", in.Locale().String()).
			Error("resources: could not deliver holder")
	}
}

// snapshot returns the registrations to serve in a sweep together with the
// locale and generation of the sweep.
func (l *Loader) snapshot() ([]*registration, language.Tag, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.registrations), l.locale, l.generation
}
