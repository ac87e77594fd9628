package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"golang.org/x/text/language"
)

// LocaleChangedEvent is the event name used for locale switches.
const LocaleChangedEvent = "resources.locale.changed"

// LocaleChanged is published whenever a loader switches to a different locale.
type LocaleChanged struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Time time.Time `json:"time"`
}

// NewLocaleChanged builds the payload for a switch from one locale to another.
func NewLocaleChanged(from, to language.Tag) *LocaleChanged {
	return &LocaleChanged{
		ID:   xid.New().String(),
		From: from.String(),
		To:   to.String(),
		Time: time.Now().UTC(),
	}
}

// Locales parses both locales of the event.
func (lc *LocaleChanged) Locales() (language.Tag, language.Tag, error) {
	from, err := language.Parse(lc.From)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("invalid from locale %q: %w", lc.From, err)
	}
	to, err := language.Parse(lc.To)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("invalid to locale %q: %w", lc.To, err)
	}
	return from, to, nil
}

// LocaleChangedFunc handles decoded locale changes.
type LocaleChangedFunc func(ctx context.Context, evt *LocaleChanged) error

type localeListener struct {
	fn LocaleChangedFunc
}

// OnLocaleChanged adapts fn into an Event that can be added to a Manager.
func OnLocaleChanged(fn LocaleChangedFunc) Event {
	return &localeListener{fn: fn}
}

func (l *localeListener) Name() string {
	return LocaleChangedEvent
}

func (l *localeListener) PayloadType() any {
	return new(LocaleChanged)
}

func (l *localeListener) Validate(_ context.Context, payload any) error {
	evt, ok := payload.(*LocaleChanged)
	if !ok {
		return fmt.Errorf("payload is %T not of type %T", payload, l.PayloadType())
	}
	if evt.ID == "" {
		return errors.New("locale change without id")
	}
	if _, _, err := evt.Locales(); err != nil {
		return err
	}
	return nil
}

func (l *localeListener) Execute(ctx context.Context, payload any) error {
	evt, _ := payload.(*LocaleChanged)
	if l.fn == nil {
		return nil
	}
	return l.fn(ctx, evt)
}
