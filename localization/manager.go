package localization

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/keys"
	"github.com/pitabwire/resources/source"
)

// pluralForms are the key suffixes that group property entries into one
// plural message, "items.one" and "items.other" becoming message "items".
//
//nolint:gochecknoglobals // fixed CLDR plural categories
var pluralForms = []string{"zero", "one", "two", "few", "many", "other"}

type propertiesSource struct {
	module   source.Module
	pkg      string
	baseName string
	locales  []language.Tag
}

type messageFiles struct {
	module source.Module
	names  []string
}

type builder struct {
	defaultLanguage language.Tag
	loader          *bundle.Loader
	properties      []propertiesSource
	files           []messageFiles
}

// Option configures a Manager.
type Option func(ctx context.Context, b *builder)

// WithDefaultLanguage sets the language root bundle files are loaded for and
// translations fall back to. It defaults to English.
func WithDefaultLanguage(tag language.Tag) Option {
	return func(_ context.Context, b *builder) {
		b.defaultLanguage = tag
	}
}

// WithBundleLoader sets the loader property files are read with.
func WithBundleLoader(l *bundle.Loader) Option {
	return func(_ context.Context, b *builder) {
		b.loader = l
	}
}

// WithProperties loads the bundle family pkg.baseName of module m. Without
// locales every file of the family is loaded, which needs a module that can
// list its resources. The root file provides the messages of the default
// language.
func WithProperties(m source.Module, pkg, baseName string, locales ...language.Tag) Option {
	return func(_ context.Context, b *builder) {
		b.properties = append(b.properties, propertiesSource{
			module:   m,
			pkg:      pkg,
			baseName: baseName,
			locales:  locales,
		})
	}
}

// WithMessageFiles loads go-i18n message files (toml, yaml or json) from
// module m. The language is taken from the file name, as in messages.sw.toml.
func WithMessageFiles(m source.Module, names ...string) Option {
	return func(_ context.Context, b *builder) {
		b.files = append(b.files, messageFiles{module: m, names: names})
	}
}

// NewManager builds a Manager from the configured sources. Sources that fail
// to load are reported in the returned error, the manager still serves what
// did load.
func NewManager(ctx context.Context, opts ...Option) (Manager, error) {
	b := &builder{defaultLanguage: language.English}
	for _, opt := range opts {
		opt(ctx, b)
	}
	if b.loader == nil {
		b.loader = bundle.NewLoader()
	}

	i18nBundle := newBundle(b.defaultLanguage)
	var errs []error
	for _, src := range b.properties {
		if err := b.loadProperties(ctx, i18nBundle, src); err != nil {
			errs = append(errs, err)
		}
	}
	for _, mf := range b.files {
		for _, name := range mf.names {
			if err := loadMessageFile(ctx, i18nBundle, mf.module, name); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return &managerImpl{bundle: i18nBundle}, errors.Join(errs...)
}

func (b *builder) loadProperties(ctx context.Context, i18nBundle *i18n.Bundle, src propertiesSource) error {
	if src.module == nil {
		return fmt.Errorf("localization: bundle %s: no module", src.baseName)
	}

	locales := src.locales
	if len(locales) == 0 {
		var err error
		locales, err = discoverLocales(ctx, src)
		if err != nil {
			return err
		}
	}

	var errs []error
	for _, locale := range locales {
		loaded, err := b.loader.Load(ctx, src.module, src.pkg, src.baseName, locale)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if loaded.Locale() != locale {
			util.Log(ctx).
				WithField("bundle", src.baseName).
				WithField("locale", locale.String()).
				Debug("localization: no file for locale, served by its parents")
			continue
		}

		tag := locale
		if tag == language.Und {
			tag = b.defaultLanguage
		}
		if err = i18nBundle.AddMessages(tag, Messages(loaded.Entries())...); err != nil {
			errs = append(errs, fmt.Errorf("localization: %s: %w", loaded.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// discoverLocales lists the locales of the files of a bundle family, the
// root first.
func discoverLocales(ctx context.Context, src propertiesSource) ([]language.Tag, error) {
	lister, ok := src.module.(source.Lister)
	if !ok {
		return nil, fmt.Errorf("localization: module %s cannot list bundle %s", src.module.Name(), src.baseName)
	}
	dir := keys.PackagePath(src.pkg)
	names, err := lister.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("localization: bundle %s: %w", src.baseName, err)
	}

	var locales []language.Tag
	for _, name := range names {
		pkg, baseName, locale, isBundle := bundle.SplitFileName(name)
		if isBundle && pkg == dir && baseName == src.baseName {
			locales = append(locales, locale)
		}
	}
	slices.SortStableFunc(locales, func(a, b language.Tag) int {
		switch {
		case a == b:
			return 0
		case a == language.Und:
			return -1
		case b == language.Und:
			return 1
		default:
			return strings.Compare(a.String(), b.String())
		}
	})
	return locales, nil
}

func loadMessageFile(ctx context.Context, i18nBundle *i18n.Bundle, m source.Module, name string) error {
	if m == nil {
		return fmt.Errorf("localization: message file %s: no module", name)
	}
	data, err := source.ReadAll(ctx, m, name)
	if err != nil {
		return fmt.Errorf("localization: message file %s: %w", name, err)
	}
	if _, err = i18nBundle.ParseMessageFileBytes(data, name); err != nil {
		return fmt.Errorf("localization: message file %s: %w", name, err)
	}
	return nil
}

// Messages converts bundle entries to go-i18n messages. Entries whose keys end
// in a plural category are grouped into one plural message when the group has
// an "other" form; every entry is also kept as a message of its own.
func Messages(entries map[string]string) []*i18n.Message {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var messages []*i18n.Message
	plurals := map[string]*i18n.Message{}
	var pluralIDs []string
	for _, id := range ids {
		messages = append(messages, &i18n.Message{ID: id, Other: entries[id]})

		base, form, found := cutPluralForm(id)
		if !found {
			continue
		}
		if _, exists := entries[base]; exists {
			continue
		}
		msg, seen := plurals[base]
		if !seen {
			msg = &i18n.Message{ID: base}
			plurals[base] = msg
			pluralIDs = append(pluralIDs, base)
		}
		setPluralForm(msg, form, entries[id])
	}

	for _, id := range pluralIDs {
		if plurals[id].Other != "" {
			messages = append(messages, plurals[id])
		}
	}
	return messages
}

func cutPluralForm(id string) (string, string, bool) {
	idx := strings.LastIndex(id, keys.SeparatorNested)
	if idx <= 0 {
		return "", "", false
	}
	form := id[idx+len(keys.SeparatorNested):]
	if !slices.Contains(pluralForms, form) {
		return "", "", false
	}
	return id[:idx], form, true
}

func setPluralForm(msg *i18n.Message, form, value string) {
	switch form {
	case "zero":
		msg.Zero = value
	case "one":
		msg.One = value
	case "two":
		msg.Two = value
	case "few":
		msg.Few = value
	case "many":
		msg.Many = value
	default:
		msg.Other = value
	}
}
