package bundle

import (
	"context"
	"fmt"
	"time"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/cache"
	"github.com/pitabwire/resources/keys"
	"github.com/pitabwire/resources/source"
)

// file is the cached outcome of reading one bundle file.
type file struct {
	Found   bool              `json:"found"`
	Entries map[string]string `json:"entries,omitempty"`
}

// Loader reads bundle families from modules.
type Loader struct {
	encoding Encoding
	files    cache.Cache[file]
	ttl      time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithEncoding selects the decoding of property files.
func WithEncoding(enc Encoding) Option {
	return func(l *Loader) {
		l.encoding = enc
	}
}

// WithCache keeps parsed files in raw for ttl. A zero ttl keeps them until
// the cache is flushed.
func WithCache(raw cache.RawCache, ttl time.Duration) Option {
	return func(l *Loader) {
		if raw == nil {
			l.files = nil
			return
		}
		l.files = cache.New[file](raw, "bundle")
		l.ttl = ttl
	}
}

// NewLoader creates a loader. Without WithCache every lookup reads the module.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Encoding returns the configured decoding.
func (l *Loader) Encoding() Encoding {
	return l.encoding
}

// Load resolves the bundle family pkg.baseName for locale in module m. pkg is
// a dotted package name; a leading dot is ignored. The returned bundle is the
// most specific existing file chained to its existing parents. When no file of
// the family exists the error wraps ErrBundleNotFound.
func (l *Loader) Load(ctx context.Context, m source.Module, pkg, baseName string, locale language.Tag) (*Bundle, error) {
	if m == nil {
		return nil, fmt.Errorf("bundle %s: no module: %w", baseName, ErrBundleNotFound)
	}

	dir := keys.PackagePath(pkg)
	candidates := Candidates(locale)

	var chain []*Bundle
	for _, tag := range candidates {
		name := FileName(dir, baseName, tag)
		f, err := l.read(ctx, m, name)
		if err != nil {
			return nil, err
		}
		if f.Found {
			chain = append(chain, New(name, tag, f.Entries, nil))
		}
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("module %s: bundle %s for locale %q: %w",
			m.Name(), FileName(dir, baseName, language.Und), locale, ErrBundleNotFound)
	}

	for i := len(chain) - 2; i >= 0; i-- {
		chain[i].parent = chain[i+1]
	}
	return chain[0], nil
}

func (l *Loader) read(ctx context.Context, m source.Module, name string) (file, error) {
	cacheKey := m.Name() + "|" + l.encoding.String() + "|" + name
	if l.files != nil {
		cached, found, err := l.files.Get(ctx, cacheKey)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("bundle", name).Debug("bundle cache read failed")
		} else if found {
			return cached, nil
		}
	}

	f, err := l.readModule(ctx, m, name)
	if err != nil {
		return file{}, err
	}

	if l.files != nil {
		if err = l.files.Set(ctx, cacheKey, f, l.ttl); err != nil {
			util.Log(ctx).WithError(err).WithField("bundle", name).Debug("bundle cache write failed")
		}
	}
	return f, nil
}

func (l *Loader) readModule(ctx context.Context, m source.Module, name string) (file, error) {
	data, err := source.ReadAll(ctx, m, name)
	if err != nil {
		if source.IsNotExist(err) {
			return file{}, nil
		}
		return file{}, err
	}

	entries, err := Parse(data, l.encoding)
	if err != nil {
		return file{}, fmt.Errorf("module %s: parse %s: %w", m.Name(), name, err)
	}

	util.Log(ctx).WithField("module", m.Name()).
		WithField("bundle", name).
		WithField("entries", len(entries)).
		Debug("loaded property bundle")
	return file{Found: true, Entries: entries}, nil
}

// Flush drops all cached files.
func (l *Loader) Flush(ctx context.Context) error {
	if l.files == nil {
		return nil
	}
	return l.files.Flush(ctx)
}
