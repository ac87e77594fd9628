// Package bundle loads string resources from property bundles. A bundle is a
// family of files <package>/<base>[_<locale>].properties inside a module; the
// file of a locale falls back to the files of its less specific parents.
package bundle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrBundleNotFound is returned when no file of a bundle family exists.
	ErrBundleNotFound = errors.New("bundle: not found")
	// ErrKeyNotFound is returned when a key is absent from a bundle chain.
	ErrKeyNotFound = errors.New("bundle: key not found")
)

// Ext is the file extension of property bundles.
const Ext = ".properties"

// Bundle is one file of a bundle family chained to its parents.
type Bundle struct {
	name    string
	locale  language.Tag
	entries map[string]string
	parent  *Bundle
}

// New creates a bundle from already parsed entries.
func New(name string, locale language.Tag, entries map[string]string, parent *Bundle) *Bundle {
	if entries == nil {
		entries = map[string]string{}
	}
	return &Bundle{name: name, locale: locale, entries: entries, parent: parent}
}

// Name returns the module relative file name of the bundle.
func (b *Bundle) Name() string {
	return b.name
}

// Locale returns the locale of the most specific file found.
func (b *Bundle) Locale() language.Tag {
	return b.locale
}

// Parent returns the next less specific bundle, nil at the end of the chain.
func (b *Bundle) Parent() *Bundle {
	return b.parent
}

// Get looks key up in the bundle and then in its parents.
func (b *Bundle) Get(key string) (string, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if v, ok := cur.entries[key]; ok {
			return v, true
		}
	}
	return "", false
}

// String returns the value of key or an error wrapping ErrKeyNotFound.
func (b *Bundle) String(key string) (string, error) {
	if b == nil {
		return "", fmt.Errorf("key %q: %w", key, ErrBundleNotFound)
	}
	v, ok := b.Get(key)
	if !ok {
		return "", fmt.Errorf("%s: key %q: %w", b.name, key, ErrKeyNotFound)
	}
	return v, nil
}

// Contains reports whether key resolves anywhere in the chain.
func (b *Bundle) Contains(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Keys returns the sorted keys of the whole chain.
func (b *Bundle) Keys() []string {
	all := map[string]struct{}{}
	for cur := b; cur != nil; cur = cur.parent {
		for k := range cur.entries {
			all[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(all))
}

// Entries returns the merged entries of the chain, children winning.
func (b *Bundle) Entries() map[string]string {
	out := map[string]string{}
	var chain []*Bundle
	for cur := b; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].entries)
	}
	return out
}

// FileName returns the module relative name of the bundle file for locale.
// pkg is a slash separated directory, "" for the module root.
func FileName(pkg, baseName string, locale language.Tag) string {
	file := baseName + Suffix(locale) + Ext
	pkg = strings.Trim(pkg, "/")
	if pkg == "" {
		return file
	}
	return pkg + "/" + file
}

// SplitFileName is the inverse of FileName. ok is false for names that do not
// end in Ext. A suffix that does not round trip through Suffix is taken to be
// part of the base name, so "my_texts.properties" has base "my_texts".
func SplitFileName(name string) (pkg, baseName string, locale language.Tag, ok bool) {
	if !strings.HasSuffix(name, Ext) {
		return "", "", language.Und, false
	}
	file := strings.TrimSuffix(name, Ext)
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		pkg, file = file[:idx], file[idx+1:]
	}

	for i := 0; i < len(file); i++ {
		if file[i] != '_' || i == 0 {
			continue
		}
		suffix := file[i+1:]
		tag, err := language.Parse(strings.ReplaceAll(suffix, "_", "-"))
		if err == nil && Suffix(tag) == "_"+suffix {
			return pkg, file[:i], tag, true
		}
	}
	return pkg, file, language.Und, true
}
