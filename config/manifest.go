package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pitabwire/resources/client"
	"github.com/pitabwire/resources/source"
)

// Manifest describes the modules resources are read from.
//
//	default_locale = "de"
//	default_module = "app"
//
//	[[modules]]
//	name = "app"
//	root = "github.com/acme/app"
//	dir  = "./resources"
type Manifest struct {
	DefaultLocale string         `toml:"default_locale" yaml:"default_locale"`
	DefaultModule string         `toml:"default_module" yaml:"default_module"`
	Modules       []ModuleConfig `toml:"modules"        yaml:"modules"`

	// dir is the directory relative module directories are resolved against.
	dir string
}

// ModuleConfig describes one module. Exactly one of Dir and URL is set. URL
// is a blob bucket (file://, mem://) or an http(s) base URL.
type ModuleConfig struct {
	Name string `toml:"name" yaml:"name"`
	Root string `toml:"root" yaml:"root"`
	Dir  string `toml:"dir"  yaml:"dir"`
	URL  string `toml:"url"  yaml:"url"`
}

// LoadManifest reads a manifest file. The format follows the extension:
// .toml, .yaml or .yml.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read manifest: %w", err)
	}
	m, err := ParseManifest(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes a manifest in the given format, named by extension
// with or without the leading dot.
func ParseManifest(data []byte, format string) (*Manifest, error) {
	m := &Manifest{}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(m); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks module names are unique and every module has one source.
func (m *Manifest) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, mod := range m.Modules {
		if mod.Name == "" {
			errs = append(errs, fmt.Errorf("module #%d has no name", i+1))
			continue
		}
		if seen[mod.Name] {
			errs = append(errs, fmt.Errorf("module %q declared twice", mod.Name))
		}
		seen[mod.Name] = true
		if (mod.Dir == "") == (mod.URL == "") {
			errs = append(errs, fmt.Errorf("module %q needs exactly one of dir and url", mod.Name))
		}
	}
	if m.DefaultModule != "" && !seen[m.DefaultModule] {
		errs = append(errs, fmt.Errorf("default module %q is not declared", m.DefaultModule))
	}
	if _, err := ParseLocale(m.DefaultLocale); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Locale returns the default locale of the manifest.
func (m *Manifest) Locale() language.Tag {
	tag, _ := ParseLocale(m.DefaultLocale)
	return tag
}

// OpenRegistry opens every module of the manifest. Modules opened before a
// failure are closed again.
func (m *Manifest) OpenRegistry(ctx context.Context) (*source.Registry, error) {
	reg := source.NewRegistry()
	for _, mod := range m.Modules {
		module, err := m.openModule(ctx, mod)
		if err == nil {
			err = reg.Register(module)
		}
		if err != nil {
			return nil, errors.Join(err, reg.Close())
		}
	}
	if m.DefaultModule != "" {
		if err := reg.SetDefault(m.DefaultModule); err != nil {
			return nil, errors.Join(err, reg.Close())
		}
	}
	return reg, nil
}

func (m *Manifest) openModule(ctx context.Context, mod ModuleConfig) (source.Module, error) {
	if mod.URL != "" {
		if strings.HasPrefix(mod.URL, "http://") || strings.HasPrefix(mod.URL, "https://") {
			return source.NewHTTP(mod.Name, mod.Root, mod.URL, client.NewHTTPClient())
		}
		return source.OpenBlob(ctx, mod.Name, mod.Root, mod.URL)
	}
	dir := mod.Dir
	if !filepath.IsAbs(dir) && m.dir != "" {
		dir = filepath.Join(m.dir, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", mod.Name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("module %q: %s is not a directory", mod.Name, dir)
	}
	return source.Dir(mod.Name, mod.Root, dir), nil
}
