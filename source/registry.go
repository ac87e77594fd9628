package source

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Registry holds the known modules. The first registered module is the
// default unless another one is selected with SetDefault.
type Registry struct {
	byName  map[string]Module
	modules []Module
	def     Module
}

// NewRegistry creates a registry holding modules. Modules with duplicate names
// after the first are ignored.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{byName: map[string]Module{}}
	for _, m := range modules {
		_ = r.Register(m)
	}
	return r
}

// Register adds a module.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return errors.New("source: nil module")
	}
	if _, dup := r.byName[m.Name()]; dup {
		return fmt.Errorf("source: module %q already registered", m.Name())
	}
	r.byName[m.Name()] = m
	r.modules = append(r.modules, m)
	if r.def == nil {
		r.def = m
	}
	return nil
}

// SetDefault selects the module used when a holder belongs to no module.
func (r *Registry) SetDefault(name string) error {
	m, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("source: unknown module %q", name)
	}
	r.def = m
	return nil
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.byName[name]
	return m, ok
}

// Default returns the default module, nil for an empty registry.
func (r *Registry) Default() Module {
	if r == nil {
		return nil
	}
	return r.def
}

// Modules returns the modules in registration order.
func (r *Registry) Modules() []Module {
	if r == nil {
		return nil
	}
	return append([]Module(nil), r.modules...)
}

// OwnerOf returns the module whose root is the longest prefix of pkgPath,
// falling back to the default module.
func (r *Registry) OwnerOf(pkgPath string) Module {
	if r == nil {
		return nil
	}
	var owner Module
	best := -1
	for _, m := range r.modules {
		root := m.Root()
		if !owns(root, pkgPath) {
			continue
		}
		if len(root) > best {
			owner, best = m, len(root)
		}
	}
	if owner == nil {
		return r.def
	}
	return owner
}

// PackageOf returns the dotted package of pkgPath relative to the root of m.
// Packages outside the module, and modules without root, resolve to "".
func PackageOf(m Module, pkgPath string) string {
	if m == nil || m.Root() == "" || !owns(m.Root(), pkgPath) {
		return ""
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(pkgPath, m.Root()), "/")
	return strings.ReplaceAll(rel, "/", ".")
}

func owns(root, pkgPath string) bool {
	if root == "" {
		return true
	}
	return pkgPath == root || strings.HasPrefix(pkgPath, root+"/")
}

// Close closes every module that holds resources.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, m := range r.modules {
		if c, ok := m.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("module %s: %w", m.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
