// Package source provides the modules resources are read from. A module is a
// named resource root that owns the Go packages below its root import path,
// backed either by an fs.FS (embed.FS, os.DirFS) or by a blob bucket.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrNotExist is returned, wrapped, when a resource is missing from a module.
var ErrNotExist = fs.ErrNotExist

// Module is a named resource root.
type Module interface {
	// Name is the hint holders use to refer to the module.
	Name() string
	// Root is the import path prefix of the Go packages owned by the module.
	Root() string
	// Open opens the slash separated, module relative resource name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Lister is implemented by modules that can enumerate their resources.
type Lister interface {
	// List returns the names of all resources below dir, "" being the module
	// root, in lexical order.
	List(ctx context.Context, dir string) ([]string, error)
}

// FSModule is a module backed by an fs.FS.
type FSModule struct {
	name string
	root string
	fsys fs.FS
}

// NewFS creates a module named name owning the packages below root.
func NewFS(name, root string, fsys fs.FS) *FSModule {
	return &FSModule{name: name, root: strings.TrimSuffix(root, "/"), fsys: fsys}
}

// Dir creates a module reading from a directory of the host file system.
func Dir(name, root, dir string) *FSModule {
	return NewFS(name, root, os.DirFS(dir))
}

func (m *FSModule) Name() string {
	return m.name
}

func (m *FSModule) Root() string {
	return m.root
}

func (m *FSModule) String() string {
	return "module " + m.name
}

// FS returns the underlying file system.
func (m *FSModule) FS() fs.FS {
	return m.fsys
}

func (m *FSModule) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("module %s: invalid resource name %q: %w", m.name, name, ErrNotExist)
	}
	f, err := m.fsys.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("module %s: open %s: %w", m.name, clean, err)
	}
	return f, nil
}

func (m *FSModule) List(ctx context.Context, dir string) ([]string, error) {
	root := path.Clean(strings.Trim(dir, "/"))
	if root == "" {
		root = "."
	}
	var names []string
	err := fs.WalkDir(m.fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.Type().IsRegular() {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("module %s: list %s: %w", m.name, root, err)
	}
	return names, nil
}

// ReadAll reads a whole resource. The stream is closed on every path.
func ReadAll(ctx context.Context, m Module, name string) (data []byte, err error) {
	rc, err := m.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("module %s: close %s: %w", m.Name(), name, cerr)
		}
	}()

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("module %s: read %s: %w", m.Name(), name, err)
	}
	return data, nil
}

// IsNotExist reports whether err signals a missing resource.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}
