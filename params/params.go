// Package params resolves the raw lookup options of a holder into the module,
// package and file naming parameters used for string and binary lookups.
package params

import (
	"strings"

	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/source"
)

// ModuleResolver finds modules by name; *source.Registry implements it.
type ModuleResolver interface {
	Lookup(name string) (source.Module, bool)
}

// Parameters is a view on the string and binary options of a holder.
type Parameters struct {
	strings       *holder.StringOptions
	binaries      *holder.BinaryOptions
	holderPackage string
}

// New creates a view on the given options. holderPackage is the dotted
// package of the holder relative packages are resolved against.
func New(strOpts *holder.StringOptions, binOpts *holder.BinaryOptions, holderPackage string) *Parameters {
	return &Parameters{
		strings:       strOpts,
		binaries:      binOpts,
		holderPackage: holderPackage,
	}
}

// FromSchema creates a view on the options of a parsed holder schema.
func FromSchema(schema *holder.Schema, holderPackage string) *Parameters {
	if schema == nil {
		return New(nil, nil, holderPackage)
	}
	return New(schema.Strings, schema.Binaries, holderPackage)
}

// HolderPackage returns the package relative packages are resolved against.
func (p *Parameters) HolderPackage() string {
	return p.holderPackage
}

// AbsolutePackage resolves a package name: names starting with "." are
// appended to the holder package, all others are returned as is.
func (p *Parameters) AbsolutePackage(pkg string) string {
	if strings.HasPrefix(pkg, ".") {
		return p.holderPackage + pkg
	}
	return pkg
}

func (p *Parameters) HasStringResources() bool {
	return p.strings != nil
}

func (p *Parameters) HasBinaryResources() bool {
	return p.binaries != nil
}

func (p *Parameters) HasAnyResources() bool {
	return p.HasStringResources() || p.HasBinaryResources()
}

// StringPackage returns the resolved package of the string bundles.
func (p *Parameters) StringPackage() string {
	if p.strings == nil {
		return ""
	}
	return p.AbsolutePackage(p.strings.Package)
}

// BaseName returns the bundle base name.
func (p *Parameters) BaseName() string {
	if p.strings == nil {
		return ""
	}
	return p.strings.BaseName
}

// BundleName returns the dotted, package qualified bundle base name.
func (p *Parameters) BundleName() string {
	pkg := p.StringPackage()
	if strings.Trim(pkg, ".") == "" {
		return p.BaseName()
	}
	return strings.TrimPrefix(pkg, ".") + "." + p.BaseName()
}

// StringModule returns the module hinted by the string options, or def when
// there is no hint or it does not resolve.
func (p *Parameters) StringModule(resolver ModuleResolver, def source.Module) source.Module {
	if p.strings == nil {
		return def
	}
	return resolve(resolver, p.strings.Module, def)
}

// BinaryPackage returns the resolved package of the binary files.
func (p *Parameters) BinaryPackage() string {
	if p.binaries == nil {
		return ""
	}
	return p.AbsolutePackage(p.binaries.Package)
}

// DefaultExtension returns the extension of binary fields without override.
func (p *Parameters) DefaultExtension() string {
	if p.binaries == nil {
		return ""
	}
	return p.binaries.DefaultExtension
}

// BinaryModule returns the module hinted by the binary options, or def.
func (p *Parameters) BinaryModule(resolver ModuleResolver, def source.Module) source.Module {
	if p.binaries == nil {
		return def
	}
	return resolve(resolver, p.binaries.Module, def)
}

func resolve(resolver ModuleResolver, hint string, def source.Module) source.Module {
	hint = strings.TrimSpace(hint)
	if hint == "" || resolver == nil {
		return def
	}
	if m, ok := resolver.Lookup(hint); ok && m != nil {
		return m
	}
	return def
}
