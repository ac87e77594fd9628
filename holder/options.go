package holder

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Struct tag names understood by the schema parser.
const (
	TagStrings   = "strings"
	TagBinaries  = "binaries"
	TagEnumTypes = "enumtypes"
	TagField     = "res"
)

// StringOptions are the string lookup options of a holder.
type StringOptions struct {
	// Module is an optional module hint; empty means the holder's own module.
	Module string
	// Package is absolute, or relative to the holder's package if it starts with ".".
	Package string
	// BaseName is the bundle base name.
	BaseName string
}

// BinaryOptions are the binary lookup options of a holder.
type BinaryOptions struct {
	Module  string
	Package string
	// DefaultExtension is appended to keys of binary fields without an
	// extension override, including the leading dot.
	DefaultExtension string
}

// FieldOptions are the per field options of the res tag.
type FieldOptions struct {
	Skip   bool
	Key    string
	Ext    string
	HasExt bool
	Enum   string
}

func splitOptions(tag string) (map[string]string, error) {
	opts := map[string]string{}
	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("malformed option %q", part)
		}
		if _, dup := opts[name]; dup {
			return nil, fmt.Errorf("option %q given twice", name)
		}
		opts[name] = strings.TrimSpace(value)
	}
	return opts, nil
}

func unknownOptions(opts map[string]string, known ...string) error {
	var unknown []string
	for name := range opts {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown options %s", strings.Join(unknown, ", "))
}

// ParseStringOptions parses the value of a strings tag.
func ParseStringOptions(tag string) (*StringOptions, error) {
	opts, err := splitOptions(tag)
	if err != nil {
		return nil, err
	}
	if err = unknownOptions(opts, "module", "package", "basename"); err != nil {
		return nil, err
	}
	return &StringOptions{
		Module:   opts["module"],
		Package:  opts["package"],
		BaseName: opts["basename"],
	}, nil
}

// ParseBinaryOptions parses the value of a binaries tag.
func ParseBinaryOptions(tag string) (*BinaryOptions, error) {
	opts, err := splitOptions(tag)
	if err != nil {
		return nil, err
	}
	if err = unknownOptions(opts, "module", "package", "ext"); err != nil {
		return nil, err
	}
	return &BinaryOptions{
		Module:           opts["module"],
		Package:          opts["package"],
		DefaultExtension: opts["ext"],
	}, nil
}

// ParseFieldOptions parses the value of a res tag. "-" skips the field.
func ParseFieldOptions(tag string) (FieldOptions, error) {
	if strings.TrimSpace(tag) == "-" {
		return FieldOptions{Skip: true}, nil
	}
	opts, err := splitOptions(tag)
	if err != nil {
		return FieldOptions{}, err
	}
	if err = unknownOptions(opts, "key", "ext", "enum"); err != nil {
		return FieldOptions{}, err
	}
	ext, hasExt := opts["ext"]
	return FieldOptions{
		Key:    opts["key"],
		Ext:    ext,
		HasExt: hasExt,
		Enum:   opts["enum"],
	}, nil
}

// EnumTypes maps Go field names of a container to the enum universe they use.
type EnumTypes struct {
	byField map[string]string
	// Duplicates lists field names declared more than once; their universe is
	// unresolved.
	Duplicates []EnumTypesDuplicate
}

// EnumTypesDuplicate records a field name repeated across enum declarations.
type EnumTypesDuplicate struct {
	Enum  string
	Field string
}

// Lookup returns the enum name declared for field.
func (e *EnumTypes) Lookup(field string) (string, bool) {
	if e == nil {
		return "", false
	}
	name, ok := e.byField[field]
	return name, ok
}

// Len returns the number of resolvable field declarations.
func (e *EnumTypes) Len() int {
	if e == nil {
		return 0
	}
	return len(e.byField)
}

// ParseEnumTypes parses the value of an enumtypes tag:
// "Color=MapColors|MapHover;Size=MapSizes". A field name appearing in more
// than one declaration is recorded as duplicate and left unresolved.
func ParseEnumTypes(tag string) (*EnumTypes, error) {
	e := &EnumTypes{byField: map[string]string{}}
	duplicates := map[string]bool{}
	for decl := range strings.SplitSeq(tag, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		enumName, fields, found := strings.Cut(decl, "=")
		enumName = strings.TrimSpace(enumName)
		if !found || enumName == "" {
			return nil, fmt.Errorf("malformed enum types declaration %q", decl)
		}
		for field := range strings.SplitSeq(fields, "|") {
			field = strings.TrimSpace(field)
			if field == "" || duplicates[field] {
				continue
			}
			if _, ok := e.byField[field]; ok {
				delete(e.byField, field)
				duplicates[field] = true
				e.Duplicates = append(e.Duplicates, EnumTypesDuplicate{Enum: enumName, Field: field})
				continue
			}
			e.byField[field] = enumName
		}
	}
	return e, nil
}
