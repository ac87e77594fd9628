// Package keys composes the hierarchical resource keys used for string lookups
// and binary file names. The validate package derives keys through the same
// functions, so both sides always agree on what is looked up.
package keys

import (
	"strings"
	"unicode"
)

// The three separators are currently the same character. They are kept apart
// so that changing one of them stays a local edit.
const (
	// SeparatorNested joins a nested holder field to the keys of its children.
	SeparatorNested = "."
	// SeparatorEnumKey joins a string map key to an enum constant name.
	SeparatorEnumKey = "."
	// SeparatorEnumFile joins a binary map key to an enum constant name.
	SeparatorEnumFile = "."
)

// SeparatorsShared reports whether nesting and enum keys use the same
// separator, which makes enum postfixes ambiguous for fallback derivation.
const SeparatorsShared = SeparatorNested == SeparatorEnumKey

// Name returns override if it is not blank, otherwise the key derived from the
// Go field name.
func Name(fieldName, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return FieldKey(fieldName)
}

// Leaf returns the key of a leaf field.
func Leaf(prefix, name string) string {
	return prefix + name
}

// Nested returns the prefix contributed by a nested holder field to its children.
func Nested(prefix, name string) string {
	return prefix + name + SeparatorNested
}

// Enum returns the key of one entry of an enum-to-string map.
func Enum(base, constant string) string {
	return base + SeparatorEnumKey + constant
}

// EnumFile returns the file key of one entry of an enum-to-blob map.
func EnumFile(base, constant string) string {
	return base + SeparatorEnumFile + constant
}

// FieldKey turns an exported Go field name into a resource key by lowering its
// leading upper-case run: TitleMainWindow -> titleMainWindow, HTMLTitle ->
// htmlTitle, ID -> id. Names that start lower-case are returned unchanged.
func FieldKey(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n == 0 {
		return name
	}
	// keep the last capital of an initialism when it starts the next word
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := range n {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// PackagePath converts a dotted package name into a slash separated directory.
// A leading dot left over from a relative package of a root level holder is
// ignored; the empty package is the module root.
func PackagePath(pkg string) string {
	pkg = strings.Trim(pkg, ".")
	if pkg == "" {
		return ""
	}
	return strings.ReplaceAll(pkg, ".", "/")
}

// FilePath joins a dotted package and a file name into a module relative path.
func FilePath(pkg, file string) string {
	dir := PackagePath(pkg)
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

// LastSegment returns the part of key after the last nesting separator.
func LastSegment(key string) string {
	idx := strings.LastIndex(key, SeparatorNested)
	if idx < 0 {
		return key
	}
	return key[idx+len(SeparatorNested):]
}
