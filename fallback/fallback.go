// Package fallback synthesises human readable placeholder values for string
// resources that could not be found.
package fallback

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/keys"
)

// Placeholder is returned for blank keys.
const Placeholder = "»…«"

// Deriver derives fallback values using the case rules of a locale.
// A Deriver is not safe for concurrent use.
type Deriver struct {
	upper cases.Caser
	lower cases.Caser
}

// New returns a Deriver for the given locale.
func New(tag language.Tag) *Deriver {
	return &Deriver{
		upper: cases.Upper(tag),
		lower: cases.Lower(tag),
	}
}

// Derive is a convenience for New(language.Und).Derive.
func Derive(key string, hasEnumPostfix bool) string {
	return New(language.Und).Derive(key, hasEnumPostfix)
}

// Derive calculates a fallback value from a resource key. A prefix of lower
// case letters is dropped and words are split on camel case, underscores and
// digits: "titleMainWindow" becomes "Main Window". For keys ending in an enum
// constant the constant is used instead: "mapColors.RED" becomes "Red".
// Keys that are not identifiers are returned unchanged.
func (d *Deriver) Derive(key string, hasEnumPostfix bool) string {
	if strings.TrimSpace(key) == "" {
		return Placeholder
	}

	base := key
	if idx := indexNesting(key, hasEnumPostfix); idx >= 0 {
		base = key[idx+len(keys.SeparatorNested):]
	}

	enumIdx := strings.LastIndex(base, keys.SeparatorEnumKey)
	postfixEmpty := enumIdx >= 0 && enumIdx == len(base)-len(keys.SeparatorEnumKey)
	if hasEnumPostfix && !postfixEmpty && base != "" {
		return d.capitalize(base[enumIdx+len(keys.SeparatorEnumKey):])
	}

	prefix := base
	if hasEnumPostfix && enumIdx >= 0 {
		prefix = base[:enumIdx]
	}
	if !isIdentifier(prefix) {
		return nonEmpty(prefix, key)
	}
	return nonEmpty(fromIdentifier(prefix), prefix)
}

func (d *Deriver) capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return d.upper.String(string(runes[:1])) + d.lower.String(string(runes[1:]))
}

// indexNesting returns the index of the separator in front of the base key.
func indexNesting(key string, hasEnumPostfix bool) int {
	if hasEnumPostfix && keys.SeparatorsShared {
		idx := strings.LastIndex(key, keys.SeparatorEnumKey)
		if idx < 0 {
			return -1
		}
		return strings.LastIndex(key[:idx], keys.SeparatorNested)
	}
	return strings.LastIndex(key, keys.SeparatorNested)
}

func nonEmpty(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$' ||
		unicode.Is(unicode.Sc, r) || unicode.Is(unicode.Pc, r) || unicode.Is(unicode.Nl, r)
}

func isIdentifierPart(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// isIdentifier roughly checks whether s is a program identifier, keywords are
// not considered.
func isIdentifier(s string) bool {
	if s == "" || s == "_" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isIdentifierStart(r) {
				return false
			}
			continue
		}
		if !isIdentifierPart(r) {
			return false
		}
	}
	return true
}

func fromIdentifier(identifier string) string {
	runes := []rune(identifier)
	start := 0
	for start < len(runes) && unicode.IsLower(runes[start]) {
		start++
	}

	var sb strings.Builder
	addSpace := func() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}

	last := '0'
	for _, r := range runes[start:] {
		switch {
		case r == '_':
			if last != '_' {
				addSpace()
			}
		case unicode.IsDigit(r):
			if !unicode.IsDigit(last) {
				addSpace()
			}
			sb.WriteRune(r)
		case unicode.IsUpper(r):
			if last != '_' && !unicode.IsUpper(last) {
				addSpace()
			}
			sb.WriteRune(r)
		default:
			switch {
			case last == '_':
				sb.WriteRune(unicode.ToUpper(r))
			case unicode.IsDigit(last):
				addSpace()
				sb.WriteRune(unicode.ToUpper(r))
			default:
				sb.WriteRune(r)
			}
		}
		last = r
	}
	return strings.TrimRight(sb.String(), " ")
}
