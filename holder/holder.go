// Package holder describes resource holders: plain structs whose fields name
// the strings and binary blobs an application surface needs.
//
// A holder embeds Base and declares its lookup options in the tags of that
// embedded field:
//
//	type MainWindow struct {
//		holder.Base `strings:"package=.strings,basename=main" binaries:"package=.icons,ext=.png"`
//
//		TitleMainWindow string
//		IconInfoAbout   holder.Binary
//		MapColors       map[Color]string `res:"enum=Color"`
//		Menu            *Menu            `enumtypes:"Color=MapColors"`
//	}
//
// Nested types embed Generic instead and inherit the options of the holder
// they are used in.
package holder

import "golang.org/x/text/language"

// Holder is implemented by every struct embedding Base.
type Holder interface {
	// Locale returns the locale of the last injection.
	Locale() language.Tag
	// SetLocale records the locale the holder was injected with.
	SetLocale(tag language.Tag)
}

// Base marks a struct as a top level resource holder. Its struct tags carry
// the string and binary lookup options.
type Base struct {
	locale language.Tag
}

func (b *Base) Locale() language.Tag {
	return b.locale
}

func (b *Base) SetLocale(tag language.Tag) {
	b.locale = tag
}

// Generic marks a struct as a reusable nested resource description. It must
// not carry lookup options; those are inherited from the enclosing holder.
type Generic struct{}
