package inject_test

import (
	"reflect"
	"testing/fstest"

	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/source"
)

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string {
	return [...]string{"RED", "GREEN", "BLUE"}[c]
}

const colorEnum = "inject_test.Color"

//nolint:gochecknoglobals // enum universe of the fixtures
var _ = holder.MustRegisterEnum(colorEnum, Red, Green, Blue)

type simpleHolder struct {
	holder.Base `strings:"package=.strings,basename=string"`

	LabelValid1 string
}

type menu struct {
	holder.Generic

	TitleButton string
	MapColors   map[Color]string
	Icons       map[Color][]byte `res:"ext=.png"`
}

type window struct {
	holder.Base `strings:"package=.strings,basename=string" binaries:"package=.icons,ext=.png" enumtypes:"inject_test.Color=MapHover"`

	TitleMainWindow string
	IconInfoAbout   holder.Binary `res:"ext=.gif"`
	IconOK          holder.Binary `res:"key=ok"`
	MapHover        map[Color]string
	MapColors       map[Color]string `res:"enum=inject_test.Color"`
	Menu            *menu            `enumtypes:"inject_test.Color=MapColors|Icons"`
	Count           int
	Skipped         string `res:"-"`

	hidden string
}

type unannotated struct {
	holder.Base

	TitleAbout string
}

type notGeneric struct {
	Title string
}

type brokenEnums struct {
	holder.Base `strings:"package=.strings,basename=string" enumtypes:"inject_test.Color=MapA;inject_test.Color=MapA"`

	MapA     map[Color]string
	NoEnum   map[Color]string
	Unknown  map[Color]string  `res:"enum=nope"`
	WrongKey map[string]string `res:"enum=inject_test.Color"`
	Nested   notGeneric
}

type hinted struct {
	holder.Base `strings:"module=base,package=shared,basename=texts" binaries:"module=missing,package=.icons"`

	Greeting string
	Logo     holder.Binary `res:"ext=.svg"`
}

// testPackage is the import path of this test package; the fixture module
// owns it so relative packages resolve below the module root.
func testPackage() string {
	return reflect.TypeFor[simpleHolder]().PkgPath()
}

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"strings/string.properties": {Data: []byte(
			"labelValid1=String resource 1\n" +
				"mapHover.RED=Hover red\n" +
				"mapColors.RED=Red color\n" +
				"menu.titleButton=Menu button\n" +
				"menu.mapColors.GREEN=Menu green\n")},
		"strings/string_en.properties": {Data: []byte("labelValid1=String resource one\n")},
		"icons/ok.png":                 {Data: []byte("OK")},
		"icons/menu.icons.RED.png":     {Data: []byte("red icon")},
		"icons/logo.svg":               {Data: []byte("<svg/>")},
	}
}

func fixtureRegistry(fsys fstest.MapFS) *source.Registry {
	return source.NewRegistry(
		source.NewFS("app", testPackage(), fsys),
		source.NewFS("base", "example.com/base", fstest.MapFS{
			"shared/texts.properties": {Data: []byte("greeting=Hello from base\n")},
		}),
	)
}

type node struct {
	holder.Generic

	Label string
	Child *node
}

type tree struct {
	holder.Base `strings:"package=.strings,basename=string"`

	Root node
}
