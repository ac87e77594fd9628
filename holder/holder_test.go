package holder_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/holder"
)

type color int

const (
	red color = iota
	green
	blue
)

func (c color) String() string {
	return [...]string{"RED", "GREEN", "BLUE"}[c]
}

type size string

type menu struct {
	holder.Generic

	TitleButton string
	MapSizes    map[size]string
}

type window struct {
	holder.Base `strings:"package=.strings,basename=string,module=app" binaries:"package=.icons,ext=.png" enumtypes:"Color=MapColors|MapIcons"`

	TitleMainWindow string
	Renamed         string        `res:"key=titleOther"`
	IconInfoAbout   holder.Binary `res:"ext=.svg"`
	MapColors       map[color]string
	MapIcons        map[color][]byte
	Menu            *menu `enumtypes:"Size=MapSizes"`
	Inline          menu
	Count           int
	Ignored         string `res:"-"`
	internal        string //nolint:unused // exercised by schema parsing
}

type bothMarkers struct {
	holder.Base `strings:"package=a,basename=b"`
	holder.Generic
}

type badTags struct {
	holder.Base `strings:"package=a,colour=blue"`

	Label string `res:"key"`
}

type HolderTestSuite struct {
	suite.Suite
}

func TestHolderSuite(t *testing.T) {
	suite.Run(t, new(HolderTestSuite))
}

func (s *HolderTestSuite) TestSchemaOptions() {
	schema, err := holder.SchemaFor[window]()
	s.Require().NoError(err)
	s.Require().NoError(schema.Err)
	s.Require().True(schema.IsHolder)
	s.Require().False(schema.IsGeneric)
	s.Require().True(schema.HasOptions())

	s.Require().Equal(&holder.StringOptions{Module: "app", Package: ".strings", BaseName: "string"}, schema.Strings)
	s.Require().Equal(&holder.BinaryOptions{Package: ".icons", DefaultExtension: ".png"}, schema.Binaries)

	enumName, ok := schema.EnumTypes.Lookup("MapIcons")
	s.Require().True(ok)
	s.Require().Equal("Color", enumName)

	again, err := holder.SchemaOf(reflect.TypeFor[*window]())
	s.Require().NoError(err)
	s.Require().Same(schema, again)
}

func (s *HolderTestSuite) TestSchemaFields() {
	schema, err := holder.SchemaFor[window]()
	s.Require().NoError(err)

	kinds := map[string]holder.Kind{}
	fields := map[string]holder.Field{}
	for _, f := range schema.Fields {
		kinds[f.Name] = f.Kind
		fields[f.Name] = f
	}

	s.Require().Equal(map[string]holder.Kind{
		"TitleMainWindow": holder.KindString,
		"Renamed":         holder.KindString,
		"IconInfoAbout":   holder.KindBinary,
		"MapColors":       holder.KindEnumStrings,
		"MapIcons":        holder.KindEnumBinaries,
		"Menu":            holder.KindNested,
		"Inline":          holder.KindNested,
		"Count":           holder.KindInvalid,
		"Ignored":         holder.KindString,
		"internal":        holder.KindString,
	}, kinds)

	s.Require().Equal("titleOther", fields["Renamed"].Options.Key)
	s.Require().True(fields["IconInfoAbout"].Options.HasExt)
	s.Require().Equal(".svg", fields["IconInfoAbout"].Options.Ext)
	s.Require().True(fields["Ignored"].Options.Skip)
	s.Require().False(fields["internal"].Exported)
	s.Require().True(fields["Menu"].Pointer)
	s.Require().False(fields["Inline"].Pointer)
	s.Require().Equal(reflect.TypeFor[menu](), fields["Menu"].NestedType())

	sizeEnum, ok := fields["Menu"].EnumTypes.Lookup("MapSizes")
	s.Require().True(ok)
	s.Require().Equal("Size", sizeEnum)
}

func (s *HolderTestSuite) TestGenericSchema() {
	schema, err := holder.SchemaFor[menu]()
	s.Require().NoError(err)
	s.Require().True(schema.IsGeneric)
	s.Require().False(schema.IsHolder)
	s.Require().False(schema.HasOptions())
	s.Require().True(holder.IsGenericType(reflect.TypeFor[*menu]()))
	s.Require().False(holder.IsHolderType(reflect.TypeFor[menu]()))
}

func (s *HolderTestSuite) TestSchemaErrors() {
	both, err := holder.SchemaFor[bothMarkers]()
	s.Require().NoError(err)
	s.Require().True(both.IsHolder)
	s.Require().True(both.IsGeneric)

	bad, err := holder.SchemaFor[badTags]()
	s.Require().NoError(err)
	s.Require().ErrorContains(bad.Err, "unknown options colour")
	s.Require().Nil(bad.Strings)
	s.Require().Len(bad.Fields, 1)
	s.Require().ErrorContains(bad.Fields[0].Err, "malformed option")

	_, err = holder.SchemaOf(reflect.TypeFor[int]())
	s.Require().ErrorIs(err, holder.ErrNotStruct)
}

func (s *HolderTestSuite) TestEnumTypesDuplicates() {
	et, err := holder.ParseEnumTypes("Color=MapA|MapB; Size=MapB|MapC; Shape=MapB")
	s.Require().NoError(err)

	_, ok := et.Lookup("MapB")
	s.Require().False(ok, "duplicate field names stay unresolved")
	s.Require().Equal([]holder.EnumTypesDuplicate{{Enum: "Size", Field: "MapB"}}, et.Duplicates)

	name, ok := et.Lookup("MapC")
	s.Require().True(ok)
	s.Require().Equal("Size", name)
	s.Require().Equal(2, et.Len())

	_, err = holder.ParseEnumTypes("=MapA")
	s.Require().Error(err)
}

func (s *HolderTestSuite) TestEnumRegistry() {
	u, err := holder.RegisterEnum("holderTestColor", red, green, blue, green)
	s.Require().NoError(err)
	s.Require().Equal([]string{"RED", "GREEN", "BLUE"}, u.Names)
	s.Require().True(u.Fits(reflect.TypeFor[color]()))
	s.Require().False(u.Fits(reflect.TypeFor[size]()))

	got, ok := holder.LookupEnum("holderTestColor")
	s.Require().True(ok)
	s.Require().Same(u, got)

	_, err = holder.RegisterEnum[size]("holderTestColor", "S")
	s.Require().Error(err)

	_, err = holder.RegisterEnum[size]("")
	s.Require().Error(err)
}

func (s *HolderTestSuite) TestBinaryCell() {
	var b holder.Binary
	s.Require().True(b.IsEmpty())

	called := false
	b.IfPresentOrElse(func([]byte) {}, func() { called = true })
	s.Require().True(called)

	b.Set([]byte{1, 2})
	data, ok := b.Get()
	s.Require().True(ok)
	s.Require().Equal([]byte{1, 2}, data)
	s.Require().True(b.Equal(holder.NewBinary([]byte{1, 2})))

	b.Set(nil)
	s.Require().False(b.IsPresent())
	s.Require().True(b.Equal(holder.Binary{}))
}

func (s *HolderTestSuite) TestBaseLocale() {
	var w window
	s.Require().Equal(language.Und, w.Locale())
	w.SetLocale(language.German)
	s.Require().Equal(language.German, w.Locale())
}
