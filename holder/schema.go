package holder

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Kind is the semantic type of a holder field.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindBinary
	KindEnumStrings
	KindEnumBinaries
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindEnumStrings:
		return "enum-strings"
	case KindEnumBinaries:
		return "enum-binaries"
	case KindNested:
		return "nested"
	default:
		return "invalid"
	}
}

//nolint:gochecknoglobals // reflect types compared during classification
var (
	baseType    = reflect.TypeFor[Base]()
	genericType = reflect.TypeFor[Generic]()
	binaryType  = reflect.TypeFor[Binary]()
	bytesType   = reflect.TypeFor[[]byte]()
)

// ErrNotStruct is returned by SchemaOf for types that are not structs.
var ErrNotStruct = errors.New("holder: not a struct type")

// Field describes one field of a holder or generic type.
type Field struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Kind     Kind
	Exported bool
	// Tagged is set when the field carries a res or enumtypes tag.
	Tagged  bool
	Options FieldOptions
	// Pointer is set for nested fields declared as pointer to struct.
	Pointer bool
	// EnumTypes holds the enumtypes declared on a nested field for its children.
	EnumTypes *EnumTypes
	// Err is set when the field tags could not be parsed.
	Err error
}

// Schema is the parsed descriptor table of a holder or generic type.
type Schema struct {
	Type reflect.Type
	// IsHolder is set when the type embeds Base.
	IsHolder bool
	// IsGeneric is set when the type embeds Generic.
	IsGeneric bool
	// GenericWithOptions is set when the Generic embed carries lookup options.
	GenericWithOptions bool

	Strings   *StringOptions
	Binaries  *BinaryOptions
	EnumTypes *EnumTypes
	Fields    []Field
	// Err collects problems with the type level tags.
	Err error
}

// HasOptions reports whether string or binary options are declared.
func (s *Schema) HasOptions() bool {
	return s.Strings != nil || s.Binaries != nil
}

//nolint:gochecknoglobals // schema cache keyed by type
var schemas sync.Map // map[reflect.Type]*Schema

// SchemaOf returns the cached schema of t, which may be a struct type or a
// pointer to one.
func SchemaOf(t reflect.Type) (*Schema, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}
	if cached, ok := schemas.Load(t); ok {
		return cached.(*Schema), nil
	}
	s := parseSchema(t)
	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// SchemaFor is SchemaOf for the static type T.
func SchemaFor[T any]() (*Schema, error) {
	return SchemaOf(reflect.TypeFor[T]())
}

// IsGenericType reports whether t, or the struct t points to, embeds Generic.
func IsGenericType(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct && embeds(t, genericType)
}

// IsHolderType reports whether t, or the struct t points to, embeds Base.
func IsHolderType(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct && embeds(t, baseType)
}

func embeds(t reflect.Type, marker reflect.Type) bool {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type == marker {
			return true
		}
	}
	return false
}

func parseSchema(t reflect.Type) *Schema {
	s := &Schema{Type: t}
	var errs []error

	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && (sf.Type == baseType || sf.Type == genericType) {
			errs = append(errs, s.parseMarker(sf)...)
			continue
		}
		s.Fields = append(s.Fields, parseField(sf))
	}

	s.Err = errors.Join(errs...)
	return s
}

func (s *Schema) parseMarker(sf reflect.StructField) []error {
	var errs []error
	strTag, hasStrings := sf.Tag.Lookup(TagStrings)
	binTag, hasBinaries := sf.Tag.Lookup(TagBinaries)

	if sf.Type == genericType {
		s.IsGeneric = true
		s.GenericWithOptions = hasStrings || hasBinaries
		return nil
	}

	s.IsHolder = true
	if hasStrings {
		opts, err := ParseStringOptions(strTag)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s tag of %s: %w", TagStrings, s.Type, err))
		} else {
			s.Strings = opts
		}
	}
	if hasBinaries {
		opts, err := ParseBinaryOptions(binTag)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s tag of %s: %w", TagBinaries, s.Type, err))
		} else {
			s.Binaries = opts
		}
	}
	if enumTag, ok := sf.Tag.Lookup(TagEnumTypes); ok {
		et, err := ParseEnumTypes(enumTag)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s tag of %s: %w", TagEnumTypes, s.Type, err))
		} else {
			s.EnumTypes = et
		}
	}
	return errs
}

func parseField(sf reflect.StructField) Field {
	f := Field{
		Name:     sf.Name,
		Index:    sf.Index,
		Type:     sf.Type,
		Exported: sf.IsExported(),
	}

	resTag, hasRes := sf.Tag.Lookup(TagField)
	_, hasEnumTypes := sf.Tag.Lookup(TagEnumTypes)
	f.Tagged = hasRes || hasEnumTypes

	opts, err := ParseFieldOptions(resTag)
	if err != nil {
		f.Err = fmt.Errorf("%s tag of field %s: %w", TagField, sf.Name, err)
	}
	f.Options = opts

	if enumTag, ok := sf.Tag.Lookup(TagEnumTypes); ok {
		et, etErr := ParseEnumTypes(enumTag)
		if etErr != nil {
			f.Err = errors.Join(f.Err, fmt.Errorf("%s tag of field %s: %w", TagEnumTypes, sf.Name, etErr))
		} else {
			f.EnumTypes = et
		}
	}

	f.Kind, f.Pointer = classify(sf.Type)
	return f
}

func classify(t reflect.Type) (Kind, bool) {
	switch {
	case t == binaryType:
		return KindBinary, false
	case t.Kind() == reflect.String:
		return KindString, false
	case t.Kind() == reflect.Map && t.Elem().Kind() == reflect.String:
		return KindEnumStrings, false
	case t.Kind() == reflect.Map && t.Elem() == bytesType:
		return KindEnumBinaries, false
	case t.Kind() == reflect.Struct && IsGenericType(t):
		return KindNested, false
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && IsGenericType(t.Elem()):
		return KindNested, true
	default:
		return KindInvalid, false
	}
}

// NestedType returns the struct type of a nested field.
func (f Field) NestedType() reflect.Type {
	if f.Pointer {
		return f.Type.Elem()
	}
	return f.Type
}
