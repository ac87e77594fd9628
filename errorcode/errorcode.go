// Package errorcode holds the numbered error codes shared by runtime injection
// warnings and the diagnostics of the validate package.
package errorcode

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Code is a stable error number. Numbers never change once published since
// tooling parses them out of diagnostic output.
type Code int

const (
	NoError                  Code = 0
	Unknown                  Code = 1001
	ElementNotPublic         Code = 1002
	FieldNotPublic           Code = 1003
	ClassNotPublic           Code = 1004
	FieldFinal               Code = 1005
	HolderNotAnnotated       Code = 1011
	HolderAndGeneric         Code = 1012
	GenericWithResources     Code = 1013
	TypeNotHolder            Code = 1014
	InvalidFieldType         Code = 1015
	InvalidEnumMap           Code = 1016
	StringResourceNotFound   Code = 1101
	BinaryResourceNotFound   Code = 1102
	DuplicateFieldName       Code = 1103 // Deprecated: use EnumTypesDuplicateField.
	EnumTypesDuplicateField  Code = 1104
	MissingEnumUniverse      Code = 1105
	InternalState            Code = 1201
)

type definition struct {
	code     Code
	name     string
	template string
}

//nolint:gochecknoglobals // fixed table
var definitions = []definition{
	{NoError, "ERR_NO_ERROR", ""},
	{Unknown, "ERR_UNKNOWN", "an unknown (non resource related) error occurred"},
	{ElementNotPublic, "ERR_ELEMENT_NOT_PUBLIC", "Element »%s« must be exported"},
	{FieldNotPublic, "ERR_FIELD_NOT_PUBLIC", "Field »%s« must be exported"},
	{ClassNotPublic, "ERR_CLASS_NOT_PUBLIC", "Type »%s« must be exported"},
	{FieldFinal, "ERR_FIELD_FINAL", "Field »%s« must be assignable"},
	{HolderNotAnnotated, "ERR_RESOURCE_HOLDER_NOT_ANNOTATED",
		"Resource holder type »%s« declares neither string nor binary resources"},
	{HolderAndGeneric, "ERR_RESOURCE_HOLDER_AND_GENERIC",
		"Resource holder type »%s« must not be generic"},
	{GenericWithResources, "ERR_GENERIC_RESOURCES_ANN",
		"Generic type »%s« must not declare string or binary resources"},
	{TypeNotHolder, "ERR_TYPE_NOT_RESOURCE_HOLDER",
		"Type »%s« declaring string or binary resources must embed holder.Base"},
	{InvalidFieldType, "ERR_INVALID_FIELD_TYPE", "Invalid type for field »%s« in resource holder »%s«"},
	{InvalidEnumMap, "ERR_INVALID_ENUM_MAP", "Invalid enum map declaration for field »%s«"},
	{StringResourceNotFound, "ERR_STRING_RESOURCE_NOT_FOUND", "Resource with identifier »%s« not found"},
	{BinaryResourceNotFound, "ERR_BINARY_RESOURCE_NOT_FOUND", "Resource »%s« not found"},
	{DuplicateFieldName, "ERR_DUPLICATE_FIELD_NAME", "Multiple declarations of fieldname %s in enum types"},
	{EnumTypesDuplicateField, "ERR_ENUM_TYPES_DUPLICATE_FIELD_NAMES",
		"»enumtypes %s« contains duplicate field name »%s«"},
	{MissingEnumUniverse, "ERR_MISSING_ENUM_UNIVERSE", "No enum universe declared for field »%s«"},
	{InternalState, "ERR_INTERNAL_STATE", "Internal state error in »%s« : expected »%s«"},
}

//nolint:gochecknoglobals // built once from definitions
var byNumber = func() map[int]definition {
	m := make(map[int]definition, len(definitions))
	for _, d := range definitions {
		if _, dup := m[int(d.code)]; dup {
			panic(fmt.Sprintf("errorcode: duplicate error number %d", d.code))
		}
		m[int(d.code)] = d
	}
	return m
}()

// Prefix is the marker written in front of every diagnostic message.
const Prefix = "[ResProcErrID#%d]"

var pattern = regexp.MustCompile(`\[ResProcErrID#(\d+)\]`)

// Pattern returns the expression matching the diagnostic prefix, the first
// submatch is the error number.
func Pattern() *regexp.Regexp {
	return pattern
}

// ByNumber is the reverse lookup used by parsers of diagnostic output.
func ByNumber(number int) (Code, bool) {
	d, ok := byNumber[number]
	return d.code, ok
}

// All returns every known code in ascending order.
func All() []Code {
	codes := make([]Code, 0, len(definitions))
	for _, d := range definitions {
		codes = append(codes, d.code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Number returns the numeric value of the code.
func (c Code) Number() int {
	return int(c)
}

// Name returns the symbolic name, e.g. ERR_STRING_RESOURCE_NOT_FOUND.
func (c Code) Name() string {
	if d, ok := byNumber[int(c)]; ok {
		return d.name
	}
	return "ERR_" + strconv.Itoa(int(c))
}

// Template returns the message template of the code.
func (c Code) Template() string {
	return byNumber[int(c)].template
}

func (c Code) String() string {
	return c.Name()
}

// Message renders the template without the numeric prefix.
func (c Code) Message(args ...any) string {
	tmpl := c.Template()
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Format renders the template preceded by the parseable prefix.
func (c Code) Format(args ...any) string {
	return fmt.Sprintf(Prefix, int(c)) + " " + c.Message(args...)
}

// Parse extracts the code of the first diagnostic prefix found in line.
func Parse(line string) (Code, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return NoError, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return NoError, false
	}
	return ByNumber(n)
}
