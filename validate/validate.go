// Package validate checks resource holder types against the resources that
// are actually available, ahead of running the application. It derives keys
// and file names exactly like the inject package, so a clean run means no
// injection will fall back to derived values.
//
// The usual place for it is a test of the application:
//
//	func TestResources(t *testing.T) {
//		v := validate.New(validate.WithRegistry(reg))
//		if err := v.Check(t.Context(), reflect.TypeFor[ui.MainWindow]()).Err(); err != nil {
//			t.Fatal(err)
//		}
//	}
package validate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/keys"
	"github.com/pitabwire/resources/params"
	"github.com/pitabwire/resources/source"
)

// Validator checks holder types against a registry of modules.
type Validator struct {
	registry *source.Registry
	bundles  *bundle.Loader

	showCheckedResourceKeys  bool
	warnOnlyMissingResources bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry sets the modules resources are looked up in.
func WithRegistry(reg *source.Registry) Option {
	return func(v *Validator) {
		v.registry = reg
	}
}

// WithBundleLoader sets the loader of string bundles.
func WithBundleLoader(l *bundle.Loader) Option {
	return func(v *Validator) {
		v.bundles = l
	}
}

// ShowCheckedResourceKeys adds a note for every checked key and file.
func ShowCheckedResourceKeys() Option {
	return func(v *Validator) {
		v.showCheckedResourceKeys = true
	}
}

// WarnOnlyMissingResources reports missing resources as warnings instead of
// errors.
func WarnOnlyMissingResources() Option {
	return func(v *Validator) {
		v.warnOnlyMissingResources = true
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.bundles == nil {
		v.bundles = bundle.NewLoader()
	}
	return v
}

// Holder checks the holder type H.
func Holder[H any](ctx context.Context, v *Validator) Diagnostics {
	return v.Check(ctx, reflect.TypeFor[H]())
}

// Check validates each type in turn. Pointer types are dereferenced.
func (v *Validator) Check(ctx context.Context, types ...reflect.Type) Diagnostics {
	var diags Diagnostics
	for _, t := range types {
		c := &check{v: v, ctx: ctx}
		c.checkType(t)
		diags = append(diags, c.diags...)
	}
	return diags
}

// check is the state of validating one type.
type check struct {
	v   *Validator
	ctx context.Context

	holderName   string
	params       *params.Parameters
	stringModule source.Module
	binaryModule source.Module

	bundle       *bundle.Bundle
	bundleErr    error
	bundleLoaded bool

	nesting map[reflect.Type]bool
	diags   Diagnostics
}

func (c *check) report(severity Severity, code errorcode.Code, field, key, msg string) {
	c.diags = append(c.diags, Diagnostic{
		Severity: severity,
		Code:     code,
		Holder:   c.holderName,
		Field:    field,
		Key:      key,
		Message:  msg,
	})
}

func (c *check) errorf(code errorcode.Code, field string, args ...any) {
	c.report(SeverityError, code, field, "", code.Message(args...))
}

func (c *check) missing(code errorcode.Code, field, key, msg string) {
	severity := SeverityError
	if c.v.warnOnlyMissingResources {
		severity = SeverityWarning
	}
	c.report(severity, code, field, key, msg)
}

func (c *check) trace(msg, value string) {
	if !c.v.showCheckedResourceKeys {
		return
	}
	if value != "" {
		msg += " »" + value + "«"
	}
	util.Log(c.ctx).WithField("holder", c.holderName).Debug(msg)
	c.report(SeverityNote, errorcode.NoError, "", "", msg)
}

func (c *check) checkType(t reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		c.holderName = "<nil>"
		c.errorf(errorcode.TypeNotHolder, "", c.holderName)
		return
	}
	c.holderName = t.String()

	schema, err := holder.SchemaOf(t)
	if err != nil {
		c.errorf(errorcode.TypeNotHolder, "", c.holderName)
		return
	}

	c.trace("Check resource holder", c.holderName)
	if !exported(t.Name()) {
		c.report(SeverityWarning, errorcode.ClassNotPublic, "", "", errorcode.ClassNotPublic.Message(c.holderName))
	}

	switch {
	case schema.IsHolder && schema.IsGeneric:
		c.errorf(errorcode.HolderAndGeneric, "", c.holderName)
	case schema.IsGeneric:
		if schema.GenericWithOptions {
			c.errorf(errorcode.GenericWithResources, "", c.holderName)
		}
		return
	case !schema.IsHolder:
		c.errorf(errorcode.TypeNotHolder, "", c.holderName)
		return
	}

	if schema.Err != nil {
		c.report(SeverityError, errorcode.Unknown, "", "", schema.Err.Error())
	}
	if !schema.HasOptions() {
		c.report(SeverityWarning, errorcode.HolderNotAnnotated, "", "",
			errorcode.HolderNotAnnotated.Message(c.holderName))
	}

	owner := c.v.registry.OwnerOf(t.PkgPath())
	c.params = params.FromSchema(schema, source.PackageOf(owner, t.PkgPath()))
	c.stringModule = c.params.StringModule(c.v.registry, owner)
	c.binaryModule = c.params.BinaryModule(c.v.registry, owner)

	c.walk(schema, "", "", schema.EnumTypes)
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func (c *check) walk(schema *holder.Schema, prefix, path string, enumTypes *holder.EnumTypes) {
	if enumTypes != nil {
		for _, dup := range enumTypes.Duplicates {
			c.errorf(errorcode.EnumTypesDuplicateField, joinPath(path, dup.Field), dup.Enum, dup.Field)
		}
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		fieldPath := joinPath(path, f.Name)
		if !f.Exported {
			if f.Tagged {
				c.errorf(errorcode.FieldNotPublic, fieldPath, f.Name)
			}
			continue
		}
		if f.Options.Skip {
			continue
		}
		if f.Err != nil {
			c.report(SeverityError, errorcode.InvalidFieldType, fieldPath, "",
				errorcode.InvalidFieldType.Message(f.Name, c.holderName)+": "+f.Err.Error())
			continue
		}

		name := keys.Name(f.Name, f.Options.Key)
		switch f.Kind {
		case holder.KindString:
			c.checkString(keys.Leaf(prefix, name), fieldPath)
		case holder.KindBinary:
			c.checkBinary(keys.Leaf(prefix, name), c.ext(f), fieldPath)
		case holder.KindEnumStrings, holder.KindEnumBinaries:
			c.checkEnumMap(f, keys.Leaf(prefix, name), fieldPath, enumTypes)
		case holder.KindNested:
			c.checkNested(f, keys.Nested(prefix, name), fieldPath)
		default:
			c.errorf(errorcode.InvalidFieldType, fieldPath, f.Name, c.holderName)
		}
	}
}

func (c *check) checkNested(f *holder.Field, prefix, path string) {
	t := f.NestedType()
	c.trace("Check nested type", t.String())
	if c.nesting[t] {
		c.report(SeverityError, errorcode.InvalidFieldType, path, "",
			errorcode.InvalidFieldType.Message(f.Name, c.holderName)+": "+t.String()+" nests itself")
		return
	}
	schema, err := holder.SchemaOf(t)
	if err != nil {
		c.errorf(errorcode.InvalidFieldType, path, f.Name, c.holderName)
		return
	}
	if schema.IsHolder {
		c.errorf(errorcode.HolderAndGeneric, path, t.String())
	}
	if schema.GenericWithOptions {
		c.errorf(errorcode.GenericWithResources, path, t.String())
	}

	if c.nesting == nil {
		c.nesting = map[reflect.Type]bool{}
	}
	c.nesting[t] = true
	c.walk(schema, prefix, path, f.EnumTypes)
	delete(c.nesting, t)
}

func (c *check) universe(f *holder.Field, path string, enumTypes *holder.EnumTypes) *holder.Universe {
	name := f.Options.Enum
	if name == "" {
		name, _ = enumTypes.Lookup(f.Name)
	}
	if name == "" {
		c.errorf(errorcode.MissingEnumUniverse, path, f.Name)
		return nil
	}
	u, ok := holder.LookupEnum(name)
	if !ok {
		c.report(SeverityError, errorcode.MissingEnumUniverse, path, "",
			errorcode.MissingEnumUniverse.Message(f.Name)+": enum »"+name+"« is not registered")
		return nil
	}
	if !u.Fits(f.Type.Key()) {
		c.report(SeverityError, errorcode.InvalidEnumMap, path, "",
			fmt.Sprintf("%s: enum %s does not fit map key %s", errorcode.InvalidEnumMap.Message(f.Name), u.Type, f.Type.Key()))
		return nil
	}
	return u
}

// checkEnumMap checks the resource of every constant of the map's enum.
func (c *check) checkEnumMap(f *holder.Field, base, path string, enumTypes *holder.EnumTypes) {
	c.trace("Check enum map", path)
	u := c.universe(f, path, enumTypes)
	if u == nil {
		return
	}
	for _, constant := range u.Names {
		if f.Kind == holder.KindEnumStrings {
			c.checkString(keys.Enum(base, constant), path)
			continue
		}
		c.checkBinary(keys.EnumFile(base, constant), c.ext(f), path)
	}
}

func (c *check) loadBundle() (*bundle.Bundle, error) {
	if c.bundleLoaded {
		return c.bundle, c.bundleErr
	}
	c.bundleLoaded = true
	c.bundle, c.bundleErr = c.v.bundles.Load(
		c.ctx, c.stringModule, c.params.StringPackage(), c.params.BaseName(), language.Und)
	return c.bundle, c.bundleErr
}

// checkString looks key up in the root bundle, which every locale falls back to.
func (c *check) checkString(key, path string) {
	if !c.params.HasStringResources() {
		c.missing(errorcode.StringResourceNotFound, path, key, "Missing string options for »"+key+"«")
		return
	}

	c.trace("Check string resource »"+key+"« in", bundle.FileName(
		keys.PackagePath(c.params.StringPackage()), c.params.BaseName(), language.Und))

	b, err := c.loadBundle()
	if err != nil {
		c.missing(errorcode.StringResourceNotFound, path, key, err.Error())
		return
	}
	if !b.Contains(key) {
		c.missing(errorcode.StringResourceNotFound, path, key, errorcode.StringResourceNotFound.Message(key))
	}
}

func (c *check) ext(f *holder.Field) string {
	if f.Options.HasExt {
		return f.Options.Ext
	}
	return c.params.DefaultExtension()
}

func (c *check) checkBinary(key, ext, path string) {
	if !c.params.HasBinaryResources() {
		c.missing(errorcode.BinaryResourceNotFound, path, key, "Missing binary options for »"+key+"«")
		return
	}

	name := keys.FilePath(c.params.BinaryPackage(), key+ext)
	c.trace("Check binary resource", name)

	err := c.exists(name)
	if err != nil {
		msg := errorcode.BinaryResourceNotFound.Message(name)
		if !source.IsNotExist(err) {
			msg += ": " + err.Error()
		}
		c.missing(errorcode.BinaryResourceNotFound, path, name, msg)
		return
	}
	c.trace("Found binary resource", name)
}

func (c *check) exists(name string) error {
	if c.binaryModule == nil {
		return errors.New("no module for binary resources")
	}
	rc, err := c.binaryModule.Open(c.ctx, name)
	if err != nil {
		return err
	}
	util.CloseAndLogOnError(c.ctx, rc, "could not close binary resource")
	return nil
}
