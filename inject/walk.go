package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/pitabwire/util"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/fallback"
	"github.com/pitabwire/resources/holder"
	"github.com/pitabwire/resources/keys"
	"github.com/pitabwire/resources/params"
	"github.com/pitabwire/resources/source"
)

// ErrNoStringResources is the cause of missing strings of holders that
// declare no string options.
var ErrNoStringResources = fmt.Errorf("holder declares no string resources: %w", bundle.ErrBundleNotFound)

// ErrRecursiveNesting is the cause of warnings for generic types nesting
// themselves.
var ErrRecursiveNesting = errors.New("generic type nests itself")

// run is the state of one Inject call.
type run struct {
	in  *Injector
	ctx context.Context

	holderName   string
	params       *params.Parameters
	stringModule source.Module
	binaryModule source.Module
	deriver      *fallback.Deriver

	bundle       *bundle.Bundle
	bundleErr    error
	bundleLoaded bool

	// nesting holds the nested types currently being walked.
	nesting map[reflect.Type]bool

	warnings Warnings
}

func (r *run) warn(w *Warning) {
	w.Holder = r.holderName
	r.warnings = append(r.warnings, w)
	r.in.onWarning(r.ctx, w)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// walk injects the fields of the struct v described by schema. prefix is the
// key prefix of nested holders, enumTypes the enum declarations of the
// containing field.
func (r *run) walk(v reflect.Value, schema *holder.Schema, prefix, path string, enumTypes *holder.EnumTypes) {
	if enumTypes != nil {
		for _, dup := range enumTypes.Duplicates {
			r.warn(&Warning{
				Code:  errorcode.EnumTypesDuplicateField,
				Args:  []any{dup.Enum, dup.Field},
				Field: joinPath(path, dup.Field),
			})
		}
	}

	for i := range schema.Fields {
		f := &schema.Fields[i]
		if !f.Exported || f.Options.Skip {
			continue
		}
		fieldPath := joinPath(path, f.Name)
		if f.Err != nil {
			r.warn(&Warning{
				Code:  errorcode.InvalidFieldType,
				Args:  []any{f.Name, r.holderName},
				Field: fieldPath,
				Err:   f.Err,
			})
			continue
		}

		fv := v.FieldByIndex(f.Index)
		if !fv.CanSet() {
			r.warn(&Warning{Code: errorcode.FieldFinal, Args: []any{f.Name}, Field: fieldPath})
			continue
		}
		name := keys.Name(f.Name, f.Options.Key)

		switch f.Kind {
		case holder.KindString:
			fv.SetString(r.str(keys.Leaf(prefix, name), false, fieldPath))
		case holder.KindBinary:
			key := keys.Leaf(prefix, name)
			data, err := r.binary(key, r.ext(f))
			if err != nil {
				r.missingBinary(key, r.ext(f), fieldPath, err)
				continue
			}
			fv.Addr().Interface().(*holder.Binary).Set(data)
		case holder.KindEnumStrings, holder.KindEnumBinaries:
			r.enumMap(fv, f, keys.Leaf(prefix, name), fieldPath, enumTypes)
		case holder.KindNested:
			r.nested(fv, f, keys.Nested(prefix, name), fieldPath)
		default:
			r.warn(&Warning{
				Code:  errorcode.InvalidFieldType,
				Args:  []any{f.Name, r.holderName},
				Field: fieldPath,
			})
		}
	}
}

func (r *run) nested(fv reflect.Value, f *holder.Field, prefix, path string) {
	t := f.NestedType()
	if r.nesting[t] {
		r.warn(&Warning{
			Code:  errorcode.InvalidFieldType,
			Args:  []any{f.Name, r.holderName},
			Field: path,
			Err:   fmt.Errorf("%w: %s", ErrRecursiveNesting, t),
		})
		return
	}
	schema, err := holder.SchemaOf(t)
	if err != nil {
		r.warn(&Warning{Code: errorcode.InvalidFieldType, Args: []any{f.Name, r.holderName}, Field: path, Err: err})
		return
	}
	if r.nesting == nil {
		r.nesting = map[reflect.Type]bool{}
	}
	r.nesting[t] = true
	instance := reflect.New(t)
	r.walk(instance.Elem(), schema, prefix, path, f.EnumTypes)
	delete(r.nesting, t)
	if f.Pointer {
		fv.Set(instance)
	} else {
		fv.Set(instance.Elem())
	}
}

func (r *run) universe(f *holder.Field, path string, enumTypes *holder.EnumTypes) *holder.Universe {
	name := f.Options.Enum
	if name == "" {
		name, _ = enumTypes.Lookup(f.Name)
	}
	if name == "" {
		r.warn(&Warning{Code: errorcode.MissingEnumUniverse, Args: []any{f.Name}, Field: path})
		return nil
	}
	u, ok := holder.LookupEnum(name)
	if !ok {
		r.warn(&Warning{
			Code:  errorcode.MissingEnumUniverse,
			Args:  []any{f.Name},
			Field: path,
			Err:   fmt.Errorf("enum %q is not registered", name),
		})
		return nil
	}
	if !u.Fits(f.Type.Key()) {
		r.warn(&Warning{
			Code:  errorcode.InvalidEnumMap,
			Args:  []any{f.Name},
			Field: path,
			Err:   fmt.Errorf("enum %q of type %s does not fit map key %s", name, u.Type, f.Type.Key()),
		})
		return nil
	}
	return u
}

func (r *run) enumMap(fv reflect.Value, f *holder.Field, base, path string, enumTypes *holder.EnumTypes) {
	u := r.universe(f, path, enumTypes)
	if u == nil {
		return
	}

	m := reflect.MakeMapWithSize(f.Type, len(u.Constants))
	for i, constant := range u.Constants {
		if f.Kind == holder.KindEnumStrings {
			value := r.str(keys.Enum(base, u.Names[i]), true, path)
			m.SetMapIndex(constant, reflect.ValueOf(value).Convert(f.Type.Elem()))
			continue
		}
		key := keys.EnumFile(base, u.Names[i])
		data, err := r.binary(key, r.ext(f))
		if err != nil {
			r.missingBinary(key, r.ext(f), path, err)
			continue
		}
		m.SetMapIndex(constant, reflect.ValueOf(data))
	}
	fv.Set(m)
}

func (r *run) loadBundle() (*bundle.Bundle, error) {
	if r.bundleLoaded {
		return r.bundle, r.bundleErr
	}
	r.bundleLoaded = true
	if !r.params.HasStringResources() {
		r.bundleErr = ErrNoStringResources
		return nil, r.bundleErr
	}
	r.bundle, r.bundleErr = r.in.bundles.Load(
		r.ctx, r.stringModule, r.params.StringPackage(), r.params.BaseName(), r.in.locale)
	return r.bundle, r.bundleErr
}

// str resolves a string resource, deriving a fallback value when it is missing.
func (r *run) str(key string, hasEnumPostfix bool, path string) string {
	b, err := r.loadBundle()
	if err == nil {
		var value string
		if value, err = b.String(key); err == nil {
			return value
		}
	}

	value := r.deriver.Derive(key, hasEnumPostfix)
	r.in.instruments.RecordMissing(r.ctx, holder.KindString.String(), errorcode.StringResourceNotFound.Number())
	r.warn(&Warning{
		Code:     errorcode.StringResourceNotFound,
		Args:     []any{key},
		Field:    path,
		Key:      key,
		Fallback: value,
		Err:      err,
	})
	return value
}

func (r *run) ext(f *holder.Field) string {
	if f.Options.HasExt {
		return f.Options.Ext
	}
	return r.params.DefaultExtension()
}

func (r *run) binaryName(key, ext string) string {
	return keys.FilePath(r.params.BinaryPackage(), key+ext)
}

// binary reads the binary resource of key. The stream is closed on every path.
func (r *run) binary(key, ext string) ([]byte, error) {
	if r.binaryModule == nil {
		return nil, fmt.Errorf("no module for binary resources: %w", source.ErrNotExist)
	}
	name := r.binaryName(key, ext)
	cacheKey := r.binaryModule.Name() + "|" + name

	if r.in.binaries != nil {
		if data, found, err := r.in.binaries.Get(r.ctx, cacheKey); err == nil && found {
			return bytes.Clone(data), nil
		}
	}

	data, err := source.ReadAll(r.ctx, r.binaryModule, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	r.in.instruments.RecordBinary(r.ctx, len(data))

	if r.in.binaries != nil {
		if cacheErr := r.in.binaries.Set(r.ctx, cacheKey, bytes.Clone(data), r.in.ttl); cacheErr != nil {
			util.Log(r.ctx).WithError(cacheErr).WithField("resource", name).Debug("binary cache write failed")
		}
	}
	return data, nil
}

func (r *run) missingBinary(key, ext, path string, err error) {
	name := r.binaryName(key, ext)
	r.in.instruments.RecordMissing(r.ctx, holder.KindBinary.String(), errorcode.BinaryResourceNotFound.Number())
	r.warn(&Warning{
		Code:  errorcode.BinaryResourceNotFound,
		Args:  []any{name},
		Field: path,
		Key:   name,
		Err:   err,
	})
}
