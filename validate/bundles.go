package validate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"github.com/pitabwire/resources/bundle"
	"github.com/pitabwire/resources/errorcode"
	"github.com/pitabwire/resources/source"
)

type family struct {
	pkg, base string
	files     map[language.Tag]map[string]string
	names     map[language.Tag]string
}

// CheckBundles checks the property bundles of module m, which must be able to
// list its resources. Unparsable files are errors. Keys of a localized file
// that its root file lacks, and localized files without a root file, are
// warnings: locales without that file have nothing to fall back to.
func (v *Validator) CheckBundles(ctx context.Context, m source.Module) Diagnostics {
	c := &check{v: v, ctx: ctx, holderName: m.Name()}

	lister, ok := m.(source.Lister)
	if !ok {
		c.report(SeverityError, errorcode.Unknown, "", "", fmt.Sprintf("module %s cannot list its resources", m.Name()))
		return c.diags
	}
	names, err := lister.List(ctx, "")
	if err != nil {
		c.report(SeverityError, errorcode.Unknown, "", "", err.Error())
		return c.diags
	}

	families := map[string]*family{}
	var order []string
	for _, name := range names {
		pkg, base, locale, isBundle := bundle.SplitFileName(name)
		if !isBundle {
			continue
		}
		c.trace("Check bundle file", name)

		data, readErr := source.ReadAll(ctx, m, name)
		if readErr != nil {
			c.report(SeverityError, errorcode.Unknown, name, "", readErr.Error())
			continue
		}
		entries, parseErr := bundle.Parse(data, v.bundles.Encoding())
		if parseErr != nil {
			c.report(SeverityError, errorcode.Unknown, name, "", parseErr.Error())
			continue
		}

		id := pkg + "/" + base
		fam, seen := families[id]
		if !seen {
			fam = &family{
				pkg:   pkg,
				base:  base,
				files: map[language.Tag]map[string]string{},
				names: map[language.Tag]string{},
			}
			families[id] = fam
			order = append(order, id)
		}
		fam.files[locale] = entries
		fam.names[locale] = name
	}

	for _, id := range order {
		c.checkFamily(families[id])
	}
	return c.diags
}

func (c *check) checkFamily(fam *family) {
	root, hasRoot := fam.files[language.Und]

	locales := make([]language.Tag, 0, len(fam.files))
	for locale := range fam.files {
		if locale != language.Und {
			locales = append(locales, locale)
		}
	}
	slices.SortFunc(locales, func(a, b language.Tag) int {
		return strings.Compare(fam.names[a], fam.names[b])
	})

	for _, locale := range locales {
		name := fam.names[locale]
		if !hasRoot {
			c.report(SeverityWarning, errorcode.StringResourceNotFound, name, "",
				"bundle has no root file »"+bundle.FileName(fam.pkg, fam.base, language.Und)+"«")
			continue
		}
		keys := make([]string, 0, len(fam.files[locale]))
		for key := range fam.files[locale] {
			if _, ok := root[key]; !ok {
				keys = append(keys, key)
			}
		}
		slices.Sort(keys)
		for _, key := range keys {
			c.report(SeverityWarning, errorcode.StringResourceNotFound, name, key,
				errorcode.StringResourceNotFound.Message(key)+" in root file »"+fam.names[language.Und]+"«")
		}
	}
}
