// Package reconcile merges persisted page content over the current default
// schema so documents written by older editors gain new fields, and fields
// written by newer editors are kept.
//
// Rules, applied recursively:
//   - a key missing from the persisted side (or persisted as null) takes the default
//   - when the default is an object and the persisted value is an object, recurse
//   - arrays and scalars take the persisted value whole
//   - keys only present on the persisted side are kept
//
// Results never alias either input.
package reconcile

import (
	"github.com/curelo/landingcms/internal/domain/models"
)

// Value reconciles a single persisted value against its default.
func Value(def, persisted any) any {
	if persisted == nil {
		return models.CloneValue(def)
	}
	defMap, defIsMap := asMap(def)
	if !defIsMap {
		return models.CloneValue(persisted)
	}
	pMap, pIsMap := asMap(persisted)
	if !pIsMap {
		// An object in the schema replaced by a scalar or list is a
		// corrupt field; the schema shape wins.
		return models.CloneValue(def)
	}
	return merge(defMap, pMap)
}

// Sections reconciles a page's section map. A nil persisted map yields a
// copy of the defaults.
func Sections(defaults, persisted models.SectionMap) models.SectionMap {
	if persisted == nil {
		return defaults.Clone()
	}
	return models.SectionMap(merge(defaults, persisted))
}

// Site reconciles every page of doc against the default sections and
// repairs page metadata. A nil or empty document becomes the seeded
// single-page site. The input is not modified.
func Site(doc *models.SiteDocument) *models.SiteDocument {
	if doc == nil || len(doc.Pages) == 0 {
		fresh := models.NewSiteDocument()
		if doc != nil && doc.ActivePageSlug != "" {
			if _, ok := fresh.Pages[doc.ActivePageSlug]; ok {
				fresh.ActivePageSlug = doc.ActivePageSlug
			}
		}
		return fresh
	}

	out := &models.SiteDocument{
		SchemaVersion:  models.CurrentSchemaVersion,
		Pages:          make(map[string]*models.PageDocument, len(doc.Pages)),
		ActivePageSlug: doc.ActivePageSlug,
	}
	for slug, p := range doc.Pages {
		out.Pages[slug] = Page(slug, p)
	}
	if _, ok := out.Pages[models.HomeSlug]; !ok {
		out.Pages[models.HomeSlug] = models.NewPageDocument(models.HomeSlug, "Home", models.TemplateDefault)
	}
	if _, ok := out.Pages[out.ActivePageSlug]; !ok {
		out.ActivePageSlug = models.HomeSlug
	}
	return out
}

// Page reconciles one page stored under slug.
func Page(slug string, p *models.PageDocument) *models.PageDocument {
	if p == nil {
		return models.NewPageDocument(slug, slug, models.TemplateDefault)
	}
	tmpl, err := models.ParseTemplate(string(p.Template))
	if err != nil {
		tmpl = models.TemplateDefault
	}
	title := p.Title
	if title == "" {
		title = slug
	}
	return &models.PageDocument{
		Title:    title,
		Slug:     slug,
		Template: tmpl,
		Sections: Sections(models.DefaultSections(), p.Sections),
	}
}

func merge(def, persisted map[string]any) map[string]any {
	out := make(map[string]any, len(def)+len(persisted))
	for k, dv := range def {
		out[k] = Value(dv, persisted[k])
	}
	for k, pv := range persisted {
		if _, known := def[k]; known {
			continue
		}
		out[k] = models.CloneValue(pv)
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case models.SectionMap:
		return t, true
	}
	return nil, false
}
