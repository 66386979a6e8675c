// internal/domain/models/site.go
package models

import (
	"fmt"
	"sort"
)

// CurrentSchemaVersion marks the multi-page document shape with the
// whyChooseUs, faqs and contact sections. Documents persisted before the
// field existed decode as version 0 and are healed by reconciliation.
const CurrentSchemaVersion = 3

// HomeSlug is the page every site has and nobody may delete.
const HomeSlug = "home"

// Section keys in the order editors and renderers present them.
const (
	SectionHero               = "hero"
	SectionTestDetails        = "testDetails"
	SectionMostBookedPackages = "mostBookedPackages"
	SectionWhyChooseUs        = "whyChooseUs"
	SectionFAQs               = "faqs"
	SectionContact            = "contact"
)

// SectionKeys returns all section keys in canonical order.
func SectionKeys() []string {
	return []string{
		SectionHero,
		SectionTestDetails,
		SectionMostBookedPackages,
		SectionWhyChooseUs,
		SectionFAQs,
		SectionContact,
	}
}

// IsSectionKey reports whether key names a known section.
func IsSectionKey(key string) bool {
	for _, k := range SectionKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Template selects the page layout used by the landing frontend.
type Template string

const (
	TemplateDefault Template = "default"
	TemplateMinimal Template = "minimal"
)

// ParseTemplate validates a template name. An empty name means default.
func ParseTemplate(s string) (Template, error) {
	switch Template(s) {
	case "", TemplateDefault:
		return TemplateDefault, nil
	case TemplateMinimal:
		return TemplateMinimal, nil
	}
	return "", fmt.Errorf("unknown template %q", s)
}

// SectionMap holds the content sections of a page keyed by section name.
// Values are generic JSON trees so keys written by newer editors survive.
type SectionMap map[string]any

// PageDocument is one landing page.
type PageDocument struct {
	Title    string     `json:"title" yaml:"title"`
	Slug     string     `json:"slug" yaml:"slug"`
	Template Template   `json:"template" yaml:"template"`
	Sections SectionMap `json:"data" yaml:"data"`
}

// SiteDocument is the whole persisted unit: every page plus the slug of the
// page the admin editor has focused.
type SiteDocument struct {
	SchemaVersion  int                      `json:"schemaVersion" yaml:"schemaVersion"`
	Pages          map[string]*PageDocument `json:"pages" yaml:"pages"`
	ActivePageSlug string                   `json:"activePageSlug" yaml:"activePageSlug"`
}

// PageSummary is the listing view of a page.
type PageSummary struct {
	Slug     string   `json:"slug" yaml:"slug"`
	Title    string   `json:"title" yaml:"title"`
	Template Template `json:"template" yaml:"template"`
}

// NewPageDocument builds a page carrying the full default section set.
func NewPageDocument(slug, title string, tmpl Template) *PageDocument {
	if tmpl == "" {
		tmpl = TemplateDefault
	}
	return &PageDocument{
		Title:    title,
		Slug:     slug,
		Template: tmpl,
		Sections: DefaultSections(),
	}
}

// NewSiteDocument returns the document a fresh installation starts from:
// a single home page with default content.
func NewSiteDocument() *SiteDocument {
	return &SiteDocument{
		SchemaVersion: CurrentSchemaVersion,
		Pages: map[string]*PageDocument{
			HomeSlug: NewPageDocument(HomeSlug, "Home", TemplateDefault),
		},
		ActivePageSlug: HomeSlug,
	}
}

// Summaries lists the pages with home first and the rest by slug.
func (d *SiteDocument) Summaries() []PageSummary {
	out := make([]PageSummary, 0, len(d.Pages))
	for slug, p := range d.Pages {
		out = append(out, PageSummary{Slug: slug, Title: p.Title, Template: p.Template})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slug == HomeSlug {
			return out[j].Slug != HomeSlug
		}
		if out[j].Slug == HomeSlug {
			return false
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// Clone returns a deep copy of the document.
func (d *SiteDocument) Clone() *SiteDocument {
	if d == nil {
		return nil
	}
	out := &SiteDocument{
		SchemaVersion:  d.SchemaVersion,
		ActivePageSlug: d.ActivePageSlug,
		Pages:          make(map[string]*PageDocument, len(d.Pages)),
	}
	for slug, p := range d.Pages {
		out.Pages[slug] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the page.
func (p *PageDocument) Clone() *PageDocument {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Sections = p.Sections.Clone()
	return &cp
}

// Clone returns a deep copy of the section map.
func (m SectionMap) Clone() SectionMap {
	if m == nil {
		return nil
	}
	return SectionMap(CloneMap(m))
}

// CloneMap deep-copies a JSON-shaped map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-shaped value. Maps and slices are copied,
// scalars are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case SectionMap:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneMap(e)
		}
		return out
	default:
		return v
	}
}
