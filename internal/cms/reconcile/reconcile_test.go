package reconcile

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/curelo/landingcms/internal/domain/models"
)

func TestSections_NilPersistedReturnsDefaults(t *testing.T) {
	def := models.DefaultSections()
	got := Sections(def, nil)

	if !reflect.DeepEqual(got, def) {
		t.Error("Sections(def, nil) differs from defaults")
	}
	got[models.SectionHero].(map[string]any)["offerTitle"] = "x"
	if def[models.SectionHero].(map[string]any)["offerTitle"] == "x" {
		t.Error("Sections(def, nil) aliases defaults")
	}
}

func TestSections_MissingSectionFilled(t *testing.T) {
	persisted := models.SectionMap{
		models.SectionHero: map[string]any{"offerTitle": "Custom"},
	}
	got := Sections(models.DefaultSections(), persisted)

	faqs, ok := got[models.SectionFAQs].(map[string]any)
	if !ok {
		t.Fatal("faqs section missing after reconcile")
	}
	items, _ := faqs["items"].([]any)
	if len(items) < 4 {
		t.Errorf("len(faqs.items) = %d, want default items", len(items))
	}

	hero := got[models.SectionHero].(map[string]any)
	if hero["offerTitle"] != "Custom" {
		t.Errorf("hero.offerTitle = %v, want Custom", hero["offerTitle"])
	}
	if hero["desktopBanner"] == nil {
		t.Error("hero.desktopBanner not filled from defaults")
	}
}

func TestSections_ArraysReplacedWhole(t *testing.T) {
	persisted := models.SectionMap{
		models.SectionHero: map[string]any{
			"usps": []any{map[string]any{"title": "Only one"}},
		},
	}
	got := Sections(models.DefaultSections(), persisted)

	usps := got[models.SectionHero].(map[string]any)["usps"].([]any)
	if len(usps) != 1 {
		t.Fatalf("len(usps) = %d, want 1", len(usps))
	}
	first := usps[0].(map[string]any)
	if _, ok := first["icon"]; ok {
		t.Error("array elements were merged element-wise")
	}
}

func TestSections_ExtraKeysPreserved(t *testing.T) {
	persisted := models.SectionMap{
		models.SectionContact: map[string]any{"email": "care@example.com"},
		"testimonials":        map[string]any{"title": "Reviews"},
	}
	got := Sections(models.DefaultSections(), persisted)

	if got[models.SectionContact].(map[string]any)["email"] != "care@example.com" {
		t.Error("unknown nested key dropped")
	}
	if _, ok := got["testimonials"]; !ok {
		t.Error("unknown section dropped")
	}
}

func TestSections_NullFallsBackToDefault(t *testing.T) {
	var persisted models.SectionMap
	if err := json.Unmarshal([]byte(`{"hero":{"offerTitle":null,"usps":null}}`), &persisted); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := Sections(models.DefaultSections(), persisted)

	hero := got[models.SectionHero].(map[string]any)
	if hero["offerTitle"] != "Get Report Consultation & Diet Plan" {
		t.Errorf("offerTitle = %v, want default", hero["offerTitle"])
	}
	if usps, _ := hero["usps"].([]any); len(usps) != 4 {
		t.Errorf("len(usps) = %d, want 4", len(usps))
	}
}

func TestSections_ScalarOverObjectKeepsSchema(t *testing.T) {
	persisted := models.SectionMap{models.SectionContact: "broken"}
	got := Sections(models.DefaultSections(), persisted)

	if _, ok := got[models.SectionContact].(map[string]any); !ok {
		t.Errorf("contact = %T, want object", got[models.SectionContact])
	}
}

func TestSections_Idempotent(t *testing.T) {
	persisted := models.SectionMap{
		models.SectionHero: map[string]any{"offerTitle": "A", "extra": true},
		"custom":           []any{"x"},
	}
	def := models.DefaultSections()
	once := Sections(def, persisted)
	twice := Sections(def, once)

	if !reflect.DeepEqual(once, twice) {
		t.Error("reconcile is not idempotent")
	}
}

func TestSite_EmptyDocumentSeeded(t *testing.T) {
	got := Site(&models.SiteDocument{})

	if _, ok := got.Pages[models.HomeSlug]; !ok {
		t.Fatal("home page not seeded")
	}
	if got.ActivePageSlug != models.HomeSlug {
		t.Errorf("ActivePageSlug = %q, want home", got.ActivePageSlug)
	}
}

func TestSite_RepairsMetadata(t *testing.T) {
	doc := &models.SiteDocument{
		Pages: map[string]*models.PageDocument{
			"home":   {Title: "Home", Template: "default"},
			"promo":  {Template: "bogus"},
			"legacy": nil,
		},
		ActivePageSlug: "deleted-page",
	}
	got := Site(doc)

	if got.SchemaVersion != models.CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, models.CurrentSchemaVersion)
	}
	if got.ActivePageSlug != models.HomeSlug {
		t.Errorf("ActivePageSlug = %q, want home", got.ActivePageSlug)
	}
	promo := got.Pages["promo"]
	if promo.Slug != "promo" || promo.Title != "promo" || promo.Template != models.TemplateDefault {
		t.Errorf("promo = %+v, want slug/title promo and default template", promo)
	}
	if got.Pages["legacy"] == nil || got.Pages["legacy"].Sections == nil {
		t.Error("nil page not rebuilt")
	}
	if doc.Pages["promo"].Slug != "" {
		t.Error("Site() modified its input")
	}
}

func TestSite_LegacyJSONRoundTrip(t *testing.T) {
	raw := `{"pages":{"home":{"title":"Home","slug":"home","template":"minimal","data":{"hero":{"offerTitle":"Old"}}}},"activePageSlug":"home"}`
	var doc models.SiteDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.SchemaVersion != 0 {
		t.Fatalf("SchemaVersion = %d, want 0 for legacy document", doc.SchemaVersion)
	}

	got := Site(&doc)
	home := got.Pages[models.HomeSlug]
	if home.Template != models.TemplateMinimal {
		t.Errorf("Template = %q, want minimal", home.Template)
	}
	for _, key := range models.SectionKeys() {
		if _, ok := home.Sections[key]; !ok {
			t.Errorf("section %q missing after reconcile", key)
		}
	}
}
