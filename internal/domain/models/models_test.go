package models

import (
	"testing"
)

func TestNewSiteDocument(t *testing.T) {
	doc := NewSiteDocument()

	if doc.ActivePageSlug != HomeSlug {
		t.Errorf("ActivePageSlug = %q, want %q", doc.ActivePageSlug, HomeSlug)
	}
	if doc.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", doc.SchemaVersion, CurrentSchemaVersion)
	}
	home, ok := doc.Pages[HomeSlug]
	if !ok {
		t.Fatal("home page missing")
	}
	for _, key := range SectionKeys() {
		if _, ok := home.Sections[key]; !ok {
			t.Errorf("home page missing section %q", key)
		}
	}
}

func TestDefaultContent_Shape(t *testing.T) {
	c := DefaultContent()

	if got := len(c.TestDetails.Cards); got != 4 {
		t.Errorf("len(TestDetails.Cards) = %d, want 4", got)
	}
	if got := len(c.FAQs.Items); got < 4 {
		t.Errorf("len(FAQs.Items) = %d, want at least 4", got)
	}
	for i, item := range c.FAQs.Items {
		if item.Question == "" || item.Answer == "" {
			t.Errorf("FAQs.Items[%d] has empty question or answer", i)
		}
	}
	if got := len(c.Hero.USPs); got != 4 {
		t.Errorf("len(Hero.USPs) = %d, want 4", got)
	}
	if got := len(c.MostBookedPackages.Packages); got != 3 {
		t.Errorf("len(Packages) = %d, want 3", got)
	}
}

func TestDefaultSections_Fresh(t *testing.T) {
	a := DefaultSections()
	b := DefaultSections()

	hero := a[SectionHero].(map[string]any)
	hero["offerTitle"] = "changed"

	other := b[SectionHero].(map[string]any)
	if other["offerTitle"] == "changed" {
		t.Error("DefaultSections() calls share state")
	}
}

func TestDecodeSections_WeakTypes(t *testing.T) {
	m := DefaultSections()
	pkgs := m[SectionMostBookedPackages].(map[string]any)
	list := pkgs["packages"].([]any)
	first := list[0].(map[string]any)
	first["recommended"] = "true"
	first["price"] = 999
	m["unknownSection"] = map[string]any{"x": 1}

	s, err := DecodeSections(m)
	if err != nil {
		t.Fatalf("DecodeSections() error = %v", err)
	}
	if !s.MostBookedPackages.Packages[0].Recommended {
		t.Error("Recommended = false, want true after coercion")
	}
	if s.MostBookedPackages.Packages[0].Price != "999" {
		t.Errorf("Price = %q, want %q", s.MostBookedPackages.Packages[0].Price, "999")
	}
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		in      string
		want    Template
		wantErr bool
	}{
		{"", TemplateDefault, false},
		{"default", TemplateDefault, false},
		{"minimal", TemplateMinimal, false},
		{"fancy", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTemplate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTemplate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTemplate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSiteDocument_Summaries(t *testing.T) {
	doc := NewSiteDocument()
	doc.Pages["zeta"] = NewPageDocument("zeta", "Zeta", TemplateMinimal)
	doc.Pages["alpha"] = NewPageDocument("alpha", "Alpha", TemplateDefault)

	got := doc.Summaries()
	want := []string{HomeSlug, "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("len(Summaries()) = %d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Slug != want[i] {
			t.Errorf("Summaries()[%d].Slug = %q, want %q", i, s.Slug, want[i])
		}
	}
}

func TestSiteDocument_Clone(t *testing.T) {
	doc := NewSiteDocument()
	cp := doc.Clone()

	cp.Pages[HomeSlug].Title = "Changed"
	cp.Pages[HomeSlug].Sections[SectionContact].(map[string]any)["phone"] = "1"

	if doc.Pages[HomeSlug].Title == "Changed" {
		t.Error("Clone() shares page structs")
	}
	if doc.Pages[HomeSlug].Sections[SectionContact].(map[string]any)["phone"] == "1" {
		t.Error("Clone() shares section maps")
	}
}
