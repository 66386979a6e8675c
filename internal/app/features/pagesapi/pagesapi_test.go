package pagesapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/curelo/landingcms/internal/testutil"
	"go.uber.org/zap"
)

type stubLoader struct {
	doc *models.SiteDocument
	err error
}

func (s stubLoader) Load(context.Context) (*models.SiteDocument, error) {
	return s.doc, s.err
}

func sampleSite() *models.SiteDocument {
	doc := models.NewSiteDocument()
	doc.Pages["summer"] = &models.PageDocument{
		Title:    "Summer Offer",
		Slug:     "summer",
		Template: models.TemplateMinimal,
		Sections: models.SectionMap{
			models.SectionHero: map[string]any{"offerTitle": "Summer sale"},
			models.SectionMostBookedPackages: map[string]any{
				"packages": []any{
					map[string]any{"title": "Basic", "price": 499, "recommended": "true"},
				},
			},
		},
	}
	return doc
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestList(t *testing.T) {
	h := NewHandler(stubLoader{doc: sampleSite()}, zap.NewNop())

	rec := serve(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("List() status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Pages []models.PageSummary `json:"pages"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Pages) != 2 || resp.Pages[0].Slug != models.HomeSlug || resp.Pages[1].Slug != "summer" {
		t.Errorf("pages = %+v, want home then summer", resp.Pages)
	}
}

func TestList_NothingPublished(t *testing.T) {
	h := NewHandler(stubLoader{}, zap.NewNop())

	rec := serve(h, "/")
	var resp struct {
		Pages []models.PageSummary `json:"pages"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Pages) != 1 || resp.Pages[0].Slug != models.HomeSlug {
		t.Errorf("pages = %+v, want the seeded home page", resp.Pages)
	}
}

func TestShow(t *testing.T) {
	h := NewHandler(stubLoader{doc: sampleSite()}, zap.NewNop())

	rec := serve(h, "/summer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Show() status = %d, want %d", rec.Code, http.StatusOK)
	}
	var view PageView
	testutil.DecodeJSON(t, rec, &view)

	if view.Template != models.TemplateMinimal {
		t.Errorf("template = %q, want %q", view.Template, models.TemplateMinimal)
	}
	if view.Sections.Hero.OfferTitle != "Summer sale" {
		t.Errorf("hero offerTitle = %q, want %q", view.Sections.Hero.OfferTitle, "Summer sale")
	}
	pkgs := view.Sections.MostBookedPackages.Packages
	if len(pkgs) != 1 || pkgs[0].Price != "499" || !pkgs[0].Recommended {
		t.Errorf("packages = %+v, want weakly typed price and flag decoded", pkgs)
	}
	if len(view.Sections.FAQs.Items) == 0 {
		t.Error("missing sections should be filled from defaults")
	}
}

func TestShow_UnknownSlug(t *testing.T) {
	h := NewHandler(stubLoader{doc: sampleSite()}, zap.NewNop())

	if rec := serve(h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("Show() status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestShow_LoadError(t *testing.T) {
	h := NewHandler(stubLoader{err: errors.New("mongo down")}, zap.NewNop())

	if rec := serve(h, "/home"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Show() status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
