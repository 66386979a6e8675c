package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/domain/models"
	"go.uber.org/zap"
)

type nopGateway struct{}

func (nopGateway) Fetch(context.Context) (*models.SiteDocument, error) { return nil, nil }
func (nopGateway) Store(context.Context, *models.SiteDocument) error   { return nil }

func newRegistry(t *testing.T) (*Registry, *contentstore.Store) {
	t.Helper()
	store := contentstore.New(context.Background(), nopGateway{}, contentstore.Options{Logger: zap.NewNop()})
	return New(store), store
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"summer-offer", true},
		{"offer2024", true},
		{"a", true},
		{"", false},
		{"Summer", false},
		{"summer offer", false},
		{"summer_offer", false},
		{"offer/1", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateSlug(%q) error = %v, valid %v", tt.slug, err, tt.valid)
			}
		})
	}
}

func TestRegistry_Create(t *testing.T) {
	r, store := newRegistry(t)

	if err := r.Create("summer-offer", "Summer Offer", "minimal"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	p, ok := store.Page("summer-offer")
	if !ok {
		t.Fatal("page not created")
	}
	if p.Template != models.TemplateMinimal {
		t.Errorf("Template = %q, want minimal", p.Template)
	}
}

func TestRegistry_CreateErrors(t *testing.T) {
	r, _ := newRegistry(t)
	_ = r.Create("taken", "Taken", "default")

	tests := []struct {
		name            string
		slug, title, tp string
		want            error
	}{
		{"missing title", "new", "", "default", ErrTitleRequired},
		{"missing slug", "", "New", "default", ErrTitleRequired},
		{"bad slug", "New Page", "New", "default", ErrInvalidSlug},
		{"bad template", "new", "New", "fancy", ErrInvalidTemplate},
		{"duplicate", "taken", "Again", "default", ErrDuplicateSlug},
		{"duplicate home", "home", "Home 2", "default", ErrDuplicateSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Create(tt.slug, tt.title, tt.tp)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message == "" {
				t.Errorf("Create() error %v is not a ValidationError with message", err)
			}
		})
	}
}

func TestRegistry_Delete(t *testing.T) {
	r, _ := newRegistry(t)
	_ = r.Create("promo", "Promo", "")

	if err := r.Delete(models.HomeSlug); !errors.Is(err, ErrProtectedPage) {
		t.Errorf("Delete(home) error = %v, want ErrProtectedPage", err)
	}
	if err := r.Delete("promo"); err != nil {
		t.Errorf("Delete(promo) error = %v", err)
	}
	if err := r.Delete("promo"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Delete(promo) again error = %v, want ErrPageNotFound", err)
	}
	if got := len(r.List()); got != 1 {
		t.Errorf("len(List()) = %d, want 1", got)
	}
}

func TestRegistry_SetTemplate(t *testing.T) {
	r, store := newRegistry(t)

	if err := r.SetTemplate(models.HomeSlug, "minimal"); err != nil {
		t.Fatalf("SetTemplate() error = %v", err)
	}
	if p, _ := store.Page(models.HomeSlug); p.Template != models.TemplateMinimal {
		t.Errorf("Template = %q, want minimal", p.Template)
	}
	if err := r.SetTemplate(models.HomeSlug, "bogus"); !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("SetTemplate(bogus) error = %v, want ErrInvalidTemplate", err)
	}
	if err := r.SetTemplate("missing", "default"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("SetTemplate(missing) error = %v, want ErrPageNotFound", err)
	}
}
