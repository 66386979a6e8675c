// Package pagesapi serves landing pages to the public frontend.
//
// Endpoints:
//   - GET /api/pages        - page summaries, home first
//   - GET /api/pages/{slug} - one reconciled page with typed sections
//
// An unknown slug is 404; the frontend falls back to "/".
package pagesapi

import (
	"context"
	"net/http"

	"github.com/curelo/landingcms/internal/app/system/apicors"
	"github.com/curelo/landingcms/internal/app/system/jsonutil"
	"github.com/curelo/landingcms/internal/cms/reconcile"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocumentLoader reads the stored site document; nil means nothing published.
type DocumentLoader interface {
	Load(ctx context.Context) (*models.SiteDocument, error)
}

// Handler serves the page endpoints.
type Handler struct {
	docs   DocumentLoader
	logger *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(docs DocumentLoader, logger *zap.Logger) *Handler {
	return &Handler{docs: docs, logger: logger}
}

// PageView is one page as the frontend renders it.
type PageView struct {
	Slug     string           `json:"slug"`
	Title    string           `json:"title"`
	Template models.Template  `json:"template"`
	Sections *models.Sections `json:"sections"`
}

// Routes mounts the handler.
func Routes(h *Handler, origins ...string) chi.Router {
	r := chi.NewRouter()
	r.Use(apicors.Middleware(origins...))
	r.Get("/", h.List)
	r.Get("/{slug}", h.Show)
	return r
}

// site returns the stored document reconciled, or the seeded document when
// nothing has been published yet.
func (h *Handler) site(ctx context.Context) (*models.SiteDocument, error) {
	doc, err := h.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.Site(doc), nil
}

// List handles GET /api/pages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	site, err := h.site(r.Context())
	if err != nil {
		h.logger.Error("failed to load site content", zap.Error(err))
		jsonutil.InternalError(w, "failed to read content")
		return
	}
	jsonutil.OK(w, map[string]any{"pages": site.Summaries()})
}

// Show handles GET /api/pages/{slug}.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	site, err := h.site(r.Context())
	if err != nil {
		h.logger.Error("failed to load site content", zap.Error(err))
		jsonutil.InternalError(w, "failed to read content")
		return
	}
	page, ok := site.Pages[slug]
	if !ok {
		jsonutil.NotFound(w, "Page not found")
		return
	}

	sections, err := models.DecodeSections(page.Sections)
	if err != nil {
		h.logger.Error("failed to decode page sections",
			zap.String("slug", slug),
			zap.Error(err))
		jsonutil.InternalError(w, "failed to read content")
		return
	}

	jsonutil.OK(w, PageView{
		Slug:     page.Slug,
		Title:    page.Title,
		Template: page.Template,
		Sections: sections,
	})
}
