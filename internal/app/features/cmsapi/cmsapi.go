// Package cmsapi is the persistence gateway for the site document.
//
// Endpoints:
//   - GET  /api/cms           - the stored document, or {"pages":{}} when empty (public)
//   - POST /api/cms           - replace the whole document (admin session or API key)
//   - GET  /api/cms/revisions - recent publishes, newest first (admin session or API key)
//   - GET  /api/cms/revisions/{id} - one past document (admin session or API key)
package cmsapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/curelo/landingcms/internal/app/store/sitecontent"
	"github.com/curelo/landingcms/internal/app/system/auth"
	"github.com/curelo/landingcms/internal/app/system/jsonutil"
	"github.com/curelo/landingcms/internal/app/system/timeouts"
	"github.com/curelo/landingcms/internal/cms/reconcile"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the request body ceiling when none is configured.
const DefaultMaxBytes int64 = 50 << 20

// APIKeyActor is recorded as the author of publishes made with the API key.
const APIKeyActor = "api-key"

// ContentStore persists whole site documents.
type ContentStore interface {
	Load(ctx context.Context) (*models.SiteDocument, error)
	Save(ctx context.Context, doc *models.SiteDocument, actor string) (*sitecontent.Revision, error)
	ListRevisions(ctx context.Context, limit int64) ([]sitecontent.Revision, error)
	LoadRevision(ctx context.Context, id string) (*models.SiteDocument, error)
}

// ImageCompressor shrinks embedded data-URL images before a document is stored.
type ImageCompressor interface {
	CompressTree(ctx context.Context, doc *models.SiteDocument) *models.SiteDocument
}

// Handler serves the gateway endpoints.
type Handler struct {
	store    ContentStore
	images   ImageCompressor // optional
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a Handler. maxBytes <= 0 uses DefaultMaxBytes.
func NewHandler(store ContentStore, maxBytes int64, logger *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{store: store, maxBytes: maxBytes, logger: logger}
}

// SetImageCompressor makes Save compress embedded images. Writers that
// already compress client-side pass through unchanged, since images under
// the width limit are left alone.
func (h *Handler) SetImageCompressor(c ImageCompressor) {
	h.images = c
}

// SaveResponse is returned after a successful publish.
type SaveResponse struct {
	Success  bool                  `json:"success"`
	Revision *sitecontent.Revision `json:"revision,omitempty"`
}

// Get handles GET /api/cms.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "cms.load")
	defer cancel()

	doc, err := h.store.Load(ctx)
	if err != nil {
		h.logger.Error("failed to load site content", zap.Error(err))
		jsonutil.InternalError(w, "failed to read content")
		return
	}
	if doc == nil {
		jsonutil.OK(w, map[string]any{"pages": map[string]any{}})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	jsonutil.OK(w, doc)
}

// Save handles POST /api/cms. The body replaces the stored document whole;
// it is reconciled first so a partial or older-shaped document never lands.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var doc models.SiteDocument
	if err := jsonutil.DecodeLimited(w, r, h.maxBytes, &doc); err != nil {
		if errors.Is(err, jsonutil.ErrBodyTooLarge) {
			h.logger.Warn("site content rejected: payload too large",
				zap.Int64("limit_bytes", h.maxBytes),
				zap.Int64("content_length", r.ContentLength))
			jsonutil.PayloadTooLarge(w)
			return
		}
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Publish(), h.logger, "cms.save")
	defer cancel()

	fixed := reconcile.Site(&doc)
	if h.images != nil {
		fixed = h.images.CompressTree(ctx, fixed)
	}
	rev, err := h.store.Save(ctx, fixed, actor(r))
	if err != nil {
		h.logger.Error("failed to save site content", zap.Error(err))
		jsonutil.InternalError(w, "failed to save content")
		return
	}
	jsonutil.OK(w, SaveResponse{Success: true, Revision: rev})
}

// Revisions handles GET /api/cms/revisions?limit=N (default 20).
func (h *Handler) Revisions(w http.ResponseWriter, r *http.Request) {
	limit := int64(20)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "cms.revisions")
	defer cancel()

	revs, err := h.store.ListRevisions(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list revisions", zap.Error(err))
		jsonutil.InternalError(w, "failed to list revisions")
		return
	}
	if revs == nil {
		revs = []sitecontent.Revision{}
	}
	jsonutil.OK(w, map[string]any{"success": true, "revisions": revs})
}

// Revision handles GET /api/cms/revisions/{id}. The body has the same shape
// as GET /api/cms, so a past revision can be posted back to restore it.
func (h *Handler) Revision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Read(), h.logger, "cms.revision")
	defer cancel()

	doc, err := h.store.LoadRevision(ctx, id)
	if errors.Is(err, sitecontent.ErrRevisionNotFound) {
		jsonutil.NotFound(w, "revision not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load revision", zap.String("revision_id", id), zap.Error(err))
		jsonutil.InternalError(w, "failed to read revision")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	jsonutil.OK(w, doc)
}

func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.Username
	}
	return APIKeyActor
}
