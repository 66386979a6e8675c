package cmsapi

import (
	"net/http"

	"github.com/curelo/landingcms/internal/app/system/apicors"
	"github.com/curelo/landingcms/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the gateway. Reads are public; writes need an admin session
// or the bearer API key.
func Routes(h *Handler, sm *auth.SessionManager, apiKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())

	r.Get("/", h.Get)
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAdminOrAPIKey(apiKey, "admin"))
		pr.Post("/", h.Save)
		pr.Get("/revisions", h.Revisions)
		pr.Get("/revisions/{id}", h.Revision)
	})
	return r
}
