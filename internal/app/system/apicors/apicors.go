// Package apicors provides CORS for the JSON API consumed by the landing
// frontend, the admin dashboard, and publishing tools.
//
// With no origins configured any origin may call the API. That is safe for
// Bearer-authenticated and anonymous endpoints because no cookies are
// involved. Passing origins restricts the API to those sites and echoes
// the matching origin back.
package apicors

import (
	"net/http"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept, X-CSRF-Token"
)

// Middleware returns CORS middleware for API routes. Preflight OPTIONS
// requests are answered with 204 and never reach next.
//
//	r.Use(apicors.Middleware())                                 // any origin
//	r.Use(apicors.Middleware("https://curelo.com"))             // allowlist
func Middleware(allowedOrigins ...string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(originSet) == 0 {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); origin != "" {
				// Unlisted origins get no header and the browser blocks them.
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
