// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	authapifeature "github.com/curelo/landingcms/internal/app/features/authapi"
	cmsapifeature "github.com/curelo/landingcms/internal/app/features/cmsapi"
	healthfeature "github.com/curelo/landingcms/internal/app/features/health"
	leadfeature "github.com/curelo/landingcms/internal/app/features/lead"
	pagesapifeature "github.com/curelo/landingcms/internal/app/features/pagesapi"
	"github.com/curelo/landingcms/internal/app/store/ratelimit"
	userstore "github.com/curelo/landingcms/internal/app/store/users"
	"github.com/curelo/landingcms/internal/app/system/auth"
	"github.com/curelo/landingcms/internal/app/system/jsonutil"
	"github.com/curelo/landingcms/internal/app/system/leadsquared"
	"github.com/curelo/landingcms/internal/app/system/tasks"
	"github.com/curelo/landingcms/internal/cms/imagecompress"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExemptPaths are POST endpoints that carry their own protection:
// the lead form is anonymous and login is rate limited per username.
var csrfExemptPaths = map[string]bool{
	"/api/lead":       true,
	"/api/lead/":      true,
	"/api/auth/login": true,
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Route layout:
//   - /api/cms    - persistence gateway (public read, admin session or API key write)
//   - /api/pages  - reconciled pages for the landing frontend
//   - /api/lead   - lead capture forwarded to LeadSquared
//   - /api/auth   - operator login, logout, and CSRF token
//   - /health     - dependency probes (plus /ready, /readyz, /livez)
//
// Browser writes carry a session cookie and need a CSRF token. Requests
// with a Bearer Authorization header are not cookie-authenticated, so CSRF
// is skipped for them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Re-read the users file on each request so role changes and removed
	// operators take effect without waiting for the cookie to expire.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.Users, logger))

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	cmsHandler := cmsapifeature.NewHandler(deps.Content, appCfg.ContentMaxBytes, logger)
	cmsHandler.SetImageCompressor(imagecompress.New(appCfg.ImageMaxWidth, appCfg.ImageQuality, logger))
	r.Mount("/api/cms", cmsapifeature.Routes(cmsHandler, sessionMgr, appCfg.APIKey))

	pagesHandler := pagesapifeature.NewHandler(deps.Content, logger)
	r.Mount("/api/pages", pagesapifeature.Routes(pagesHandler, appCfg.PublicOrigins...))

	crm := leadsquared.New(leadsquared.Config{
		BaseURL:   appCfg.LeadSquaredBaseURL,
		AccessKey: appCfg.LeadSquaredAccessKey,
		SecretKey: appCfg.LeadSquaredSecretKey,
	}, logger)
	leadHandler := leadfeature.NewHandler(crm, logger)
	r.Mount("/api/lead", leadfeature.Routes(leadHandler, appCfg.PublicOrigins...))

	var limiter authapifeature.Limiter
	if appCfg.RateLimitEnabled {
		limiter = ratelimit.New(deps.MongoDatabase, appCfg.RateLimitLoginAttempts, appCfg.RateLimitLoginWindow, appCfg.RateLimitLoginLockout)
	}
	authHandler := authapifeature.NewHandler(deps.Users, sessionMgr, limiter, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	healthHandler.AddCheck("content", func(ctx context.Context) error {
		_, err := deps.Content.Current(ctx)
		return err
	})
	healthHandler.AddCheck("users_file", func(context.Context) error {
		_, err := deps.Users.All()
		return err
	})
	healthHandler.AddCheck("revision_prune", func(context.Context) error {
		if taskRunner == nil {
			return nil
		}
		return taskRunner.LastError(tasks.ContentPruneJobName)
	})
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r, nil
}

// csrfMiddleware wraps gorilla/csrf so that Bearer-authenticated requests
// and csrfExemptPaths bypass it.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	// Cookie name is "landingcms_csrf" to avoid collisions with other services
	// on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("landingcms_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Error(w, http.StatusForbidden, "CSRF token invalid or missing")
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"localhost:5173",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if _, ok := auth.BearerToken(req); ok || csrfExemptPaths[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			if !secure {
				req = csrf.PlaintextHTTPRequest(req)
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
}
