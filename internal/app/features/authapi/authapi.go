// Package authapi signs admin operators in and out of the CMS.
//
// Endpoints:
//   - POST /api/auth/login  - {username, password}; starts a cookie session
//   - POST /api/auth/logout - ends the session
//   - GET  /api/auth/me     - the signed-in user
//   - GET  /api/auth/csrf   - a CSRF token for browser writes
package authapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/curelo/landingcms/internal/app/store/ratelimit"
	userstore "github.com/curelo/landingcms/internal/app/store/users"
	"github.com/curelo/landingcms/internal/app/system/auth"
	"github.com/curelo/landingcms/internal/app/system/jsonutil"
	"github.com/curelo/landingcms/internal/app/system/network"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const maxLoginBodyBytes = 4 << 10

// Authenticator checks credentials against the users file.
type Authenticator interface {
	Authenticate(username, password string) (*userstore.User, error)
}

// Limiter throttles repeated failures for one username.
type Limiter interface {
	Check(ctx context.Context, username string) ratelimit.Decision
	RecordFailure(ctx context.Context, username string) (ratelimit.Decision, error)
	Clear(ctx context.Context, username string) error
}

// Handler serves the auth endpoints.
type Handler struct {
	users    Authenticator
	sessions *auth.SessionManager
	limiter  Limiter // nil disables rate limiting
	logger   *zap.Logger
}

// NewHandler creates a Handler. limiter may be nil.
func NewHandler(users Authenticator, sessions *auth.SessionManager, limiter Limiter, logger *zap.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, limiter: limiter, logger: logger}
}

// Routes mounts the handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(h.sessions.RequireSignedIn).Get("/me", h.Me)
	r.Get("/csrf", h.CSRF)
	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := jsonutil.DecodeLimited(w, r, maxLoginBodyBytes, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		jsonutil.BadRequest(w, "Username and password are required")
		return
	}

	ctx := r.Context()
	if h.limiter != nil {
		if d := h.limiter.Check(ctx, in.Username); !d.Allowed {
			h.logger.Warn("login blocked by rate limit",
				zap.String("username", in.Username),
				zap.String("ip", network.ClientIP(r)))
			jsonutil.TooManyRequests(w, lockoutMessage(d.LockedUntil))
			return
		}
	}

	u, err := h.users.Authenticate(in.Username, in.Password)
	if err != nil {
		h.logger.Error("login failed: users file unavailable", zap.Error(err))
		jsonutil.InternalError(w, "Login is temporarily unavailable")
		return
	}
	if u == nil {
		h.recordFailure(ctx, in.Username)
		h.logger.Info("login failed: invalid credentials",
			zap.String("username", in.Username),
			zap.String("ip", network.ClientIP(r)))
		jsonutil.Unauthorized(w, "Invalid username or password")
		return
	}

	if h.limiter != nil {
		if err := h.limiter.Clear(ctx, u.Username); err != nil {
			h.logger.Warn("failed to clear login attempts", zap.Error(err))
		}
	}
	if err := h.sessions.CreateSession(w, r, u.Username, u.Role); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		jsonutil.InternalError(w, "Login is temporarily unavailable")
		return
	}

	h.logger.Info("user logged in", zap.String("username", u.Username), zap.String("role", u.Role))
	jsonutil.OK(w, map[string]any{
		"success": true,
		"user":    userView{Username: u.Username, Role: u.Role},
	})
}

func (h *Handler) recordFailure(ctx context.Context, username string) {
	if h.limiter == nil {
		return
	}
	d, err := h.limiter.RecordFailure(ctx, username)
	if err != nil {
		h.logger.Warn("failed to record login failure", zap.Error(err))
		return
	}
	if !d.Allowed {
		h.logger.Warn("username locked out after repeated failures", zap.String("username", username))
	}
}

func lockoutMessage(until *time.Time) string {
	if until == nil {
		return "Too many failed attempts. Try again later."
	}
	mins := int(time.Until(*until).Round(time.Minute).Minutes())
	if mins < 1 {
		mins = 1
	}
	if mins == 1 {
		return "Too many failed attempts. Try again in 1 minute."
	}
	return "Too many failed attempts. Try again in " + strconv.Itoa(mins) + " minutes."
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.logger.Info("user logged out", zap.String("username", u.Username))
	}
	h.sessions.DestroySession(w, r)
	jsonutil.OK(w, map[string]any{"success": true})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonutil.OK(w, map[string]any{
		"success": true,
		"user":    userView{Username: u.Username, Role: u.Role},
	})
}

// CSRF handles GET /api/auth/csrf. The token is empty when the CSRF
// middleware is not installed.
func (h *Handler) CSRF(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]any{"success": true, "token": csrf.Token(r)})
}
