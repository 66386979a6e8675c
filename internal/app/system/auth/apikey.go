package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyAuth returns middleware that validates a bearer API key:
// "Authorization: Bearer <api-key>".
//
// If the key is not configured (empty), every request is rejected.
func APIKeyAuth(validKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	if validKey == "" {
		logger.Warn("API key not configured - all API key requests will be rejected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validKey == "" {
				logger.Warn("API request rejected: API key not configured",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			provided, ok := BearerToken(r)
			if !ok {
				logger.Debug("API request rejected: missing or malformed Authorization header",
					zap.String("path", r.URL.Path),
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !keysMatch(provided, validKey) {
				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminOrAPIKey admits a request carrying a valid bearer API key or a
// signed-in session user holding one of roles. The session must already be
// loaded by LoadSessionUser.
func (sm *SessionManager) RequireAdminOrAPIKey(validKey string, roles ...string) func(http.Handler) http.Handler {
	byRole := sm.RequireRole(roles...)
	return func(next http.Handler) http.Handler {
		sessionGuard := byRole(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validKey != "" {
				if provided, ok := BearerToken(r); ok {
					if keysMatch(provided, validKey) {
						next.ServeHTTP(w, r)
						return
					}
					sm.logger.Warn("API request rejected: invalid API key",
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
					)
					writeAuthError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
			}
			sessionGuard.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func keysMatch(provided, valid string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(valid)) == 1
}
