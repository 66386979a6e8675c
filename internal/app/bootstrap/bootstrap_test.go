package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func validConfig() AppConfig {
	return AppConfig{
		ContentMaxBytes:        50 << 20,
		ContentKeepRevisions:   10,
		ImageMaxWidth:          1200,
		ImageQuality:           60,
		UsersFile:              "./data/users.json",
		RateLimitEnabled:       true,
		RateLimitLoginAttempts: 5,
		CSRFKey:                "test-csrf-key-0123456789abcdefghij",
	}
}

func TestValidateLimits(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"zero max bytes", func(c *AppConfig) { c.ContentMaxBytes = 0 }, "content_max_bytes"},
		{"no revisions kept", func(c *AppConfig) { c.ContentKeepRevisions = 0 }, "content_keep_revisions"},
		{"zero width", func(c *AppConfig) { c.ImageMaxWidth = 0 }, "image_max_width"},
		{"quality too high", func(c *AppConfig) { c.ImageQuality = 101 }, "image_quality"},
		{"quality zero", func(c *AppConfig) { c.ImageQuality = 0 }, "image_quality"},
		{"no users file", func(c *AppConfig) { c.UsersFile = "" }, "users_file"},
		{"rate limit without attempts", func(c *AppConfig) { c.RateLimitLoginAttempts = 0 }, "rate_limit_login_attempts"},
		{"rate limit disabled", func(c *AppConfig) {
			c.RateLimitEnabled = false
			c.RateLimitLoginAttempts = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateLimits(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateLimits() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateLimits() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://curelo.com, ,https://www.curelo.com ")
	if len(got) != 2 || got[0] != "https://curelo.com" || got[1] != "https://www.curelo.com" {
		t.Errorf("splitList() = %q, want two trimmed origins", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %q, want nil", got)
	}
}

func TestCSRFMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := csrfMiddleware(validConfig(), false, zap.NewNop())(next)

	tests := []struct {
		name   string
		path   string
		bearer bool
		want   int
	}{
		{"browser write without token", "/api/cms", false, http.StatusForbidden},
		{"bearer write", "/api/cms", true, http.StatusNoContent},
		{"lead form", "/api/lead", false, http.StatusNoContent},
		{"login", "/api/auth/login", false, http.StatusNoContent},
		{"logout needs token", "/api/auth/logout", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader("{}"))
			if tt.bearer {
				req.Header.Set("Authorization", "Bearer some-key")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("POST %s status = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestCSRFMiddleware_SafeMethodsPass(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := csrfMiddleware(validConfig(), false, zap.NewNop())(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cms", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusOK)
	}
}
