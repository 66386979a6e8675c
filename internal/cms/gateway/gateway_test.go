package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/curelo/landingcms/internal/domain/models"
)

func fastRetry() *RetryOptions {
	return &RetryOptions{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ContentPath || r.Method != http.MethodGet {
			t.Errorf("request = %s %s, want GET %s", r.Method, r.URL.Path, ContentPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		_ = json.NewEncoder(w).Encode(models.NewSiteDocument())
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/", APIKey: "secret", Retry: fastRetry()})
	doc, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc == nil || doc.Pages[models.HomeSlug] == nil {
		t.Fatal("Fetch() missing home page")
	}
}

func TestClient_FetchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pages":{}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retry: fastRetry()})
	doc, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc != nil {
		t.Errorf("Fetch() = %+v, want nil for empty store", doc)
	}
}

func TestClient_StoreTooLarge(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"success":false,"error":"payload too large"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retry: fastRetry()})
	err := c.Store(context.Background(), models.NewSiteDocument())
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("Store() error = %v, want ErrPayloadTooLarge", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 413)", got)
	}
}

func TestClient_StoreRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	var got models.SiteDocument
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("server decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retry: fastRetry()})
	if err := c.Store(context.Background(), models.NewSiteDocument()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if got.Pages[models.HomeSlug] == nil {
		t.Error("server did not receive the document")
	}
}

func TestClient_StoreDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Retry: fastRetry()})
	err := c.Store(context.Background(), models.NewSiteDocument())
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("Store() error = %v, want 401 StatusError", err)
	}
	if errors.Is(err, ErrPayloadTooLarge) {
		t.Error("401 reported as payload too large")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
