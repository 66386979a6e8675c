package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/curelo/landingcms/internal/app/system/authutil"
	"github.com/curelo/landingcms/internal/cms/localcache"
	"github.com/curelo/landingcms/internal/domain/models"
	"gopkg.in/yaml.v3"
)

const testKey = "test-key"

// fakeServer mimics GET and POST /api/cms.
type fakeServer struct {
	mu    sync.Mutex
	doc   *models.SiteDocument
	posts int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/cms" {
		http.NotFound(w, r)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		if f.doc == nil {
			_, _ = io.WriteString(w, `{"pages":{}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(f.doc)
	case http.MethodPost:
		if r.Header.Get("Authorization") != "Bearer "+testKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"error":"unauthorized"}`)
			return
		}
		var doc models.SiteDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.doc = &doc
		f.posts++
		_, _ = io.WriteString(w, `{"success":true}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeServer) stored() *models.SiteDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone()
}

func (f *fakeServer) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func newFakeServer(t *testing.T, doc *models.SiteDocument) (*fakeServer, string) {
	t.Helper()
	fs := &fakeServer{doc: doc}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return fs, srv.URL
}

// run executes cmsctl with args against server and returns stdout.
func run(t *testing.T, server string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	full := append([]string{"--server", server, "--api-key", testKey, "--no-cache", "--config", writeEmptyConfig(t)}, args...)
	root.SetArgs(full)
	err := root.Execute()
	return out.String(), err
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmsctl.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestPull_EmptyServerGivesDefaults(t *testing.T) {
	_, url := newFakeServer(t, nil)

	out, err := run(t, url, "", "pull")
	if err != nil {
		t.Fatalf("pull error = %v", err)
	}
	var doc models.SiteDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("pull output is not JSON: %v\n%s", err, out)
	}
	if _, ok := doc.Pages[models.HomeSlug]; !ok {
		t.Errorf("pull output missing home page")
	}
}

func TestPull_YAMLPage(t *testing.T) {
	_, url := newFakeServer(t, models.NewSiteDocument())

	out, err := run(t, url, "", "pull", "--format", "yaml", "--page", "home")
	if err != nil {
		t.Fatalf("pull error = %v", err)
	}
	var page map[string]any
	if err := yaml.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("pull output is not YAML: %v", err)
	}
	if page["slug"] != "home" {
		t.Errorf("slug = %v, want home", page["slug"])
	}

	if _, err := run(t, url, "", "pull", "--page", "missing"); err == nil {
		t.Error("pull --page missing should fail")
	}
}

func TestPages_CreateListDelete(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	if _, err := run(t, url, "", "pages", "create", "summer-offer", "--title", "Summer Offer", "--template", "minimal"); err != nil {
		t.Fatalf("pages create error = %v", err)
	}
	stored := fs.stored()
	page, ok := stored.Pages["summer-offer"]
	if !ok {
		t.Fatal("created page was not published")
	}
	if page.Template != models.TemplateMinimal {
		t.Errorf("template = %q, want minimal", page.Template)
	}

	out, err := run(t, url, "", "pages", "list")
	if err != nil {
		t.Fatalf("pages list error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("pages list lines = %d, want 3 (header, home, summer-offer):\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "home") {
		t.Errorf("first page = %q, want home first", lines[1])
	}

	if _, err := run(t, url, "", "pages", "delete", "summer-offer"); err != nil {
		t.Fatalf("pages delete error = %v", err)
	}
	if _, ok := fs.stored().Pages["summer-offer"]; ok {
		t.Error("deleted page still published")
	}
}

func TestPages_Refusals(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad slug", []string{"pages", "create", "Bad Slug", "--title", "X"}, "lowercase letters"},
		{"missing title", []string{"pages", "create", "promo"}, "required"},
		{"duplicate", []string{"pages", "create", "home", "--title", "Home"}, "already exists"},
		{"delete home", []string{"pages", "delete", "home"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, url, "", tt.args...)
			if err == nil {
				t.Fatalf("%v should fail", tt.args)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
	if n := fs.postCount(); n != 0 {
		t.Errorf("refused operations published %d times, want 0", n)
	}
}

func TestEdit_SetFieldAndListItem(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	_, err := run(t, url, "", "edit", "home", "hero", "--set", "offerTitle=Full Body Checkup")
	if err != nil {
		t.Fatalf("edit hero error = %v", err)
	}
	hero, _ := fs.stored().Pages["home"].Sections[models.SectionHero].(map[string]any)
	if hero["offerTitle"] != "Full Body Checkup" {
		t.Errorf("offerTitle = %v, want %q", hero["offerTitle"], "Full Body Checkup")
	}

	_, err = run(t, url, "", "edit", "home", "packages", "--set-item", "packages.0.recommended=true")
	if err != nil {
		t.Fatalf("edit packages error = %v", err)
	}
	pkgs, _ := fs.stored().Pages["home"].Sections[models.SectionMostBookedPackages].(map[string]any)
	list, _ := pkgs["packages"].([]any)
	if len(list) == 0 {
		t.Fatal("packages list empty after edit")
	}
	first, _ := list[0].(map[string]any)
	if first["recommended"] != true {
		t.Errorf("packages[0].recommended = %v (%T), want bool true", first["recommended"], first["recommended"])
	}
}

func TestEdit_SetListReplacesWholeList(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	_, err := run(t, url, "", "edit", "home", "faqs",
		"--set-list", `items=[{"question":"Is fasting needed?","answer":"Yes, 10 hours"}]`)
	if err != nil {
		t.Fatalf("edit faqs error = %v", err)
	}
	faqs, _ := fs.stored().Pages["home"].Sections[models.SectionFAQs].(map[string]any)
	items, _ := faqs["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	item, _ := items[0].(map[string]any)
	if item["answer"] != "Yes, 10 hours" {
		t.Errorf("items[0].answer = %v, want %q", item["answer"], "Yes, 10 hours")
	}

	if _, err := run(t, url, "", "edit", "home", "faqs", "--set-list", "items={not a list"); err == nil {
		t.Error("edit with malformed --set-list error = nil, want error")
	}
}

func TestPull_WrongServerPath(t *testing.T) {
	_, url := newFakeServer(t, nil)

	_, err := run(t, url+"/nope", "", "pull")
	if err == nil || !strings.Contains(err.Error(), "check --server") {
		t.Errorf("pull error = %v, want a hint to check --server", err)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	cache, err := localcache.Open(localcache.Options{Directory: dir})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if err := cache.Save(context.Background(), models.NewSiteDocument()); err != nil {
		t.Fatalf("save cache: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("close cache: %v", err)
	}

	out, err := run(t, "http://localhost:1", "", "cache", "clear", "--cache-dir", dir)
	if err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if !strings.Contains(out, "cache cleared") {
		t.Errorf("output = %q, want \"cache cleared\"", out)
	}

	cache, err = localcache.Open(localcache.Options{Directory: dir})
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer cache.Close()
	if _, err := cache.Load(context.Background()); !errors.Is(err, localcache.ErrCacheMiss) {
		t.Errorf("Load() after clear error = %v, want ErrCacheMiss", err)
	}
}

func TestEdit_NoChangesDoesNotPublish(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	out, err := run(t, url, "", "edit", "home", "contact")
	if err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if !strings.Contains(out, "no changes") {
		t.Errorf("output = %q, want \"no changes\"", out)
	}
	if n := fs.postCount(); n != 0 {
		t.Errorf("posts = %d, want 0", n)
	}
}

func TestEdit_DryRun(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	out, err := run(t, url, "", "edit", "home", "contact", "--set", "phone=+91 90000 00000", "--dry-run")
	if err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if !strings.Contains(out, "+91 90000 00000") {
		t.Errorf("dry run output should show the draft:\n%s", out)
	}
	if n := fs.postCount(); n != 0 {
		t.Errorf("posts = %d, want 0 for dry run", n)
	}
}

func TestEdit_UnknownTab(t *testing.T) {
	_, url := newFakeServer(t, models.NewSiteDocument())

	if _, err := run(t, url, "", "edit", "home", "pricing", "--set", "a=b"); err == nil {
		t.Error("edit with unknown tab should fail")
	}
}

func TestPublish_File(t *testing.T) {
	fs, url := newFakeServer(t, models.NewSiteDocument())

	path := filepath.Join(t.TempDir(), "site.yaml")
	body := `pages:
  home:
    title: Home
    slug: home
    template: default
    data:
      hero:
        offerTitle: From YAML
  promo:
    title: Promo
    template: minimal
activePageSlug: promo
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := run(t, url, "", "publish", "--file", path); err != nil {
		t.Fatalf("publish error = %v", err)
	}
	stored := fs.stored()
	if _, ok := stored.Pages["promo"]; !ok {
		t.Error("published document missing promo page")
	}
	hero, _ := stored.Pages["home"].Sections[models.SectionHero].(map[string]any)
	if hero["offerTitle"] != "From YAML" {
		t.Errorf("offerTitle = %v, want %q", hero["offerTitle"], "From YAML")
	}
	if _, ok := stored.Pages["promo"].Sections[models.SectionFAQs]; !ok {
		t.Error("published promo page was not reconciled")
	}
}

func TestPublish_Unauthorized(t *testing.T) {
	_, url := newFakeServer(t, models.NewSiteDocument())

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--server", url, "--api-key", "wrong", "--no-cache", "--config", writeEmptyConfig(t), "publish"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "publish failed") {
		t.Errorf("publish with a bad key error = %v, want publish failed", err)
	}
}

func TestUsersHash(t *testing.T) {
	_, url := newFakeServer(t, nil)

	out, err := run(t, url, "correct-horse-battery\n", "users", "hash", "--username", "editor1", "--role", "editor")
	if err != nil {
		t.Fatalf("users hash error = %v", err)
	}
	var entry map[string]string
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if entry["username"] != "editor1" || entry["role"] != "editor" {
		t.Errorf("entry = %v", entry)
	}
	if !authutil.CheckPassword("correct-horse-battery", entry["password"]) {
		t.Error("hash does not match the password read from stdin")
	}

	if _, err := run(t, url, "password\n", "users", "hash"); err == nil {
		t.Error("users hash should refuse a common password")
	}
}

func TestParseItemPath(t *testing.T) {
	tests := []struct {
		path      string
		withField bool
		list      string
		index     int
		field     string
		wantErr   bool
	}{
		{"items.0.answer", true, "items", 0, "answer", false},
		{"packages.2", false, "packages", 2, "", false},
		{"items.x.answer", true, "", 0, "", true},
		{"items.0", true, "", 0, "", true},
		{"items.-1", false, "", 0, "", true},
		{".0", false, "", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			list, index, field, err := parseItemPath(tt.path, tt.withField)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseItemPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if list != tt.list || index != tt.index || field != tt.field {
				t.Errorf("parseItemPath(%q) = %q, %d, %q", tt.path, list, index, field)
			}
		})
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmsctl.yaml")
	if err := os.WriteFile(path, []byte("server: http://cms.example\nimage:\n  quality: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", path, "pull"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "image.quality") {
		t.Errorf("Execute() error = %v, want image.quality validation error", err)
	}
}
