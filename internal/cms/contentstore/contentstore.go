// Package contentstore holds the in-memory site document an operator is
// editing, and moves it to and from the persistence gateway.
//
// A Store is an explicit value: construct one per editing session with New
// and pass it to the editor and registry that operate on it.
package contentstore

import (
	"context"
	"errors"
	"sync"

	"github.com/curelo/landingcms/internal/cms/reconcile"
	"github.com/curelo/landingcms/internal/domain/models"
	"go.uber.org/zap"
)

// ErrPayloadTooLarge is returned by a Gateway when the document exceeds the
// server's size ceiling.
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrCacheMiss is returned by a Cache that holds no document.
var ErrCacheMiss = errors.New("cache miss")

// Gateway reads and writes the durable site document.
type Gateway interface {
	// Fetch returns the stored document, or nil when nothing has been
	// published yet.
	Fetch(ctx context.Context) (*models.SiteDocument, error)
	// Store overwrites the stored document.
	Store(ctx context.Context, doc *models.SiteDocument) error
}

// Cache is a best-effort local copy of the last known document.
type Cache interface {
	Load(ctx context.Context) (*models.SiteDocument, error)
	Save(ctx context.Context, doc *models.SiteDocument) error
}

// Compressor shrinks embedded images before a publish.
type Compressor interface {
	CompressTree(ctx context.Context, doc *models.SiteDocument) *models.SiteDocument
}

// Options configures optional collaborators of a Store.
type Options struct {
	Cache      Cache
	Compressor Compressor
	Logger     *zap.Logger
}

// PublishResult reports the outcome of Publish. Error is meant for people.
type PublishResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	TooLarge bool   `json:"tooLarge,omitempty"`
	// DiscardedEdits is set when local changes made during the publish
	// were overwritten by the published document.
	DiscardedEdits bool `json:"discardedEdits,omitempty"`
}

const (
	msgTooLarge      = "Content is too large to save. Try using smaller or fewer images."
	msgPublishFailed = "Failed to save content. Please try again."
)

// Store is the editing session's copy of the site document.
type Store struct {
	gw         Gateway
	cache      Cache
	compressor Compressor
	logger     *zap.Logger

	mu      sync.RWMutex
	doc     *models.SiteDocument
	version uint64 // bumped on every change to doc
	loaded  bool
}

// New creates a Store seeded from the cache when it holds a document, and
// from the default single-page site otherwise. The store is not Loaded until
// Load succeeds.
func New(ctx context.Context, gw Gateway, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		gw:         gw,
		cache:      opts.Cache,
		compressor: opts.Compressor,
		logger:     logger,
		doc:        models.NewSiteDocument(),
	}
	if s.cache != nil {
		cached, err := s.cache.Load(ctx)
		switch {
		case err == nil && cached != nil:
			s.doc = reconcile.Site(cached)
			logger.Debug("seeded content store from local cache",
				zap.Int("pages", len(s.doc.Pages)))
		case err != nil && !errors.Is(err, ErrCacheMiss):
			logger.Warn("local cache unreadable; starting from defaults", zap.Error(err))
		}
	}
	return s
}

// Load fetches the durable document, reconciles it, and adopts it in place
// of whatever the session held, cached state included. An empty remote store
// yields the seeded single-page site; the focused page survives only if it
// still exists. On error the current state is kept.
func (s *Store) Load(ctx context.Context) error {
	fetched, err := s.gw.Fetch(ctx)
	if err != nil {
		s.logger.Warn("content load failed; keeping local state", zap.Error(err))
		return err
	}
	empty := fetched == nil || len(fetched.Pages) == 0
	next := reconcile.Site(fetched)

	s.mu.Lock()
	if empty {
		if _, ok := next.Pages[s.doc.ActivePageSlug]; ok {
			next.ActivePageSlug = s.doc.ActivePageSlug
		}
	}
	s.doc = next
	s.loaded = true
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.writeCache(ctx, snapshot)
	s.logger.Info("content loaded", zap.Int("pages", len(snapshot.Pages)))
	return nil
}

// Loaded reports whether a Load has completed successfully.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Document returns a copy of the whole site document.
func (s *Store) Document() *models.SiteDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// ActivePageSlug returns the slug GetActivePage resolves to.
func (s *Store) ActivePageSlug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSlugLocked()
}

func (s *Store) activeSlugLocked() string {
	if _, ok := s.doc.Pages[s.doc.ActivePageSlug]; ok {
		return s.doc.ActivePageSlug
	}
	return models.HomeSlug
}

// GetActivePage returns a copy of the active page. A stale active slug falls
// back to home, and a missing home falls back to a default page.
func (s *Store) GetActivePage() *models.PageDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.doc.Pages[s.activeSlugLocked()]; ok && p != nil {
		return p.Clone()
	}
	return models.NewPageDocument(models.HomeSlug, "Home", models.TemplateDefault)
}

// Page returns a copy of the page stored under slug.
func (s *Store) Page(slug string) (*models.PageDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.doc.Pages[slug]
	if !ok || p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// SetActivePage focuses slug. Unknown slugs are ignored and reported false.
func (s *Store) SetActivePage(slug string) bool {
	s.mu.Lock()
	if _, ok := s.doc.Pages[slug]; !ok {
		s.mu.Unlock()
		return false
	}
	s.doc.ActivePageSlug = slug
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.writeCache(context.Background(), snapshot)
	return true
}

// Section returns a copy of one section of a page.
func (s *Store) Section(pageSlug, key string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.doc.Pages[pageSlug]
	if !ok || p == nil {
		return nil, false
	}
	sec, ok := p.Sections[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return models.CloneMap(sec), true
}

// UpdateSection shallow-merges partial into a section of a page. It reports
// false when the page does not exist.
func (s *Store) UpdateSection(pageSlug, key string, partial map[string]any) bool {
	return s.mutateSection(pageSlug, key, func(cur map[string]any) map[string]any {
		for k, v := range partial {
			cur[k] = models.CloneValue(v)
		}
		return cur
	})
}

// ReplaceSection swaps a whole section for data in one step.
func (s *Store) ReplaceSection(pageSlug, key string, data map[string]any) bool {
	return s.mutateSection(pageSlug, key, func(map[string]any) map[string]any {
		return models.CloneMap(data)
	})
}

func (s *Store) mutateSection(pageSlug, key string, fn func(map[string]any) map[string]any) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	p, ok := s.doc.Pages[pageSlug]
	if !ok || p == nil {
		s.mu.Unlock()
		return false
	}
	if p.Sections == nil {
		p.Sections = models.SectionMap{}
	}
	cur, _ := p.Sections[key].(map[string]any)
	next := map[string]any{}
	for k, v := range cur {
		next[k] = v
	}
	p.Sections[key] = fn(next)
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.writeCache(context.Background(), snapshot)
	return true
}

// CreatePage adds a page with default sections. It reports false when the
// slug is taken. Slug format is checked by the caller.
func (s *Store) CreatePage(slug, title string, tmpl models.Template) bool {
	s.mu.Lock()
	if _, exists := s.doc.Pages[slug]; exists {
		s.mu.Unlock()
		return false
	}
	s.doc.Pages[slug] = models.NewPageDocument(slug, title, tmpl)
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.logger.Info("page created", zap.String("slug", slug), zap.String("template", string(tmpl)))
	s.writeCache(context.Background(), snapshot)
	return true
}

// DeletePage removes a page. Home cannot be deleted. Deleting the active
// page moves focus to home.
func (s *Store) DeletePage(slug string) bool {
	if slug == models.HomeSlug {
		return false
	}
	s.mu.Lock()
	if _, exists := s.doc.Pages[slug]; !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.doc.Pages, slug)
	if s.doc.ActivePageSlug == slug {
		s.doc.ActivePageSlug = models.HomeSlug
	}
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.logger.Info("page deleted", zap.String("slug", slug))
	s.writeCache(context.Background(), snapshot)
	return true
}

// SetTemplate changes the layout of an existing page.
func (s *Store) SetTemplate(slug string, tmpl models.Template) bool {
	s.mu.Lock()
	p, ok := s.doc.Pages[slug]
	if !ok || p == nil {
		s.mu.Unlock()
		return false
	}
	p.Template = tmpl
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.writeCache(context.Background(), snapshot)
	return true
}

// Replace adopts doc, reconciled, as the whole working document. It is the
// import path for documents edited outside the session; nothing is written
// to the gateway until Publish.
func (s *Store) Replace(doc *models.SiteDocument) {
	fixed := reconcile.Site(doc)
	s.mu.Lock()
	s.doc = fixed
	s.version++
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	s.writeCache(context.Background(), snapshot)
}

// GetAllPages lists the pages, home first.
func (s *Store) GetAllPages() []models.PageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Summaries()
}

// Publish reconciles and compresses the current document and writes it
// through the gateway. On success the compressed document becomes the
// current state; on failure nothing changes. Overlapping publishes are not
// serialized: whichever completes last is adopted last.
//
// Adoption replaces the whole document, so local changes made while the
// publish was in flight are discarded. That case is logged as a warning and
// reported in PublishResult.DiscardedEdits.
func (s *Store) Publish(ctx context.Context) PublishResult {
	s.mu.RLock()
	snapshot := s.doc.Clone()
	base := s.version
	s.mu.RUnlock()

	out := reconcile.Site(snapshot)
	if s.compressor != nil {
		out = s.compressor.CompressTree(ctx, out)
	}

	if err := s.gw.Store(ctx, out); err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			s.logger.Warn("publish rejected: payload too large", zap.Error(err))
			return PublishResult{Error: msgTooLarge, TooLarge: true}
		}
		s.logger.Error("publish failed", zap.Error(err))
		return PublishResult{Error: msgPublishFailed}
	}

	s.mu.Lock()
	discarded := s.version != base
	s.doc = out.Clone()
	s.version++
	s.mu.Unlock()

	if discarded {
		s.logger.Warn("edits made during publish were replaced by the published document")
	}
	s.writeCache(ctx, out)
	s.logger.Info("content published", zap.Int("pages", len(out.Pages)))
	return PublishResult{Success: true, DiscardedEdits: discarded}
}

func (s *Store) writeCache(ctx context.Context, doc *models.SiteDocument) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, doc); err != nil {
		s.logger.Warn("local cache write failed", zap.Error(err))
	}
}
