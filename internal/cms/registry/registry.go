// Package registry manages the set of pages in a content store: creating,
// deleting, listing and re-templating them, with slug validation.
package registry

import (
	"errors"
	"regexp"
	"strings"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/domain/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var (
	ErrTitleRequired   = errors.New("title required")
	ErrInvalidSlug     = errors.New("invalid slug")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrDuplicateSlug   = errors.New("duplicate slug")
	ErrProtectedPage   = errors.New("protected page")
	ErrPageNotFound    = errors.New("page not found")
)

// ValidationError explains why a registry operation was refused.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, msg string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: msg, Err: err}
}

// ValidateSlug checks that slug is lowercase letters, digits and hyphens.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return invalid("slug", "Slug must contain only lowercase letters, numbers, and hyphens", ErrInvalidSlug)
	}
	return nil
}

// Registry is the page management surface over a Store.
type Registry struct {
	store *contentstore.Store
}

// New creates a Registry.
func New(store *contentstore.Store) *Registry {
	return &Registry{store: store}
}

// Create adds a page with default content.
func (r *Registry) Create(slug, title, template string) error {
	slug = strings.TrimSpace(slug)
	title = strings.TrimSpace(title)
	if slug == "" || title == "" {
		return invalid("title", "Both title and slug are required", ErrTitleRequired)
	}
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	tmpl, err := models.ParseTemplate(template)
	if err != nil {
		return invalid("template", "Template must be default or minimal", ErrInvalidTemplate)
	}
	if !r.store.CreatePage(slug, title, tmpl) {
		return invalid("slug", "A page with this slug already exists", ErrDuplicateSlug)
	}
	return nil
}

// Delete removes a page. The home page cannot be deleted.
func (r *Registry) Delete(slug string) error {
	if slug == models.HomeSlug {
		return invalid("slug", "The home page cannot be deleted", ErrProtectedPage)
	}
	if !r.store.DeletePage(slug) {
		return invalid("slug", "Page not found", ErrPageNotFound)
	}
	return nil
}

// SetTemplate changes the layout of an existing page.
func (r *Registry) SetTemplate(slug, template string) error {
	tmpl, err := models.ParseTemplate(template)
	if err != nil || template == "" {
		return invalid("template", "Template must be default or minimal", ErrInvalidTemplate)
	}
	if !r.store.SetTemplate(slug, tmpl) {
		return invalid("slug", "Page not found", ErrPageNotFound)
	}
	return nil
}

// List returns all pages, home first.
func (r *Registry) List() []models.PageSummary {
	return r.store.GetAllPages()
}
