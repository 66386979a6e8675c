// Package editor implements the admin editing session: a private draft of
// one section of one page that is committed to the content store on Save.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/domain/models"
)

// State of the draft relative to the store.
type State int

const (
	Clean State = iota
	Dirty
)

func (s State) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

// Errors returned by draft edits.
var (
	ErrUnknownPage  = errors.New("unknown page")
	ErrUnknownTab   = errors.New("unknown tab")
	ErrNotAList     = errors.New("field is not a list")
	ErrIndexOutside = errors.New("list index out of range")
	ErrNotAnObject  = errors.New("list item is not an object")
)

// tabAliases maps editor tab names that differ from their section keys.
var tabAliases = map[string]string{
	"packages": models.SectionMostBookedPackages,
}

// SectionForTab resolves an editor tab name to a section key.
func SectionForTab(tab string) (string, bool) {
	if key, ok := tabAliases[tab]; ok {
		return key, true
	}
	if models.IsSectionKey(tab) {
		return tab, true
	}
	return "", false
}

// Session is one operator's editing state. It is not safe for concurrent use.
type Session struct {
	store   *contentstore.Store
	page    string
	section string
	draft   map[string]any
}

// NewSession opens an editing session on the store's active page, hero tab.
func NewSession(store *contentstore.Store) *Session {
	s := &Session{
		store:   store,
		page:    store.ActivePageSlug(),
		section: models.SectionHero,
	}
	s.reseed()
	return s
}

// Page returns the slug being edited.
func (s *Session) Page() string { return s.page }

// Section returns the section key being edited.
func (s *Session) Section() string { return s.section }

// Open switches to another page. Any unsaved draft is discarded and the
// draft is reseeded from the new page.
func (s *Session) Open(slug string) error {
	if !s.store.SetActivePage(slug) {
		return fmt.Errorf("%w: %s", ErrUnknownPage, slug)
	}
	s.page = slug
	s.reseed()
	return nil
}

// SelectTab switches section. The draft is reseeded from the store, so
// unsaved edits to the previous section are dropped.
func (s *Session) SelectTab(tab string) error {
	key, ok := SectionForTab(tab)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTab, tab)
	}
	s.section = key
	s.reseed()
	return nil
}

func (s *Session) reseed() {
	sec, ok := s.store.Section(s.page, s.section)
	if !ok {
		sec = map[string]any{}
	}
	s.draft = sec
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() map[string]any {
	return models.CloneMap(s.draft)
}

// SetField sets a top-level field of the draft.
func (s *Session) SetField(key string, value any) {
	s.draft[key] = models.CloneValue(value)
}

// SetListItemField sets field on the index-th object of the list at listKey.
func (s *Session) SetListItemField(listKey string, index int, field string, value any) error {
	list, ok := s.draft[listKey].([]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAList, listKey)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutside, listKey, index)
	}
	item, ok := list[index].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s[%d]", ErrNotAnObject, listKey, index)
	}
	next := models.CloneMap(item)
	next[field] = models.CloneValue(value)
	list = append([]any(nil), list...)
	list[index] = next
	s.draft[listKey] = list
	return nil
}

// AppendListItem adds item to the end of the list at listKey, creating the
// list if needed.
func (s *Session) AppendListItem(listKey string, item map[string]any) error {
	cur, exists := s.draft[listKey]
	list, ok := cur.([]any)
	if exists && cur != nil && !ok {
		return fmt.Errorf("%w: %s", ErrNotAList, listKey)
	}
	list = append(append([]any(nil), list...), models.CloneMap(item))
	s.draft[listKey] = list
	return nil
}

// RemoveListItem deletes the index-th element of the list at listKey.
func (s *Session) RemoveListItem(listKey string, index int) error {
	list, ok := s.draft[listKey].([]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAList, listKey)
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutside, listKey, index)
	}
	next := make([]any, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	s.draft[listKey] = next
	return nil
}

// ReplaceList swaps the list at listKey for items.
func (s *Session) ReplaceList(listKey string, items []any) {
	s.draft[listKey] = models.CloneValue(items)
}

// IsDirty reports whether the draft differs from the store's section.
func (s *Session) IsDirty() bool {
	stored, ok := s.store.Section(s.page, s.section)
	if !ok {
		stored = map[string]any{}
	}
	return !equalJSON(s.draft, stored)
}

// State returns Clean or Dirty.
func (s *Session) State() State {
	if s.IsDirty() {
		return Dirty
	}
	return Clean
}

// Save writes the whole draft into the store as the new section value. It
// reports false, and does nothing, when the draft is clean.
func (s *Session) Save() bool {
	if !s.IsDirty() {
		return false
	}
	return s.store.ReplaceSection(s.page, s.section, s.draft)
}

// equalJSON compares two trees after a JSON round trip so that numeric and
// slice types produced by different code paths compare equal.
func equalJSON(a, b map[string]any) bool {
	na, errA := normalize(a)
	nb, errB := normalize(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(m map[string]any) (any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}
