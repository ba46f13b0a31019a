// Package collections stores named groups of saved requests.
package collections

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/storage"
	"github.com/studiowebux/setu/internal/types"
)

// Store holds collections in creation order, persisted as one JSON array.
// Mutations of unknown IDs are no-ops that report false.
type Store struct {
	path        string
	collections []types.Collection

	publisher events.Publisher
	logger    *log.Logger
}

type Option func(*Store)

func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open loads collections from path; see history.Open for the failure rules.
// An empty path keeps everything in memory.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		publisher: events.Discard,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if path == "" {
		return s
	}

	var loaded []types.Collection
	if err := storage.ReadJSON(path, &loaded); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			s.logger.Printf("collections: starting empty, could not load %s: %v", path, err)
		}
		return s
	}
	for i := range loaded {
		if loaded[i].Items == nil {
			loaded[i].Items = []types.CollectionItem{}
		}
	}
	s.collections = loaded
	return s
}

func (s *Store) save() {
	if s.path == "" {
		return
	}
	data := s.collections
	if data == nil {
		data = []types.Collection{}
	}
	if err := storage.WriteJSON(s.path, data); err != nil {
		s.logger.Printf("collections: failed to save %s: %v", s.path, err)
	}
}

func (s *Store) changed(id uuid.UUID) {
	s.save()
	s.publisher.Publish(events.Event{Kind: events.CollectionsChanged, ID: id})
}

func (s *Store) index(id uuid.UUID) int {
	for i, c := range s.collections {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func itemIndex(c types.Collection, id uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Create appends an empty, expanded collection
func (s *Store) Create(name string) types.Collection {
	c := types.NewCollection(name)
	s.collections = append(s.collections, c)
	s.changed(c.ID)
	return c.Clone()
}

func (s *Store) Rename(id uuid.UUID, name string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.collections[i].Name = name
	s.changed(id)
	return true
}

// Remove deletes the collection and all its items
func (s *Store) Remove(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.collections = append(s.collections[:i:i], s.collections[i+1:]...)
	s.changed(id)
	return true
}

func (s *Store) ToggleExpanded(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.collections[i].Expanded = !s.collections[i].Expanded
	s.changed(id)
	return true
}

// AddItem appends a copy of request to the collection
func (s *Store) AddItem(collectionID uuid.UUID, request types.RequestData) (types.CollectionItem, bool) {
	i := s.index(collectionID)
	if i < 0 {
		return types.CollectionItem{}, false
	}
	item := types.NewCollectionItem(request)
	s.collections[i].Items = append(s.collections[i].Items, item)
	s.changed(collectionID)
	return item, true
}

func (s *Store) RemoveItem(collectionID, itemID uuid.UUID) bool {
	i := s.index(collectionID)
	if i < 0 {
		return false
	}
	j := itemIndex(s.collections[i], itemID)
	if j < 0 {
		return false
	}
	items := s.collections[i].Items
	s.collections[i].Items = append(items[:j:j], items[j+1:]...)
	s.changed(collectionID)
	return true
}

// UpdateItem saves request over an existing item, keeping the item ID
func (s *Store) UpdateItem(collectionID, itemID uuid.UUID, request types.RequestData) bool {
	i := s.index(collectionID)
	if i < 0 {
		return false
	}
	j := itemIndex(s.collections[i], itemID)
	if j < 0 {
		return false
	}
	req := request.Clone()
	req.IsSending = false
	s.collections[i].Items[j].Request = req
	s.changed(collectionID)
	return true
}

func (s *Store) Get(id uuid.UUID) (types.Collection, bool) {
	i := s.index(id)
	if i < 0 {
		return types.Collection{}, false
	}
	return s.collections[i].Clone(), true
}

func (s *Store) Item(collectionID, itemID uuid.UUID) (types.CollectionItem, bool) {
	i := s.index(collectionID)
	if i < 0 {
		return types.CollectionItem{}, false
	}
	j := itemIndex(s.collections[i], itemID)
	if j < 0 {
		return types.CollectionItem{}, false
	}
	item := s.collections[i].Items[j]
	return types.CollectionItem{ID: item.ID, Request: item.Request.Clone()}, true
}

// FindByName returns the first collection whose name equals name, ignoring case
func (s *Store) FindByName(name string) (types.Collection, bool) {
	for _, c := range s.collections {
		if strings.EqualFold(c.Name, name) {
			return c.Clone(), true
		}
	}
	return types.Collection{}, false
}

// Collections returns copies in creation order
func (s *Store) Collections() []types.Collection {
	out := make([]types.Collection, len(s.collections))
	for i, c := range s.collections {
		out[i] = c.Clone()
	}
	return out
}

func (s *Store) Len() int { return len(s.collections) }

func (s *Store) TotalItems() int {
	n := 0
	for _, c := range s.collections {
		n += len(c.Items)
	}
	return n
}

// SearchResult is a collection with the subset of its items that matched
type SearchResult struct {
	Collection types.Collection
	Items      []types.CollectionItem
}

// Search returns, per collection, the items whose URL, name or method
// contain text. A collection whose own name matches is included even when
// none of its items do.
func (s *Store) Search(text string) []SearchResult {
	q := strings.ToLower(text)

	var results []SearchResult
	for _, c := range s.collections {
		var items []types.CollectionItem
		for _, item := range c.Items {
			if item.Request.Matches(text) {
				items = append(items, types.CollectionItem{ID: item.ID, Request: item.Request.Clone()})
			}
		}
		if len(items) > 0 || strings.Contains(strings.ToLower(c.Name), q) {
			results = append(results, SearchResult{Collection: c.Clone(), Items: items})
		}
	}
	return results
}
