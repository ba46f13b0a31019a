package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is a recorded send attempt. Request and Response are copies
// taken at completion; only Starred changes afterwards.
type HistoryEntry struct {
	ID        uuid.UUID     `json:"id"`
	Request   RequestData   `json:"request"`
	Response  *ResponseData `json:"response"`
	Timestamp time.Time     `json:"timestamp"`
	Starred   bool          `json:"starred"`
}

// NewHistoryEntry snapshots request and response at the given time
func NewHistoryEntry(request RequestData, response *ResponseData, at time.Time) HistoryEntry {
	req := request.Clone()
	req.IsSending = false
	return HistoryEntry{
		ID:        uuid.New(),
		Request:   req,
		Response:  response.Clone(),
		Timestamp: at.UTC(),
	}
}

func (e HistoryEntry) DisplayName() string {
	return e.Request.DisplayName()
}

// Matches reports whether query is a case-insensitive substring of the
// URL, name or method. An empty query matches everything.
func (r RequestData) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(r.URL), q) ||
		strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(string(r.Method)), q)
}

// Collection is a named, user-curated group of requests
type Collection struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Items    []CollectionItem `json:"items"`
	Expanded bool             `json:"expanded"`
}

// CollectionItem is one saved request
type CollectionItem struct {
	ID      uuid.UUID   `json:"id"`
	Request RequestData `json:"request"`
}

// NewCollection starts expanded with no items
func NewCollection(name string) Collection {
	return Collection{
		ID:       uuid.New(),
		Name:     name,
		Items:    []CollectionItem{},
		Expanded: true,
	}
}

// NewCollectionItem stores a copy of request
func NewCollectionItem(request RequestData) CollectionItem {
	req := request.Clone()
	req.IsSending = false
	return CollectionItem{ID: uuid.New(), Request: req}
}

// Clone deep-copies the collection and its items
func (c Collection) Clone() Collection {
	out := c
	out.Items = make([]CollectionItem, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = CollectionItem{ID: item.ID, Request: item.Request.Clone()}
	}
	return out
}
