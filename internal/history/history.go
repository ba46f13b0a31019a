// Package history keeps the log of sent requests and the views derived from it.
package history

import (
	"errors"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/studiowebux/setu/internal/config"
	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/storage"
	"github.com/studiowebux/setu/internal/types"
)

// Filter narrows Query results
type Filter int

const (
	All Filter = iota
	StarredOnly
)

// Store is the capped, newest-first log of send attempts, persisted as a
// single JSON array. It is not safe for concurrent use.
type Store struct {
	path       string
	maxEntries int
	entries    []types.HistoryEntry

	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithMaxEntries sets the cap; values below 1 keep the default
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

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

// WithClock replaces time.Now for timestamps and time grouping
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the history at path. A missing file gives an empty store; an
// unreadable or malformed one is logged and also gives an empty store.
// An empty path keeps the history in memory only.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		maxEntries: config.DefaultHistoryMaxEntries,
		publisher:  events.Discard,
		logger:     log.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if path == "" {
		return s
	}

	var entries []types.HistoryEntry
	if err := storage.ReadJSON(path, &entries); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			s.logger.Printf("history: starting empty, could not load %s: %v", path, err)
		}
		return s
	}
	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	s.entries = entries
	return s
}

func (s *Store) save() {
	if s.path == "" {
		return
	}
	entries := s.entries
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	if err := storage.WriteJSON(s.path, entries); err != nil {
		s.logger.Printf("history: failed to save %s: %v", s.path, err)
	}
}

func (s *Store) changed(id uuid.UUID) {
	s.save()
	s.publisher.Publish(events.Event{Kind: events.HistoryChanged, ID: id})
}

func (s *Store) index(id uuid.UUID) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Add records a send at the head of the log. When the cap is exceeded the
// oldest entries are dropped, starred or not.
func (s *Store) Add(request types.RequestData, response *types.ResponseData) types.HistoryEntry {
	entry := types.NewHistoryEntry(request, response, s.now())

	s.entries = append([]types.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries:s.maxEntries]
	}

	s.changed(entry.ID)
	return entry
}

// Remove deletes the entry with id and reports whether it existed
func (s *Store) Remove(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	s.changed(id)
	return true
}

// ToggleStar flips the starred flag and reports whether the entry existed
func (s *Store) ToggleStar(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.entries[i].Starred = !s.entries[i].Starred
	s.changed(id)
	return true
}

// Clear drops every entry
func (s *Store) Clear() {
	s.entries = nil
	s.changed(uuid.Nil)
}

// ClearUnstarred keeps only starred entries, in their current order
func (s *Store) ClearUnstarred() {
	kept := make([]types.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Starred {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.changed(uuid.Nil)
}

func (s *Store) Get(id uuid.UUID) (types.HistoryEntry, bool) {
	i := s.index(id)
	if i < 0 {
		return types.HistoryEntry{}, false
	}
	return s.entries[i], true
}

// Entries returns all entries, newest first
func (s *Store) Entries() []types.HistoryEntry {
	out := make([]types.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) MaxEntries() int { return s.maxEntries }

// Recent returns up to n newest entries
func (s *Store) Recent(n int) []types.HistoryEntry {
	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n < 0 {
		n = 0
	}
	out := make([]types.HistoryEntry, n)
	copy(out, s.entries[:n])
	return out
}

func (s *Store) Starred() []types.HistoryEntry {
	return s.Query("", StarredOnly)
}

// Search matches text case-insensitively against URL, name and method
func (s *Store) Search(text string) []types.HistoryEntry {
	return s.Query(text, All)
}

// Query combines a text search with a starred filter
func (s *Store) Query(text string, filter Filter) []types.HistoryEntry {
	var out []types.HistoryEntry
	for _, e := range s.entries {
		if filter == StarredOnly && !e.Starred {
			continue
		}
		if e.Request.Matches(text) {
			out = append(out, e)
		}
	}
	return out
}

// TimeGroup is a bucket of entries by age
type TimeGroup struct {
	Label   string
	Entries []types.HistoryEntry
}

const (
	Today     = "Today"
	ThisWeek  = "This Week"
	LastWeek  = "Last Week"
	ThisMonth = "This Month"
	Older     = "Older"
)

var timeLabels = []string{Today, ThisWeek, LastWeek, ThisMonth, Older}

const day = 24 * time.Hour

// Bucket returns the age label for ts relative to now
func Bucket(ts, now time.Time) string {
	local := ts.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return Today
	}

	age := now.Sub(ts)
	switch {
	case age < 0:
		return Today
	case age < 7*day:
		return ThisWeek
	case age < 14*day:
		return LastWeek
	case age < 30*day:
		return ThisMonth
	default:
		return Older
	}
}

// GroupedByTime partitions entries by age at call time. Empty groups are
// omitted and each group keeps newest-first order.
func (s *Store) GroupedByTime() []TimeGroup {
	now := s.now()
	buckets := make(map[string][]types.HistoryEntry, len(timeLabels))
	for _, e := range s.entries {
		label := Bucket(e.Timestamp, now)
		buckets[label] = append(buckets[label], e)
	}

	var groups []TimeGroup
	for _, label := range timeLabels {
		if entries := buckets[label]; len(entries) > 0 {
			groups = append(groups, TimeGroup{Label: label, Entries: entries})
		}
	}
	return groups
}

// DomainGroup is a bucket of entries sharing a registrable domain
type DomainGroup struct {
	Domain  string
	Entries []types.HistoryEntry
}

// Domain returns the registrable domain of rawURL ("api.github.com" gives
// "github.com"). IPs and single-label hosts are returned as is.
func Domain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "(unknown)"
	}

	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// GroupedByDomain groups entries by registrable domain, in order of first
// appearance (so the most recently used domain comes first).
func (s *Store) GroupedByDomain() []DomainGroup {
	var groups []DomainGroup
	index := map[string]int{}
	for _, e := range s.entries {
		d := Domain(e.Request.URL)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, DomainGroup{Domain: d})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}
