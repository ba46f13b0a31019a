package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/types"
)

// Manager owns the ordered tabs and knows which one is active.
// There is always at least one tab. Tab IDs increase monotonically and are
// never reused.
type Manager struct {
	tabs      []*Session
	active    int
	nextID    int
	publisher events.Publisher
}

// NewManager returns a manager holding one empty tab
func NewManager(publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.Discard
	}
	m := &Manager{publisher: publisher}
	m.tabs = []*Session{m.newSession("", types.NewRequestData())}
	return m
}

func (m *Manager) newSession(name string, request types.RequestData) *Session {
	m.nextID++
	if name == "" {
		name = fmt.Sprintf("Untitled %d", m.nextID)
	}
	return newSession(m.nextID, name, request, m.publisher)
}

func (m *Manager) changed() {
	m.publisher.Publish(events.Event{Kind: events.TabsChanged, TabID: m.Active().ID()})
}

func (m *Manager) push(s *Session) *Session {
	m.tabs = append(m.tabs, s)
	m.active = len(m.tabs) - 1
	m.changed()
	return s
}

// NewTab appends an empty tab and activates it
func (m *Manager) NewTab() *Session {
	return m.push(m.newSession("", types.NewRequestData()))
}

// Open appends a tab editing a copy of request, showing resp if non-nil.
// An empty name uses the request's display name.
func (m *Manager) Open(name string, request types.RequestData, resp *types.ResponseData) *Session {
	if name == "" {
		name = request.DisplayName()
	}
	s := m.newSession(name, request.Clone())
	s.restore(resp)
	return m.push(s)
}

// Duplicate appends a copy of the tab at index with a fresh response state.
func (m *Manager) Duplicate(index int) (*Session, bool) {
	if index < 0 || index >= len(m.tabs) {
		return nil, false
	}
	src := m.tabs[index]

	request := src.request.Clone()
	request.ID = uuid.New()
	request.IsSending = false

	s := m.newSession(src.name+" (copy)", request)
	s.params = src.Params()
	s.auth = src.auth
	return m.push(s), true
}

// Switch activates index. It is a no-op when index is already active or out of range.
func (m *Manager) Switch(index int) bool {
	if index < 0 || index >= len(m.tabs) || index == m.active {
		return false
	}
	m.active = index
	m.changed()
	return true
}

// Next activates the following tab, wrapping around
func (m *Manager) Next() bool {
	return m.Switch((m.active + 1) % len(m.tabs))
}

// Prev activates the preceding tab, wrapping around
func (m *Manager) Prev() bool {
	return m.Switch((m.active - 1 + len(m.tabs)) % len(m.tabs))
}

// Last activates the rightmost tab
func (m *Manager) Last() bool {
	return m.Switch(len(m.tabs) - 1)
}

// Close removes the tab at index. The last remaining tab cannot be closed.
// The active position is kept where possible and clamped to the new length.
func (m *Manager) Close(index int) bool {
	if len(m.tabs) <= 1 || index < 0 || index >= len(m.tabs) {
		return false
	}

	m.tabs = append(m.tabs[:index:index], m.tabs[index+1:]...)
	switch {
	case m.active >= len(m.tabs):
		m.active = len(m.tabs) - 1
	case index < m.active:
		m.active--
	}
	m.changed()
	return true
}

// CloseActive closes the active tab
func (m *Manager) CloseActive() bool {
	return m.Close(m.active)
}

// CloseOthers keeps only the tab at index
func (m *Manager) CloseOthers(index int) bool {
	if index < 0 || index >= len(m.tabs) || len(m.tabs) == 1 {
		return false
	}
	m.tabs = []*Session{m.tabs[index]}
	m.active = 0
	m.changed()
	return true
}

// CloseAll keeps only the first tab
func (m *Manager) CloseAll() bool {
	if len(m.tabs) == 1 {
		return false
	}
	m.tabs = m.tabs[:1:1]
	m.active = 0
	m.changed()
	return true
}

// Rename sets the display name of the tab at index
func (m *Manager) Rename(index int, name string) bool {
	if index < 0 || index >= len(m.tabs) {
		return false
	}
	m.tabs[index].SetName(name)
	return true
}

// Active returns the active tab; never nil
func (m *Manager) Active() *Session {
	return m.tabs[m.active]
}

func (m *Manager) ActiveIndex() int { return m.active }

func (m *Manager) Len() int { return len(m.tabs) }

// Tab returns the tab at index
func (m *Manager) Tab(index int) (*Session, bool) {
	if index < 0 || index >= len(m.tabs) {
		return nil, false
	}
	return m.tabs[index], true
}

// Tabs returns the tabs in display order
func (m *Manager) Tabs() []*Session {
	out := make([]*Session, len(m.tabs))
	copy(out, m.tabs)
	return out
}

// ByID finds an open tab by its ID
func (m *Manager) ByID(id int) (*Session, bool) {
	for _, s := range m.tabs {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}
