// Package tui is the interactive front end: a tab bar, a URL line, the
// response of the active tab and optional history or collections panes.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/session"
	"github.com/studiowebux/setu/internal/workspace"
)

// Model represents the TUI state
type Model struct {
	ws          *workspace.Workspace
	keybinds    *keybinds.Registry
	unsubscribe func()

	// Focus decides which keybinding context applies
	focus keybinds.Context
	pane  Pane

	urlInput     textinput.Model
	responseView viewport.Model
	showHeaders  bool

	historyPane     PaneState
	grouping        Grouping
	starredOnly     bool
	collectionsPane PaneState

	// Naming a new collection
	naming    bool
	nameInput textinput.Model

	// UI state
	width     int
	height    int
	statusMsg string
	errorMsg  string

	// Pending redraws, set by change notifications
	dirty map[events.Kind]bool
}

// New creates a TUI model over ws. A nil registry uses the default bindings.
func New(ws *workspace.Workspace, keys *keybinds.Registry) *Model {
	if keys == nil {
		keys = keybinds.NewDefaultRegistry()
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://api.example.com/users"
	urlInput.Prompt = ""
	urlInput.Focus()

	nameInput := textinput.New()
	nameInput.Placeholder = "Collection name"

	m := &Model{
		ws:           ws,
		keybinds:     keys,
		focus:        keybinds.ContextEditor,
		urlInput:     urlInput,
		nameInput:    nameInput,
		responseView: viewport.New(80, 20),
		dirty:        make(map[events.Kind]bool),
	}
	m.unsubscribe = ws.Subscribe(func(e events.Event) { m.dirty[e.Kind] = true })

	m.syncURL()
	m.refreshResponse()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case session.ResultMsg:
		m.handleResult(msg)

	default:
		if m.focus == keybinds.ContextEditor {
			m.urlInput, cmd = m.urlInput.Update(msg)
		}
	}

	m.applyChanges()
	return m, cmd
}

// handleResult hands a finished send back to the workspace
func (m *Model) handleResult(msg session.ResultMsg) {
	if !m.ws.Complete(msg) {
		return
	}
	if msg.TabID != m.ws.Tabs().Active().ID() {
		return
	}
	if msg.Result.Err != nil {
		m.setError(msg.Result.Err.Error())
		return
	}
	m.setStatus("")
}

// applyChanges rebuilds whatever the notifications since the last update
// invalidated
func (m *Model) applyChanges() {
	if len(m.dirty) == 0 {
		return
	}
	if m.dirty[events.TabsChanged] {
		m.syncURL()
	}
	if m.dirty[events.TabsChanged] || m.dirty[events.RequestChanged] || m.dirty[events.ResponseChanged] {
		m.refreshResponse()
	}
	if m.dirty[events.HistoryChanged] && m.pane == PaneHistory {
		m.refreshHistory()
	}
	if m.dirty[events.CollectionsChanged] && m.pane == PaneCollections {
		m.refreshCollections()
	}
	clear(m.dirty)
}

// syncURL shows the active tab's URL in the URL line
func (m *Model) syncURL() {
	url := m.ws.Tabs().Active().Request().URL
	if m.urlInput.Value() != url {
		m.urlInput.SetValue(url)
		m.urlInput.CursorEnd()
	}
}

func (m *Model) refreshHistory() {
	m.historyPane.setRows(historyRows(m.ws.History(), m.grouping, m.starredOnly))
}

func (m *Model) refreshCollections() {
	m.collectionsPane.setRows(collectionRows(m.ws.Collections()))
}

func (m *Model) refreshResponse() {
	m.responseView.SetContent(m.renderResponseBody(m.responseView.Width))
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.errorMsg = ""
}

func (m *Model) setError(msg string) {
	m.errorMsg = msg
	m.statusMsg = ""
}

// setFocus moves keyboard focus; only the editor has a blinking cursor
func (m *Model) setFocus(context keybinds.Context) {
	m.focus = context
	if context == keybinds.ContextEditor {
		m.urlInput.Focus()
	} else {
		m.urlInput.Blur()
	}
}

// Cleanup stops listening for workspace changes
func (m *Model) Cleanup() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
