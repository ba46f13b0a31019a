package tui

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"

	"github.com/studiowebux/setu/internal/executor"
	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/session"
	"github.com/studiowebux/setu/internal/types"
	"github.com/studiowebux/setu/internal/workspace"
)

// CreateTestModel creates a Model over an in-memory workspace
func CreateTestModel(t *testing.T) *Model {
	t.Helper()

	ws := workspace.New(workspace.Options{
		Dispatcher: executor.NewBridge(executor.WithTimeout(5 * time.Second)),
		Logger:     log.New(&bytes.Buffer{}, "", 0),
	})
	t.Cleanup(func() { ws.Close() })

	m := New(ws, nil)
	t.Cleanup(m.Cleanup)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/users", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"ada"}`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// press sends a key and runs the resulting command, feeding a send result
// back like the program loop would
func press(t *testing.T, m *Model, k string) {
	t.Helper()
	_, cmd := m.Update(key(k))
	if cmd == nil {
		return
	}
	if msg, ok := cmd().(session.ResultMsg); ok {
		m.Update(msg)
	}
}

func TestNew_InitialState(t *testing.T) {
	m := CreateTestModel(t)

	if m.focus != keybinds.ContextEditor {
		t.Errorf("Expected editor focus, got %s", m.focus)
	}
	if m.pane != PaneNone {
		t.Errorf("Expected no pane, got %d", m.pane)
	}
	if !strings.Contains(m.View(), "Press enter to send") {
		t.Error("Expected send hint in idle response")
	}
}

func TestTypingSetsURL(t *testing.T) {
	m := CreateTestModel(t)

	typeText(m, "example.com/k")
	if got := m.ws.Tabs().Active().Request().URL; got != "example.com/k" {
		t.Errorf("Expected URL typed into the tab, got %q", got)
	}
}

func TestSendShowsResponseAndRecordsHistory(t *testing.T) {
	srv := newServer(t)
	m := CreateTestModel(t)

	typeText(m, srv.URL+"/users")
	press(t, m, "enter")

	state := m.ws.Tabs().Active().State()
	if state.Phase != types.PhaseSuccess {
		t.Fatalf("Expected success, got %s (%s)", state.Phase, state.Err)
	}
	if !strings.Contains(m.responseView.View(), "200 OK") {
		t.Errorf("Expected status in response view, got %q", m.responseView.View())
	}
	if m.ws.History().Len() != 1 {
		t.Errorf("Expected 1 history entry, got %d", m.ws.History().Len())
	}
}

func TestSendEmptyURLShowsError(t *testing.T) {
	m := CreateTestModel(t)

	press(t, m, "enter")
	if m.errorMsg != "Please enter a URL" {
		t.Errorf("Expected empty URL error, got %q", m.errorMsg)
	}
	if m.ws.Tabs().Active().State().Phase != types.PhaseIdle {
		t.Error("Expected state untouched")
	}
}

func TestTabsFollowURLLine(t *testing.T) {
	m := CreateTestModel(t)

	typeText(m, "first.test")
	press(t, m, "ctrl+t")
	if m.urlInput.Value() != "" {
		t.Errorf("Expected empty URL line for new tab, got %q", m.urlInput.Value())
	}

	press(t, m, "ctrl+w")
	if m.urlInput.Value() != "first.test" {
		t.Errorf("Expected first tab URL restored, got %q", m.urlInput.Value())
	}

	press(t, m, "ctrl+w")
	if m.errorMsg != "Cannot close the last tab" {
		t.Errorf("Expected last tab kept, got %q", m.errorMsg)
	}
}

func TestCycleMethod(t *testing.T) {
	m := CreateTestModel(t)

	press(t, m, "ctrl+x")
	if got := m.ws.Tabs().Active().Request().Method; got != types.MethodGet.Next() {
		t.Errorf("Expected %s, got %s", types.MethodGet.Next(), got)
	}
}

func TestFocusCycle(t *testing.T) {
	m := CreateTestModel(t)

	press(t, m, "tab")
	if m.focus != keybinds.ContextResponse {
		t.Errorf("Expected response focus, got %s", m.focus)
	}
	press(t, m, "tab")
	if m.focus != keybinds.ContextEditor {
		t.Errorf("Expected editor focus without a pane, got %s", m.focus)
	}

	press(t, m, "ctrl+r")
	if m.focus != keybinds.ContextHistory {
		t.Fatalf("Expected history focus on open, got %s", m.focus)
	}
	press(t, m, "tab")
	press(t, m, "tab")
	press(t, m, "tab")
	if m.focus != keybinds.ContextHistory {
		t.Errorf("Expected history focus, got %s", m.focus)
	}
}

func TestHistoryPane(t *testing.T) {
	srv := newServer(t)
	m := CreateTestModel(t)

	typeText(m, srv.URL+"/users")
	press(t, m, "enter")
	press(t, m, "ctrl+r")

	if m.focus != keybinds.ContextHistory {
		t.Fatalf("Expected history focus, got %s", m.focus)
	}
	if m.historyPane.Len() != 2 {
		t.Fatalf("Expected a group header and one entry, got %d rows", m.historyPane.Len())
	}
	r, ok := m.historyPane.Selected()
	if !ok || r.header {
		t.Fatal("Expected the entry selected, not the header")
	}

	press(t, m, "s")
	if !m.ws.History().Entries()[0].Starred {
		t.Error("Expected entry starred")
	}
	if r, _ := m.historyPane.Selected(); !r.starred {
		t.Error("Expected pane refreshed after star")
	}

	press(t, m, "v")
	if m.grouping != GroupByDomain {
		t.Error("Expected domain grouping")
	}
	if m.historyPane.rows[0].title != "127.0.0.1 (1)" {
		t.Errorf("Unexpected domain header %q", m.historyPane.rows[0].title)
	}

	press(t, m, "enter")
	if m.ws.Tabs().Len() != 2 || m.focus != keybinds.ContextEditor {
		t.Errorf("Expected entry opened in a new tab, got %d tabs", m.ws.Tabs().Len())
	}
	if m.ws.Tabs().Active().State().Phase != types.PhaseSuccess {
		t.Error("Expected opened tab to show the stored response")
	}

	press(t, m, "ctrl+r")
	press(t, m, "ctrl+r")
	press(t, m, "d")
	if m.ws.History().Len() != 0 || m.historyPane.Len() != 0 {
		t.Error("Expected entry deleted")
	}
}

func TestCollectionsPane(t *testing.T) {
	m := CreateTestModel(t)
	typeText(m, "api.test/users")

	press(t, m, "ctrl+o")
	press(t, m, "a")
	if m.errorMsg != "Create a collection first" {
		t.Errorf("Expected error without collections, got %q", m.errorMsg)
	}

	press(t, m, "n")
	typeText(m, "Users")
	press(t, m, "enter")
	if m.naming || m.ws.Collections().Len() != 1 {
		t.Fatal("Expected collection created")
	}

	press(t, m, "a")
	if m.collectionsPane.Len() != 2 {
		t.Fatalf("Expected header and item rows, got %d", m.collectionsPane.Len())
	}

	press(t, m, "down")
	press(t, m, "enter")
	if m.ws.Tabs().Len() != 2 || m.ws.Tabs().Active().Request().URL != "api.test/users" {
		t.Error("Expected item opened in a new tab")
	}

	press(t, m, "ctrl+o")
	press(t, m, "ctrl+o")
	press(t, m, "g")
	press(t, m, "enter")
	if m.collectionsPane.Len() != 1 {
		t.Errorf("Expected collapsed collection, got %d rows", m.collectionsPane.Len())
	}
}

func TestCustomKeybinds(t *testing.T) {
	m := CreateTestModel(t)
	keys := keybinds.NewDefaultRegistry()
	keys.Unbind(keybinds.ContextGlobal, keybinds.ActionCycleMethod)
	keys.Register(keybinds.ContextGlobal, "ctrl+r", keybinds.ActionCycleMethod)
	m.keybinds = keys

	press(t, m, "ctrl+x")
	press(t, m, "ctrl+r")
	if m.pane != PaneNone {
		t.Error("Expected rebound key not to open history")
	}
	if m.ws.Tabs().Active().Request().Method == types.MethodGet {
		t.Error("Expected method cycled by the rebound key")
	}
}

func TestPaneStateSkipsLabels(t *testing.T) {
	var p PaneState
	p.setRows([]row{
		{header: true, title: "Today (1)"},
		{title: "a"},
		{header: true, title: "Older (1)"},
		{title: "b"},
	})

	if p.Index() != 1 {
		t.Errorf("Expected first entry selected, got %d", p.Index())
	}
	p.Move(1)
	if p.Index() != 3 {
		t.Errorf("Expected header skipped, got %d", p.Index())
	}
	p.Move(-1)
	if p.Index() != 1 {
		t.Errorf("Expected header skipped upwards, got %d", p.Index())
	}
	p.Move(-1)
	if p.Index() != 1 {
		t.Errorf("Expected to stay on the first entry, got %d", p.Index())
	}
	p.setRows(nil)
	if _, ok := p.Selected(); ok {
		t.Error("Expected no selection when empty")
	}
}
