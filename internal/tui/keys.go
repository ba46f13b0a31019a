package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/session"
)

// handleKeyPress routes key presses through the keybinding registry.
// Unbound keys in the editor are typed into the URL line.
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if m.naming {
		return m.handleNamingKeys(msg)
	}

	action, ok := m.keybinds.Match(m.focus, msg.String())
	if !ok {
		if m.focus == keybinds.ContextEditor {
			return m.typeURL(msg)
		}
		return nil
	}
	return m.runAction(action)
}

func (m *Model) typeURL(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	tab := m.ws.Tabs().Active()
	if value := m.urlInput.Value(); value != tab.Request().URL {
		tab.SetURL(value)
	}
	return cmd
}

func (m *Model) runAction(action keybinds.Action) tea.Cmd {
	tabs := m.ws.Tabs()

	switch action {
	case keybinds.ActionQuit:
		m.Cleanup()
		return tea.Quit

	case keybinds.ActionSend:
		return m.send()

	case keybinds.ActionNewTab:
		tabs.NewTab()
		m.setFocus(keybinds.ContextEditor)
	case keybinds.ActionCloseTab:
		if !tabs.CloseActive() {
			m.setError("Cannot close the last tab")
		}
	case keybinds.ActionNextTab:
		tabs.Next()
	case keybinds.ActionPrevTab:
		tabs.Prev()
	case keybinds.ActionDuplicateTab:
		tabs.Duplicate(tabs.ActiveIndex())

	case keybinds.ActionCycleMethod:
		tab := tabs.Active()
		tab.SetMethod(tab.Request().Method.Next())
	case keybinds.ActionClearResponse:
		tabs.Active().ClearResponse()
		m.setStatus("")
	case keybinds.ActionCopyBody:
		m.copyBody()
	case keybinds.ActionToggleHeaders:
		m.showHeaders = !m.showHeaders
		m.refreshResponse()

	case keybinds.ActionToggleHistory:
		m.togglePane(PaneHistory)
	case keybinds.ActionToggleCollections:
		m.togglePane(PaneCollections)
	case keybinds.ActionClosePane:
		m.togglePane(m.pane)
	case keybinds.ActionSwitchFocus:
		m.cycleFocus()

	case keybinds.ActionNavigateUp:
		m.navigate(-1)
	case keybinds.ActionNavigateDown:
		m.navigate(1)
	case keybinds.ActionPageUp:
		m.navigate(-m.pageSize())
	case keybinds.ActionPageDown:
		m.navigate(m.pageSize())
	case keybinds.ActionGoToTop:
		if p := m.activePane(); p != nil {
			p.Top()
		} else {
			m.responseView.GotoTop()
		}
	case keybinds.ActionGoToBottom:
		if p := m.activePane(); p != nil {
			p.Bottom()
		} else {
			m.responseView.GotoBottom()
		}

	case keybinds.ActionOpen:
		m.openSelected()
	case keybinds.ActionToggleStar:
		if r, ok := m.historyPane.Selected(); ok && m.focus == keybinds.ContextHistory && !r.header {
			m.ws.History().ToggleStar(r.id)
		}
	case keybinds.ActionDelete:
		m.deleteSelected()
	case keybinds.ActionCycleGrouping:
		m.grouping = (m.grouping + 1) % 2
		m.refreshHistory()
		m.historyPane.Top()
		m.setStatus("History grouped by " + m.grouping.String())
	case keybinds.ActionStarredOnly:
		m.starredOnly = !m.starredOnly
		m.refreshHistory()
	case keybinds.ActionSaveToCollection:
		m.saveToCollection()
	case keybinds.ActionNewCollection:
		m.naming = true
		m.nameInput.SetValue("")
		m.nameInput.Focus()
	}
	return nil
}

// send starts the active tab's request. Rejected sends leave the tab as is.
func (m *Model) send() tea.Cmd {
	cmd, err := m.ws.Send()
	if errors.Is(err, session.ErrEmptyURL) {
		m.setError("Please enter a URL")
		return nil
	}
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	m.setStatus("Sending...")
	return cmd
}

func (m *Model) copyBody() {
	resp := m.ws.Tabs().Active().State().Response
	if resp == nil {
		m.setError("No response to copy")
		return
	}
	if err := clipboard.WriteAll(resp.Body()); err != nil {
		m.setError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
		return
	}
	m.setStatus("Response copied to clipboard")
}

// togglePane opens pane, or closes it when it is already open
func (m *Model) togglePane(pane Pane) {
	if pane == PaneNone {
		return
	}
	if m.pane == pane {
		m.pane = PaneNone
		m.setFocus(keybinds.ContextEditor)
		m.resize()
		return
	}

	m.pane = pane
	switch pane {
	case PaneHistory:
		m.refreshHistory()
		m.setFocus(keybinds.ContextHistory)
	case PaneCollections:
		m.refreshCollections()
		m.setFocus(keybinds.ContextCollections)
	}
	m.resize()
}

// cycleFocus goes editor, response, then the open pane
func (m *Model) cycleFocus() {
	order := []keybinds.Context{keybinds.ContextEditor, keybinds.ContextResponse}
	switch m.pane {
	case PaneHistory:
		order = append(order, keybinds.ContextHistory)
	case PaneCollections:
		order = append(order, keybinds.ContextCollections)
	}

	next := 0
	for i, c := range order {
		if c == m.focus {
			next = (i + 1) % len(order)
		}
	}
	m.setFocus(order[next])
}

// activePane returns the focused side pane, nil when the response has focus
func (m *Model) activePane() *PaneState {
	switch m.focus {
	case keybinds.ContextHistory:
		return &m.historyPane
	case keybinds.ContextCollections:
		return &m.collectionsPane
	}
	return nil
}

func (m *Model) navigate(delta int) {
	if p := m.activePane(); p != nil {
		p.Move(delta)
		return
	}
	if delta < 0 {
		m.responseView.ScrollUp(-delta)
	} else {
		m.responseView.ScrollDown(delta)
	}
}

func (m *Model) pageSize() int {
	return max(1, m.responseView.Height-1)
}

// openSelected opens the selected entry in a new tab, or expands and
// collapses a collection
func (m *Model) openSelected() {
	switch m.focus {
	case keybinds.ContextHistory:
		r, ok := m.historyPane.Selected()
		if !ok || r.header {
			return
		}
		if _, ok := m.ws.OpenHistoryEntry(r.id); ok {
			m.setFocus(keybinds.ContextEditor)
		}

	case keybinds.ContextCollections:
		r, ok := m.collectionsPane.Selected()
		if !ok {
			return
		}
		if r.header {
			m.ws.Collections().ToggleExpanded(r.collection)
			return
		}
		if _, ok := m.ws.OpenCollectionItem(r.collection, r.id); ok {
			m.setFocus(keybinds.ContextEditor)
		}
	}
}

func (m *Model) deleteSelected() {
	switch m.focus {
	case keybinds.ContextHistory:
		if r, ok := m.historyPane.Selected(); ok && !r.header {
			m.ws.History().Remove(r.id)
		}
	case keybinds.ContextCollections:
		r, ok := m.collectionsPane.Selected()
		if !ok {
			return
		}
		if r.header {
			m.ws.Collections().Remove(r.collection)
			return
		}
		m.ws.Collections().RemoveItem(r.collection, r.id)
	}
}

// saveToCollection adds the active tab's request to the selected collection
func (m *Model) saveToCollection() {
	r, ok := m.collectionsPane.Selected()
	if !ok {
		m.setError("Create a collection first")
		return
	}
	if _, ok := m.ws.SaveActiveToCollection(r.collection); ok {
		col, _ := m.ws.Collections().Get(r.collection)
		m.setStatus("Saved to " + col.Name)
	}
}

func (m *Model) handleNamingKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.naming = false
		m.nameInput.Blur()
		return nil
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return nil
		}
		m.naming = false
		m.nameInput.Blur()
		if _, exists := m.ws.Collections().FindByName(name); exists {
			m.setError(fmt.Sprintf("Collection %q already exists", name))
			return nil
		}
		m.ws.Collections().Create(name)
		m.setStatus("Created " + name)
		return nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return cmd
}
