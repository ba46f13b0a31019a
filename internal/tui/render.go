package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/content"
	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#0000ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleMethod = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)
)

const paneWidth = 42

// statusStyle colours a status code by class; 0 means no response
func statusStyle(code uint16) lipgloss.Style {
	switch {
	case code == 0 || code >= 500:
		return styleError
	case code >= 400:
		return styleWarning
	case code >= 300:
		return styleTitle
	default:
		return styleSuccess
	}
}

// resize fits the response viewport in the space left by the chrome
func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	width := m.width - 4
	if m.pane != PaneNone {
		width -= paneWidth + 2
	}
	// tab bar, URL line, status bar and borders
	height := m.height - 7

	m.responseView.Width = max(10, width)
	m.responseView.Height = max(3, height)
	m.urlInput.Width = max(10, m.width-12)
	m.refreshResponse()
}

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	borderColor := func(context keybinds.Context) lipgloss.AdaptiveColor {
		if m.focus == context {
			return colorGreen
		}
		return colorGray
	}

	main := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor(keybinds.ContextResponse)).
		Width(m.responseView.Width + 2).
		Height(m.responseView.Height).
		Render(m.responseView.View())

	if m.pane != PaneNone {
		context := keybinds.ContextHistory
		if m.pane == PaneCollections {
			context = keybinds.ContextCollections
		}
		side := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor(context)).
			Width(paneWidth).
			Height(m.responseView.Height).
			Render(m.renderPane(m.responseView.Height))
		main = lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTabBar(),
		m.renderURLLine(borderColor(keybinds.ContextEditor)),
		main,
		m.renderStatusBar(),
	)
}

func (m *Model) renderTabBar() string {
	tabs := m.ws.Tabs()
	var parts []string
	for i, tab := range tabs.Tabs() {
		label := fmt.Sprintf(" %d %s ", i+1, tab.Name())
		if tab.IsSending() {
			label += "… "
		}
		if i == tabs.ActiveIndex() {
			parts = append(parts, styleSelected.Render(label))
		} else {
			parts = append(parts, styleSubtle.Render(label))
		}
	}
	return strings.Join(parts, "│")
}

func (m *Model) renderURLLine(border lipgloss.AdaptiveColor) string {
	method := m.ws.Tabs().Active().Request().Method
	line := styleMethod.Render(fmt.Sprintf("%-7s", method)) + " " + m.urlInput.View()
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(m.width - 2).
		Render(line)
}

// renderResponseBody renders the active tab's response state
func (m *Model) renderResponseBody(width int) string {
	state := m.ws.Tabs().Active().State()

	switch state.Phase {
	case types.PhaseLoading:
		return styleWarning.Render("Sending...")
	case types.PhaseError:
		return styleError.Render("Error: " + state.Err)
	case types.PhaseSuccess:
		return m.renderResponse(state.Response, width)
	default:
		send := m.keybinds.GetBindingString(keybinds.ContextEditor, keybinds.ActionSend)
		return styleSubtle.Render(fmt.Sprintf("Press %s to send", send))
	}
}

func (m *Model) renderResponse(resp *types.ResponseData, width int) string {
	var b strings.Builder

	b.WriteString(statusStyle(resp.StatusCode).Render(fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText)))
	b.WriteString(styleSubtle.Render(fmt.Sprintf("  %s  %s", resp.FormattedDuration(), resp.FormattedSize())))
	b.WriteString("\n\n")

	if m.showHeaders {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(styleTitle.Render(k) + ": " + resp.Headers[k] + "\n")
		}
		b.WriteString("\n")
	}

	switch {
	case resp.IsImage():
		b.WriteString(styleSubtle.Render(fmt.Sprintf("[image, %s]", resp.FormattedSize())))
	case resp.Body() == "":
		b.WriteString(styleSubtle.Render("(empty body)"))
	default:
		body := content.Highlight(resp.FormattedBody(), resp.Category())
		b.WriteString(lipgloss.NewStyle().Width(width).Render(body))
	}
	return b.String()
}

// renderPane renders the visible window of the open side pane
func (m *Model) renderPane(height int) string {
	var (
		pane  *PaneState
		title string
	)
	switch m.pane {
	case PaneHistory:
		pane = &m.historyPane
		title = fmt.Sprintf("History by %s", m.grouping)
		if m.starredOnly {
			title += " ★"
		}
	case PaneCollections:
		pane = &m.collectionsPane
		title = "Collections"
	}

	lines := []string{styleTitle.Render(title)}
	if m.naming {
		lines = append(lines, m.nameInput.View())
	}
	if pane.Len() == 0 {
		lines = append(lines, styleSubtle.Render("(empty)"))
		return strings.Join(lines, "\n")
	}

	visible := max(1, height-len(lines))
	start := 0
	if pane.Index() >= visible {
		start = pane.Index() - visible + 1
	}
	end := min(pane.Len(), start+visible)

	for i := start; i < end; i++ {
		line := truncate(renderRow(pane.rows[i]), paneWidth)
		if i == pane.Index() && m.focus != keybinds.ContextEditor {
			line = styleSelected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderRow(r row) string {
	if r.header {
		marker := ""
		if r.collection != uuid.Nil {
			marker = "▸ "
			if r.expanded {
				marker = "▾ "
			}
		}
		return marker + r.title
	}

	star := " "
	if r.starred {
		star = "★"
	}
	status := ""
	if r.status != 0 {
		status = fmt.Sprintf(" %d", r.status)
	}
	return fmt.Sprintf("%s %-6s %s%s", star, r.method, r.title, status)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func (m *Model) renderStatusBar() string {
	if m.errorMsg != "" {
		return styleError.Render(m.errorMsg)
	}
	if m.statusMsg != "" {
		return styleSuccess.Render(m.statusMsg)
	}

	hint := func(context keybinds.Context, action keybinds.Action) string {
		return m.keybinds.GetBindingString(context, action) + " " + keybinds.GetActionInfo(action).Description
	}

	var hints []string
	switch m.focus {
	case keybinds.ContextHistory:
		hints = []string{
			hint(m.focus, keybinds.ActionOpen),
			hint(m.focus, keybinds.ActionToggleStar),
			hint(m.focus, keybinds.ActionCycleGrouping),
			hint(m.focus, keybinds.ActionDelete),
		}
	case keybinds.ContextCollections:
		hints = []string{
			hint(m.focus, keybinds.ActionOpen),
			hint(m.focus, keybinds.ActionSaveToCollection),
			hint(m.focus, keybinds.ActionNewCollection),
			hint(m.focus, keybinds.ActionDelete),
		}
	default:
		hints = []string{
			hint(m.focus, keybinds.ActionSend),
			hint(m.focus, keybinds.ActionCycleMethod),
			hint(m.focus, keybinds.ActionNewTab),
			hint(m.focus, keybinds.ActionToggleHistory),
			hint(m.focus, keybinds.ActionToggleCollections),
			hint(m.focus, keybinds.ActionQuit),
		}
	}
	return styleSubtle.Render(truncate(strings.Join(hints, " • "), max(10, m.width)))
}
