package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/workspace"
)

// Run starts the TUI and blocks until the user quits
func Run(ws *workspace.Workspace, keys *keybinds.Registry) error {
	m := New(ws, keys)
	defer m.Cleanup()

	// Mouse is disabled by default in bubbletea
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
