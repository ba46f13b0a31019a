package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/setu/internal/collections"
	"github.com/studiowebux/setu/internal/types"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

var errSelectionCancelled = errors.New("selection cancelled")

type item struct {
	collection types.Collection
}

func (i item) FilterValue() string { return i.collection.Name }

func (i item) Title() string {
	return fmt.Sprintf("%s (%d requests)", i.collection.Name, len(i.collection.Items))
}

func (i item) Description() string { return "" }

type selectorModel struct {
	list      list.Model
	choice    *types.Collection
	createNew bool
	quitting  bool
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(item); ok {
				col := i.collection
				m.choice = &col
			}
			m.quitting = true
			return m, tea.Quit

		case "n":
			m.createNew = true
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectorModel) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("↑/↓: navigate • /: filter • enter: select • n: new collection • q/ctrl+c: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

// promptForCollection shows an interactive list of collections. Choosing
// "new" asks for a name and creates it.
func promptForCollection(streams IO, store *collections.Store) (types.Collection, error) {
	cols := store.Collections()
	if len(cols) == 0 {
		return promptForNewCollection(streams, store)
	}

	items := make([]list.Item, 0, len(cols))
	for _, c := range cols {
		items = append(items, item{collection: c})
	}

	const defaultWidth = 80
	const listHeight = 14

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.Title = "Save to collection"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	p := tea.NewProgram(selectorModel{list: l}, tea.WithInput(streams.In), tea.WithOutput(streams.Err))
	finalModel, err := p.Run()
	if err != nil {
		return types.Collection{}, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(selectorModel)
	switch {
	case result.createNew:
		return promptForNewCollection(streams, store)
	case result.choice == nil:
		return types.Collection{}, errSelectionCancelled
	default:
		return *result.choice, nil
	}
}

// itemDelegate is a custom list item delegate
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(item)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.Title())

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// promptForNewCollection reads a name and creates the collection, or
// returns the existing one with that name
func promptForNewCollection(streams IO, store *collections.Store) (types.Collection, error) {
	fmt.Fprint(streams.Err, "\nNew collection name: ")
	name, err := bufio.NewReader(streams.In).ReadString('\n')
	name = strings.TrimSpace(name)
	if err != nil && name == "" {
		return types.Collection{}, fmt.Errorf("failed to read input: %w", err)
	}
	if name == "" {
		return types.Collection{}, errSelectionCancelled
	}

	if col, ok := store.FindByName(name); ok {
		return col, nil
	}
	return store.Create(name), nil
}
