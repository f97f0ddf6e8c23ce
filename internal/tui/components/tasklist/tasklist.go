package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/ibadah/internal/models"
)

// ToggleTaskMsg asks the parent to flip the task with ID.
type ToggleTaskMsg struct {
	ID string
}

type Item struct {
	Task models.WorshipTask
}

func (i Item) Title() string {
	if i.Task.Completed {
		return "[x] " + i.Task.Label
	}
	return "[ ] " + i.Task.Label
}

func (i Item) Description() string {
	return fmt.Sprintf("%s | %s", i.Task.Category, i.Task.ID)
}

func (i Item) FilterValue() string { return i.Task.Label }

type KeyMap struct {
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x", "enter"),
			key.WithHelp("space", "toggle"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(tasks []models.WorshipTask, width, height int) Model {
	l := list.New(items(tasks), list.NewDefaultDelegate(), width, height)
	l.Title = "Ibadah"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}

	return Model{list: l, keys: keys}
}

// SetTasks replaces the items and keeps the cursor where it was.
func (m *Model) SetTasks(tasks []models.WorshipTask) {
	idx := m.list.Index()
	m.list.SetItems(items(tasks))
	if idx < len(tasks) {
		m.list.Select(idx)
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Toggle) {
		if i, ok := m.list.SelectedItem().(Item); ok {
			return m, func() tea.Msg { return ToggleTaskMsg{ID: i.Task.ID} }
		}
		return m, nil
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  Loading..."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func items(tasks []models.WorshipTask) []list.Item {
	out := make([]list.Item, len(tasks))
	for i, t := range tasks {
		out[i] = Item{Task: t}
	}
	return out
}
