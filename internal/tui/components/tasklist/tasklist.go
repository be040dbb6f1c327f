package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cadence/internal/models"
)

type CompleteTaskMsg struct {
	ID int64
}

type Item struct {
	Task models.TaskView
}

func (i Item) Title() string {
	if i.Task.Completed {
		return "✓ " + i.Task.Description
	}
	return "○ " + i.Task.Description
}

func (i Item) Description() string {
	return fmt.Sprintf("%s | #%d", i.Task.HabitName, i.Task.ID)
}

func (i Item) FilterValue() string { return i.Task.HabitName + " " + i.Task.Description }

type KeyMap struct {
	Complete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Complete: key.NewBinding(
			key.WithKeys("c", " "),
			key.WithHelp("c/space", "complete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(tasks []models.TaskView, width, height int) Model {
	l := list.New(items(tasks), list.NewDefaultDelegate(), width, height)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Complete}
	}

	return Model{list: l, keys: keys}
}

func items(tasks []models.TaskView) []list.Item {
	out := make([]list.Item, len(tasks))
	for i, t := range tasks {
		out[i] = Item{Task: t}
	}
	return out
}

func (m *Model) SetTasks(tasks []models.TaskView) {
	m.list.SetItems(items(tasks))
}

// Selected returns the highlighted task, if any
func (m Model) Selected() (models.TaskView, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Task, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Complete) {
			if i, ok := m.list.SelectedItem().(Item); ok && !i.Task.Completed {
				return m, func() tea.Msg { return CompleteTaskMsg{ID: i.Task.ID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No tasks yet.\n  Press 's' to sync and generate them."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

// Filtering reports whether the list is capturing keystrokes for its filter
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
