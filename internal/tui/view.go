package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateTasks:
		content = docStyle.Render(m.taskList.View())
	case StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case StateReports:
		content = docStyle.Render(m.reportsModel.View())
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Tasks", "Habits", "Reports"} {
		if m.activeTab() == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// activeTab maps modal states back to the tab they were opened from
func (m Model) activeTab() SessionState {
	if m.state >= tabCount {
		return StateHabits
	}
	return m.state
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete habit \""+m.habitToDeleteName+"\" and its tasks?"),
			"Archived reports are kept.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
