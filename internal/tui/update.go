package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/tui/components/habits"
	"github.com/julianstephens/cadence/internal/tui/components/tasklist"
)

type syncDoneMsg struct {
	result engine.Result
	err    error
}

// headerHeight covers the tab bar, status line and help line
const headerHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.taskList.SetSize(msg.Width-h, msg.Height-v-headerHeight)
		m.habitsModel.SetSize(msg.Width-h, msg.Height-v-headerHeight)
		m.reportsModel.SetSize(msg.Width-h, msg.Height-v-headerHeight)
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Synced: %d archived, %d refilled", len(msg.result.Archived), len(msg.result.Refilled))
		m.reload()
		return m, nil

	case tasklist.CompleteTaskMsg:
		m.completeTask(msg.ID)
		return m, nil

	case habits.AddHabitMsg:
		m.startAddHabit()
		return m, m.form.Init()

	case habits.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.habitToDeleteName = msg.Name
		m.state = StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Sync):
			if m.syncing {
				return m, nil
			}
			m.syncing = true
			m.status = "Syncing..."
			return m, m.syncCmd()
		case key.Matches(msg, m.keys.Refresh):
			m.err = nil
			m.status = ""
			m.reload()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case StateReports:
		m.reportsModel, cmd = m.reportsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) filtering() bool {
	switch m.state {
	case StateTasks:
		return m.taskList.Filtering()
	case StateHabits:
		return m.habitsModel.Filtering()
	}
	return false
}

func (m Model) syncCmd() tea.Cmd {
	ctx, eng := m.ctx, m.engine
	return func() tea.Msg {
		res, err := eng.Sync(ctx)
		return syncDoneMsg{result: res, err: err}
	}
}

func (m *Model) completeTask(id int64) {
	task, err := m.engine.CompleteTask(m.ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			m.status = "Task already completed"
			return
		}
		m.setErr(err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("Completed %q", task.Description)
	m.reload()
}

func (m *Model) startAddHabit() {
	m.habitForm = &HabitFormModel{Periodicity: string(models.PeriodicityDaily)}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.habitForm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Periodicity").
				Options(
					huh.NewOption(models.PeriodicityDaily.Label(), string(models.PeriodicityDaily)),
					huh.NewOption(models.PeriodicityWeekly.Label(), string(models.PeriodicityWeekly)),
					huh.NewOption(models.PeriodicityMonthly.Label(), string(models.PeriodicityMonthly)),
				).
				Value(&m.habitForm.Periodicity),
			huh.NewText().
				Title("Tasks (one per line)").
				Value(&m.habitForm.Tasks),
		),
	).WithShowHelp(true)
	m.state = StateAddHabit
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.form = nil
		m.habitForm = nil
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.saveHabit(*m.habitForm)
		m.form = nil
		m.habitForm = nil
		m.state = StateHabits
		return m, nil
	case huh.StateAborted:
		m.form = nil
		m.habitForm = nil
		m.state = StateHabits
		return m, nil
	}
	return m, cmd
}

func (m *Model) saveHabit(f HabitFormModel) {
	p, err := models.ParsePeriodicity(f.Periodicity)
	if err != nil {
		m.setErr(err)
		return
	}
	var template []string
	for _, line := range strings.Split(f.Tasks, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			template = append(template, line)
		}
	}
	habit, err := m.store.Habits().Create(m.ctx, strings.TrimSpace(f.Name), p, template)
	if err != nil {
		m.setErr(err)
		return
	}
	m.err = nil
	m.status = fmt.Sprintf("Added %q. Sync to generate its tasks.", habit.Name)
	m.reload()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Confirm):
		if err := m.store.Habits().Delete(m.ctx, m.habitToDeleteID); err != nil {
			m.setErr(err)
		} else {
			m.err = nil
			m.status = fmt.Sprintf("Deleted %q", m.habitToDeleteName)
			m.reload()
		}
		m.habitToDeleteID = 0
		m.habitToDeleteName = ""
		m.state = StateHabits
	case key.Matches(k, m.keys.Cancel):
		m.habitToDeleteID = 0
		m.habitToDeleteName = ""
		m.state = StateHabits
	}
	return m, nil
}
