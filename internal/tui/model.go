package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/tui/components/habits"
	"github.com/julianstephens/cadence/internal/tui/components/reports"
	"github.com/julianstephens/cadence/internal/tui/components/tasklist"
)

type SessionState int

const (
	StateTasks SessionState = iota
	StateHabits
	StateReports
	StateAddHabit
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab
const tabCount = 3

type HabitFormModel struct {
	Name        string
	Periodicity string
	Tasks       string
}

type Model struct {
	ctx    context.Context
	store  storage.Provider
	engine *engine.Engine

	state        SessionState
	keys         KeyMap
	help         help.Model
	taskList     tasklist.Model
	habitsModel  habits.Model
	reportsModel reports.Model

	form      *huh.Form
	habitForm *HabitFormModel

	habitToDeleteID   int64
	habitToDeleteName string
	syncing           bool
	status            string
	err               error

	quitting bool
	width    int
	height   int
}

func NewModel(ctx context.Context, store storage.Provider, eng *engine.Engine) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	m := Model{
		ctx:          ctx,
		store:        store,
		engine:       eng,
		state:        StateTasks,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		taskList:     tasklist.New(nil, 0, 0),
		habitsModel:  habits.New(nil, 0, 0),
		reportsModel: reports.New(0, 0),
	}
	m.reload()
	return m
}

// reload re-reads everything the tabs display. Failures land in m.err.
func (m *Model) reload() {
	tasks, err := m.store.Tasks().List(m.ctx, nil)
	if err != nil {
		m.setErr(err)
		return
	}
	m.taskList.SetTasks(tasks)

	overview, err := m.store.Habits().Overview(m.ctx)
	if err != nil {
		m.setErr(err)
		return
	}
	m.habitsModel.SetHabits(overview)

	data := reports.Data{}
	if s, err := m.store.Reports().MaxStreak(m.ctx); err == nil {
		data.Longest = &s
	}
	if s, err := m.store.Reports().MinPositiveStreak(m.ctx); err == nil {
		data.Shortest = &s
	}
	latest, err := m.store.Reports().LatestPerHabit(m.ctx)
	if err != nil {
		m.setErr(err)
		return
	}
	data.Latest = latest
	m.reportsModel.SetData(data)
}

func (m *Model) setErr(err error) {
	if err != nil {
		logger.Debug("tui error", "error", err)
	}
	m.err = err
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help, m.keys.Sync}
	switch m.state {
	case StateTasks:
		keys = append(keys, m.keys.Complete)
	case StateHabits:
		keys = append(keys, m.keys.Add, m.keys.Delete)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Sync, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateTasks:
		actions = []key.Binding{m.keys.Complete}
	case StateHabits:
		actions = []key.Binding{m.keys.Add, m.keys.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Run starts the program on the alternate screen and blocks until it exits
func Run(ctx context.Context, store storage.Provider, eng *engine.Engine) error {
	p := tea.NewProgram(NewModel(ctx, store, eng), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
