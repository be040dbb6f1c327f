package reports

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
)

var (
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(28)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// Data is everything the reports tab shows
type Data struct {
	Longest  *models.StreakStat
	Shortest *models.StreakStat
	Latest   []models.Report
}

type Model struct {
	viewport viewport.Model
	data     Data
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetData(d Data) {
	m.data = d
	m.Render()
}

func (m *Model) Render() {
	m.viewport.SetContent(Render(m.data))
}

// Render formats d as plain styled text
func Render(d Data) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Streaks"))
	b.WriteString("\n")
	b.WriteString(streakLine("Longest", d.Longest))
	b.WriteString(streakLine("Shortest", d.Shortest))

	b.WriteString(sectionStyle.Render("Latest batch per habit"))
	b.WriteString("\n")
	if len(d.Latest) == 0 {
		b.WriteString(statusStyle.Render("No archived batches yet. Press 's' to sync."))
		b.WriteString("\n")
	}
	for _, r := range d.Latest {
		b.WriteString(fmt.Sprintf("%s %d/%d done, streak %d %s\n",
			nameStyle.Render(r.HabitName),
			r.CompletedTasksCount, r.BatchSize(),
			r.CurrentStreak,
			statusStyle.Render(r.CreatedAt.Local().Format(constants.DisplayTimeFormat)),
		))
	}
	return b.String()
}

func streakLine(label string, s *models.StreakStat) string {
	if s == nil {
		return fmt.Sprintf("%s %s\n", nameStyle.Render(label), statusStyle.Render("none"))
	}
	return fmt.Sprintf("%s %s (%d)\n", nameStyle.Render(label), s.HabitName, s.Streak)
}
