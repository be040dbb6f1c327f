package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/cadence/internal/constants"
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable draws rows under headers with a rounded border
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// PrintTable prints a table, or empty when there are no rows
func PrintTable(headers []string, rows [][]string, empty string) {
	if len(rows) == 0 {
		fmt.Println(MutedStyle.Render(empty))
		return
	}
	fmt.Println(RenderTable(headers, rows))
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(constants.DisplayTimeFormat)
}

func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func Itoa[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// ParseID parses a positive row id
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
