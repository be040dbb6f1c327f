package sqlrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
)

// Timestamps are stored as fixed-width UTC text so they order and compare
// lexicographically on every driver.
func formatTime(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(constants.TimestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

var habitColumns = []string{"h.id", "h.name", "h.periodicity", "h.template", "h.streak", "h.created_at", "h.updated_at"}

type habitRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Periodicity string `db:"periodicity"`
	Template    string `db:"template"`
	Streak      int    `db:"streak"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r habitRow) toModel() (models.Habit, error) {
	h := models.Habit{
		ID:          r.ID,
		Name:        r.Name,
		Periodicity: models.Periodicity(r.Periodicity),
		Streak:      r.Streak,
	}
	if err := json.Unmarshal([]byte(r.Template), &h.Template); err != nil {
		return h, fmt.Errorf("habit %d: decode template: %w", r.ID, err)
	}
	var err error
	if h.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return h, err
	}
	if h.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return h, err
	}
	return h, nil
}

func habitsFromRows(rows []habitRow) ([]models.Habit, error) {
	out := make([]models.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

var taskColumns = []string{"t.id", "t.habit_id", "t.description", "t.completed", "t.created_at", "t.updated_at"}

type taskRow struct {
	ID          int64  `db:"id"`
	HabitID     int64  `db:"habit_id"`
	Description string `db:"description"`
	Completed   bool   `db:"completed"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r taskRow) toModel() (models.Task, error) {
	t := models.Task{
		ID:          r.ID,
		HabitID:     r.HabitID,
		Description: r.Description,
		Completed:   r.Completed,
	}
	var err error
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return t, err
	}
	return t, nil
}

var reportColumns = []string{
	"id", "habit_id", "habit_name", "periodicity", "current_streak",
	"completed_tasks_count", "uncompleted_tasks_count", "raw_data", "sync_id", "created_at",
}

type reportRow struct {
	ID                    int64  `db:"id"`
	HabitID               int64  `db:"habit_id"`
	HabitName             string `db:"habit_name"`
	Periodicity           string `db:"periodicity"`
	CurrentStreak         int    `db:"current_streak"`
	CompletedTasksCount   int    `db:"completed_tasks_count"`
	UncompletedTasksCount int    `db:"uncompleted_tasks_count"`
	RawData               string `db:"raw_data"`
	SyncID                string `db:"sync_id"`
	CreatedAt             string `db:"created_at"`
}

func (r reportRow) toModel() (models.Report, error) {
	rep := models.Report{
		ID:                    r.ID,
		HabitID:               r.HabitID,
		HabitName:             r.HabitName,
		Periodicity:           models.Periodicity(r.Periodicity),
		CurrentStreak:         r.CurrentStreak,
		CompletedTasksCount:   r.CompletedTasksCount,
		UncompletedTasksCount: r.UncompletedTasksCount,
		SyncID:                r.SyncID,
		RawData:               []models.TaskSnapshot{},
	}
	if err := json.Unmarshal([]byte(r.RawData), &rep.RawData); err != nil {
		return rep, fmt.Errorf("report %d: decode raw data: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return rep, err
	}
	rep.CreatedAt = created
	return rep, nil
}

func reportsFromRows(rows []reportRow) ([]models.Report, error) {
	out := make([]models.Report, 0, len(rows))
	for _, r := range rows {
		rep, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}
