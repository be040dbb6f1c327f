package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

const entityTask = "task"

type taskRepo struct{ c conn }

// touchHabit advances a habit's updated_at and fails with ErrNotFound when the
// habit does not exist.
func (c conn) touchHabit(ctx context.Context, habitID int64, at time.Time) error {
	n, err := c.exec(ctx, c.builder().
		Update("habits").
		Set("updated_at", formatTime(at)).
		Where(sq.Eq{"id": habitID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: habit %d", storage.ErrNotFound, habitID)
	}
	return nil
}

func (r taskRepo) Create(ctx context.Context, habitID int64, description string) (models.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return models.Task{}, fmt.Errorf("%w: task description must not be empty", storage.ErrInvalid)
	}

	stamp := formatTime(r.c.now())
	now, _ := parseTime(stamp)
	var id int64
	err := r.c.atomic(ctx, func(c conn) error {
		if err := c.touchHabit(ctx, habitID, now); err != nil {
			return err
		}
		return c.get(ctx, &id, c.builder().
			Insert("tasks").
			Columns("habit_id", "description", "completed", "created_at", "updated_at").
			Values(habitID, description, false, stamp, stamp).
			Suffix("RETURNING id"))
	})
	if err != nil {
		return models.Task{}, storage.Wrap("create", entityTask, err)
	}

	return models.Task{
		ID:          id,
		HabitID:     habitID,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r taskRepo) Get(ctx context.Context, id int64) (models.Task, error) {
	var row taskRow
	err := r.c.get(ctx, &row, r.c.builder().
		Select(taskColumns...).
		From("tasks t").
		Where(sq.Eq{"t.id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Task{}, storage.Wrap("get", entityTask, err)
	}
	t, err := row.toModel()
	if err != nil {
		return models.Task{}, storage.Wrap("get", entityTask, err)
	}
	return t, nil
}

func (r taskRepo) List(ctx context.Context, habitID *int64) ([]models.TaskView, error) {
	b := r.c.builder().
		Select("t.id", "t.habit_id", "h.name AS habit_name", "t.description", "t.completed").
		From("tasks t").
		Join("habits h ON h.id = t.habit_id")
	if habitID != nil {
		b = b.Where(sq.Eq{"t.habit_id": *habitID})
	}

	rows := []models.TaskView{}
	if err := r.c.selectAll(ctx, &rows, b.OrderBy("t.habit_id", "t.id")); err != nil {
		return nil, storage.Wrap("list", entityTask, err)
	}
	return rows, nil
}

func (r taskRepo) ForHabit(ctx context.Context, habitID int64) ([]models.Task, error) {
	var rows []taskRow
	err := r.c.selectAll(ctx, &rows, r.c.builder().
		Select(taskColumns...).
		From("tasks t").
		Where(sq.Eq{"t.habit_id": habitID}).
		OrderBy("t.id"))
	if err != nil {
		return nil, storage.Wrap("list", entityTask, err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, storage.Wrap("list", entityTask, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Update persists completion. Descriptions are fixed at creation and a
// completed task cannot be reopened.
func (r taskRepo) Update(ctx context.Context, task models.Task) error {
	if !task.IsSaved() {
		return storage.ErrUnsaved
	}
	updated := task.UpdatedAt
	if updated.IsZero() {
		updated = r.c.now()
	}

	err := r.c.atomic(ctx, func(c conn) error {
		var completed bool
		err := c.get(ctx, &completed, c.builder().
			Select("completed").
			From("tasks").
			Where(sq.Eq{"id": task.ID, "habit_id": task.HabitID}))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: task %d of habit %d", storage.ErrNotFound, task.ID, task.HabitID)
		}
		if err != nil {
			return err
		}
		if completed && !task.Completed {
			return fmt.Errorf("%w: task %d is already completed", storage.ErrInvalid, task.ID)
		}

		if _, err := c.exec(ctx, c.builder().
			Update("tasks").
			Set("completed", task.Completed).
			Set("updated_at", formatTime(updated)).
			Where(sq.Eq{"id": task.ID, "habit_id": task.HabitID})); err != nil {
			return err
		}
		return c.touchHabit(ctx, task.HabitID, updated)
	})
	return storage.Wrap("update", entityTask, err)
}

func (r taskRepo) Delete(ctx context.Context, id int64) error {
	n, err := r.c.exec(ctx, r.c.builder().Delete("tasks").Where(sq.Eq{"id": id}))
	if err != nil {
		return storage.Wrap("delete", entityTask, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %d", storage.ErrNotFound, id)
	}
	return nil
}

func (r taskRepo) DeleteForHabit(ctx context.Context, habitID int64) (int64, error) {
	n, err := r.c.exec(ctx, r.c.builder().Delete("tasks").Where(sq.Eq{"habit_id": habitID}))
	if err != nil {
		return 0, storage.Wrap("delete batch", entityTask, err)
	}
	return n, nil
}
