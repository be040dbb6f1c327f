package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

const entityHabit = "habit"

type habitRepo struct{ c conn }

func (r habitRepo) Create(ctx context.Context, name string, periodicity models.Periodicity, template []string) (models.Habit, error) {
	name = strings.TrimSpace(name)
	if err := models.ValidateHabit(name, periodicity, template); err != nil {
		return models.Habit{}, fmt.Errorf("%w: %w", storage.ErrInvalid, err)
	}

	tmpl, err := json.Marshal(template)
	if err != nil {
		return models.Habit{}, storage.Wrap("encode template", entityHabit, err)
	}

	now := r.c.now().UTC()
	stamp := formatTime(now)
	var id int64
	err = r.c.get(ctx, &id, r.c.builder().
		Insert("habits").
		Columns("name", "periodicity", "template", "streak", "created_at", "updated_at").
		Values(name, string(periodicity), string(tmpl), 0, stamp, stamp).
		Suffix("RETURNING id"))
	if err != nil {
		if r.c.dialect.IsUniqueViolation(err) {
			return models.Habit{}, fmt.Errorf("%w: %q", storage.ErrDuplicateName, name)
		}
		return models.Habit{}, storage.Wrap("create", entityHabit, err)
	}

	// Round-trip through the stored format so callers see what a later Get returns
	created, _ := parseTime(stamp)
	return models.Habit{
		ID:          id,
		Name:        name,
		Periodicity: periodicity,
		Template:    append([]string(nil), template...),
		CreatedAt:   created,
		UpdatedAt:   created,
	}, nil
}

func (r habitRepo) Get(ctx context.Context, id int64) (models.Habit, error) {
	var row habitRow
	err := r.c.get(ctx, &row, r.c.builder().
		Select(habitColumns...).
		From("habits h").
		Where(sq.Eq{"h.id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("%w: habit %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Habit{}, storage.Wrap("get", entityHabit, err)
	}
	h, err := row.toModel()
	if err != nil {
		return models.Habit{}, storage.Wrap("get", entityHabit, err)
	}
	return h, nil
}

func (r habitRepo) List(ctx context.Context, q storage.HabitQuery) ([]models.Habit, error) {
	b := r.c.builder().Select(habitColumns...).From("habits h")

	switch q.Filter {
	case storage.FilterAll:
	case storage.FilterWithoutTasks:
		b = b.Where("NOT EXISTS (SELECT 1 FROM tasks t WHERE t.habit_id = h.id)")
	case storage.FilterFinished:
		b = b.Where(finishedPredicate(q))
	case storage.FilterPeriodicity:
		if !q.Periodicity.Valid() {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalid, models.ErrInvalidPeriodicity)
		}
		b = b.Where(sq.Eq{"h.periodicity": string(q.Periodicity)})
	default:
		return nil, fmt.Errorf("%w: unknown habit filter %d", storage.ErrInvalid, q.Filter)
	}

	var rows []habitRow
	if err := r.c.selectAll(ctx, &rows, b.OrderBy("h.id")); err != nil {
		return nil, storage.Wrap("list", entityHabit, err)
	}
	habits, err := habitsFromRows(rows)
	if err != nil {
		return nil, storage.Wrap("list", entityHabit, err)
	}
	return habits, nil
}

// finishedPredicate mirrors models.Habit.IsFinished: the period has elapsed
// since updated_at, or no task of the habit is left uncompleted.
func finishedPredicate(q storage.HabitQuery) sq.Sqlizer {
	asOf := q.AsOf
	elapsed := sq.Or{}
	for _, p := range models.Periodicities {
		elapsed = append(elapsed, sq.And{
			sq.Eq{"h.periodicity": string(p)},
			sq.LtOrEq{"h.updated_at": formatTime(asOf.Add(-p.Period()))},
		})
	}
	return append(elapsed,
		sq.Expr("NOT EXISTS (SELECT 1 FROM tasks t WHERE t.habit_id = h.id AND NOT t.completed)"),
	)
}

func (r habitRepo) Update(ctx context.Context, habit models.Habit) error {
	if !habit.IsSaved() {
		return storage.ErrUnsaved
	}
	if strings.TrimSpace(habit.Name) == "" || !habit.Periodicity.Valid() || habit.Streak < 0 {
		return fmt.Errorf("%w: habit %d has an empty name, unknown periodicity or negative streak", storage.ErrInvalid, habit.ID)
	}

	tmpl, err := json.Marshal(habit.Template)
	if err != nil {
		return storage.Wrap("encode template", entityHabit, err)
	}
	updated := habit.UpdatedAt
	if updated.IsZero() {
		updated = r.c.now()
	}

	n, err := r.c.exec(ctx, r.c.builder().
		Update("habits").
		Set("name", habit.Name).
		Set("periodicity", string(habit.Periodicity)).
		Set("template", string(tmpl)).
		Set("streak", habit.Streak).
		Set("updated_at", formatTime(updated)).
		Where(sq.Eq{"id": habit.ID}))
	if err != nil {
		if r.c.dialect.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %q", storage.ErrDuplicateName, habit.Name)
		}
		return storage.Wrap("update", entityHabit, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: habit %d", storage.ErrNotFound, habit.ID)
	}
	return nil
}

func (r habitRepo) Delete(ctx context.Context, id int64) error {
	if id == 0 {
		return storage.ErrUnsaved
	}
	err := r.c.atomic(ctx, func(c conn) error {
		if _, err := c.exec(ctx, c.builder().Delete("tasks").Where(sq.Eq{"habit_id": id})); err != nil {
			return err
		}
		n, err := c.exec(ctx, c.builder().Delete("habits").Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: habit %d", storage.ErrNotFound, id)
		}
		return nil
	})
	return storage.Wrap("delete", entityHabit, err)
}

func (r habitRepo) Overview(ctx context.Context) ([]models.HabitOverview, error) {
	var rows []models.HabitOverview
	err := r.c.selectAll(ctx, &rows, r.c.builder().
		Select(
			"h.id", "h.name", "h.periodicity", "h.streak",
			"COUNT(t.id) AS task_count",
			"COALESCE(SUM(CASE WHEN t.completed THEN 1 ELSE 0 END), 0) AS completed_count",
		).
		From("habits h").
		LeftJoin("tasks t ON t.habit_id = h.id").
		GroupBy("h.id", "h.name", "h.periodicity", "h.streak").
		OrderBy("h.id"))
	if err != nil {
		return nil, storage.Wrap("overview", entityHabit, err)
	}
	if rows == nil {
		rows = []models.HabitOverview{}
	}
	return rows, nil
}
