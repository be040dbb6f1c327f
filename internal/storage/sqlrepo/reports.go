package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

const entityReport = "report"

type reportRepo struct{ c conn }

func (r reportRepo) Append(ctx context.Context, report models.Report) (models.Report, error) {
	if report.HabitID == 0 || !report.Periodicity.Valid() {
		return models.Report{}, fmt.Errorf("%w: report needs a habit id and a known periodicity", storage.ErrInvalid)
	}
	if report.CompletedTasksCount < 0 || report.UncompletedTasksCount < 0 || report.CurrentStreak < 0 {
		return models.Report{}, fmt.Errorf("%w: report counts must not be negative", storage.ErrInvalid)
	}

	if report.RawData == nil {
		report.RawData = []models.TaskSnapshot{}
	}
	raw, err := json.Marshal(report.RawData)
	if err != nil {
		return models.Report{}, storage.Wrap("encode raw data", entityReport, err)
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = r.c.now()
	}
	stamp := formatTime(report.CreatedAt)

	var id int64
	err = r.c.get(ctx, &id, r.c.builder().
		Insert("reports").
		Columns(
			"habit_id", "habit_name", "periodicity", "current_streak",
			"completed_tasks_count", "uncompleted_tasks_count", "raw_data", "sync_id", "created_at",
		).
		Values(
			report.HabitID, report.HabitName, string(report.Periodicity), report.CurrentStreak,
			report.CompletedTasksCount, report.UncompletedTasksCount, string(raw), report.SyncID, stamp,
		).
		Suffix("RETURNING id"))
	if err != nil {
		return models.Report{}, storage.Wrap("append", entityReport, err)
	}

	report.ID = id
	report.CreatedAt, _ = parseTime(stamp)
	return report, nil
}

func (r reportRepo) Get(ctx context.Context, id int64) (models.Report, error) {
	var row reportRow
	err := r.c.get(ctx, &row, r.c.builder().Select(reportColumns...).From("reports").Where(sq.Eq{"id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Report{}, fmt.Errorf("%w: report %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return models.Report{}, storage.Wrap("get", entityReport, err)
	}
	rep, err := row.toModel()
	if err != nil {
		return models.Report{}, storage.Wrap("get", entityReport, err)
	}
	return rep, nil
}

func (r reportRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]models.Report, error) {
	var rows []reportRow
	if err := r.c.selectAll(ctx, &rows, b); err != nil {
		return nil, storage.Wrap(op, entityReport, err)
	}
	reports, err := reportsFromRows(rows)
	if err != nil {
		return nil, storage.Wrap(op, entityReport, err)
	}
	return reports, nil
}

func (r reportRepo) List(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, "list", r.c.builder().Select(reportColumns...).From("reports").OrderBy("id"))
}

func (r reportRepo) Delete(ctx context.Context, id int64) error {
	n, err := r.c.exec(ctx, r.c.builder().Delete("reports").Where(sq.Eq{"id": id}))
	if err != nil {
		return storage.Wrap("delete", entityReport, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: report %d", storage.ErrNotFound, id)
	}
	return nil
}

func (r reportRepo) streak(ctx context.Context, op string, b sq.SelectBuilder) (models.StreakStat, error) {
	var stat models.StreakStat
	err := r.c.get(ctx, &stat, b.Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return models.StreakStat{}, fmt.Errorf("%w: no report qualifies for %s", storage.ErrNotFound, op)
	}
	if err != nil {
		return models.StreakStat{}, storage.Wrap(op, entityReport, err)
	}
	return stat, nil
}

func (r reportRepo) streakSelect() sq.SelectBuilder {
	return r.c.builder().Select("habit_id", "habit_name", "current_streak AS streak").From("reports")
}

// MaxStreak returns the report carrying the highest streak. Ties go to the
// earliest report.
func (r reportRepo) MaxStreak(ctx context.Context) (models.StreakStat, error) {
	return r.streak(ctx, "max streak", r.streakSelect().OrderBy("current_streak DESC", "id"))
}

func (r reportRepo) MaxStreakForHabit(ctx context.Context, habitID int64) (models.StreakStat, error) {
	return r.streak(ctx, "max streak for habit", r.streakSelect().
		Where(sq.Eq{"habit_id": habitID}).
		OrderBy("current_streak DESC", "id"))
}

// MinPositiveStreak ignores reports whose streak snapshot is zero
func (r reportRepo) MinPositiveStreak(ctx context.Context) (models.StreakStat, error) {
	return r.streak(ctx, "min streak", r.streakSelect().
		Where(sq.Gt{"current_streak": 0}).
		OrderBy("current_streak", "id"))
}

// LatestPerHabit returns the most recent report of every habit that has one
func (r reportRepo) LatestPerHabit(ctx context.Context) ([]models.Report, error) {
	return r.list(ctx, "latest per habit", r.c.builder().
		Select(reportColumns...).
		From("reports r").
		Where("r.id = (SELECT MAX(r2.id) FROM reports r2 WHERE r2.habit_id = r.habit_id)").
		OrderBy("r.habit_id"))
}

// ListByPeriodicity filters on the periodicity the habit had when archived
func (r reportRepo) ListByPeriodicity(ctx context.Context, p models.Periodicity) ([]models.Report, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalid, models.ErrInvalidPeriodicity)
	}
	return r.list(ctx, "list by periodicity", r.c.builder().
		Select(reportColumns...).
		From("reports").
		Where(sq.Eq{"periodicity": string(p)}).
		OrderBy("id"))
}
