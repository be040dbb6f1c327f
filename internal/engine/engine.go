// Package engine runs the finish, archive, restreak and refill cycle that
// keeps every habit's task batch in step with its periodicity.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

// Refill records the tasks regenerated for one habit
type Refill struct {
	HabitID   int64         `json:"habit_id"`
	HabitName string        `json:"habit_name"`
	Tasks     []models.Task `json:"tasks"`
}

// Result summarizes one engine run
type Result struct {
	SyncID    string          `json:"sync_id"`
	StartedAt time.Time       `json:"started_at"`
	Archived  []models.Report `json:"archived"`
	Refilled  []Refill        `json:"refilled"`
}

// Empty reports whether the run changed nothing
func (r Result) Empty() bool {
	return len(r.Archived) == 0 && len(r.Refilled) == 0
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLocker adds a cross-process lock around every run
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// Engine serializes runs within the process; a Locker extends that across
// processes.
type Engine struct {
	store  storage.Provider
	clock  func() time.Time
	locker lock.Locker

	mu sync.Mutex
}

// New builds an engine over store. Archival and completion stamps come from
// the engine clock while refilled tasks are stamped by the store, so a
// WithClock clock must be the one the store was built with.
func New(store storage.Provider, opts ...Option) *Engine {
	e := &Engine{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync archives every finished habit and then refills every habit left
// without tasks.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	return e.run(ctx, true, true)
}

// Finish runs only the archival step
func (e *Engine) Finish(ctx context.Context) (Result, error) {
	return e.run(ctx, true, false)
}

// Refill runs only the refill step
func (e *Engine) Refill(ctx context.Context) (Result, error) {
	return e.run(ctx, false, true)
}

func (e *Engine) run(ctx context.Context, finish, refill bool) (res Result, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			if uerr := unlock(); uerr != nil {
				logger.Warn("Failed to release sync lock", "error", uerr)
			}
		}()
	}

	res = Result{
		SyncID:    uuid.NewString(),
		StartedAt: e.clock().UTC(),
		Archived:  []models.Report{},
		Refilled:  []Refill{},
	}
	log := syncLogger{id: res.SyncID}
	log.debug("Sync started", "finish", finish, "refill", refill)

	if finish {
		if err := e.finish(ctx, &res, log); err != nil {
			return res, err
		}
	}
	if refill {
		if err := e.refill(ctx, &res, log); err != nil {
			return res, err
		}
	}

	log.info("Sync completed", "archived", len(res.Archived), "refilled", len(res.Refilled))
	return res, nil
}

func (e *Engine) finish(ctx context.Context, res *Result, log syncLogger) error {
	now := e.clock().UTC()
	candidates, err := e.store.Habits().List(ctx, storage.HabitsFinishedAsOf(now))
	if err != nil {
		return fmt.Errorf("list finished habits: %w", err)
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			report   models.Report
			archived bool
		)
		err := e.store.WithinTx(ctx, func(repos storage.Repositories) error {
			var err error
			report, archived, err = archive(ctx, repos, candidate.ID, now, res.SyncID)
			return err
		})
		if err != nil {
			return fmt.Errorf("archive habit %d: %w", candidate.ID, err)
		}
		if !archived {
			log.debug("Habit no longer finished, skipped", "habit", candidate.ID)
			continue
		}

		res.Archived = append(res.Archived, report)
		log.info("Archived batch",
			"habit", report.HabitName,
			"completed", report.CompletedTasksCount,
			"uncompleted", report.UncompletedTasksCount,
			"streak", report.CurrentStreak,
		)
	}
	return nil
}

// archive is one habit's unit: snapshot the batch, drop it and restreak.
// It must run inside a transaction.
func archive(ctx context.Context, repos storage.Repositories, habitID int64, now time.Time, syncID string) (models.Report, bool, error) {
	habit, err := repos.Habits().Get(ctx, habitID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted since it was listed
		return models.Report{}, false, nil
	}
	if err != nil {
		return models.Report{}, false, err
	}
	batch, err := repos.Tasks().ForHabit(ctx, habitID)
	if err != nil {
		return models.Report{}, false, err
	}

	_, uncompleted := models.CountCompletion(batch)
	if !habit.IsFinished(now, uncompleted) {
		return models.Report{}, false, nil
	}

	report, err := repos.Reports().Append(ctx, models.NewReport(habit, batch, now, syncID))
	if err != nil {
		return models.Report{}, false, err
	}
	if _, err := repos.Tasks().DeleteForHabit(ctx, habitID); err != nil {
		return models.Report{}, false, err
	}

	habit.Restreak(uncompleted, now)
	if err := repos.Habits().Update(ctx, habit); err != nil {
		return models.Report{}, false, err
	}
	return report, true, nil
}

func (e *Engine) refill(ctx context.Context, res *Result, log syncLogger) error {
	empty, err := e.store.Habits().List(ctx, storage.HabitsWithoutTasks())
	if err != nil {
		return fmt.Errorf("list habits without tasks: %w", err)
	}

	for _, habit := range empty {
		if err := ctx.Err(); err != nil {
			return err
		}

		var created []models.Task
		err := e.store.WithinTx(ctx, func(repos storage.Repositories) error {
			created = created[:0]
			for _, description := range habit.Template {
				task, err := repos.Tasks().Create(ctx, habit.ID, description)
				if err != nil {
					return err
				}
				created = append(created, task)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("refill habit %d: %w", habit.ID, err)
		}

		res.Refilled = append(res.Refilled, Refill{HabitID: habit.ID, HabitName: habit.Name, Tasks: created})
		log.info("Refilled tasks", "habit", habit.Name, "tasks", len(created), "streak", habit.Streak)
	}
	return nil
}

// CompleteTask marks one task done. Completion advances the owning habit's
// period anchor, so it is serialized with sync runs.
func (e *Engine) CompleteTask(ctx context.Context, id int64) (models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var task models.Task
	err := e.store.WithinTx(ctx, func(repos storage.Repositories) error {
		var err error
		if task, err = repos.Tasks().Get(ctx, id); err != nil {
			return err
		}
		if err := task.Complete(e.clock().UTC()); err != nil {
			return err
		}
		return repos.Tasks().Update(ctx, task)
	})
	if err != nil {
		return models.Task{}, err
	}
	logger.Debug("Task completed", "task", task.ID, "habit", task.HabitID)
	return task, nil
}

type syncLogger struct{ id string }

func (l syncLogger) debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, append([]interface{}{"sync_id", l.id}, keyvals...)...)
}

func (l syncLogger) info(msg string, keyvals ...interface{}) {
	logger.Info(msg, append([]interface{}{"sync_id", l.id}, keyvals...)...)
}
