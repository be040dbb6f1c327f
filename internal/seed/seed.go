// Package seed fills a database with simulated habit history by replaying
// task completions and syncs day by day on a fake clock.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

var title = cases.Title(language.English)

// ErrNotEmpty is returned when seeding a database that already holds habits
// or reports without Reset.
var ErrNotEmpty = errors.New("database already contains habits or reports")

type Options struct {
	// Days of history to simulate, ending now
	Days           int
	PerPeriodicity int
	TasksPerHabit  int
	// CompletionRate is the chance that an open task gets completed on a given day
	CompletionRate float64
	Seed           int64
	// Reset deletes every habit and report first. Without it Run only seeds
	// an empty database.
	Reset bool
	// Locker, when set, is held for the whole run so no other sync interleaves
	// with the simulated history.
	Locker lock.Locker
}

func DefaultOptions() Options {
	return Options{
		Days:           30,
		PerPeriodicity: 3,
		TasksPerHabit:  4,
		CompletionRate: 0.7,
		Seed:           1,
	}
}

type Summary struct {
	Habits    int
	Completed int
	Archived  int
	Start     time.Time
	End       time.Time
}

// Clock is the settable time source shared by the store and the engine
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{now: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Run simulates opts.Days of usage. store must take its timestamps from
// clock, which Run rewinds to the start of the history and leaves at its end.
// The engine Run drives shares that clock, so task and report stamps agree.
func Run(ctx context.Context, store storage.Provider, clock *Clock, opts Options) (Summary, error) {
	if opts.Days < 1 || opts.PerPeriodicity < 1 || opts.TasksPerHabit < 1 {
		return Summary{}, fmt.Errorf("%w: days, habits and tasks must be positive", storage.ErrInvalid)
	}
	if opts.CompletionRate < 0 || opts.CompletionRate > 1 {
		return Summary{}, fmt.Errorf("%w: completion rate must be between 0 and 1", storage.ErrInvalid)
	}

	if opts.Locker != nil {
		unlock, err := opts.Locker.Lock(ctx)
		if err != nil {
			return Summary{}, err
		}
		defer func() {
			if uerr := unlock(); uerr != nil {
				logger.Warn("Failed to release sync lock", "error", uerr)
			}
		}()
	}

	if opts.Reset {
		if err := reset(ctx, store); err != nil {
			return Summary{}, err
		}
	} else if err := ensureEmpty(ctx, store); err != nil {
		return Summary{}, err
	}

	end := clock.Now()
	start := end.Add(-time.Duration(opts.Days) * 24 * time.Hour)
	clock.Set(start)

	f := gofakeit.New(opts.Seed)
	eng := engine.New(store, engine.WithClock(clock.Now))
	sum := Summary{Start: start, End: end}

	names := map[string]bool{}
	for _, p := range models.Periodicities {
		for i := 0; i < opts.PerPeriodicity; i++ {
			template := make([]string, opts.TasksPerHabit)
			for j := range template {
				template[j] = strings.TrimSuffix(f.Sentence(4), ".")
			}
			if err := createHabit(ctx, store, f, names, p, template); err != nil {
				return sum, err
			}
			sum.Habits++
		}
	}
	if _, err := eng.Refill(ctx); err != nil {
		return sum, err
	}

	for day := 1; day <= opts.Days; day++ {
		clock.Set(start.Add(time.Duration(day) * 24 * time.Hour))

		completed, err := completeSome(ctx, store, f, clock.Now(), opts.CompletionRate)
		if err != nil {
			return sum, err
		}
		sum.Completed += completed

		res, err := eng.Sync(ctx)
		if err != nil {
			return sum, fmt.Errorf("sync on day %d: %w", day, err)
		}
		sum.Archived += len(res.Archived)
		logger.Debug("Seeded day", "day", day, "completed", completed, "archived", len(res.Archived))
	}

	clock.Set(end)
	return sum, nil
}

// createHabit retries with a fresh name when one already exists in the database
func createHabit(ctx context.Context, store storage.Provider, f *gofakeit.Faker, seen map[string]bool, p models.Periodicity, template []string) error {
	for attempt := 0; ; attempt++ {
		_, err := store.Habits().Create(ctx, habitName(f, seen), p, template)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrDuplicateName) || attempt == 9 {
			return fmt.Errorf("create habit: %w", err)
		}
	}
}

func habitName(f *gofakeit.Faker, seen map[string]bool) string {
	base := title.String(f.Verb() + " " + f.Noun())
	name := base
	for n := 2; seen[name]; n++ {
		name = fmt.Sprintf("%s %d", base, n)
	}
	seen[name] = true
	return name
}

func completeSome(ctx context.Context, store storage.Provider, f *gofakeit.Faker, now time.Time, rate float64) (int, error) {
	open, err := store.Tasks().List(ctx, nil)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, view := range open {
		if view.Completed {
			continue
		}
		if rate < 1 && f.Float64Range(0, 1) >= rate {
			continue
		}
		task, err := store.Tasks().Get(ctx, view.ID)
		if err != nil {
			return completed, err
		}
		if err := task.Complete(now); err != nil {
			return completed, err
		}
		if err := store.Tasks().Update(ctx, task); err != nil {
			return completed, fmt.Errorf("complete task %d: %w", task.ID, err)
		}
		completed++
	}
	return completed, nil
}

func ensureEmpty(ctx context.Context, store storage.Provider) error {
	habits, err := store.Habits().List(ctx, storage.AllHabits())
	if err != nil {
		return err
	}
	reports, err := store.Reports().List(ctx)
	if err != nil {
		return err
	}
	if len(habits) > 0 || len(reports) > 0 {
		return fmt.Errorf("%w (%d habits, %d reports)", ErrNotEmpty, len(habits), len(reports))
	}
	return nil
}

func reset(ctx context.Context, store storage.Provider) error {
	return store.WithinTx(ctx, func(repos storage.Repositories) error {
		reports, err := repos.Reports().List(ctx)
		if err != nil {
			return err
		}
		for _, r := range reports {
			if err := repos.Reports().Delete(ctx, r.ID); err != nil {
				return err
			}
		}
		habits, err := repos.Habits().List(ctx, storage.AllHabits())
		if err != nil {
			return err
		}
		for _, h := range habits {
			if err := repos.Habits().Delete(ctx, h.ID); err != nil {
				return err
			}
		}
		return nil
	})
}
