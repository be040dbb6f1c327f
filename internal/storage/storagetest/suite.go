// Package storagetest holds the behaviour every storage.Provider must show.
// Driver packages run it against a real database.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

// Clock is a settable clock for stores under test
type Clock struct{ T time.Time }

func (c *Clock) Now() time.Time          { return c.T }
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Factory returns an initialized, empty provider wired to clock
type Factory func(t *testing.T, clock *Clock) storage.Provider

// Start is the fixed instant suites begin at
var Start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// Run exercises the repositories of the providers built by newProvider
func Run(t *testing.T, newProvider Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, p storage.Provider, clock *Clock)
	}{
		{"HabitCRUD", testHabitCRUD},
		{"DuplicateName", testDuplicateName},
		{"InvalidHabit", testInvalidHabit},
		{"UnsavedAndMissing", testUnsavedAndMissing},
		{"TaskLifecycle", testTaskLifecycle},
		{"DeleteHabitCascades", testDeleteHabitCascades},
		{"HabitFilters", testHabitFilters},
		{"Overview", testOverview},
		{"ReportAggregates", testReportAggregates},
		{"WithinTxRollsBack", testWithinTxRollsBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &Clock{T: Start}
			tt.fn(t, newProvider(t, clock), clock)
		})
	}
}

func testHabitCRUD(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	h, err := p.Habits().Create(ctx, "  Reading  ", models.PeriodicityWeekly, []string{"Pick a book", "Read 30 pages"})
	require.NoError(t, err)
	assert.NotZero(t, h.ID)
	assert.Equal(t, "Reading", h.Name)
	assert.Equal(t, 0, h.Streak)
	assert.True(t, h.CreatedAt.Equal(Start))

	got, err := p.Habits().Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Template, got.Template)
	assert.Equal(t, models.PeriodicityWeekly, got.Periodicity)
	assert.True(t, got.UpdatedAt.Equal(Start))

	clock.Advance(time.Hour)
	got.Streak = 3
	got.Touch(clock.Now())
	require.NoError(t, p.Habits().Update(ctx, got))

	again, err := p.Habits().Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Streak)
	assert.True(t, again.UpdatedAt.Equal(Start.Add(time.Hour)))

	all, err := p.Habits().List(ctx, storage.AllHabits())
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, p.Habits().Delete(ctx, h.ID))
	_, err = p.Habits().Get(ctx, h.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDuplicateName(t *testing.T, p storage.Provider, _ *Clock) {
	ctx := context.Background()

	_, err := p.Habits().Create(ctx, "Stretch", models.PeriodicityDaily, []string{"Hamstrings"})
	require.NoError(t, err)

	_, err = p.Habits().Create(ctx, "Stretch", models.PeriodicityMonthly, []string{"Back"})
	assert.ErrorIs(t, err, storage.ErrDuplicateName)

	other, err := p.Habits().Create(ctx, "Stretch more", models.PeriodicityDaily, []string{"Calves"})
	require.NoError(t, err)
	other.Name = "Stretch"
	assert.ErrorIs(t, p.Habits().Update(ctx, other), storage.ErrDuplicateName)
}

func testInvalidHabit(t *testing.T, p storage.Provider, _ *Clock) {
	ctx := context.Background()

	_, err := p.Habits().Create(ctx, "", models.PeriodicityDaily, []string{"x"})
	assert.ErrorIs(t, err, storage.ErrInvalid)
	_, err = p.Habits().Create(ctx, "Yearly", models.Periodicity("yearly"), []string{"x"})
	assert.ErrorIs(t, err, storage.ErrInvalid)
	_, err = p.Habits().Create(ctx, "Empty", models.PeriodicityDaily, nil)
	assert.ErrorIs(t, err, storage.ErrInvalid)
}

func testUnsavedAndMissing(t *testing.T, p storage.Provider, _ *Clock) {
	ctx := context.Background()

	assert.ErrorIs(t, p.Habits().Update(ctx, models.Habit{Name: "x", Periodicity: models.PeriodicityDaily}), storage.ErrUnsaved)
	assert.ErrorIs(t, p.Tasks().Update(ctx, models.Task{Description: "x"}), storage.ErrUnsaved)

	assert.ErrorIs(t, p.Habits().Update(ctx, models.Habit{ID: 999, Name: "x", Periodicity: models.PeriodicityDaily}), storage.ErrNotFound)
	assert.ErrorIs(t, p.Habits().Delete(ctx, 999), storage.ErrNotFound)
	_, err := p.Tasks().Get(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.Tasks().Create(ctx, 999, "orphan")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.Reports().Get(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTaskLifecycle(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	h, err := p.Habits().Create(ctx, "Chores", models.PeriodicityDaily, []string{"Dishes", "Laundry"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	for _, d := range h.Template {
		_, err := p.Tasks().Create(ctx, h.ID, d)
		require.NoError(t, err)
	}

	touched, err := p.Habits().Get(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, touched.UpdatedAt.Equal(clock.Now()), "task creation advances updated_at")

	batch, err := p.Tasks().ForHabit(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "Dishes", batch[0].Description)
	assert.Equal(t, "Laundry", batch[1].Description)

	clock.Advance(time.Minute)
	task := batch[0]
	require.NoError(t, task.Complete(clock.Now()))
	require.NoError(t, p.Tasks().Update(ctx, task))

	reloaded, err := p.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed)
	assert.True(t, errors.Is(reloaded.Complete(clock.Now()), models.ErrAlreadyCompleted))

	reopened := reloaded
	reopened.Completed = false
	reopened.Description = "Something else"
	assert.ErrorIs(t, p.Tasks().Update(ctx, reopened), storage.ErrInvalid)
	reloaded, err = p.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Completed)
	assert.Equal(t, "Dishes", reloaded.Description)

	touched, err = p.Habits().Get(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, touched.UpdatedAt.Equal(clock.Now()), "completion advances updated_at")

	views, err := p.Tasks().List(ctx, &h.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Chores", views[0].HabitName)
	assert.True(t, views[0].Completed)

	_, err = p.Tasks().Create(ctx, h.ID, "   ")
	assert.ErrorIs(t, err, storage.ErrInvalid)

	n, err := p.Tasks().DeleteForHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.ErrorIs(t, p.Tasks().Delete(ctx, task.ID), storage.ErrNotFound)
}

func testDeleteHabitCascades(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	h, err := p.Habits().Create(ctx, "Water plants", models.PeriodicityWeekly, []string{"Balcony"})
	require.NoError(t, err)
	_, err = p.Tasks().Create(ctx, h.ID, "Balcony")
	require.NoError(t, err)

	h, err = p.Habits().Get(ctx, h.ID)
	require.NoError(t, err)
	rep, err := p.Reports().Append(ctx, models.NewReport(h, nil, clock.Now(), ""))
	require.NoError(t, err)

	require.NoError(t, p.Habits().Delete(ctx, h.ID))

	views, err := p.Tasks().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, views)

	kept, err := p.Reports().Get(ctx, rep.ID)
	require.NoError(t, err, "reports outlive their habit")
	assert.Equal(t, "Water plants", kept.HabitName)
}

func testHabitFilters(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	daily, err := p.Habits().Create(ctx, "Daily", models.PeriodicityDaily, []string{"a", "b"})
	require.NoError(t, err)
	weekly, err := p.Habits().Create(ctx, "Weekly", models.PeriodicityWeekly, []string{"a"})
	require.NoError(t, err)
	empty, err := p.Habits().Create(ctx, "Empty", models.PeriodicityMonthly, []string{"a"})
	require.NoError(t, err)

	for _, id := range []int64{daily.ID, weekly.ID} {
		_, err := p.Tasks().Create(ctx, id, "a")
		require.NoError(t, err)
	}

	without, err := p.Habits().List(ctx, storage.HabitsWithoutTasks())
	require.NoError(t, err)
	require.Len(t, without, 1)
	assert.Equal(t, empty.ID, without[0].ID)

	byP, err := p.Habits().List(ctx, storage.HabitsByPeriodicity(models.PeriodicityWeekly))
	require.NoError(t, err)
	require.Len(t, byP, 1)
	assert.Equal(t, weekly.ID, byP[0].ID)

	_, err = p.Habits().List(ctx, storage.HabitsByPeriodicity(models.Periodicity("hourly")))
	assert.ErrorIs(t, err, storage.ErrInvalid)

	// Just before the daily boundary only the task-less habit is finished
	finished, err := p.Habits().List(ctx, storage.HabitsFinishedAsOf(clock.Now().Add(24*time.Hour-time.Second)))
	require.NoError(t, err)
	assert.Equal(t, []int64{empty.ID}, habitIDs(finished))

	finished, err = p.Habits().List(ctx, storage.HabitsFinishedAsOf(clock.Now().Add(24*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, []int64{daily.ID, empty.ID}, habitIDs(finished))

	finished, err = p.Habits().List(ctx, storage.HabitsFinishedAsOf(clock.Now().Add(7*24*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, []int64{daily.ID, weekly.ID, empty.ID}, habitIDs(finished))

	// The SQL predicate agrees with the model predicate
	asOf := clock.Now().Add(30 * time.Minute)
	all, err := p.Habits().List(ctx, storage.AllHabits())
	require.NoError(t, err)
	finished, err = p.Habits().List(ctx, storage.HabitsFinishedAsOf(asOf))
	require.NoError(t, err)
	var want []int64
	for _, h := range all {
		batch, err := p.Tasks().ForHabit(ctx, h.ID)
		require.NoError(t, err)
		_, uncompleted := models.CountCompletion(batch)
		if h.IsFinished(asOf, uncompleted) {
			want = append(want, h.ID)
		}
	}
	assert.Equal(t, want, habitIDs(finished))
}

func habitIDs(habits []models.Habit) []int64 {
	ids := []int64{}
	for _, h := range habits {
		ids = append(ids, h.ID)
	}
	return ids
}

func testOverview(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	h, err := p.Habits().Create(ctx, "Gym", models.PeriodicityWeekly, []string{"Legs", "Arms", "Cardio"})
	require.NoError(t, err)
	_, err = p.Habits().Create(ctx, "Idle", models.PeriodicityDaily, []string{"Nothing"})
	require.NoError(t, err)

	var first models.Task
	for i, d := range h.Template {
		task, err := p.Tasks().Create(ctx, h.ID, d)
		require.NoError(t, err)
		if i == 0 {
			first = task
		}
	}
	require.NoError(t, first.Complete(clock.Now()))
	require.NoError(t, p.Tasks().Update(ctx, first))

	rows, err := p.Habits().Overview(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gym", rows[0].Name)
	assert.Equal(t, 3, rows[0].TaskCount)
	assert.Equal(t, 1, rows[0].CompletedCount)
	assert.Equal(t, 0, rows[1].TaskCount)
	assert.Equal(t, 0, rows[1].CompletedCount)
}

func testReportAggregates(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	_, err := p.Reports().MaxStreak(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = p.Reports().MinPositiveStreak(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	add := func(habitID int64, name string, per models.Periodicity, streak int) models.Report {
		t.Helper()
		clock.Advance(time.Minute)
		r, err := p.Reports().Append(ctx, models.Report{
			HabitID:             habitID,
			HabitName:           name,
			Periodicity:         per,
			CurrentStreak:       streak,
			CompletedTasksCount: 1,
			RawData:             []models.TaskSnapshot{{ID: 1, Description: "x", Completed: true}},
		})
		require.NoError(t, err)
		return r
	}

	add(1, "A", models.PeriodicityDaily, 0)
	add(1, "A", models.PeriodicityDaily, 4)
	add(2, "B", models.PeriodicityWeekly, 2)
	add(2, "B", models.PeriodicityWeekly, 6)
	lastA := add(1, "A", models.PeriodicityDaily, 5)
	lastB := add(2, "B", models.PeriodicityWeekly, 0)

	all, err := p.Reports().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	require.Len(t, all[0].RawData, 1)
	assert.Equal(t, "x", all[0].RawData[0].Description)

	best, err := p.Reports().MaxStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StreakStat{HabitID: 2, HabitName: "B", Streak: 6}, best)

	maxA, err := p.Reports().MaxStreakForHabit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, maxA.Streak)

	_, err = p.Reports().MaxStreakForHabit(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	lowest, err := p.Reports().MinPositiveStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lowest.Streak)
	assert.Equal(t, "B", lowest.HabitName)

	latest, err := p.Reports().LatestPerHabit(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, lastA.ID, latest[0].ID)
	assert.Equal(t, lastB.ID, latest[1].ID)

	weekly, err := p.Reports().ListByPeriodicity(ctx, models.PeriodicityWeekly)
	require.NoError(t, err)
	assert.Len(t, weekly, 3)

	require.NoError(t, p.Reports().Delete(ctx, lastB.ID))
	assert.ErrorIs(t, p.Reports().Delete(ctx, lastB.ID), storage.ErrNotFound)
}

func testWithinTxRollsBack(t *testing.T, p storage.Provider, clock *Clock) {
	ctx := context.Background()

	h, err := p.Habits().Create(ctx, "Journal", models.PeriodicityDaily, []string{"Write"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = p.WithinTx(ctx, func(repos storage.Repositories) error {
		if _, err := repos.Reports().Append(ctx, models.NewReport(h, nil, clock.Now(), "tx")); err != nil {
			return err
		}
		if _, err := repos.Tasks().Create(ctx, h.ID, "Write"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	reports, err := p.Reports().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
	views, err := p.Tasks().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, views)

	err = p.WithinTx(ctx, func(repos storage.Repositories) error {
		_, err := repos.Tasks().Create(ctx, h.ID, "Write")
		return err
	})
	require.NoError(t, err)
	views, err = p.Tasks().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
