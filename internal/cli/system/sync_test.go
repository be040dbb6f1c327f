package system

import (
	"testing"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

func TestSyncCmd(t *testing.T) {
	ctx := clitest.NewContext(t)
	habit := clitest.AddHabit(t, ctx, "Reading", models.PeriodicityWeekly, "Read", "Summarize")

	// The batch is open and nothing is completed
	if err := (&SyncCmd{}).Run(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	reports, err := ctx.Store.Reports().List(ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no reports for an open batch, got %d", len(reports))
	}

	tasks, err := ctx.Store.Tasks().ForHabit(ctx.Context(), habit.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range tasks {
		if _, err := ctx.Engine.CompleteTask(ctx.Context(), task.ID); err != nil {
			t.Fatal(err)
		}
	}

	ctx.Config.BackupBeforeSync = true
	if err := (&SyncCmd{}).Run(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	reports, err = ctx.Store.Reports().List(ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].CompletedTasksCount != 2 {
		t.Fatalf("expected one fully completed report, got %+v", reports)
	}
	refilled, err := ctx.Store.Tasks().ForHabit(ctx.Context(), habit.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(refilled) != 2 || refilled[0].Completed || refilled[1].Completed {
		t.Errorf("expected a fresh batch of two open tasks, got %+v", refilled)
	}

	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Errorf("expected a backup before the second sync, got %d", len(backups))
	}
}

func TestSyncCmdModes(t *testing.T) {
	ctx := clitest.NewContext(t)
	habit, err := ctx.Store.Habits().Create(ctx.Context(), "Running", models.PeriodicityDaily, []string{"Stretch", "Run"})
	if err != nil {
		t.Fatal(err)
	}

	if err := (&SyncCmd{RefillOnly: true}).Run(ctx); err != nil {
		t.Fatalf("refill failed: %v", err)
	}
	tasks, err := ctx.Store.Tasks().ForHabit(ctx.Context(), habit.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 refilled tasks, got %d", len(tasks))
	}

	if err := (&SyncCmd{FinishOnly: true}).Run(ctx); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	empty, err := ctx.Store.Habits().List(ctx.Context(), storage.HabitsWithoutTasks())
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("an open batch must not be archived, %d habits lost their tasks", len(empty))
	}
}
