package reports

import (
	"testing"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/models"
)

func TestReportCommandsWithoutData(t *testing.T) {
	ctx := clitest.NewContext(t)

	cmds := []interface{ Run(*cli.Context) error }{
		&ReportOverviewCmd{},
		&ReportPeriodicityCmd{Periodicity: "weekly"},
		&ReportLongestCmd{},
		&ReportLongestCmd{Habit: 3},
		&ReportShortestCmd{},
		&ReportSnapshotCmd{},
		&ReportListCmd{},
	}
	for _, cmd := range cmds {
		if err := cmd.Run(ctx); err != nil {
			t.Errorf("%T failed on an empty database: %v", cmd, err)
		}
	}
}

func TestReportCommandsAfterSync(t *testing.T) {
	ctx := clitest.NewContext(t)
	clitest.AddHabit(t, ctx, "Reading", models.PeriodicityDaily, "Read")

	// Complete the batch so the next sync archives it
	batch, err := ctx.Store.Tasks().List(ctx.Context(), nil)
	if err != nil {
		t.Fatal(err)
	}
	task, err := ctx.Store.Tasks().Get(ctx.Context(), batch[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	task.Completed = true
	if err := ctx.Store.Tasks().Update(ctx.Context(), task); err != nil {
		t.Fatal(err)
	}
	res, err := ctx.Engine.Sync(ctx.Context())
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(res.Archived) != 1 {
		t.Fatalf("expected one archived batch, got %d", len(res.Archived))
	}

	cmds := []interface{ Run(*cli.Context) error }{
		&ReportPeriodicityCmd{Periodicity: "daily"},
		&ReportLongestCmd{},
		&ReportSnapshotCmd{},
		&ReportListCmd{Tasks: true},
		&ReportListCmd{Habit: res.Archived[0].HabitID},
	}
	for _, cmd := range cmds {
		if err := cmd.Run(ctx); err != nil {
			t.Errorf("%T failed: %v", cmd, err)
		}
	}

	if err := (&ReportPeriodicityCmd{Periodicity: "hourly"}).Run(ctx); err == nil {
		t.Error("expected an invalid periodicity to fail")
	}
}
