package tasks

import (
	"errors"
	"testing"

	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

func TestTaskCompleteCmd(t *testing.T) {
	ctx := clitest.NewContext(t)
	h := clitest.AddHabit(t, ctx, "Reading", models.PeriodicityDaily, "Read", "Summarize")

	batch, err := ctx.Store.Tasks().ForHabit(ctx.Context(), h.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := (&TaskCompleteCmd{IDs: []int64{batch[0].ID}}).Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	// Completing twice only warns
	if err := (&TaskCompleteCmd{IDs: []int64{batch[0].ID}}).Run(ctx); err != nil {
		t.Fatalf("second complete failed: %v", err)
	}

	got, err := ctx.Store.Tasks().Get(ctx.Context(), batch[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed {
		t.Error("expected task to be completed")
	}
	other, err := ctx.Store.Tasks().Get(ctx.Context(), batch[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if other.Completed {
		t.Error("unrelated task should stay open")
	}

	if err := (&TaskCompleteCmd{IDs: []int64{9999}}).Run(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskListCmd(t *testing.T) {
	ctx := clitest.NewContext(t)
	h := clitest.AddHabit(t, ctx, "Reading", models.PeriodicityDaily, "Read")

	for _, cmd := range []TaskListCmd{{}, {Habit: h.ID}, {Open: true}} {
		if err := cmd.Run(ctx); err != nil {
			t.Errorf("list %+v failed: %v", cmd, err)
		}
	}
}
