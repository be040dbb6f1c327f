package habits

import (
	"errors"
	"testing"

	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

func TestHabitCreateCmd(t *testing.T) {
	ctx := clitest.NewContext(t)

	cmd := &HabitCreateCmd{Name: "  Reading ", Periodicity: "Every Week", Task: []string{"Read a chapter", "Write notes"}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	habits, err := ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(habits))
	}
	h := habits[0]
	if h.Name != "Reading" || h.Periodicity != models.PeriodicityWeekly || len(h.Template) != 2 {
		t.Errorf("unexpected habit: %+v", h)
	}
}

func TestHabitCreateCmdRejectsInput(t *testing.T) {
	ctx := clitest.NewContext(t)
	clitest.AddHabit(t, ctx, "Reading", models.PeriodicityDaily, "Read")

	tests := []struct {
		name   string
		cmd    HabitCreateCmd
		target error
	}{
		{"bad periodicity", HabitCreateCmd{Name: "Run", Periodicity: "yearly", Task: []string{"Run"}}, models.ErrInvalidPeriodicity},
		{"duplicate", HabitCreateCmd{Name: "Reading", Periodicity: "daily", Task: []string{"Read"}}, storage.ErrDuplicateName},
		{"blank task", HabitCreateCmd{Name: "Write", Periodicity: "daily", Task: []string{" "}}, storage.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(ctx)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestHabitListAndShow(t *testing.T) {
	ctx := clitest.NewContext(t)
	h := clitest.AddHabit(t, ctx, "Stretch", models.PeriodicityDaily, "Neck", "Back")

	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Errorf("list failed: %v", err)
	}
	if err := (&HabitListCmd{Periodicity: "monthly"}).Run(ctx); err != nil {
		t.Errorf("filtered list failed: %v", err)
	}
	if err := (&HabitListCmd{Periodicity: "hourly"}).Run(ctx); err == nil {
		t.Error("expected an invalid periodicity filter to fail")
	}
	if err := (&HabitShowCmd{ID: h.ID}).Run(ctx); err != nil {
		t.Errorf("show failed: %v", err)
	}
	if err := (&HabitShowCmd{ID: 999}).Run(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHabitDeleteCmd(t *testing.T) {
	ctx := clitest.NewContext(t)
	h := clitest.AddHabit(t, ctx, "Stretch", models.PeriodicityDaily, "Neck")

	if err := (&HabitDeleteCmd{ID: h.ID, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := ctx.Store.Habits().Get(ctx.Context(), h.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected habit to be gone, got %v", err)
	}
	tasks, err := ctx.Store.Tasks().ForHabit(ctx.Context(), h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected tasks to be deleted, got %d", len(tasks))
	}

	if err := (&HabitDeleteCmd{ID: h.ID, Yes: true}).Run(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines(" a \n\n b\n  \n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitLines() = %q", got)
	}
}
