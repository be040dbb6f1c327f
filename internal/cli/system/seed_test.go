package system

import (
	"errors"
	"os"
	"testing"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/seed"
	"github.com/julianstephens/cadence/internal/storage"
)

func TestSeedCmd(t *testing.T) {
	ctx := clitest.NewContext(t)

	cmd := &SeedCmd{Days: 3, PerPeriodicity: 1, Tasks: 2, CompletionRate: 1, Seed: 7}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	habits, err := ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 3 {
		t.Errorf("expected 3 seeded habits, got %d", len(habits))
	}
	reports, err := ctx.Store.Reports().List(ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) == 0 {
		t.Error("expected seeded history to contain reports")
	}

	lockPath, err := cli.LockPath(ctx.Store)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("expected the sync lock to be released, stat: %v", err)
	}
}

func TestSeedCmdKeepsExistingData(t *testing.T) {
	ctx := clitest.NewContext(t)
	clitest.AddHabit(t, ctx, "Existing", models.PeriodicityDaily, "Read")

	err := (&SeedCmd{Days: 3, PerPeriodicity: 1, Tasks: 2, CompletionRate: 1, Seed: 7}).Run(ctx)
	if !errors.Is(err, seed.ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty, got %v", err)
	}
	habits, err := ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 || habits[0].Streak != 0 {
		t.Errorf("existing data changed: %+v", habits)
	}

	reset := &SeedCmd{Days: 1, PerPeriodicity: 1, Tasks: 1, CompletionRate: 0, Seed: 7, Reset: true, Yes: true}
	if err := reset.Run(ctx); err != nil {
		t.Fatalf("seed --reset failed: %v", err)
	}
	habits, err = ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 3 {
		t.Errorf("expected only the reseeded habits, got %d", len(habits))
	}
	for _, h := range habits {
		if h.Name == "Existing" {
			t.Error("reset should remove the existing habit")
		}
	}
}

func TestSeedCmdRejectsBadOptions(t *testing.T) {
	ctx := clitest.NewContext(t)
	if err := (&SeedCmd{Days: 0, PerPeriodicity: 1, Tasks: 1}).Run(ctx); err == nil {
		t.Error("expected zero days to be rejected")
	}
}
