package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath, sqlite.WithMigrationLog(nil))
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return cli.NewContext(context.Background(), store, config.Config{Database: dbPath}), dbPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if _, err := ctx.Store.Habits().Create(ctx.Context(), "Reading", models.PeriodicityDaily, []string{"Read"}); err != nil {
		t.Fatal(err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("second init failed (should be idempotent): %v", err)
	}

	habits, err := ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 {
		t.Errorf("expected data to survive a second init, got %d habits", len(habits))
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	if _, err := ctx.Store.Habits().Create(ctx.Context(), "Reading", models.PeriodicityDaily, []string{"Read"}); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}

	habits, err := ctx.Store.Habits().List(ctx.Context(), storage.AllHabits())
	if err != nil {
		t.Fatalf("list after force init failed: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected an empty database after --force, got %d habits", len(habits))
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _ := setupTestInitDB(t)

	if err := (&MigrateCmd{Status: true}).Run(ctx); err == nil {
		t.Error("expected status on a missing database to fail")
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Errorf("migrate on an up to date database failed: %v", err)
	}
	if err := (&MigrateCmd{Status: true}).Run(ctx); err != nil {
		t.Errorf("migrate --status failed: %v", err)
	}
}
