package backups

import (
	"context"
	"errors"
	"testing"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage/postgres"
)

func TestBackupCreateListRestore(t *testing.T) {
	ctx := clitest.NewContext(t)
	clitest.AddHabit(t, ctx, "Before", models.PeriodicityDaily, "Read")

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}

	clitest.AddHabit(t, ctx, "After", models.PeriodicityDaily, "Run")

	if err := (&BackupRestoreCmd{BackupFile: backups[0].Name(), Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if err := ctx.Store.Load(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	overview, err := ctx.Store.Habits().Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(overview) != 1 || overview[0].Name != "Before" {
		t.Errorf("expected only the backed up habit, got %+v", overview)
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx := clitest.NewContext(t)
	if err := (&BackupRestoreCmd{BackupFile: "cadence-20000101-000000.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected an error for a missing backup")
	}
}

func TestBackupRequiresSQLite(t *testing.T) {
	store := postgres.New("postgres://cadence@localhost/cadence")
	ctx := cli.NewContext(context.Background(), store, config.Config{})

	if err := (&BackupCreateCmd{}).Run(ctx); !errors.Is(err, backup.ErrNotSQLite) {
		t.Errorf("expected ErrNotSQLite, got %v", err)
	}
}
