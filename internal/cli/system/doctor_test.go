package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/cli/clitest"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

func TestDoctorCmd_Healthy(t *testing.T) {
	gokeyring.MockInit()
	ctx := clitest.NewContext(t)

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor failed on a fresh database: %v", err)
	}
}

func TestDoctorCmd_MissingDatabase(t *testing.T) {
	gokeyring.MockInit()
	dbPath := filepath.Join(t.TempDir(), "missing.db")
	store := sqlite.NewStore(dbPath, sqlite.WithMigrationLog(nil))
	t.Cleanup(func() { store.Close() })
	ctx := cli.NewContext(context.Background(), store, config.Config{Database: dbPath})

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("expected doctor to fail without a database")
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("doctor must not create the database")
	}
}

func TestDoctorCmd_StaleLock(t *testing.T) {
	gokeyring.MockInit()
	ctx := clitest.NewContext(t)

	path, err := cli.LockPath(ctx.Store)
	if err != nil {
		t.Fatal(err)
	}
	// A malformed lockfile is always treated as stale
	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("a stale lock is a warning, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("doctor without --fix must keep the lockfile: %v", err)
	}

	if err := (&DoctorCmd{Fix: true}).Run(ctx); err != nil {
		t.Errorf("doctor --fix failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected doctor --fix to remove the stale lockfile, stat err = %v", err)
	}
}
