package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/storagetest"
)

func newTestStore(t *testing.T, clock *storagetest.Clock) storage.Provider {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"), WithClock(clock.Now), WithMigrationLog(nil))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProviderSuite(t *testing.T) {
	storagetest.Run(t, newTestStore)
}

func TestLoadRequiresInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := s.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "init") {
		t.Fatalf("expected a not-initialized error, got %v", err)
	}
}

func TestInitThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cadence.db")

	s := NewStore(path, WithMigrationLog(nil))
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := NewStore(path)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	st, err := reopened.SchemaStatus(ctx)
	if err != nil {
		t.Fatalf("SchemaStatus failed: %v", err)
	}
	if !st.UpToDate() || st.Current == 0 {
		t.Errorf("expected an up to date schema, got %+v", st)
	}
	if reopened.Driver() != DriverName || reopened.GetConfigPath() != path {
		t.Errorf("unexpected driver %q or path %q", reopened.Driver(), reopened.GetConfigPath())
	}

	n, err := reopened.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no pending migrations, applied %d", n)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: habits.name (2067)")) {
		t.Error("expected UNIQUE message to be classified as a unique violation")
	}
	if isUniqueViolation(errors.New("FOREIGN KEY constraint failed")) {
		t.Error("foreign key failure is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}
