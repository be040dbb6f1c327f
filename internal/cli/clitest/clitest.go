// Package clitest builds command contexts over a throwaway SQLite database.
package clitest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

// NewContext initializes a fresh database under t.TempDir
func NewContext(t *testing.T) *cli.Context {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cadence.db")
	store := sqlite.NewStore(dbPath, sqlite.WithMigrationLog(nil))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return cli.NewContext(context.Background(), store, config.Config{Database: dbPath})
}

// AddHabit creates a habit and its first batch of tasks
func AddHabit(t *testing.T, ctx *cli.Context, name string, p models.Periodicity, tasks ...string) models.Habit {
	t.Helper()
	c := ctx.Context()
	habit, err := ctx.Store.Habits().Create(c, name, p, tasks)
	if err != nil {
		t.Fatalf("failed to create habit %q: %v", name, err)
	}
	for _, description := range tasks {
		if _, err := ctx.Store.Tasks().Create(c, habit.ID, description); err != nil {
			t.Fatalf("failed to create task %q: %v", description, err)
		}
	}
	habit, err = ctx.Store.Habits().Get(c, habit.ID)
	if err != nil {
		t.Fatal(err)
	}
	return habit
}
