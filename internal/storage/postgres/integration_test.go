package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/storagetest"
)

// Set CADENCE_POSTGRES_TEST_URL to run, e.g.
// CADENCE_POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func TestProviderSuiteIntegration(t *testing.T) {
	connStr := os.Getenv("CADENCE_POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("CADENCE_POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	storagetest.Run(t, func(t *testing.T, clock *storagetest.Clock) storage.Provider {
		ctx := context.Background()
		s := New(connStr, WithClock(clock.Now), WithMigrationLog(nil))
		if err := s.Init(ctx); err != nil {
			t.Fatalf("failed to init store: %v", err)
		}
		for _, table := range []string{"tasks", "reports", "habits"} {
			if _, err := s.DB().ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE"); err != nil {
				t.Fatalf("failed to truncate %s: %v", table, err)
			}
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
