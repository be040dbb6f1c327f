package system

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/keyring"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

type DoctorCmd struct {
	Fix bool `help:"Remove a sync lockfile left behind by a process that is no longer running."`
}

// errWarning marks a check that should be reported but not fail the run
type errWarning struct{ msg string }

func (w errWarning) Error() string { return w.msg }

func warnf(format string, args ...interface{}) error {
	return errWarning{msg: fmt.Sprintf(format, args...)}
}

type check struct {
	name string
	run  func() error
	// needsDB skips the check when the database could not be loaded
	needsDB bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	dbReachable := false
	checks := []check{
		{name: "Database reachable", run: func() error {
			err := checkDBReachable(ctx)
			dbReachable = err == nil
			return err
		}},
		{name: "Schema version", run: func() error { return checkSchema(ctx) }, needsDB: true},
		{name: "Sync lock", run: func() error { return checkSyncLock(ctx, cmd.Fix) }},
		{name: "Backups present", run: func() error { return checkBackupsPresent(ctx) }},
		{name: "Habit batches", run: func() error { return checkBatches(ctx) }, needsDB: true},
		{name: "OS keyring", run: checkKeyring},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	failed := 0
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run()
		var w errWarning
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &w):
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("%d health check(s) failed", failed)
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	db := ctx.Store.DB()
	if db == nil {
		return errors.New("database connection is nil")
	}
	var result int
	if err := db.GetContext(ctx.Context(), &result, "SELECT 1"); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchema(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	st, err := migrator.SchemaStatus(ctx.Context())
	if err != nil {
		return err
	}
	if !st.UpToDate() {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", st.Current, st.Latest)
	}
	return nil
}

func checkSyncLock(ctx *cli.Context, fix bool) error {
	path, err := cli.LockPath(ctx.Store)
	if err != nil {
		return err
	}
	f := lock.NewFile(path)
	holder, alive, err := f.Inspect()
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	case alive:
		return warnf("a sync is running (pid %d)", holder.PID)
	}

	if !fix {
		return warnf("stale lockfile %s left by pid %d; run 'cadence doctor --fix' to remove it", path, holder.PID)
	}
	if _, err := f.RemoveStale(); err != nil {
		return fmt.Errorf("failed to remove stale lockfile: %w", err)
	}
	fmt.Printf("   Removed stale lockfile %s\n", path)
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if ctx.Store.Driver() != sqlite.DriverName {
		return warnf("backups are only managed for SQLite databases")
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return warnf("no backups found - consider creating one with 'cadence backup create'")
	}
	return nil
}

func checkBatches(ctx *cli.Context) error {
	empty, err := ctx.Store.Habits().List(ctx.Context(), storage.HabitsWithoutTasks())
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	if len(empty) > 0 {
		return warnf("%d habit(s) have no open batch; run 'cadence sync'", len(empty))
	}
	return nil
}

func checkKeyring() error {
	st := keyring.GetStatus()
	switch {
	case !st.Available:
		return warnf("OS keyring is not available; PostgreSQL credentials must come from the environment or .pgpass")
	case st.Stored:
		fmt.Println("   Connection string is stored in keyring")
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		fmt.Printf("   Note: timezone is UTC\n")
	}
	return nil
}
