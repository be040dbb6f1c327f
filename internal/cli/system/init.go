package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if ctx.Store.Driver() != sqlite.DriverName {
			return fmt.Errorf("--force only applies to SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			// Close first so the file is not held open
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
				if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Context()); err != nil {
		return err
	}
	fmt.Printf("Initialized cadence storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
