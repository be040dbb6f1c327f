package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/keyring"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/postgres"
	"github.com/julianstephens/cadence/internal/storage/sqlite"
)

type Context struct {
	Store  storage.Provider
	Engine *engine.Engine
	Config config.Config

	ctx context.Context
}

// NewContext wires the engine for store. ctx is cancelled on interrupt.
func NewContext(ctx context.Context, store storage.Provider, cfg config.Config) *Context {
	return &Context{
		Store:  store,
		Engine: NewEngine(store),
		Config: cfg,
		ctx:    ctx,
	}
}

// Context returns the command's context
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.Store.Driver() != sqlite.DriverName {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(c.Context()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// NewEngine builds the engine with a sync lock file next to the database
func NewEngine(store storage.Provider) *engine.Engine {
	path, err := LockPath(store)
	if err != nil {
		logger.Warn("Sync lock disabled", "error", err)
		return engine.New(store)
	}
	return engine.New(store, engine.WithLocker(lock.NewFile(path)))
}

// LockPath is where the sync lockfile for store lives. PostgreSQL stores keep
// it in the default config directory.
func LockPath(store storage.Provider) (string, error) {
	database := ""
	if store.Driver() == sqlite.DriverName {
		database = store.GetConfigPath()
	}
	dir, err := config.ConfigDir(database)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.SyncLockfileName), nil
}

// ResolveDatabase picks the database in order: configured value, the OS
// keyring, then the default SQLite file. fromKeyring reports the second case.
func ResolveDatabase(cfg config.Config) (database string, fromKeyring bool, err error) {
	if cfg.Database != "" {
		return cfg.Database, false, nil
	}
	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		return connStr, true, nil
	case errors.Is(err, keyring.ErrNotFound), errors.Is(err, keyring.ErrKeyringUnavailable):
		logger.Debug("No connection string in keyring, using default database", "error", err)
	default:
		return "", false, err
	}
	database, err = config.DefaultDatabasePath()
	return database, false, err
}

// OpenStore chooses the backend for database without connecting to it.
// Connection strings must not embed a password unless they came from the
// keyring.
func OpenStore(database string, fromKeyring bool) (storage.Provider, error) {
	if postgres.IsConnString(database) {
		if err := postgres.ValidateConnString(database); err != nil {
			if !(fromKeyring && errors.Is(err, postgres.ErrEmbeddedCredentials)) {
				return nil, fmt.Errorf("invalid database connection string: %w", err)
			}
		}
		return postgres.New(database), nil
	}
	return sqlite.NewStore(database), nil
}
