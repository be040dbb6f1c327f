package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/migration"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/sqlrepo"
	"github.com/julianstephens/cadence/migrations"
)

const DriverName = "sqlite"

// Dialect is the SQLite flavour of the shared repositories
var Dialect = sqlrepo.Dialect{
	Name:              DriverName,
	Placeholder:       sq.Question,
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Store is a single-file SQLite database
type Store struct {
	*sqlrepo.Store

	path  string
	db    *sqlx.DB
	opts  []sqlrepo.Option
	logFn func(string)
}

var _ storage.Provider = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock pins the clock the repositories stamp rows with
func WithClock(clock storage.Clock) Option {
	return func(s *Store) { s.opts = append(s.opts, sqlrepo.WithClock(clock)) }
}

// WithMigrationLog receives progress lines while migrations are applied
func WithMigrationLog(fn func(string)) Option {
	return func(s *Store) { s.logFn = fn }
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:  path,
		logFn: func(msg string) { logger.Info(msg) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	db, err := sqlx.Open(DriverName, s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; transactions and plain reads share the single connection
	db.SetMaxOpenConns(1)
	s.db = db
	s.Store = sqlrepo.New(db, Dialect, s.opts...)
	return nil
}

// Init creates the database file if needed and applies pending migrations
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if _, err := runner.ApplyMigrations(ctx, s.logFn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an existing database and refuses one whose schema is behind
func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}
	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	st, err := runner.Status(ctx)
	if err != nil {
		s.Close()
		return err
	}
	if !st.UpToDate() {
		s.Close()
		return fmt.Errorf("database schema is at version %d but %d is required, run '%s migrate'", st.Current, st.Latest, constants.AppName)
	}
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	files, err := migrations.For(DriverName)
	if err != nil {
		return nil, err
	}
	return migration.NewRunner(s.db, files), nil
}

// Migrate applies pending migrations to an already opened database
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if s.db == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(ctx, s.logFn)
}

// SchemaStatus reports the applied and available schema versions, opening
// the database if needed but never creating it.
func (s *Store) SchemaStatus(ctx context.Context) (migration.Status, error) {
	if s.db == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return migration.Status{}, fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
		}
		if err := s.open(); err != nil {
			return migration.Status{}, err
		}
	}
	runner, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string { return s.path }

func (s *Store) Driver() string { return DriverName }

// DB returns the underlying handle, nil before Init or Load
func (s *Store) DB() *sqlx.DB { return s.db }
