package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	pq "github.com/lib/pq"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/migration"
	"github.com/julianstephens/cadence/internal/storage"
	"github.com/julianstephens/cadence/internal/storage/sqlrepo"
	"github.com/julianstephens/cadence/migrations"
)

const (
	DriverName = "postgres"

	uniqueViolation = pq.ErrorCode("23505")
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// Dialect is the PostgreSQL flavour of the shared repositories
var Dialect = sqlrepo.Dialect{
	Name:              DriverName,
	Placeholder:       sq.Dollar,
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Store keeps its tables in a dedicated schema named after the app
type Store struct {
	*sqlrepo.Store

	connStr string
	db      *sqlx.DB
	opts    []sqlrepo.Option
	logFn   func(string)
}

var _ storage.Provider = (*Store)(nil)

type Option func(*Store)

func WithClock(clock storage.Clock) Option {
	return func(s *Store) { s.opts = append(s.opts, sqlrepo.WithClock(clock)) }
}

func WithMigrationLog(fn func(string)) Option {
	return func(s *Store) { s.logFn = fn }
}

func New(connStr string, opts ...Option) *Store {
	s := &Store{
		connStr: connStr,
		logFn:   func(msg string) { logger.Info(msg) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	if strings.HasPrefix(s.connStr, "postgres://") || strings.HasPrefix(s.connStr, "postgresql://") {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
		return
	}
	if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

// hasParam reports whether a DSN-style connection string carries key
// (case-insensitive).
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// hasSSLMode checks URL-style and DSN-style connection strings for sslmode
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// ValidateConnString checks that connStr parses as a PostgreSQL URI or DSN
// and carries no password. Passwords belong in ~/.pgpass or PGPASSWORD.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	if hasParam(connStr, "password") {
		return ErrEmbeddedCredentials
	}
	return nil
}

// IsConnString reports whether s looks like a PostgreSQL connection string
// rather than a file path.
func IsConnString(s string) bool {
	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		return true
	}
	return hasParam(s, "host") || hasParam(s, "dbname")
}

func (s *Store) open(ctx context.Context) error {
	db, err := sqlx.Open(DriverName, s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	s.db = db
	s.Store = sqlrepo.New(db, Dialect, s.opts...)
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	st, err := s.SchemaStatus(ctx)
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

func (s *Store) Migrate(ctx context.Context) (int, error) {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return 0, err
		}
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(ctx, s.logFn)
}

func (s *Store) SchemaStatus(ctx context.Context) (migration.Status, error) {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
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

// GetConfigPath returns a non-sensitive identifier instead of the connection string
func (s *Store) GetConfigPath() string { return DriverName }

func (s *Store) Driver() string { return DriverName }

func (s *Store) DB() *sqlx.DB { return s.db }
