// Package sqlrepo implements the storage repositories on top of sqlx and
// squirrel. The SQLite and PostgreSQL stores share it and differ only in
// their Dialect.
package sqlrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/cadence/internal/storage"
)

// Dialect captures what differs between database drivers
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// IsUniqueViolation reports whether err came from a UNIQUE constraint
	IsUniqueViolation func(error) bool
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used to stamp created_at and updated_at
func WithClock(clock storage.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Store hands out repositories bound either to the pool or to a transaction
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	clock   storage.Clock
}

// New wraps an open database handle
func New(db *sqlx.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) conn(ex sqlx.ExtContext) conn {
	return conn{ex: ex, db: s.db, dialect: s.dialect, now: s.clock}
}

func (s *Store) Habits() storage.HabitRepository   { return habitRepo{s.conn(s.db)} }
func (s *Store) Tasks() storage.TaskRepository     { return taskRepo{s.conn(s.db)} }
func (s *Store) Reports() storage.ReportRepository { return reportRepo{s.conn(s.db)} }

// WithinTx runs fn against repositories bound to one transaction. It commits
// when fn returns nil and rolls back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(storage.Repositories) error) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(txRepos{s.conn(tx)})
	})
}

type txRepos struct{ c conn }

func (r txRepos) Habits() storage.HabitRepository   { return habitRepo{r.c} }
func (r txRepos) Tasks() storage.TaskRepository     { return taskRepo{r.c} }
func (r txRepos) Reports() storage.ReportRepository { return reportRepo{r.c} }

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// conn is the executor a repository runs against
type conn struct {
	ex      sqlx.ExtContext
	db      *sqlx.DB
	dialect Dialect
	now     storage.Clock
}

func (c conn) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(c.dialect.Placeholder)
}

// atomic runs fn in a transaction unless c is already bound to one
func (c conn) atomic(ctx context.Context, fn func(conn) error) error {
	if _, inTx := c.ex.(*sqlx.Tx); inTx {
		return fn(c)
	}
	return withTx(ctx, c.db, func(tx *sqlx.Tx) error {
		nc := c
		nc.ex = tx
		return fn(nc)
	})
}

func (c conn) get(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, c.ex, dest, query, args...)
}

func (c conn) selectAll(ctx context.Context, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, c.ex, dest, query, args...)
}

func (c conn) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := c.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
