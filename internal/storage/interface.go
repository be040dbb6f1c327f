package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/cadence/internal/migration"
	"github.com/julianstephens/cadence/internal/models"
)

// HabitRepository is the CRUD and query surface over habits
type HabitRepository interface {
	Create(ctx context.Context, name string, periodicity models.Periodicity, template []string) (models.Habit, error)
	Get(ctx context.Context, id int64) (models.Habit, error)
	List(ctx context.Context, q HabitQuery) ([]models.Habit, error)
	// Update replaces every mutable column of the stored row
	Update(ctx context.Context, habit models.Habit) error
	// Delete removes the habit and all of its tasks. Reports are kept.
	Delete(ctx context.Context, id int64) error
	Overview(ctx context.Context) ([]models.HabitOverview, error)
}

// TaskRepository is the CRUD and query surface over tasks
type TaskRepository interface {
	// Create inserts a task and advances the owning habit's updated_at
	Create(ctx context.Context, habitID int64, description string) (models.Task, error)
	Get(ctx context.Context, id int64) (models.Task, error)
	// List returns tasks joined with their habit name. A nil habitID lists all tasks.
	List(ctx context.Context, habitID *int64) ([]models.TaskView, error)
	ForHabit(ctx context.Context, habitID int64) ([]models.Task, error)
	// Update persists completion and advances the owning habit's updated_at
	Update(ctx context.Context, task models.Task) error
	Delete(ctx context.Context, id int64) error
	DeleteForHabit(ctx context.Context, habitID int64) (int64, error)
}

// ReportRepository is the append-only archive of finished batches
type ReportRepository interface {
	Append(ctx context.Context, report models.Report) (models.Report, error)
	Get(ctx context.Context, id int64) (models.Report, error)
	List(ctx context.Context) ([]models.Report, error)
	// Delete exists for teardown only; normal flow never removes reports
	Delete(ctx context.Context, id int64) error

	MaxStreak(ctx context.Context) (models.StreakStat, error)
	MaxStreakForHabit(ctx context.Context, habitID int64) (models.StreakStat, error)
	MinPositiveStreak(ctx context.Context) (models.StreakStat, error)
	LatestPerHabit(ctx context.Context) ([]models.Report, error)
	ListByPeriodicity(ctx context.Context, p models.Periodicity) ([]models.Report, error)
}

// Repositories groups the three repositories bound to one executor
type Repositories interface {
	Habits() HabitRepository
	Tasks() TaskRepository
	Reports() ReportRepository
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// Provider is a fully wired storage backend
type Provider interface {
	Repositories
	Transactor

	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Utils
	GetConfigPath() string
	Driver() string
	DB() *sqlx.DB
}

// Migrator is implemented by providers that manage their own schema
type Migrator interface {
	Migrate(ctx context.Context) (int, error)
	SchemaStatus(ctx context.Context) (migration.Status, error)
}

// Clock returns the current time. Stores take one so tests can pin "now".
type Clock func() time.Time
