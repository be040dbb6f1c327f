package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/backup"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/migration"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/seed"
	"github.com/julianstephens/cadence/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint returns a short suggestion for errors the user can act on, or ""
func Hint(err error) string {
	switch {
	case stderrors.Is(err, lock.ErrLocked):
		return "another sync is running; wait for it to finish or remove a stale lock with 'cadence doctor --fix'"
	case stderrors.Is(err, migration.ErrSchemaTooNew):
		return "upgrade cadence to a version that knows this schema"
	case stderrors.Is(err, storage.ErrDuplicateName):
		return "habit names are unique; pick another name or delete the existing habit"
	case stderrors.Is(err, storage.ErrNotFound):
		return "list ids with 'cadence habit list' or 'cadence task list'"
	case stderrors.Is(err, models.ErrInvalidPeriodicity):
		return "use one of daily, weekly or monthly"
	case stderrors.Is(err, models.ErrAlreadyCompleted):
		return "completed tasks stay completed until the next sync archives them"
	case stderrors.Is(err, seed.ErrNotEmpty):
		return "seed only fills an empty database; pass --reset to replace existing data"
	case stderrors.Is(err, backup.ErrNotSQLite):
		return "backups are only available for the SQLite backend"
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
