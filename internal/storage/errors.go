package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a get, update or delete targets a missing row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateName is returned when creating a habit whose name already exists
	ErrDuplicateName = errors.New("habit name already exists")
	// ErrUnsaved is returned when updating or deleting an entity that was never persisted
	ErrUnsaved = errors.New("instance has not been saved yet")
	// ErrInvalid is returned when input is rejected before reaching the database
	ErrInvalid = errors.New("invalid input")
)

// StorageError wraps a failure of the underlying database
type StorageError struct {
	Op     string // Operation that failed
	Entity string // Entity involved (habit, task, report)
	Err    error  // Underlying error
}

func (e *StorageError) Error() string {
	parts := []string{fmt.Sprintf("storage: %s", e.Op)}
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a StorageError unless it is nil or already one of the
// taxonomy sentinels, which pass through unchanged.
func Wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Entity: entity, Err: err}
}

// IsDomainError reports whether err belongs to the repository taxonomy rather
// than to the database driver.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrUnsaved) ||
		errors.Is(err, ErrInvalid)
}
