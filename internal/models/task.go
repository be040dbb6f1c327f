package models

import (
	"errors"
	"time"
)

// ErrAlreadyCompleted is returned when completing a task twice
var ErrAlreadyCompleted = errors.New("task already completed")

// Task is one instance of a template entry for the habit's current period
type Task struct {
	ID          int64     `json:"id"`
	HabitID     int64     `json:"habit_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsSaved reports whether the task has been persisted
func (t Task) IsSaved() bool {
	return t.ID != 0
}

// Complete marks the task done. Completion is one-way.
func (t *Task) Complete(now time.Time) error {
	if t.Completed {
		return ErrAlreadyCompleted
	}
	t.Completed = true
	t.UpdatedAt = now
	return nil
}

// CountCompletion splits a batch into completed and uncompleted counts
func CountCompletion(batch []Task) (completed, uncompleted int) {
	for _, t := range batch {
		if t.Completed {
			completed++
		} else {
			uncompleted++
		}
	}
	return completed, uncompleted
}
