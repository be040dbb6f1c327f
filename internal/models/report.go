package models

import "time"

// TaskSnapshot is the archived form of a task inside a report
type TaskSnapshot struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Report is an immutable snapshot of a finished task batch. CurrentStreak is
// the habit's streak before the archival that produced the report.
type Report struct {
	ID                    int64          `json:"id"`
	HabitID               int64          `json:"habit_id"`
	HabitName             string         `json:"habit_name"`
	Periodicity           Periodicity    `json:"periodicity"`
	CurrentStreak         int            `json:"current_streak"`
	CompletedTasksCount   int            `json:"completed_tasks_count"`
	UncompletedTasksCount int            `json:"uncompleted_tasks_count"`
	RawData               []TaskSnapshot `json:"raw_data"`
	SyncID                string         `json:"sync_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

// NewReport builds the report for archiving batch out of habit
func NewReport(habit Habit, batch []Task, now time.Time, syncID string) Report {
	completed, uncompleted := CountCompletion(batch)
	snapshots := make([]TaskSnapshot, 0, len(batch))
	for _, t := range batch {
		snapshots = append(snapshots, TaskSnapshot{
			ID:          t.ID,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return Report{
		HabitID:               habit.ID,
		HabitName:             habit.Name,
		Periodicity:           habit.Periodicity,
		CurrentStreak:         habit.Streak,
		CompletedTasksCount:   completed,
		UncompletedTasksCount: uncompleted,
		RawData:               snapshots,
		SyncID:                syncID,
		CreatedAt:             now,
	}
}

// BatchSize is the number of tasks the report archived
func (r Report) BatchSize() int {
	return r.CompletedTasksCount + r.UncompletedTasksCount
}

// FullyCompleted reports whether every archived task was done
func (r Report) FullyCompleted() bool {
	return r.UncompletedTasksCount == 0
}
