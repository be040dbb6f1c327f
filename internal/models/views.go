package models

// HabitOverview is the read-only row shown in habit tables
type HabitOverview struct {
	ID             int64       `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	Periodicity    Periodicity `json:"periodicity" db:"periodicity"`
	Streak         int         `json:"streak" db:"streak"`
	TaskCount      int         `json:"tasks" db:"task_count"`
	CompletedCount int         `json:"completed" db:"completed_count"`
}

// TaskView is a task joined with the name of the habit that owns it
type TaskView struct {
	ID          int64  `json:"id" db:"id"`
	HabitID     int64  `json:"habit_id" db:"habit_id"`
	HabitName   string `json:"habit_name" db:"habit_name"`
	Description string `json:"description" db:"description"`
	Completed   bool   `json:"completed" db:"completed"`
}

// StreakStat is the result row of the streak leaderboard queries
type StreakStat struct {
	HabitID   int64  `json:"habit_id" db:"habit_id"`
	HabitName string `json:"habit_name" db:"habit_name"`
	Streak    int    `json:"streak" db:"streak"`
}
