package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidHabit is returned when habit input fails validation
var ErrInvalidHabit = errors.New("invalid habit")

// Habit represents a recurring activity made of a fixed template of tasks
type Habit struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Periodicity Periodicity `json:"periodicity"`
	Template    []string    `json:"template"`
	Streak      int         `json:"streak"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ValidateHabit checks the input required to create a habit
func ValidateHabit(name string, periodicity Periodicity, template []string) error {
	var problems []string
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "name must not be empty")
	}
	if !periodicity.Valid() {
		problems = append(problems, fmt.Sprintf("periodicity %q is not one of daily, weekly, monthly", periodicity))
	}
	if len(template) == 0 {
		problems = append(problems, "template must contain at least one task")
	}
	for i, entry := range template {
		if strings.TrimSpace(entry) == "" {
			problems = append(problems, fmt.Sprintf("template entry %d is empty", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidHabit, strings.Join(problems, "; "))
	}
	return nil
}

// IsSaved reports whether the habit has been persisted
func (h Habit) IsSaved() bool {
	return h.ID != 0
}

// PeriodElapsed reports whether a full period has passed since the habit was
// last touched.
func (h Habit) PeriodElapsed(now time.Time) bool {
	period := h.Periodicity.Period()
	if period == 0 {
		return false
	}
	return now.Sub(h.UpdatedAt) >= period
}

// IsFinished reports whether the current batch is due for archival. A batch
// with no uncompleted tasks is finished before the period elapses, and so is
// a habit with no tasks at all.
func (h Habit) IsFinished(now time.Time, uncompleted int) bool {
	return uncompleted == 0 || h.PeriodElapsed(now)
}

// Restreak applies the outcome of an archived batch: a fully completed batch
// extends the streak, anything else resets it.
func (h *Habit) Restreak(uncompleted int, now time.Time) {
	if uncompleted == 0 {
		h.Streak++
	} else {
		h.Streak = 0
	}
	h.UpdatedAt = now
}

// Touch advances the period anchor
func (h *Habit) Touch(now time.Time) {
	h.UpdatedAt = now
}
