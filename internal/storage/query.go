package storage

import (
	"time"

	"github.com/julianstephens/cadence/internal/models"
)

// HabitFilter selects which habits a HabitQuery returns
type HabitFilter int

const (
	FilterAll HabitFilter = iota
	// FilterWithoutTasks selects habits that currently own no tasks
	FilterWithoutTasks
	// FilterFinished selects habits whose period has elapsed as of AsOf or
	// that have no uncompleted tasks
	FilterFinished
	FilterPeriodicity
)

// HabitQuery describes a habit listing. Results are ordered by id.
type HabitQuery struct {
	Filter      HabitFilter
	AsOf        time.Time
	Periodicity models.Periodicity
}

func AllHabits() HabitQuery { return HabitQuery{Filter: FilterAll} }

func HabitsWithoutTasks() HabitQuery { return HabitQuery{Filter: FilterWithoutTasks} }

func HabitsFinishedAsOf(asOf time.Time) HabitQuery {
	return HabitQuery{Filter: FilterFinished, AsOf: asOf}
}

func HabitsByPeriodicity(p models.Periodicity) HabitQuery {
	return HabitQuery{Filter: FilterPeriodicity, Periodicity: p}
}
