package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
)

// ErrInvalidPeriodicity is returned when a periodicity value is not recognized
var ErrInvalidPeriodicity = errors.New("invalid periodicity")

// Periodicity is the cadence governing when a habit's task batch is due to finish
type Periodicity string

const (
	PeriodicityDaily   Periodicity = "daily"
	PeriodicityWeekly  Periodicity = "weekly"
	PeriodicityMonthly Periodicity = "monthly"
)

// Periodicities lists every supported periodicity in display order
var Periodicities = []Periodicity{PeriodicityDaily, PeriodicityWeekly, PeriodicityMonthly}

// ParsePeriodicity accepts either the stored value ("weekly") or the display
// label ("Every Week"), case-insensitively.
func ParsePeriodicity(s string) (Periodicity, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Periodicities {
		if v == string(p) || v == strings.ToLower(p.Label()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected daily, weekly or monthly)", ErrInvalidPeriodicity, s)
}

// Valid reports whether p is one of the supported periodicities
func (p Periodicity) Valid() bool {
	switch p {
	case PeriodicityDaily, PeriodicityWeekly, PeriodicityMonthly:
		return true
	}
	return false
}

// Period returns the amount of time after which a batch is due
func (p Periodicity) Period() time.Duration {
	switch p {
	case PeriodicityDaily:
		return constants.DailyPeriod
	case PeriodicityWeekly:
		return constants.WeeklyPeriod
	case PeriodicityMonthly:
		return constants.MonthlyPeriod
	default:
		return 0
	}
}

// Label returns the human-readable name of the periodicity
func (p Periodicity) Label() string {
	switch p {
	case PeriodicityDaily:
		return "Every Day"
	case PeriodicityWeekly:
		return "Every Week"
	case PeriodicityMonthly:
		return "Every Month"
	default:
		return "Unknown"
	}
}

func (p Periodicity) String() string { return string(p) }
