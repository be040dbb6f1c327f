package models

import (
	"errors"
	"testing"
	"time"
)

func TestValidateHabit(t *testing.T) {
	tests := []struct {
		name        string
		habitName   string
		periodicity Periodicity
		template    []string
		wantErr     bool
	}{
		{
			name:        "valid daily habit",
			habitName:   "Morning routine",
			periodicity: PeriodicityDaily,
			template:    []string{"Stretch", "Drink water"},
			wantErr:     false,
		},
		{
			name:        "empty name",
			habitName:   "   ",
			periodicity: PeriodicityWeekly,
			template:    []string{"Run"},
			wantErr:     true,
		},
		{
			name:        "unknown periodicity",
			habitName:   "Reading",
			periodicity: Periodicity("yearly"),
			template:    []string{"Read a chapter"},
			wantErr:     true,
		},
		{
			name:        "empty template",
			habitName:   "Reading",
			periodicity: PeriodicityMonthly,
			template:    nil,
			wantErr:     true,
		},
		{
			name:        "blank template entry",
			habitName:   "Reading",
			periodicity: PeriodicityMonthly,
			template:    []string{"Read", ""},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHabit(tt.habitName, tt.periodicity, tt.template)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHabit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidHabit) {
				t.Errorf("expected ErrInvalidHabit, got %v", err)
			}
		})
	}
}

func TestHabitIsFinished(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		periodicity Periodicity
		elapsed     time.Duration
		uncompleted int
		want        bool
	}{
		{"daily just before boundary", PeriodicityDaily, 24*time.Hour - time.Second, 2, false},
		{"daily at boundary", PeriodicityDaily, 24 * time.Hour, 2, true},
		{"weekly after six days", PeriodicityWeekly, 6 * 24 * time.Hour, 1, false},
		{"weekly at seven days", PeriodicityWeekly, 7 * 24 * time.Hour, 1, true},
		{"monthly after 29 days", PeriodicityMonthly, 29 * 24 * time.Hour, 3, false},
		{"monthly at 30 days", PeriodicityMonthly, 30 * 24 * time.Hour, 3, true},
		{"all completed before period", PeriodicityMonthly, time.Minute, 0, true},
		{"no tasks at all", PeriodicityWeekly, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Habit{Periodicity: tt.periodicity, UpdatedAt: anchor}
			if got := h.IsFinished(anchor.Add(tt.elapsed), tt.uncompleted); got != tt.want {
				t.Errorf("IsFinished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHabitRestreak(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	h := Habit{Streak: 4, UpdatedAt: now.Add(-48 * time.Hour)}
	h.Restreak(0, now)
	if h.Streak != 5 {
		t.Errorf("expected streak 5 after a completed batch, got %d", h.Streak)
	}
	if !h.UpdatedAt.Equal(now) {
		t.Errorf("expected UpdatedAt to advance to %v, got %v", now, h.UpdatedAt)
	}

	h.Restreak(2, now.Add(time.Hour))
	if h.Streak != 0 {
		t.Errorf("expected streak reset to 0, got %d", h.Streak)
	}
}

func TestParsePeriodicity(t *testing.T) {
	tests := []struct {
		input   string
		want    Periodicity
		wantErr bool
	}{
		{"daily", PeriodicityDaily, false},
		{"WEEKLY", PeriodicityWeekly, false},
		{"Every Month", PeriodicityMonthly, false},
		{" every day ", PeriodicityDaily, false},
		{"fortnightly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePeriodicity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriodicity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriodicity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
