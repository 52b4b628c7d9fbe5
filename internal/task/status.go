package task

import (
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// ComputeStatus derives a display status from the completion flag, the due
// date and, for weekly tasks, the configured weekday.
func ComputeStatus(t model.Task, now time.Time) Status {
	if t.IsComplete {
		return StatusCompleted
	}

	today := startOfDay(now)
	if t.DueDate != nil && startOfDay(*t.DueDate).Before(today) {
		return StatusOverdue
	}

	// Weeks run Sunday through Saturday.
	if t.Frequency == model.FrequencyWeekly && t.WeeklyDay != nil && now.Weekday() > *t.WeeklyDay {
		return StatusOverdue
	}

	return StatusPending
}

// IsDueOn reports whether the task is scheduled for the given date.
func IsDueOn(t model.Task, date time.Time) bool {
	switch t.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencyWeekly:
		return t.WeeklyDay == nil || date.Weekday() == *t.WeeklyDay
	default:
		// One-off tasks stay due until completed.
		return true
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
