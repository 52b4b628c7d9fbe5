package model

import "time"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyOnce   Frequency = "once"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyOnce:
		return true
	}
	return false
}

// Everyone is the legacy assignee marker for open tasks.
const Everyone = "everyone"

type Task struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Icon        string        `json:"icon"`
	Description string        `json:"description"`
	Points      int           `json:"points"`
	MemberID    *string       `json:"memberId"`
	Frequency   Frequency     `json:"frequency"`
	WeeklyDay   *time.Weekday `json:"weeklyDay,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	IsComplete  bool          `json:"isComplete"`
	CompletedAt *time.Time    `json:"completedAt"`
	CompletedBy *string       `json:"completedBy"`
}

// IsOpen reports whether any member may take the task.
func (t Task) IsOpen() bool {
	return t.MemberID == nil
}

// AvailableTo reports whether memberID is the assignee or the task is open.
func (t Task) AvailableTo(memberID string) bool {
	return t.MemberID == nil || *t.MemberID == memberID
}
