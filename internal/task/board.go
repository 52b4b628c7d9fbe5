// Package task owns task definitions and their completion state.
package task

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
)

// Board holds the task collection. The completion triple (IsComplete,
// CompletedAt, CompletedBy) is only written by Complete, Revert and the resets.
type Board struct {
	mu     sync.RWMutex
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
	tasks  []model.Task
}

func New(kv store.KV, logger *slog.Logger) *Board {
	return &Board{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		tasks:  []model.Task{},
	}
}

// Load hydrates the board. A missing slot is seeded with the starter tasks; a
// corrupt slot is reset to empty.
func (b *Board) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var tasks []model.Task
	found, err := store.LoadJSON(b.kv, store.KeyTasks, &tasks)
	switch {
	case errors.Is(err, store.ErrCorrupt):
		b.logger.Warn("resetting corrupt tasks slot", "error", err)
		return b.commit([]model.Task{})
	case err != nil:
		return fmt.Errorf("load tasks: %w", err)
	case !found:
		return b.commit(seedTasks(b.now()))
	}

	if tasks == nil {
		tasks = []model.Task{}
	}
	b.tasks = tasks
	return nil
}

func (b *Board) commit(next []model.Task) error {
	if err := store.SaveJSON(b.kv, store.KeyTasks, next); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	b.tasks = next
	return nil
}

func (b *Board) indexOf(id string) int {
	return slices.IndexFunc(b.tasks, func(t model.Task) bool { return t.ID == id })
}

// normalizeAssignee maps "", "everyone" and nil to an open task.
func normalizeAssignee(memberID *string) *string {
	if memberID == nil || *memberID == "" || *memberID == model.Everyone {
		return nil
	}
	id := *memberID
	return &id
}

// Input carries the caller-supplied fields of a new task.
type Input struct {
	Title       string          `json:"title"`
	Icon        string          `json:"icon"`
	Description string          `json:"description"`
	Points      int             `json:"points"`
	MemberID    *string         `json:"memberId"`
	Frequency   model.Frequency `json:"frequency"`
	WeeklyDay   *time.Weekday   `json:"weeklyDay"`
	DueDate     *time.Time      `json:"dueDate"`
}

// Add creates an incomplete task.
func (b *Board) Add(in Input) (*model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	freq := in.Frequency
	if freq == "" {
		freq = model.FrequencyOnce
	}

	t := model.Task{
		ID:          model.NewID(),
		Title:       in.Title,
		Icon:        in.Icon,
		Description: in.Description,
		Points:      in.Points,
		MemberID:    normalizeAssignee(in.MemberID),
		Frequency:   freq,
		WeeklyDay:   in.WeeklyDay,
		DueDate:     in.DueDate,
		CreatedAt:   b.now(),
	}

	if err := b.commit(append(slices.Clip(b.tasks), t)); err != nil {
		return nil, err
	}
	return &t, nil
}

// Patch lists the definition fields Update may change. Setting MemberID to ""
// or "everyone" opens the task to all members.
type Patch struct {
	Title        *string          `json:"title"`
	Icon         *string          `json:"icon"`
	Description  *string          `json:"description"`
	Points       *int             `json:"points"`
	MemberID     *string          `json:"memberId"`
	Frequency    *model.Frequency `json:"frequency"`
	WeeklyDay    *time.Weekday    `json:"weeklyDay"`
	DueDate      *time.Time       `json:"dueDate"`
	ClearDueDate bool             `json:"clearDueDate"`
}

// Update merges p into the task. Unknown ids return nil, nil.
func (b *Board) Update(id string, p Patch) (*model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	t := b.tasks[i]
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Icon != nil {
		t.Icon = *p.Icon
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Points != nil {
		t.Points = *p.Points
	}
	if p.MemberID != nil {
		t.MemberID = normalizeAssignee(p.MemberID)
	}
	if p.Frequency != nil {
		t.Frequency = *p.Frequency
	}
	if p.WeeklyDay != nil {
		t.WeeklyDay = p.WeeklyDay
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}

	next := slices.Clone(b.tasks)
	next[i] = t
	if err := b.commit(next); err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *Board) Delete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return nil
	}
	return b.commit(slices.Delete(slices.Clone(b.tasks), i, i+1))
}

// Get returns the task or nil when id is unknown.
func (b *Board) Get(id string) *model.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.indexOf(id)
	if i < 0 {
		return nil
	}
	t := b.tasks[i]
	return &t
}

func (b *Board) List() []model.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.tasks)
}

// MemberTasks returns open tasks and tasks assigned to memberID, in board order.
func (b *Board) MemberTasks(memberID string) []model.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []model.Task{}
	for _, t := range b.tasks {
		if t.AvailableTo(memberID) {
			out = append(out, t)
		}
	}
	return out
}

// AvailableTasks returns the incomplete subset of MemberTasks.
func (b *Board) AvailableTasks(memberID string) []model.Task {
	out := []model.Task{}
	for _, t := range b.MemberTasks(memberID) {
		if !t.IsComplete {
			out = append(out, t)
		}
	}
	return out
}

// Complete marks the task done by memberID. It reports false, without
// writing, when the task is unknown, already complete, or assigned to someone
// else.
func (b *Board) Complete(taskID, memberID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(taskID)
	if i < 0 {
		return false, nil
	}
	t := b.tasks[i]
	if t.IsComplete || !t.AvailableTo(memberID) {
		return false, nil
	}

	now := b.now()
	by := memberID
	t.IsComplete = true
	t.CompletedAt = &now
	t.CompletedBy = &by

	next := slices.Clone(b.tasks)
	next[i] = t
	if err := b.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// Revert clears the completion triple. Only the member who completed the task
// may revert it.
func (b *Board) Revert(taskID, memberID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(taskID)
	if i < 0 {
		return false, nil
	}
	t := b.tasks[i]
	if !t.IsComplete || t.CompletedBy == nil || *t.CompletedBy != memberID {
		return false, nil
	}

	next := slices.Clone(b.tasks)
	next[i] = clearCompletion(t)
	if err := b.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

func clearCompletion(t model.Task) model.Task {
	t.IsComplete = false
	t.CompletedAt = nil
	t.CompletedBy = nil
	return t
}

func (b *Board) PendingCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, t := range b.tasks {
		if !t.IsComplete {
			n++
		}
	}
	return n
}

func (b *Board) CompletedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, t := range b.tasks {
		if t.IsComplete {
			n++
		}
	}
	return n
}

// ResetDaily makes completed daily tasks available again.
func (b *Board) ResetDaily() (int, error) {
	return b.resetFrequency(model.FrequencyDaily)
}

// ResetWeekly makes completed weekly tasks available again.
func (b *Board) ResetWeekly() (int, error) {
	return b.resetFrequency(model.FrequencyWeekly)
}

func (b *Board) resetFrequency(freq model.Frequency) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := slices.Clone(b.tasks)
	n := 0
	for i, t := range next {
		if t.Frequency == freq && t.IsComplete {
			next[i] = clearCompletion(t)
			n++
		}
	}
	if err := b.commit(next); err != nil {
		return 0, err
	}
	return n, nil
}

// ResetAll replaces the whole board with the starter tasks.
func (b *Board) ResetAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commit(seedTasks(b.now()))
}
