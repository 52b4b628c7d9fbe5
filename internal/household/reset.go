package household

import (
	"fmt"
	"time"
)

// ResetDailyTasks reopens completed daily tasks and stamps the reset time.
func (h *Household) ResetDailyTasks() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.Tasks.ResetDaily()
	if err != nil {
		return 0, err
	}
	if err := h.Settings.MarkDailyReset(); err != nil {
		return n, err
	}
	h.logger.Info("daily tasks reset", "count", n)
	h.Notify("task", "reset", "daily")
	return n, nil
}

// ResetWeeklyTasks reopens completed weekly tasks and stamps the reset time.
func (h *Household) ResetWeeklyTasks() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.Tasks.ResetWeekly()
	if err != nil {
		return 0, err
	}
	if err := h.Settings.MarkWeeklyReset(); err != nil {
		return n, err
	}
	h.logger.Info("weekly tasks reset", "count", n)
	h.Notify("task", "reset", "weekly")
	return n, nil
}

// ResetAllTasks replaces the board with the starter tasks.
func (h *Household) ResetAllTasks() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Tasks.ResetAll(); err != nil {
		return err
	}
	h.logger.Warn("task board replaced with starter tasks")
	h.Notify("task", "reset", "all")
	return nil
}

// ResetData wipes members, tasks, rewards and achievements, restores default
// settings and reloads. Only the admin password survives.
func (h *Household) ResetData() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Settings.ResetData(); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	if err := h.loadData(); err != nil {
		return err
	}
	h.logger.Warn("household data reset")
	h.Notify("household", "reset", "")
	return nil
}

// Reload re-reads every module after the store was replaced underneath it,
// for example by a backup restore.
func (h *Household) Reload() error {
	if err := h.Load(); err != nil {
		return err
	}
	h.Notify("household", "reloaded", "")
	return nil
}

// LastResets reports when daily and weekly tasks were last reopened.
func (h *Household) LastResets() (daily, weekly time.Time) {
	s := h.Settings.Get()
	return s.LastDailyReset, s.LastWeeklyReset
}
