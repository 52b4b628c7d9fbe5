// Package reset reopens daily and weekly tasks automatically when the
// calendar rolls over.
package reset

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Household is the part of household.Household the scheduler drives.
type Household interface {
	LastResets() (daily, weekly time.Time)
	ResetDailyTasks() (int, error)
	ResetWeeklyTasks() (int, error)
}

// Scheduler checks on an interval whether a new day or ISO week has begun
// since the last reset and runs the matching reset.
type Scheduler struct {
	mu       sync.RWMutex
	hh       Household
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(hh Household, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		hh:       hh,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Start runs one check immediately, then one per interval until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.Check()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Check performs whichever resets are due and reports what ran.
func (s *Scheduler) Check() (daily, weekly bool) {
	now := s.now()
	lastDaily, lastWeekly := s.hh.LastResets()

	if !sameDay(lastDaily, now) {
		if n, err := s.hh.ResetDailyTasks(); err != nil {
			s.logger.Error("auto daily reset", "error", err)
		} else {
			s.logger.Info("auto daily reset", "reopened", n)
			daily = true
		}
	}
	if !sameISOWeek(lastWeekly, now) {
		if n, err := s.hh.ResetWeeklyTasks(); err != nil {
			s.logger.Error("auto weekly reset", "error", err)
		} else {
			s.logger.Info("auto weekly reset", "reopened", n)
			weekly = true
		}
	}
	return daily, weekly
}

func sameDay(last, now time.Time) bool {
	ly, lm, ld := last.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ly == ny && lm == nm && ld == nd
}

func sameISOWeek(last, now time.Time) bool {
	ly, lw := last.In(now.Location()).ISOWeek()
	ny, nw := now.ISOWeek()
	return ly == ny && lw == nw
}
