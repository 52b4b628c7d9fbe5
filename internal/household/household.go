// Package household ties the domain modules together. It owns the single
// instance of each module and settles operations that span several of them,
// such as crediting points for a completed task.
package household

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/kidpoints/internal/achievement"
	"github.com/dukerupert/kidpoints/internal/member"
	"github.com/dukerupert/kidpoints/internal/reward"
	"github.com/dukerupert/kidpoints/internal/settings"
	"github.com/dukerupert/kidpoints/internal/store"
	"github.com/dukerupert/kidpoints/internal/task"
)

// Notifier receives a change event after every successful mutation.
type Notifier interface {
	Notify(entity, action, id string)
}

// Notifiers fans one event out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(entity, action, id string) {
	for _, n := range ns {
		n.Notify(entity, action, id)
	}
}

type Options struct {
	Logger   *slog.Logger
	Notifier Notifier
}

type Household struct {
	mu       sync.Mutex
	kv       store.KV
	logger   *slog.Logger
	notifier Notifier

	Members      *member.Registry
	Tasks        *task.Board
	Rewards      *reward.Catalog
	Achievements *achievement.Engine
	Settings     *settings.Service
}

// Open builds every module on top of kv. Nothing is read until Load.
func Open(kv store.KV, opts Options) *Household {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Household{
		kv:           kv,
		logger:       logger,
		notifier:     opts.Notifier,
		Members:      member.New(kv, logger.With("component", "members")),
		Tasks:        task.New(kv, logger.With("component", "tasks")),
		Rewards:      reward.New(kv, logger.With("component", "rewards")),
		Achievements: achievement.New(kv, logger.With("component", "achievements")),
		Settings:     settings.New(kv, logger.With("component", "settings")),
	}
}

// KV exposes the backing store for snapshotting.
func (h *Household) KV() store.KV {
	return h.kv
}

// SetNotifier replaces the change-event sink. Call it before serving.
func (h *Household) SetNotifier(n Notifier) {
	h.notifier = n
}

// Load hydrates every module from the store.
func (h *Household) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Settings.Load(); err != nil {
		return err
	}
	return h.loadData()
}

func (h *Household) loadData() error {
	loaders := []struct {
		name string
		load func() error
	}{
		{"members", h.Members.Load},
		{"tasks", h.Tasks.Load},
		{"rewards", h.Rewards.Load},
		{"achievements", h.Achievements.Load},
	}
	for _, l := range loaders {
		if err := l.load(); err != nil {
			return fmt.Errorf("load %s: %w", l.name, err)
		}
	}
	return nil
}

// Notify publishes a change event. Handlers that mutate a single module call
// it directly after a successful write.
func (h *Household) Notify(entity, action, id string) {
	if h.notifier != nil {
		h.notifier.Notify(entity, action, id)
	}
}
