package push

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

// Subscriptions is the set of registered devices, keyed by endpoint.
type Subscriptions struct {
	mu     sync.RWMutex
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
	subs   []model.PushSubscription
}

func NewSubscriptions(kv store.KV, logger *slog.Logger) *Subscriptions {
	return &Subscriptions{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		subs:   []model.PushSubscription{},
	}
}

func (s *Subscriptions) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []model.PushSubscription
	_, err := store.LoadJSON(s.kv, store.KeyPushSubscriptions, &subs)
	if errors.Is(err, store.ErrCorrupt) {
		s.logger.Warn("resetting corrupt push subscriptions slot", "error", err)
		return s.commit([]model.PushSubscription{})
	}
	if err != nil {
		return fmt.Errorf("load push subscriptions: %w", err)
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	s.subs = subs
	return nil
}

func (s *Subscriptions) commit(next []model.PushSubscription) error {
	if err := store.SaveJSON(s.kv, store.KeyPushSubscriptions, next); err != nil {
		return fmt.Errorf("save push subscriptions: %w", err)
	}
	s.subs = next
	return nil
}

func (s *Subscriptions) List() []model.PushSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subs)
}

// Add registers sub, replacing any earlier registration for the same
// endpoint.
func (s *Subscriptions) Add(sub model.PushSubscription) (model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.CreatedAt = s.now()
	next := slices.DeleteFunc(slices.Clone(s.subs), func(x model.PushSubscription) bool {
		return x.Endpoint == sub.Endpoint
	})
	next = append(next, sub)
	if err := s.commit(next); err != nil {
		return model.PushSubscription{}, err
	}
	return sub, nil
}

// Remove drops the registration for endpoint. Unknown endpoints are ignored.
func (s *Subscriptions) Remove(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.subs, func(x model.PushSubscription) bool { return x.Endpoint == endpoint }) {
		return nil
	}
	next := slices.DeleteFunc(slices.Clone(s.subs), func(x model.PushSubscription) bool {
		return x.Endpoint == endpoint
	})
	return s.commit(next)
}
