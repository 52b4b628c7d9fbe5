// Package reward owns the reward catalog and its redemption ledger.
package reward

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
)

type Catalog struct {
	mu      sync.RWMutex
	kv      store.KV
	logger  *slog.Logger
	now     func() time.Time
	rewards []model.Reward
}

func New(kv store.KV, logger *slog.Logger) *Catalog {
	return &Catalog{
		kv:      kv,
		logger:  logger,
		now:     time.Now,
		rewards: []model.Reward{},
	}
}

// Load hydrates the catalog. Missing and corrupt slots both yield an empty
// catalog; a corrupt one is re-persisted.
func (c *Catalog) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rewards []model.Reward
	_, err := store.LoadJSON(c.kv, store.KeyRewards, &rewards)
	if errors.Is(err, store.ErrCorrupt) {
		c.logger.Warn("resetting corrupt rewards slot", "error", err)
		return c.commit([]model.Reward{})
	}
	if err != nil {
		return fmt.Errorf("load rewards: %w", err)
	}

	if rewards == nil {
		rewards = []model.Reward{}
	}
	for i := range rewards {
		if rewards[i].RedeemedBy == nil {
			rewards[i].RedeemedBy = []model.RedemptionRecord{}
		}
	}
	c.rewards = rewards
	return nil
}

func (c *Catalog) commit(next []model.Reward) error {
	if err := store.SaveJSON(c.kv, store.KeyRewards, next); err != nil {
		return fmt.Errorf("save rewards: %w", err)
	}
	c.rewards = next
	return nil
}

func (c *Catalog) indexOf(id string) int {
	return slices.IndexFunc(c.rewards, func(r model.Reward) bool { return r.ID == id })
}

func clone(r model.Reward) model.Reward {
	r.RedeemedBy = slices.Clone(r.RedeemedBy)
	return r
}

type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
}

// Add creates an available reward with no redemptions.
func (c *Catalog) Add(in Input) (*model.Reward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := model.Reward{
		ID:          model.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Points:      in.Points,
		CreatedAt:   c.now(),
		IsAvailable: true,
		RedeemedBy:  []model.RedemptionRecord{},
	}
	if err := c.commit(append(slices.Clip(c.rewards), r)); err != nil {
		return nil, err
	}
	out := clone(r)
	return &out, nil
}

// Patch lists the fields Update may change. The redemption ledger is
// append-only and not patchable.
type Patch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Points      *int    `json:"points"`
	IsAvailable *bool   `json:"isAvailable"`
}

// Update merges p into the reward. Unknown ids return nil, nil.
func (c *Catalog) Update(id string, p Patch) (*model.Reward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	r := clone(c.rewards[i])
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Icon != nil {
		r.Icon = *p.Icon
	}
	if p.Points != nil {
		r.Points = *p.Points
	}
	if p.IsAvailable != nil {
		r.IsAvailable = *p.IsAvailable
	}

	next := slices.Clone(c.rewards)
	next[i] = r
	if err := c.commit(next); err != nil {
		return nil, err
	}
	out := clone(r)
	return &out, nil
}

func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	return c.commit(slices.Delete(slices.Clone(c.rewards), i, i+1))
}

// Get returns the reward or nil when id is unknown.
func (c *Catalog) Get(id string) *model.Reward {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	r := clone(c.rewards[i])
	return &r
}

func (c *Catalog) List() []model.Reward {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Reward, len(c.rewards))
	for i, r := range c.rewards {
		out[i] = clone(r)
	}
	return out
}

// Redeem appends a redemption record for memberID. It fails for unknown or
// unavailable rewards. Balances are the caller's concern, and availability is
// never changed here.
func (c *Catalog) Redeem(rewardID, memberID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(rewardID)
	if i < 0 || !c.rewards[i].IsAvailable {
		return false, nil
	}

	r := c.rewards[i]
	r.RedeemedBy = append(slices.Clip(r.RedeemedBy), model.RedemptionRecord{
		MemberID: memberID,
		Date:     c.now(),
	})

	next := slices.Clone(c.rewards)
	next[i] = r
	if err := c.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// RedemptionsByMember lists every redemption by memberID, newest first.
func (c *Catalog) RedemptionsByMember(memberID string) []model.Redemption {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []model.Redemption{}
	for _, r := range c.rewards {
		for _, rec := range r.RedeemedBy {
			if rec.MemberID == memberID {
				out = append(out, model.Redemption{Reward: clone(r), Date: rec.Date})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b model.Redemption) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out
}

// RedemptionCount counts memberID's redemption records across the catalog.
func (c *Catalog) RedemptionCount(memberID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, r := range c.rewards {
		for _, rec := range r.RedeemedBy {
			if rec.MemberID == memberID {
				n++
			}
		}
	}
	return n
}
