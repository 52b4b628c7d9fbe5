// Package member owns the family roster, point balances and the point ledger.
package member

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

// Registry holds the members collection and mirrors it to the KV store after
// every mutation.
type Registry struct {
	mu      sync.RWMutex
	kv      store.KV
	logger  *slog.Logger
	now     func() time.Time
	members []model.Member
	current string
}

func New(kv store.KV, logger *slog.Logger) *Registry {
	return &Registry{
		kv:      kv,
		logger:  logger,
		now:     time.Now,
		members: []model.Member{},
	}
}

// Load replaces the in-memory roster with the persisted one. A corrupt slot is
// reset to an empty roster and re-persisted.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var members []model.Member
	_, err := store.LoadJSON(r.kv, store.KeyMembers, &members)
	if errors.Is(err, store.ErrCorrupt) {
		r.logger.Warn("resetting corrupt members slot", "error", err)
		members = []model.Member{}
		if err := store.SaveJSON(r.kv, store.KeyMembers, members); err != nil {
			return fmt.Errorf("save members: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	if members == nil {
		members = []model.Member{}
	}
	for i := range members {
		if members[i].PointsHistory == nil {
			members[i].PointsHistory = []model.PointHistoryEntry{}
		}
	}
	r.members = members

	var current string
	_, err = store.LoadJSON(r.kv, store.KeyCurrentMember, &current)
	if errors.Is(err, store.ErrCorrupt) {
		r.logger.Warn("resetting corrupt current member slot", "error", err)
		current = ""
	} else if err != nil {
		return fmt.Errorf("load current member: %w", err)
	}
	r.current = current

	return r.resolveCurrent()
}

// resolveCurrent falls back to the first member when the selection is stale.
func (r *Registry) resolveCurrent() error {
	if r.indexOf(r.current) >= 0 {
		return nil
	}
	next := ""
	if len(r.members) > 0 {
		next = r.members[0].ID
	}
	if next == r.current {
		return nil
	}
	if err := r.saveCurrent(next); err != nil {
		return err
	}
	r.current = next
	return nil
}

func (r *Registry) saveCurrent(id string) error {
	if id == "" {
		if err := r.kv.Delete(store.KeyCurrentMember); err != nil {
			return fmt.Errorf("clear current member: %w", err)
		}
		return nil
	}
	if err := store.SaveJSON(r.kv, store.KeyCurrentMember, id); err != nil {
		return fmt.Errorf("save current member: %w", err)
	}
	return nil
}

// commit persists next and, only on success, makes it the live roster.
func (r *Registry) commit(next []model.Member) error {
	if err := store.SaveJSON(r.kv, store.KeyMembers, next); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	r.members = next
	return nil
}

func (r *Registry) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.members, func(m model.Member) bool { return m.ID == id })
}

func clone(m model.Member) model.Member {
	m.PointsHistory = slices.Clone(m.PointsHistory)
	return m
}

// List returns every member in creation order.
func (r *Registry) List() []model.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Member, len(r.members))
	for i, m := range r.members {
		out[i] = clone(m)
	}
	return out
}

// Get returns the member or nil when id is unknown.
func (r *Registry) Get(id string) *model.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil
	}
	m := clone(r.members[i])
	return &m
}

// Add creates a member with an empty ledger. The first member ever created
// in an empty roster is the admin.
func (r *Registry) Add(name, avatarColor string) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := model.Member{
		ID:            model.NewID(),
		Name:          name,
		AvatarColor:   avatarColor,
		Points:        0,
		CreatedAt:     r.now(),
		PointsHistory: []model.PointHistoryEntry{},
		IsAdmin:       len(r.members) == 0,
	}

	next := append(slices.Clip(r.members), m)
	if err := r.commit(next); err != nil {
		return nil, err
	}
	if r.current == "" {
		if err := r.saveCurrent(m.ID); err != nil {
			return nil, err
		}
		r.current = m.ID
	}

	out := clone(m)
	return &out, nil
}

// Patch lists the profile fields Update may change. Nil fields are kept.
type Patch struct {
	Name        *string `json:"name"`
	AvatarColor *string `json:"avatarColor"`
}

// Update merges p into the member. Unknown ids return nil, nil.
func (r *Registry) Update(id string, p Patch) (*model.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	m := clone(r.members[i])
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.AvatarColor != nil {
		m.AvatarColor = *p.AvatarColor
	}

	next := slices.Clone(r.members)
	next[i] = m
	if err := r.commit(next); err != nil {
		return nil, err
	}

	out := clone(m)
	return &out, nil
}

// Delete removes the member. References held by tasks, rewards and
// achievements are left in place.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(r.members), i, i+1)
	if err := r.commit(next); err != nil {
		return err
	}
	return r.resolveCurrent()
}

// AddPoints credits amount and appends a ledger entry. A negative amount is
// clamped so the balance stays at or above zero; the entry records the
// applied delta.
func (r *Registry) AddPoints(memberID string, amount int, reason, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(memberID, func(m *model.Member) model.PointHistoryEntry {
		delta := max(amount, -m.Points)
		m.Points += delta
		return model.PointHistoryEntry{Points: delta, Reason: reason, TaskID: taskID}
	})
}

// RemovePoints debits min(amount, balance) and records the negated amount
// actually removed, not the amount requested.
func (r *Registry) RemovePoints(memberID string, amount int, reason, rewardID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(memberID, func(m *model.Member) model.PointHistoryEntry {
		removed := min(amount, m.Points)
		m.Points -= removed
		return model.PointHistoryEntry{Points: -removed, Reason: reason, RewardID: rewardID}
	})
}

// ReversePoints takes back points earned from a task whose completion was
// reverted. It clamps like RemovePoints and marks the entry as a reversal.
func (r *Registry) ReversePoints(memberID string, amount int, reason, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(memberID, func(m *model.Member) model.PointHistoryEntry {
		removed := min(amount, m.Points)
		m.Points -= removed
		return model.PointHistoryEntry{Points: -removed, Reason: reason, TaskID: taskID, Reversal: true}
	})
}

func (r *Registry) apply(memberID string, fn func(m *model.Member) model.PointHistoryEntry) error {
	i := r.indexOf(memberID)
	if i < 0 {
		return nil
	}

	m := r.members[i]
	entry := fn(&m)
	entry.Date = r.now()
	m.PointsHistory = append(slices.Clip(m.PointsHistory), entry)

	next := slices.Clone(r.members)
	next[i] = m
	return r.commit(next)
}

// PointsHistory returns the member's ledger, oldest first.
func (r *Registry) PointsHistory(memberID string) []model.PointHistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(memberID)
	if i < 0 {
		return []model.PointHistoryEntry{}
	}
	return slices.Clone(r.members[i].PointsHistory)
}

// Leaderboard returns members by points descending. Ties keep roster order.
func (r *Registry) Leaderboard() []model.Member {
	board := r.List()
	slices.SortStableFunc(board, func(a, b model.Member) int {
		return b.Points - a.Points
	})
	return board
}

// SetCurrentMember selects the session member. Unknown ids are ignored.
func (r *Registry) SetCurrentMember(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) < 0 || id == r.current {
		return nil
	}
	if err := r.saveCurrent(id); err != nil {
		return err
	}
	r.current = id
	return nil
}

// CurrentMember returns the selected member, or nil when the roster is empty.
func (r *Registry) CurrentMember() *model.Member {
	r.mu.RLock()
	id := r.current
	r.mu.RUnlock()
	return r.Get(id)
}
