// Package achievement owns badge definitions, who earned them, and the
// qualification rules that award them automatically.
package achievement

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

type Engine struct {
	mu           sync.RWMutex
	kv           store.KV
	logger       *slog.Logger
	now          func() time.Time
	achievements []model.Achievement
}

func New(kv store.KV, logger *slog.Logger) *Engine {
	return &Engine{
		kv:           kv,
		logger:       logger,
		now:          time.Now,
		achievements: []model.Achievement{},
	}
}

// Load hydrates the engine. A missing slot is seeded with the starter
// achievements; a corrupt one is reset to empty.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var achievements []model.Achievement
	found, err := store.LoadJSON(e.kv, store.KeyAchievements, &achievements)
	if errors.Is(err, store.ErrCorrupt) {
		e.logger.Warn("resetting corrupt achievements slot", "error", err)
		return e.commit([]model.Achievement{})
	}
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}
	if !found {
		return e.commit(seedAchievements(e.now()))
	}

	if achievements == nil {
		achievements = []model.Achievement{}
	}
	for i := range achievements {
		if achievements[i].EarnedBy == nil {
			achievements[i].EarnedBy = []model.AchievementRecord{}
		}
	}
	e.achievements = achievements
	return nil
}

func (e *Engine) commit(next []model.Achievement) error {
	if err := store.SaveJSON(e.kv, store.KeyAchievements, next); err != nil {
		return fmt.Errorf("save achievements: %w", err)
	}
	e.achievements = next
	return nil
}

func (e *Engine) indexOf(id string) int {
	return slices.IndexFunc(e.achievements, func(a model.Achievement) bool { return a.ID == id })
}

func clone(a model.Achievement) model.Achievement {
	a.EarnedBy = slices.Clone(a.EarnedBy)
	return a
}

type Input struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Requirement model.Requirement `json:"requirement"`
}

func (e *Engine) Add(in Input) (*model.Achievement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := model.Achievement{
		ID:          model.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Requirement: in.Requirement,
		CreatedAt:   e.now(),
		EarnedBy:    []model.AchievementRecord{},
	}
	if err := e.commit(append(slices.Clip(e.achievements), a)); err != nil {
		return nil, err
	}
	out := clone(a)
	return &out, nil
}

// Patch lists the fields Update may change. Earned records are only ever
// appended by Award.
type Patch struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Icon        *string            `json:"icon"`
	Requirement *model.Requirement `json:"requirement"`
}

func (e *Engine) Update(id string, p Patch) (*model.Achievement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	a := clone(e.achievements[i])
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Icon != nil {
		a.Icon = *p.Icon
	}
	if p.Requirement != nil {
		a.Requirement = *p.Requirement
	}

	next := slices.Clone(e.achievements)
	next[i] = a
	if err := e.commit(next); err != nil {
		return nil, err
	}
	out := clone(a)
	return &out, nil
}

func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return nil
	}
	return e.commit(slices.Delete(slices.Clone(e.achievements), i, i+1))
}

func (e *Engine) Get(id string) *model.Achievement {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.indexOf(id)
	if i < 0 {
		return nil
	}
	a := clone(e.achievements[i])
	return &a
}

func (e *Engine) List() []model.Achievement {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.Achievement, len(e.achievements))
	for i, a := range e.achievements {
		out[i] = clone(a)
	}
	return out
}

// Award grants the achievement to memberID. It reports false for unknown
// achievements and for members who already hold it.
func (e *Engine) Award(achievementID, memberID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(achievementID)
	if i < 0 || e.achievements[i].HasMember(memberID) {
		return false, nil
	}

	next := slices.Clone(e.achievements)
	next[i] = e.award(next[i], memberID)
	if err := e.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) award(a model.Achievement, memberID string) model.Achievement {
	a.EarnedBy = append(slices.Clip(a.EarnedBy), model.AchievementRecord{
		MemberID: memberID,
		Date:     e.now(),
	})
	return a
}

// MemberAchievements lists what memberID has earned, most recent first.
func (e *Engine) MemberAchievements(memberID string) []model.EarnedAchievement {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []model.EarnedAchievement{}
	for _, a := range e.achievements {
		for _, rec := range a.EarnedBy {
			if rec.MemberID == memberID {
				out = append(out, model.EarnedAchievement{Achievement: clone(a), Date: rec.Date})
				break
			}
		}
	}
	slices.SortStableFunc(out, func(a, b model.EarnedAchievement) int {
		return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano())
	})
	return out
}

// Check awards every achievement memberID newly qualifies for and returns
// them. All awards land in a single write.
func (e *Engine) Check(memberID string, stats Stats) ([]model.Achievement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var earned []model.Achievement
	next := slices.Clone(e.achievements)
	for i, a := range next {
		if a.HasMember(memberID) || !Qualifies(a.Requirement, stats) {
			continue
		}
		next[i] = e.award(a, memberID)
		earned = append(earned, clone(next[i]))
	}
	if len(earned) == 0 {
		return nil, nil
	}

	if err := e.commit(next); err != nil {
		return nil, err
	}
	for _, a := range earned {
		e.logger.Info("achievement earned", "member_id", memberID, "achievement", a.Title)
	}
	return earned, nil
}
