package household

import (
	"fmt"

	"github.com/dukerupert/kidpoints/internal/achievement"
	"github.com/dukerupert/kidpoints/internal/model"
)

// Outcome reports whether a settlement went through and which achievements
// it unlocked.
type Outcome struct {
	OK     bool                `json:"ok"`
	Earned []model.Achievement `json:"earned,omitempty"`
}

// CompleteTask marks the task done for memberID and credits its points.
func (h *Household) CompleteTask(taskID, memberID string) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.Tasks.Get(taskID)
	if t == nil || h.Members.Get(memberID) == nil {
		return Outcome{}, nil
	}

	ok, err := h.Tasks.Complete(taskID, memberID)
	if err != nil || !ok {
		return Outcome{}, err
	}
	if err := h.Members.AddPoints(memberID, t.Points, "Completed: "+t.Title, taskID); err != nil {
		return Outcome{}, fmt.Errorf("credit task points: %w", err)
	}
	h.logger.Info("task completed", "task_id", taskID, "member_id", memberID, "points", t.Points)
	h.Notify("task", "completed", taskID)
	h.Notify("member", "updated", memberID)

	earned, err := h.check(memberID)
	if err != nil {
		return Outcome{OK: true}, err
	}
	return Outcome{OK: true, Earned: earned}, nil
}

// RevertTaskCompletion undoes memberID's completion and takes back the points
// it earned, never below zero.
func (h *Household) RevertTaskCompletion(taskID, memberID string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.Tasks.Get(taskID)
	if t == nil {
		return false, nil
	}

	ok, err := h.Tasks.Revert(taskID, memberID)
	if err != nil || !ok {
		return false, err
	}
	if err := h.Members.ReversePoints(memberID, t.Points, "Reverted: "+t.Title, taskID); err != nil {
		return true, fmt.Errorf("reverse task points: %w", err)
	}
	h.logger.Info("task reverted", "task_id", taskID, "member_id", memberID)
	h.Notify("task", "reverted", taskID)
	h.Notify("member", "updated", memberID)
	return true, nil
}

// RedeemReward spends memberID's points on the reward. It fails for unknown
// members, balances below the cost, and anything the catalog refuses.
func (h *Household) RedeemReward(rewardID, memberID string) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := h.Members.Get(memberID)
	r := h.Rewards.Get(rewardID)
	if m == nil || r == nil || m.Points < r.Points {
		return Outcome{}, nil
	}

	ok, err := h.Rewards.Redeem(rewardID, memberID)
	if err != nil || !ok {
		return Outcome{}, err
	}
	if err := h.Members.RemovePoints(memberID, r.Points, "Redeemed: "+r.Title, rewardID); err != nil {
		return Outcome{OK: true}, fmt.Errorf("debit reward cost: %w", err)
	}
	h.logger.Info("reward redeemed", "reward_id", rewardID, "member_id", memberID, "cost", r.Points)
	h.Notify("reward", "redeemed", rewardID)
	h.Notify("member", "updated", memberID)

	earned, err := h.check(memberID)
	if err != nil {
		return Outcome{OK: true}, err
	}
	return Outcome{OK: true, Earned: earned}, nil
}

// AwardPoints is a manual adjustment. Positive amounts credit, negative
// amounts debit down to zero.
func (h *Household) AwardPoints(memberID string, amount int, reason string) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Members.Get(memberID) == nil {
		return Outcome{}, nil
	}

	var err error
	if amount >= 0 {
		err = h.Members.AddPoints(memberID, amount, reason, "")
	} else {
		err = h.Members.RemovePoints(memberID, -amount, reason, "")
	}
	if err != nil {
		return Outcome{}, err
	}
	h.Notify("member", "updated", memberID)

	earned, err := h.check(memberID)
	if err != nil {
		return Outcome{OK: true}, err
	}
	return Outcome{OK: true, Earned: earned}, nil
}

// AwardAchievement grants an achievement by hand. Custom achievements are
// only ever earned this way.
func (h *Household) AwardAchievement(achievementID, memberID string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Members.Get(memberID) == nil {
		return false, nil
	}
	ok, err := h.Achievements.Award(achievementID, memberID)
	if err != nil || !ok {
		return false, err
	}
	h.Notify("achievement", "earned", achievementID)
	return true, nil
}

// CheckAchievements re-evaluates memberID against every achievement.
func (h *Household) CheckAchievements(memberID string) ([]model.Achievement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.check(memberID)
}

func (h *Household) check(memberID string) ([]model.Achievement, error) {
	earned, err := h.Achievements.Check(memberID, h.stats(memberID))
	if err != nil {
		return nil, fmt.Errorf("check achievements: %w", err)
	}
	for _, a := range earned {
		h.Notify("achievement", "earned", a.ID)
	}
	return earned, nil
}

// Stats summarizes memberID's activity from the ledger and the catalog.
func (h *Household) Stats(memberID string) achievement.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats(memberID)
}

func (h *Household) stats(memberID string) achievement.Stats {
	s := achievement.Stats{TasksByFrequency: map[model.Frequency]int{}}
	for _, e := range h.Members.PointsHistory(memberID) {
		if e.RewardID == "" {
			s.LifetimePoints += e.Points
		}
		if e.TaskID == "" {
			continue
		}
		n := 1
		if e.Reversal {
			n = -1
		}
		s.TasksCompleted += n
		// Deleted tasks only count toward the total.
		if t := h.Tasks.Get(e.TaskID); t != nil {
			s.TasksByFrequency[t.Frequency] += n
		}
	}
	s.RewardsRedeemed = h.Rewards.RedemptionCount(memberID)
	return s
}
