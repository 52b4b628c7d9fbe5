package achievement

import (
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
)

var starterAchievements = []struct {
	title, description, icon string
	req                      model.Requirement
}{
	{"First Steps", "Complete your first task", "👣", model.Requirement{Type: model.RequirementTaskCount, Count: 1}},
	{"Diligent Worker", "Complete 10 tasks", "💪", model.Requirement{Type: model.RequirementTaskCount, Count: 10}},
	{"Point Collector", "Earn 100 points", "⭐", model.Requirement{Type: model.RequirementPointsTotal, Count: 100}},
	{"Big Spender", "Redeem 3 rewards", "🎁", model.Requirement{Type: model.RequirementRewardsRedeemed, Count: 3}},
}

func seedAchievements(now time.Time) []model.Achievement {
	out := make([]model.Achievement, 0, len(starterAchievements))
	for _, s := range starterAchievements {
		out = append(out, model.Achievement{
			ID:          model.NewID(),
			Title:       s.title,
			Description: s.description,
			Icon:        s.icon,
			Requirement: s.req,
			CreatedAt:   now,
			EarnedBy:    []model.AchievementRecord{},
		})
	}
	return out
}
