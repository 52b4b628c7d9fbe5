package achievement

import "github.com/dukerupert/kidpoints/internal/model"

// Stats summarizes a member's activity for qualification checks.
type Stats struct {
	TasksCompleted   int
	TasksByFrequency map[model.Frequency]int
	LifetimePoints   int
	RewardsRedeemed  int
}

// Qualifies reports whether stats meet req. Custom requirements are only
// ever met by a manual award.
func Qualifies(req model.Requirement, stats Stats) bool {
	var have int
	switch req.Type {
	case model.RequirementTaskCount:
		have = stats.TasksCompleted
		if req.TaskType != "" {
			have = stats.TasksByFrequency[req.TaskType]
		}
	case model.RequirementPointsTotal:
		have = stats.LifetimePoints
	case model.RequirementRewardsRedeemed:
		have = stats.RewardsRedeemed
	default:
		return false
	}
	return have >= req.Count
}
