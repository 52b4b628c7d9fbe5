package model

import "time"

type RequirementType string

const (
	RequirementTaskCount       RequirementType = "taskCount"
	RequirementPointsTotal     RequirementType = "pointsTotal"
	RequirementRewardsRedeemed RequirementType = "rewardsRedeemed"
	RequirementCustom          RequirementType = "custom"
)

// Requirement is the qualification rule of an achievement. TaskType filters
// taskCount requirements by task frequency.
type Requirement struct {
	Type     RequirementType `json:"type"`
	Count    int             `json:"count"`
	TaskType Frequency       `json:"taskType,omitempty"`
}

type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Requirement Requirement         `json:"requirement"`
	CreatedAt   time.Time           `json:"createdAt"`
	EarnedBy    []AchievementRecord `json:"earnedBy"`
}

type AchievementRecord struct {
	MemberID string    `json:"memberId"`
	Date     time.Time `json:"date"`
}

// EarnedAchievement pairs an achievement with the date a member earned it.
type EarnedAchievement struct {
	Achievement Achievement `json:"achievement"`
	Date        time.Time   `json:"date"`
}

// HasMember reports whether memberID already holds the achievement.
func (a Achievement) HasMember(memberID string) bool {
	for _, r := range a.EarnedBy {
		if r.MemberID == memberID {
			return true
		}
	}
	return false
}
