package model

import "time"

type Member struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	AvatarColor   string              `json:"avatarColor"`
	Points        int                 `json:"points"`
	CreatedAt     time.Time           `json:"createdAt"`
	PointsHistory []PointHistoryEntry `json:"pointsHistory"`
	IsAdmin       bool                `json:"isAdmin"`
}

// PointHistoryEntry is one signed ledger line. TaskID and RewardID are
// provenance only.
type PointHistoryEntry struct {
	Date     time.Time `json:"date"`
	Points   int       `json:"points"`
	Reason   string    `json:"reason"`
	TaskID   string    `json:"taskId,omitempty"`
	RewardID string    `json:"rewardId,omitempty"`
	Reversal bool      `json:"reversal,omitempty"`
}

// LedgerTotal sums every ledger delta.
func (m Member) LedgerTotal() int {
	total := 0
	for _, e := range m.PointsHistory {
		total += e.Points
	}
	return total
}
