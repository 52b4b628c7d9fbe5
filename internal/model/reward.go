package model

import "time"

type Reward struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	Points      int                `json:"points"`
	CreatedAt   time.Time          `json:"createdAt"`
	IsAvailable bool               `json:"isAvailable"`
	RedeemedBy  []RedemptionRecord `json:"redeemedBy"`
}

type RedemptionRecord struct {
	MemberID string    `json:"memberId"`
	Date     time.Time `json:"date"`
}

// Redemption pairs a reward with one of its redemption dates.
type Redemption struct {
	Reward Reward    `json:"reward"`
	Date   time.Time `json:"date"`
}
