package model

import "time"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Settings struct {
	// AdminPassword holds a bcrypt hash, or legacy plaintext until the next
	// successful login upgrades it.
	AdminPassword        *string   `json:"adminPassword"`
	IsAuthenticated      bool      `json:"isAuthenticated"`
	LastDailyReset       time.Time `json:"lastDailyReset"`
	LastWeeklyReset      time.Time `json:"lastWeeklyReset"`
	NotificationsEnabled bool      `json:"notificationsEnabled"`
	Theme                Theme     `json:"theme"`
}
