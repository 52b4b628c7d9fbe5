package model

import "time"

// PushSubscription is a browser's Web Push registration.
type PushSubscription struct {
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dhKey"`
	AuthKey    string    `json:"authKey"`
	DeviceName string    `json:"deviceName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
