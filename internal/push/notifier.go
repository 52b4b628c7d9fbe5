package push

import (
	"errors"
	"log/slog"

	"github.com/dukerupert/kidpoints/internal/model"
)

// Lookup resolves the ids carried by household change events.
type Lookup struct {
	Enabled     func() bool
	Achievement func(id string) *model.Achievement
	Reward      func(id string) *model.Reward
}

// Notifier turns household change events into push notifications. Only
// earned achievements and redeemed rewards are pushed.
type Notifier struct {
	svc    *Service
	subs   *Subscriptions
	lookup Lookup
	logger *slog.Logger
}

func NewNotifier(svc *Service, subs *Subscriptions, lookup Lookup, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, subs: subs, lookup: lookup, logger: logger}
}

// Notify delivers in the background so the caller's locks are not held
// across network round trips.
func (n *Notifier) Notify(entity, action, id string) {
	payload, ok := n.payloadFor(entity, action, id)
	if !ok {
		return
	}
	go n.Deliver(payload)
}

func (n *Notifier) payloadFor(entity, action, id string) (Payload, bool) {
	if n.lookup.Enabled != nil && !n.lookup.Enabled() {
		return Payload{}, false
	}

	switch entity + "_" + action {
	case "achievement_earned":
		a := n.lookup.Achievement(id)
		if a == nil {
			return Payload{}, false
		}
		return Payload{
			Title: "Achievement unlocked " + a.Icon,
			Body:  a.Title + ": " + a.Description,
			URL:   "/achievements",
			Tag:   "achievement-" + id,
		}, true
	case "reward_redeemed":
		r := n.lookup.Reward(id)
		if r == nil {
			return Payload{}, false
		}
		return Payload{
			Title: "Reward redeemed " + r.Icon,
			Body:  r.Title + " is waiting to be handed out",
			URL:   "/rewards",
			Tag:   "reward-" + id,
		}, true
	}
	return Payload{}, false
}

// Deliver sends payload to every subscription and returns how many
// accepted it. Expired subscriptions are removed.
func (n *Notifier) Deliver(payload Payload) int {
	sent := 0
	for _, sub := range n.subs.List() {
		err := n.svc.Send(sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			n.logger.Info("removing expired push subscription", "device", sub.DeviceName)
			if err := n.subs.Remove(sub.Endpoint); err != nil {
				n.logger.Error("remove push subscription", "error", err)
			}
		default:
			n.logger.Warn("push delivery failed", "device", sub.DeviceName, "error", err)
		}
	}
	return sent
}
