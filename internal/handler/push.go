package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/push"
)

// PushHandler manages Web Push registrations. A nil service means push is
// not available and every route answers 503.
type PushHandler struct {
	svc      *push.Service
	subs     *push.Subscriptions
	notifier *push.Notifier
	logger   *slog.Logger
}

func NewPushHandler(svc *push.Service, subs *push.Subscriptions, notifier *push.Notifier, logger *slog.Logger) *PushHandler {
	return &PushHandler{svc: svc, subs: subs, notifier: notifier, logger: logger}
}

func (h *PushHandler) available(w http.ResponseWriter) bool {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return false
	}
	return true
}

func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.svc.VAPIDPublicKey()})
}

// subscribeRequest mirrors the browser's PushSubscription.toJSON().
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	DeviceName string `json:"deviceName"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !strings.HasPrefix(req.Endpoint, "https://") || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.Add(model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256dhKey:  req.Keys.P256dh,
		AuthKey:    req.Keys.Auth,
		DeviceName: strings.TrimSpace(req.DeviceName),
	})
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := h.subs.Remove(req.Endpoint); err != nil {
		h.logger.Error("remove push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.subs.List())
}

// Test sends a notification to every device right away.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	sent := h.notifier.Deliver(push.Payload{
		Title: "kidpoints",
		Body:  "Notifications are working",
		Tag:   "test",
	})
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
