package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/reward"
)

type RewardHandler struct {
	hh     *household.Household
	logger *slog.Logger
}

func NewRewardHandler(hh *household.Household, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{hh: hh, logger: logger}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Rewards.List())
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	rw := h.hh.Rewards.Get(r.PathValue("id"))
	if rw == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, rw)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in reward.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if in.Points < 0 {
		writeError(w, http.StatusBadRequest, "points must be >= 0")
		return
	}

	rw, err := h.hh.Rewards.Add(in)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}
	h.hh.Notify("reward", "created", rw.ID)
	writeJSON(w, http.StatusCreated, rw)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p reward.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if p.Points != nil && *p.Points < 0 {
		writeError(w, http.StatusBadRequest, "points must be >= 0")
		return
	}

	rw, err := h.hh.Rewards.Update(r.PathValue("id"), p)
	if err != nil {
		h.logger.Error("update reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}
	if rw == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	h.hh.Notify("reward", "updated", rw.ID)
	writeJSON(w, http.StatusOK, rw)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.hh.Rewards.Delete(id); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}
	h.hh.Notify("reward", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"memberId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemberID == "" {
		if m := h.hh.Members.CurrentMember(); m != nil {
			req.MemberID = m.ID
		}
	}

	id := r.PathValue("id")
	out, err := h.hh.RedeemReward(id, req.MemberID)
	if err != nil {
		h.logger.Error("redeem reward", "reward_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		return
	}
	if !out.OK {
		writeError(w, http.StatusConflict, "reward unavailable or not enough points")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member": h.hh.Members.Get(req.MemberID),
		"earned": out.Earned,
	})
}
