package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kidpoints/internal/achievement"
	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/model"
)

type AchievementHandler struct {
	hh     *household.Household
	logger *slog.Logger
}

func NewAchievementHandler(hh *household.Household, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{hh: hh, logger: logger}
}

func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Achievements.List())
}

func validRequirement(req model.Requirement) bool {
	switch req.Type {
	case model.RequirementTaskCount:
		return req.Count >= 0 && (req.TaskType == "" || req.TaskType.Valid())
	case model.RequirementPointsTotal, model.RequirementRewardsRedeemed:
		return req.Count >= 0
	case model.RequirementCustom:
		return true
	}
	return false
}

func (h *AchievementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in achievement.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validRequirement(in.Requirement) {
		writeError(w, http.StatusBadRequest, "invalid requirement")
		return
	}

	a, err := h.hh.Achievements.Add(in)
	if err != nil {
		h.logger.Error("create achievement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create achievement")
		return
	}
	h.hh.Notify("achievement", "created", a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *AchievementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p achievement.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if p.Requirement != nil && !validRequirement(*p.Requirement) {
		writeError(w, http.StatusBadRequest, "invalid requirement")
		return
	}

	a, err := h.hh.Achievements.Update(r.PathValue("id"), p)
	if err != nil {
		h.logger.Error("update achievement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update achievement")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "achievement not found")
		return
	}
	h.hh.Notify("achievement", "updated", a.ID)
	writeJSON(w, http.StatusOK, a)
}

func (h *AchievementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.hh.Achievements.Delete(id); err != nil {
		h.logger.Error("delete achievement", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete achievement")
		return
	}
	h.hh.Notify("achievement", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AchievementHandler) Award(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"memberId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	awarded, err := h.hh.AwardAchievement(id, req.MemberID)
	if err != nil {
		h.logger.Error("award achievement", "achievement_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to award achievement")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"awarded": awarded})
}

// Check re-evaluates a member against every achievement.
func (h *AchievementHandler) Check(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.hh.Members.Get(id) == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	earned, err := h.hh.CheckAchievements(id)
	if err != nil {
		h.logger.Error("check achievements", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check achievements")
		return
	}
	if earned == nil {
		earned = []model.Achievement{}
	}
	writeJSON(w, http.StatusOK, earned)
}
