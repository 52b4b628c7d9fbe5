package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/member"
)

type MemberHandler struct {
	hh     *household.Household
	logger *slog.Logger
}

func NewMemberHandler(hh *household.Household, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{hh: hh, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Members.List())
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m := h.hh.Members.Get(r.PathValue("id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type memberRequest struct {
	Name        string `json:"name"`
	AvatarColor string `json:"avatarColor"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	m, err := h.hh.Members.Add(req.Name, req.AvatarColor)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	h.hh.Notify("member", "created", m.ID)
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p member.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	m, err := h.hh.Members.Update(r.PathValue("id"), p)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	h.hh.Notify("member", "updated", m.ID)
	writeJSON(w, http.StatusOK, m)
}

// Delete removes the member. Tasks, rewards and achievements that reference
// the member keep the dangling id.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.hh.Members.Delete(id); err != nil {
		h.logger.Error("delete member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}
	h.hh.Notify("member", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.hh.Members.Get(id) == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, h.hh.Members.PointsHistory(id))
}

func (h *MemberHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Members.Leaderboard())
}

func (h *MemberHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Rewards.RedemptionsByMember(r.PathValue("id")))
}

func (h *MemberHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Achievements.MemberAchievements(r.PathValue("id")))
}

func (h *MemberHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.hh.Members.Get(id) == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, h.hh.Stats(id))
}

func (h *MemberHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	m := h.hh.Members.CurrentMember()
	if m == nil {
		writeError(w, http.StatusNotFound, "no members yet")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"memberId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.hh.Members.Get(req.MemberID) == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if err := h.hh.Members.SetCurrentMember(req.MemberID); err != nil {
		h.logger.Error("set current member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set current member")
		return
	}
	h.hh.Notify("member", "selected", req.MemberID)
	writeJSON(w, http.StatusOK, h.hh.Members.CurrentMember())
}

// AdjustPoints credits or debits a member by hand. Debits stop at zero.
func (h *MemberHandler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = "Manual adjustment"
	}

	id := r.PathValue("id")
	out, err := h.hh.AwardPoints(id, req.Amount, req.Reason)
	if err != nil {
		h.logger.Error("adjust points", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to adjust points")
		return
	}
	if !out.OK {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member": h.hh.Members.Get(id),
		"earned": out.Earned,
	})
}
