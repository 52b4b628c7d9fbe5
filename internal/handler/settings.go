package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/settings"
)

type SettingsHandler struct {
	hh     *household.Household
	logger *slog.Logger
}

func NewSettingsHandler(hh *household.Household, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{hh: hh, logger: logger}
}

func (h *SettingsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ok, err := h.hh.Settings.Login(req.Password)
	if err != nil {
		h.logger.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}
	h.hh.Notify("session", "login", "")
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *SettingsHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.hh.Settings.Logout(); err != nil {
		h.logger.Error("logout", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.hh.Notify("session", "logout", "")
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (h *SettingsHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"authenticated":    h.hh.Settings.IsAuthenticated(),
		"passwordRequired": h.hh.Settings.HasAdminPassword(),
	})
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hh.Settings.Get())
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p settings.Patch
	if !decodeJSON(w, r, &p) {
		return
	}

	s, err := h.hh.Settings.Update(p)
	if errors.Is(err, settings.ErrInvalidTheme) {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}
	if err != nil {
		h.logger.Error("update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	h.hh.Notify("settings", "updated", "")
	writeJSON(w, http.StatusOK, s)
}

// SetPassword changes the admin password. While no password is configured
// anyone may set the first one; after that an admin session is required.
func (h *SettingsHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	if h.hh.Settings.HasAdminPassword() && !h.hh.Settings.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "admin login required")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Password) < 4 {
		writeError(w, http.StatusBadRequest, "password must be at least 4 characters")
		return
	}

	if err := h.hh.Settings.SetAdminPassword(req.Password); err != nil {
		h.logger.Error("set admin password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set password")
		return
	}
	h.logger.Info("admin password changed", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password set"})
}

// ResetData wipes every member, task, reward and achievement.
func (h *SettingsHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.hh.ResetData(); err != nil {
		h.logger.Error("reset data", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
