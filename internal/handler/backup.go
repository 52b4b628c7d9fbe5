package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/kidpoints/internal/backup"
)

type BackupHandler struct {
	mgr    *backup.Manager
	logger *slog.Logger
}

func NewBackupHandler(mgr *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{mgr: mgr, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mgr.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	objects, err := h.mgr.List(r.Context())
	if errors.Is(err, backup.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list backups")
		return
	}
	if objects == nil {
		objects = []backup.Object{}
	}
	writeJSON(w, http.StatusOK, objects)
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	key, err := h.mgr.RunNow(r.Context())
	if errors.Is(err, backup.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusBadGateway, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	err := h.mgr.Restore(r.Context(), req.Key)
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
	case errors.Is(err, backup.ErrDecrypt):
		writeError(w, http.StatusUnprocessableEntity, "backup could not be decrypted")
	case err != nil:
		h.logger.Error("restore backup", "key", req.Key, "error", err)
		writeError(w, http.StatusBadGateway, "restore failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
	}
}
