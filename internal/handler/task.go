package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/task"
)

type TaskHandler struct {
	hh     *household.Household
	logger *slog.Logger
	now    func() time.Time
}

func NewTaskHandler(hh *household.Household, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{hh: hh, logger: logger, now: time.Now}
}

// taskView adds the computed status to a task.
type taskView struct {
	model.Task
	Status task.Status `json:"status"`
}

func (h *TaskHandler) view(t model.Task) taskView {
	return taskView{Task: t, Status: task.ComputeStatus(t, h.now())}
}

// List returns every task, or with ?member= the tasks that member can see.
// ?available=true drops completed tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var tasks []model.Task
	memberID := r.URL.Query().Get("member")
	switch {
	case memberID != "" && r.URL.Query().Get("available") == "true":
		tasks = h.hh.Tasks.AvailableTasks(memberID)
	case memberID != "":
		tasks = h.hh.Tasks.MemberTasks(memberID)
	default:
		tasks = h.hh.Tasks.List()
	}

	out := make([]taskView, len(tasks))
	for i, t := range tasks {
		out[i] = h.view(t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaskHandler) viewByID(id string) *taskView {
	t := h.hh.Tasks.Get(id)
	if t == nil {
		return nil
	}
	v := h.view(*t)
	return &v
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t := h.hh.Tasks.Get(r.PathValue("id"))
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, h.view(*t))
}

func (h *TaskHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"pending":   h.hh.Tasks.PendingCount(),
		"completed": h.hh.Tasks.CompletedCount(),
	})
}

func validateTask(title string, points int, freq model.Frequency) string {
	if strings.TrimSpace(title) == "" {
		return "title is required"
	}
	if points < 0 {
		return "points must be >= 0"
	}
	if freq != "" && !freq.Valid() {
		return "frequency must be daily, weekly or once"
	}
	return ""
}

func validateTaskPatch(p task.Patch) string {
	switch {
	case p.Title != nil && strings.TrimSpace(*p.Title) == "":
		return "title cannot be empty"
	case p.Points != nil && *p.Points < 0:
		return "points must be >= 0"
	case p.Frequency != nil && !p.Frequency.Valid():
		return "frequency must be daily, weekly or once"
	}
	return ""
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in task.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if msg := validateTask(in.Title, in.Points, in.Frequency); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := h.hh.Tasks.Add(in)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	h.hh.Notify("task", "created", t.ID)
	writeJSON(w, http.StatusCreated, h.view(*t))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	if msg := validateTaskPatch(p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := h.hh.Tasks.Update(r.PathValue("id"), p)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	h.hh.Notify("task", "updated", t.ID)
	writeJSON(w, http.StatusOK, h.view(*t))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.hh.Tasks.Delete(id); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	h.hh.Notify("task", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// actingMember is the memberId from the body, or the selected member.
func (h *TaskHandler) actingMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		MemberID string `json:"memberId"`
	}
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if req.MemberID == "" {
		if m := h.hh.Members.CurrentMember(); m != nil {
			req.MemberID = m.ID
		}
	}
	if req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "memberId is required")
		return "", false
	}
	return req.MemberID, true
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.actingMember(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	out, err := h.hh.CompleteTask(id, memberID)
	if err != nil {
		h.logger.Error("complete task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}
	if !out.OK {
		writeError(w, http.StatusConflict, "task cannot be completed by this member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":   h.viewByID(id),
		"member": h.hh.Members.Get(memberID),
		"earned": out.Earned,
	})
}

func (h *TaskHandler) Revert(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.actingMember(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	reverted, err := h.hh.RevertTaskCompletion(id, memberID)
	if err != nil {
		h.logger.Error("revert task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to revert task")
		return
	}
	if !reverted {
		writeError(w, http.StatusConflict, "task was not completed by this member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":   h.viewByID(id),
		"member": h.hh.Members.Get(memberID),
	})
}

// Reset returns a handler that reopens tasks of the given kind: daily, weekly
// or all.
func (h *TaskHandler) Reset(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			n   int
			err error
		)
		switch kind {
		case "daily":
			n, err = h.hh.ResetDailyTasks()
		case "weekly":
			n, err = h.hh.ResetWeeklyTasks()
		default:
			err = h.hh.ResetAllTasks()
			n = len(h.hh.Tasks.List())
		}
		if err != nil {
			h.logger.Error("reset tasks", "kind", kind, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to reset tasks")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"reset": n})
	}
}
