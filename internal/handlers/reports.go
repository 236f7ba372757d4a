package handlers

import (
	"net/http"
	"time"

	"github.com/avelichko/task-tracker/internal/models"
)

// Report endpoints aggregate over the whole store, unscoped by ownership.
// Access is restricted to admins at the routing layer.

func (h *Handler) handleCompletionReport(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Tasks.CompletionStats(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("failed to compute completion stats")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleOverdueReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tasks, err := h.Tasks.ListOverdue(r.Context(), today)
	if err != nil {
		h.Log.WithError(err).Error("failed to list overdue tasks")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	h.sendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Projects.Stats(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("failed to compute project stats")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, http.StatusOK, stats)
}
