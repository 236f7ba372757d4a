package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avelichko/task-tracker/internal/auth"
	"github.com/avelichko/task-tracker/internal/db"
)

type Handler struct {
	Users    db.UserRepositoryInterface
	Projects db.ProjectRepositoryInterface
	Tasks    db.TaskRepositoryInterface
	Auth     *auth.Service
	Tokens   *auth.TokenService
	Limiter  *RateLimiter
	Hub      *Hub
	Log      *logrus.Logger
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("POST /auth/register", h.limitByIP(h.handleRegister))
	mux.HandleFunc("POST /auth/login", h.limitByIP(h.handleLogin))
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("GET /auth/me", h.requireUser(h.handleMe))

	mux.HandleFunc("GET /users/me", h.requireUser(h.handleMe))
	mux.HandleFunc("PUT /users/me", h.requireUser(h.handleUpdateMe))
	mux.HandleFunc("GET /users/{$}", h.requireAdmin(h.handleListUsers))
	mux.HandleFunc("GET /users/{id}", h.requireAdmin(h.handleGetUser))

	mux.HandleFunc("POST /projects/{$}", h.requireUser(h.handleCreateProject))
	mux.HandleFunc("GET /projects/{$}", h.requireUser(h.handleListProjects))
	mux.HandleFunc("GET /projects/{id}", h.requireUser(h.handleGetProject))
	mux.HandleFunc("PUT /projects/{id}", h.requireUser(h.handleUpdateProject))
	mux.HandleFunc("DELETE /projects/{id}", h.requireUser(h.handleDeleteProject))

	mux.HandleFunc("POST /tasks/{$}", h.requireUser(h.handleCreateTask))
	mux.HandleFunc("GET /tasks/{$}", h.requireUser(h.handleListTasks))
	mux.HandleFunc("GET /tasks/{id}", h.requireUser(h.handleGetTask))
	mux.HandleFunc("PUT /tasks/{id}", h.requireUser(h.handleUpdateTask))
	mux.HandleFunc("DELETE /tasks/{id}", h.requireUser(h.handleDeleteTask))

	mux.HandleFunc("GET /reports/completion", h.requireAdmin(h.handleCompletionReport))
	mux.HandleFunc("GET /reports/overdue", h.requireAdmin(h.handleOverdueReport))
	mux.HandleFunc("GET /reports/projects", h.requireAdmin(h.handleProjectReport))

	mux.HandleFunc("GET /ws", h.requireUser(h.handleProjectEvents))

	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("failed to encode response")
	}
}

// parsePagination clamps skip/limit to the allowed window instead of
// rejecting out-of-range values.
func parsePagination(q url.Values) (skip, limit int) {
	skip, limit = 0, 100
	if v := q.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}

// parseDate accepts calendar dates only, midnight UTC.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
