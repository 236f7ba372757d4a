package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/db"
	"github.com/avelichko/task-tracker/internal/models"
)

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		DueDate      *string `json:"due_date"`
		Status       string  `json:"status"`
		Priority     string  `json:"priority"`
		AssignedToID *string `json:"assigned_to_id"`
		ProjectID    *string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	status := models.TaskStatusPending
	priority := models.TaskPriorityMedium

	v := newValidator()
	v.check(input.Title != "", "title", "must be provided")
	v.check(len(input.Title) <= 200, "title", "must be at most 200 characters long")
	if input.Status != "" {
		parsed, ok := models.ParseTaskStatus(input.Status)
		v.check(ok, "status", "must be one of: pending, in_progress, done")
		if ok {
			status = parsed
		}
	}
	if input.Priority != "" {
		parsed, ok := models.ParseTaskPriority(input.Priority)
		v.check(ok, "priority", "must be one of: low, medium, high, urgent")
		if ok {
			priority = parsed
		}
	}
	dueDate := parseDateField(v, "due_date", input.DueDate)
	assignedTo := parseUUIDField(v, "assigned_to_id", input.AssignedToID)
	projectID := parseUUIDField(v, "project_id", input.ProjectID)
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:           uuid.New(),
		Title:        input.Title,
		Description:  input.Description,
		DueDate:      dueDate,
		Status:       status,
		Priority:     priority,
		AssignedToID: assignedTo,
		ProjectID:    projectID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Tasks.Create(r.Context(), task); err != nil {
		h.Log.WithError(err).Error("failed to create task")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.broadcastTask("task_created", task)
	h.sendJSON(w, http.StatusOK, task)
}

// handleListTasks composes the optional filters with the always-on
// visibility predicate. Filter values that fail to parse are dropped, not
// rejected; a caller who cannot see a task gets an empty list, never a 403.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	q := r.URL.Query()

	filter := db.TaskFilter{VisibleTo: user.ID}
	filter.Skip, filter.Limit = parsePagination(q)

	if s, ok := models.ParseTaskStatus(q.Get("status")); ok {
		filter.Status = &s
	}
	if p, ok := models.ParseTaskPriority(q.Get("priority")); ok {
		filter.Priority = &p
	}
	if id, err := uuid.Parse(q.Get("assigned_to")); err == nil {
		filter.AssignedTo = &id
	}
	if id, err := uuid.Parse(q.Get("project_id")); err == nil {
		filter.ProjectID = &id
	}
	if t, err := parseDate(q.Get("due_before")); err == nil {
		filter.DueBefore = &t
	}
	if t, err := parseDate(q.Get("due_after")); err == nil {
		filter.DueAfter = &t
	}
	filter.Search = q.Get("search")

	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		h.Log.WithError(err).Error("failed to list tasks")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	h.sendJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	task, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	allowed, err := h.canAccessTask(r, user, task)
	if err != nil {
		h.Log.WithError(err).Error("failed to check task access")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		h.sendError(w, "Not authorized to access this task", http.StatusForbidden)
		return
	}
	h.sendJSON(w, http.StatusOK, task)
}

func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	task, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	allowed, err := h.canAccessTask(r, user, task)
	if err != nil {
		h.Log.WithError(err).Error("failed to check task access")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		// same body as a genuinely missing task
		h.sendError(w, "Task not found", http.StatusNotFound)
		return
	}

	var input struct {
		Title        *string `json:"title"`
		Description  *string `json:"description"`
		DueDate      *string `json:"due_date"`
		Status       *string `json:"status"`
		Priority     *string `json:"priority"`
		AssignedToID *string `json:"assigned_to_id"`
		ProjectID    *string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	v := newValidator()
	if input.Title != nil {
		v.check(*input.Title != "", "title", "must not be empty")
		v.check(len(*input.Title) <= 200, "title", "must be at most 200 characters long")
	}
	var status models.TaskStatus
	if input.Status != nil {
		parsed, ok := models.ParseTaskStatus(*input.Status)
		v.check(ok, "status", "must be one of: pending, in_progress, done")
		status = parsed
	}
	var priority models.TaskPriority
	if input.Priority != nil {
		parsed, ok := models.ParseTaskPriority(*input.Priority)
		v.check(ok, "priority", "must be one of: low, medium, high, urgent")
		priority = parsed
	}
	dueDate := parseDateField(v, "due_date", input.DueDate)
	assignedTo := parseUUIDField(v, "assigned_to_id", input.AssignedToID)
	projectID := parseUUIDField(v, "project_id", input.ProjectID)
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if dueDate != nil {
		task.DueDate = dueDate
	}
	// no transition rules: any status/priority value is settable from any other
	if input.Status != nil {
		task.Status = status
	}
	if input.Priority != nil {
		task.Priority = priority
	}
	if assignedTo != nil {
		task.AssignedToID = assignedTo
	}
	if projectID != nil {
		task.ProjectID = projectID
	}
	task.UpdatedAt = time.Now().UTC()

	if err := h.Tasks.Update(r.Context(), task); err != nil {
		h.Log.WithError(err).Error("failed to update task")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.broadcastTask("task_updated", task)
	h.sendJSON(w, http.StatusOK, task)
}

func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	task, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	allowed, err := h.canAccessTask(r, user, task)
	if err != nil {
		h.Log.WithError(err).Error("failed to check task access")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		h.sendError(w, "Task not found", http.StatusNotFound)
		return
	}

	if err := h.Tasks.Delete(r.Context(), task.ID); err != nil {
		h.Log.WithError(err).Error("failed to delete task")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.broadcastTask("task_deleted", task)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fetchTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, "task id must be a valid uuid", http.StatusUnprocessableEntity)
		return nil, false
	}
	task, err := h.Tasks.GetByID(r.Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("failed to load task")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if task == nil {
		h.sendError(w, "Task not found", http.StatusNotFound)
		return nil, false
	}
	return task, true
}

// canAccessTask: the caller must be the assignee, or own the project the
// task belongs to. Admin role grants nothing here.
func (h *Handler) canAccessTask(r *http.Request, user *models.User, task *models.Task) (bool, error) {
	if task.AssignedToID != nil && *task.AssignedToID == user.ID {
		return true, nil
	}
	if task.ProjectID == nil {
		return false, nil
	}
	project, err := h.Projects.GetByID(r.Context(), *task.ProjectID)
	if err != nil {
		return false, err
	}
	return project != nil && project.OwnerID == user.ID, nil
}

func parseUUIDField(v *validator, key string, value *string) *uuid.UUID {
	if value == nil || *value == "" {
		return nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		v.check(false, key, "must be a valid uuid")
		return nil
	}
	return &id
}
