package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	var input struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		StartDate   *string `json:"start_date"`
		EndDate     *string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	v := newValidator()
	v.check(input.Name != "", "name", "must be provided")
	v.check(len(input.Name) <= 200, "name", "must be at most 200 characters long")
	startDate := parseDateField(v, "start_date", input.StartDate)
	endDate := parseDateField(v, "end_date", input.EndDate)
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		OwnerID:     user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Projects.Create(r.Context(), project); err != nil {
		h.Log.WithError(err).Error("failed to create project")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, http.StatusOK, project)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	skip, limit := parsePagination(r.URL.Query())

	projects, err := h.Projects.ListByOwner(r.Context(), user.ID, skip, limit)
	if err != nil {
		h.Log.WithError(err).Error("failed to list projects")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	h.sendJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	project, ok := h.fetchProject(w, r)
	if !ok {
		return
	}
	// reads report the ownership mismatch explicitly
	if project.OwnerID != user.ID {
		h.sendError(w, "Not authorized to access this project", http.StatusForbidden)
		return
	}
	h.sendJSON(w, http.StatusOK, project)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	project, ok := h.fetchProject(w, r)
	if !ok {
		return
	}
	// mutating a foreign project is indistinguishable from mutating a
	// missing one, so existence cannot be probed
	if project.OwnerID != user.ID {
		h.sendError(w, "Project not found", http.StatusNotFound)
		return
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		StartDate   *string `json:"start_date"`
		EndDate     *string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	v := newValidator()
	if input.Name != nil {
		v.check(*input.Name != "", "name", "must not be empty")
		v.check(len(*input.Name) <= 200, "name", "must be at most 200 characters long")
	}
	startDate := parseDateField(v, "start_date", input.StartDate)
	endDate := parseDateField(v, "end_date", input.EndDate)
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if startDate != nil {
		project.StartDate = startDate
	}
	if endDate != nil {
		project.EndDate = endDate
	}
	project.UpdatedAt = time.Now().UTC()

	if err := h.Projects.Update(r.Context(), project); err != nil {
		h.Log.WithError(err).Error("failed to update project")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, http.StatusOK, project)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	project, ok := h.fetchProject(w, r)
	if !ok {
		return
	}
	if project.OwnerID != user.ID {
		h.sendError(w, "Project not found", http.StatusNotFound)
		return
	}

	// tasks of the project go with it
	if err := h.Projects.Delete(r.Context(), project.ID); err != nil {
		h.Log.WithError(err).Error("failed to delete project")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fetchProject parses the path id and loads the project, writing the error
// response itself when it returns ok=false.
func (h *Handler) fetchProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, "project id must be a valid uuid", http.StatusUnprocessableEntity)
		return nil, false
	}
	project, err := h.Projects.GetByID(r.Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("failed to load project")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if project == nil {
		h.sendError(w, "Project not found", http.StatusNotFound)
		return nil, false
	}
	return project, true
}

func parseDateField(v *validator, key string, value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := parseDate(*value)
	if err != nil {
		v.check(false, key, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}
