package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	var input struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	v := newValidator()
	if input.Name != nil {
		v.check(*input.Name != "", "name", "must not be empty")
		v.check(len(*input.Name) <= 100, "name", "must be at most 100 characters long")
	}
	if input.Email != nil {
		v.checkEmail(*input.Email)
	}
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := h.Users.GetByEmail(r.Context(), *input.Email)
		if err != nil {
			h.Log.WithError(err).Error("failed to check email")
			h.sendError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			h.sendError(w, "Email already registered", http.StatusBadRequest)
			return
		}
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.Users.Update(r.Context(), user); err != nil {
		h.Log.WithError(err).Error("failed to update user")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.sendError(w, "user id must be a valid uuid", http.StatusUnprocessableEntity)
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("failed to load user")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		h.sendError(w, "User not found", http.StatusNotFound)
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := parsePagination(r.URL.Query())

	users, err := h.Users.List(r.Context(), skip, limit)
	if err != nil {
		h.Log.WithError(err).Error("failed to list users")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	h.sendJSON(w, http.StatusOK, users)
}
