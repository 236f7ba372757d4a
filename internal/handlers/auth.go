package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avelichko/task-tracker/internal/auth"
	"github.com/avelichko/task-tracker/internal/models"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	role := models.RoleUser
	v := newValidator()
	v.checkEmail(input.Email)
	v.check(input.Name != "", "name", "must be provided")
	v.check(len(input.Name) <= 100, "name", "must be at most 100 characters long")
	v.check(len(input.Password) >= 6, "password", "must be at least 6 characters long")
	v.check(len(input.Password) <= 100, "password", "must be at most 100 characters long")
	if input.Role != "" {
		parsed, ok := models.ParseUserRole(input.Role)
		v.check(ok, "role", "must be one of: user, admin")
		if ok {
			role = parsed
		}
	}
	if !v.valid() {
		h.sendValidationErrors(w, v)
		return
	}

	user, err := h.Auth.Register(r.Context(), input.Email, input.Name, input.Password, role)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			h.sendError(w, "Email already registered", http.StatusBadRequest)
			return
		}
		h.Log.WithError(err).Error("failed to register user")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.Log.WithField("email", user.Email).Info("user registered")
	h.sendJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	access, refresh, err := h.Auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.sendError(w, "Incorrect email or password", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrInactiveUser):
			h.sendError(w, "Inactive user", http.StatusBadRequest)
		default:
			h.Log.WithError(err).Error("login failed")
			h.sendError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.Log.WithField("email", input.Email).Info("user logged in")
	h.sendJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	access, err := h.Auth.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			h.sendError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.Log.WithError(err).Error("token refresh failed")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// the refresh token is intentionally returned as-is; it stays valid
	// until its own expiry
	h.sendJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: input.RefreshToken,
		TokenType:    "bearer",
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, requestUser(r))
}
