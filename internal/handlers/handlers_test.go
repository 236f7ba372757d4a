package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/avelichko/task-tracker/internal/auth"
	"github.com/avelichko/task-tracker/internal/db"
	"github.com/avelichko/task-tracker/internal/models"
)

func newTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()

	dbx, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dbx.SetMaxOpenConns(1)
	t.Cleanup(func() { dbx.Close() })
	if err := db.Migrate(context.Background(), dbx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tokens, err := auth.NewTokenService(strings.Repeat("k", 32), "HS256", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := db.NewUserRepository(dbx)
	h := &Handler{
		Users:    users,
		Projects: db.NewProjectRepository(dbx),
		Tasks:    db.NewTaskRepository(dbx),
		Auth:     auth.NewService(users, tokens, bcrypt.MinCost),
		Tokens:   tokens,
		Hub:      NewHub(),
		Log:      log,
	}
	return h, h.Routes()
}

// registerUser persists a user directly and returns it with a ready-made
// Authorization header value.
func registerUser(t *testing.T, h *Handler, email string, role models.UserRole) (*models.User, string) {
	t.Helper()
	user, err := h.Auth.Register(context.Background(), email, "Test User", "password123", role)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	token, err := h.Tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, "Bearer " + token
}

func deactivateUser(t *testing.T, h *Handler, user *models.User) {
	t.Helper()
	user.IsActive = false
	if err := h.Users.Update(context.Background(), user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}

func doJSON(t *testing.T, handler http.Handler, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// createProject goes through the API so the full handler path is exercised.
func createProject(t *testing.T, handler http.Handler, bearer, name string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/projects/", bearer, map[string]any{"name": name})
	if rec.Code != http.StatusOK {
		t.Fatalf("create project status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &created)
	return created.ID
}

func createTask(t *testing.T, handler http.Handler, bearer string, body map[string]any) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/tasks/", bearer, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create task status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &created)
	return created.ID
}
