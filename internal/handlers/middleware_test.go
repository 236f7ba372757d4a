package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelichko/task-tracker/internal/models"
)

func TestRequireUser_MissingAndMalformedHeader(t *testing.T) {
	_, handler := newTestHandler(t)

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Basic abc123",
		"no token":       "Bearer",
		"garbage token":  "Bearer not.a.jwt",
		"too many parts": "Bearer a b c",
	} {
		rec := doJSON(t, handler, http.MethodGet, "/auth/me", header, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequireUser_RejectsRefreshToken(t *testing.T) {
	h, handler := newTestHandler(t)
	user, _ := registerUser(t, h, "alice@example.com", models.RoleUser)

	refresh, err := h.Tokens.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	rec := doJSON(t, handler, http.MethodGet, "/auth/me", "Bearer "+refresh, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token on a protected route: status = %d, want 401", rec.Code)
	}
}

func TestRequireUser_InactiveUser(t *testing.T) {
	h, handler := newTestHandler(t)
	user, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	deactivateUser(t, h, user)

	rec := doJSON(t, handler, http.MethodGet, "/auth/me", bearer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequireUser_DeletedUser(t *testing.T) {
	h, handler := newTestHandler(t)

	// token for a user that was never persisted
	ghost := &models.User{Email: "ghost@example.com", Role: models.RoleUser, IsActive: true}
	token, err := h.Tokens.IssueAccessToken(ghost)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doJSON(t, handler, http.MethodGet, "/auth/me", "Bearer "+token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	h, handler := newTestHandler(t)
	_, userBearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	_, adminBearer := registerUser(t, h, "root@example.com", models.RoleAdmin)

	rec := doJSON(t, handler, http.MethodGet, "/users/", userBearer, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/users/", adminBearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var users []map[string]any
	decodeInto(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("want 2 users listed, got %d", len(users))
	}
}

func TestRateLimiter(t *testing.T) {
	h, handler := newTestHandler(t)
	h.Limiter = NewRateLimiter(1, 2)

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// burst of 2, then the bucket is empty
	for i := 0; i < 2; i++ {
		if code := hit("10.0.0.1:1234"); code == http.StatusTooManyRequests {
			t.Fatalf("request %d within burst was limited", i+1)
		}
	}
	if code := hit("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("request over burst: status = %d, want 429", code)
	}

	// buckets are per IP
	if code := hit("10.0.0.2:1234"); code == http.StatusTooManyRequests {
		t.Fatalf("other client must have its own bucket")
	}
}

func TestHealth(t *testing.T) {
	_, handler := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	decodeInto(t, rec, &body)
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}
