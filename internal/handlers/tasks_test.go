package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/avelichko/task-tracker/internal/models"
)

func TestTasks_CreateDefaults(t *testing.T) {
	h, handler := newTestHandler(t)
	user, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	rec := doJSON(t, handler, http.MethodPost, "/tasks/", bearer, map[string]any{
		"title":          "Write release notes",
		"assigned_to_id": user.ID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Status   string  `json:"status"`
		Priority string  `json:"priority"`
		DueDate  *string `json:"due_date"`
	}
	decodeInto(t, rec, &created)
	if created.Status != "pending" || created.Priority != "medium" {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if created.DueDate != nil {
		t.Fatalf("due date must default to null")
	}
}

func TestTasks_CreateValidation(t *testing.T) {
	h, handler := newTestHandler(t)
	_, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	for name, body := range map[string]map[string]any{
		"missing title":  {"status": "pending"},
		"bogus status":   {"title": "x", "status": "archived"},
		"bogus priority": {"title": "x", "priority": "critical"},
		"bad date":       {"title": "x", "due_date": "next week"},
		"bad assignee":   {"title": "x", "assigned_to_id": "not-a-uuid"},
	} {
		rec := doJSON(t, handler, http.MethodPost, "/tasks/", bearer, body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", name, rec.Code)
		}
	}
}

// a task is reachable by its assignee and by the owner of its project,
// nobody else
func TestTasks_AccessAsymmetry(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, aliceBearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	_, bobBearer := registerUser(t, h, "bob@example.com", models.RoleUser)

	id := createTask(t, handler, aliceBearer, map[string]any{
		"title":          "Alice's task",
		"assigned_to_id": alice.ID.String(),
	})

	if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+id, bobBearer, nil); rec.Code != http.StatusForbidden {
		t.Errorf("foreign get: status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodPut, "/tasks/"+id, bobBearer, map[string]any{"title": "hijacked"}); rec.Code != http.StatusNotFound {
		t.Errorf("foreign update: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodDelete, "/tasks/"+id, bobBearer, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign delete: status = %d, want 404", rec.Code)
	}

	if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+id, aliceBearer, nil); rec.Code != http.StatusOK {
		t.Fatalf("assignee get: status = %d", rec.Code)
	}
}

func TestTasks_ProjectOwnerHasAccess(t *testing.T) {
	h, handler := newTestHandler(t)
	_, ownerBearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	bob, bobBearer := registerUser(t, h, "bob@example.com", models.RoleUser)

	projectID := createProject(t, handler, ownerBearer, "Alice's project")
	id := createTask(t, handler, bobBearer, map[string]any{
		"title":          "assigned to bob, in alice's project",
		"project_id":     projectID,
		"assigned_to_id": bob.ID.String(),
	})

	// both the assignee and the project owner can read and mutate
	for name, bearer := range map[string]string{"assignee": bobBearer, "project owner": ownerBearer} {
		if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+id, bearer, nil); rec.Code != http.StatusOK {
			t.Errorf("%s get: status = %d", name, rec.Code)
		}
		if rec := doJSON(t, handler, http.MethodPut, "/tasks/"+id, bearer, map[string]any{"status": "in_progress"}); rec.Code != http.StatusOK {
			t.Errorf("%s update: status = %d", name, rec.Code)
		}
	}
}

func TestTasks_AdminHasNoOverride(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, aliceBearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	_, adminBearer := registerUser(t, h, "root@example.com", models.RoleAdmin)

	id := createTask(t, handler, aliceBearer, map[string]any{
		"title":          "private",
		"assigned_to_id": alice.ID.String(),
	})

	if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+id, adminBearer, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("admin get of foreign task: status = %d, want 403", rec.Code)
	}
	rec := doJSON(t, handler, http.MethodGet, "/tasks/", adminBearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: status = %d", rec.Code)
	}
	var tasks []map[string]any
	decodeInto(t, rec, &tasks)
	if len(tasks) != 0 {
		t.Fatalf("admin listing is visibility-scoped like anyone's, got %d tasks", len(tasks))
	}
}

func TestTasks_ListVisibility(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, aliceBearer := registerUser(t, h, "alice@example.com", models.RoleUser)
	bob, bobBearer := registerUser(t, h, "bob@example.com", models.RoleUser)

	createTask(t, handler, aliceBearer, map[string]any{
		"title":          "alice's own",
		"assigned_to_id": alice.ID.String(),
	})
	createTask(t, handler, bobBearer, map[string]any{
		"title":          "bob's own",
		"assigned_to_id": bob.ID.String(),
	})
	// unassigned, unattached: visible to nobody
	createTask(t, handler, aliceBearer, map[string]any{"title": "orphan"})

	rec := doJSON(t, handler, http.MethodGet, "/tasks/", aliceBearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var tasks []struct {
		Title string `json:"title"`
	}
	decodeInto(t, rec, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "alice's own" {
		t.Fatalf("alice must see only her task, got %+v", tasks)
	}
}

// a filter value that does not parse is dropped, so the result equals the
// unfiltered listing
func TestTasks_ListDropsUnparseableFilters(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	createTask(t, handler, bearer, map[string]any{
		"title":          "pending work",
		"assigned_to_id": alice.ID.String(),
	})

	rec := doJSON(t, handler, http.MethodGet, "/tasks/?status=archived&priority=critical&assigned_to=xyz&due_before=soon", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list with bogus filters: status = %d", rec.Code)
	}
	var tasks []map[string]any
	decodeInto(t, rec, &tasks)
	if len(tasks) != 1 {
		t.Fatalf("bogus filters must be ignored, got %d tasks", len(tasks))
	}
}

func TestTasks_ListFilters(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	mk := func(title, status, priority string) {
		createTask(t, handler, bearer, map[string]any{
			"title":          title,
			"status":         status,
			"priority":       priority,
			"assigned_to_id": alice.ID.String(),
		})
	}
	mk("deploy fix", "pending", "urgent")
	mk("deploy docs", "done", "low")
	mk("refactor", "done", "low")

	rec := doJSON(t, handler, http.MethodGet, "/tasks/?status=done&search=deploy", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var tasks []struct {
		Title string `json:"title"`
	}
	decodeInto(t, rec, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "deploy docs" {
		t.Fatalf("combined filters: got %+v", tasks)
	}
}

func TestTasks_UnknownAndMalformedID(t *testing.T) {
	h, handler := newTestHandler(t)
	_, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+uuid.NewString(), bearer, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/tasks/not-a-uuid", bearer, nil); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed id: status = %d, want 422", rec.Code)
	}
}

func TestTasks_DeleteByAssignee(t *testing.T) {
	h, handler := newTestHandler(t)
	alice, bearer := registerUser(t, h, "alice@example.com", models.RoleUser)

	id := createTask(t, handler, bearer, map[string]any{
		"title":          "short lived",
		"assigned_to_id": alice.ID.String(),
	})

	if rec := doJSON(t, handler, http.MethodDelete, "/tasks/"+id, bearer, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodGet, "/tasks/"+id, bearer, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", rec.Code)
	}
}
