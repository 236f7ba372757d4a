package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avelichko/task-tracker/internal/models"
)

// Hub fans task events out to websocket subscribers, keyed by project.
type Hub struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uuid.UUID]map[*websocket.Conn]bool)}
}

func (hub *Hub) BroadcastTaskEvent(projectID uuid.UUID, event string, task *models.Task) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	conns, exists := hub.subscribers[projectID]
	if !exists {
		return
	}

	message, err := json.Marshal(map[string]any{
		"event":   event,
		"task_id": task.ID,
		"title":   task.Title,
		"status":  task.Status,
	})
	if err != nil {
		return
	}
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			delete(conns, conn)
			conn.Close()
		}
	}
}

func (hub *Hub) subscribe(projectID uuid.UUID, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.subscribers[projectID] == nil {
		hub.subscribers[projectID] = make(map[*websocket.Conn]bool)
	}
	hub.subscribers[projectID][conn] = true
}

func (hub *Hub) unsubscribe(projectID uuid.UUID, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.subscribers[projectID], conn)
}

func (h *Handler) broadcastTask(event string, task *models.Task) {
	if h.Hub == nil || task.ProjectID == nil {
		return
	}
	h.Hub.BroadcastTaskEvent(*task.ProjectID, event, task)
}

// handleProjectEvents upgrades the connection and streams task events for
// one project. Only the project owner may subscribe.
func (h *Handler) handleProjectEvents(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		h.sendError(w, "project_id is required (uuid)", http.StatusBadRequest)
		return
	}
	project, err := h.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		h.Log.WithError(err).Error("failed to load project")
		h.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if project == nil {
		h.sendError(w, "Project not found", http.StatusNotFound)
		return
	}
	if project.OwnerID != user.ID {
		h.sendError(w, "Not authorized to access this project", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.Hub.subscribe(projectID, conn)
	defer func() {
		h.Hub.unsubscribe(projectID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
