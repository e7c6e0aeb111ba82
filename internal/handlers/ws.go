package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	eventTaskCreated = "task_created"
	eventTaskUpdated = "task_updated"
	eventTaskDeleted = "task_deleted"

	wsWriteTimeout = 5 * time.Second
)

type taskEvent struct {
	Event string `json:"event"`
	Task  any    `json:"task"`
}

type deletedTask struct {
	ID int64 `json:"id"`
}

// wsConn is the part of *websocket.Conn the hub writes to.
type wsConn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsClient serializes writes to one connection.
type wsClient struct {
	conn    wsConn
	writeMu sync.Mutex
}

func (c *wsClient) send(msg taskEvent) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

// WSHub fans task events out to the websocket connections of the user
// who owns the task.
type WSHub struct {
	connections map[int64]map[*wsClient]bool
	mutex       sync.Mutex
	logger      *slog.Logger
}

func NewWSHub(logger *slog.Logger) *WSHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHub{
		connections: make(map[int64]map[*wsClient]bool),
		logger:      logger,
	}
}

func (h *WSHub) register(userID int64, conn wsConn) *wsClient {
	client := &wsClient{conn: conn}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*wsClient]bool)
	}
	h.connections[userID][client] = true
	return client
}

// unregister reports whether client was still registered.
func (h *WSHub) unregister(userID int64, client *wsClient) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.connections[userID][client] {
		return false
	}
	delete(h.connections[userID], client)
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
	return true
}

func (h *WSHub) count(userID int64) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[userID])
}

func (h *WSHub) clients(userID int64) []*wsClient {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	clients := make([]*wsClient, 0, len(h.connections[userID]))
	for client := range h.connections[userID] {
		clients = append(clients, client)
	}
	return clients
}

// Broadcast sends an event to every connection of userID. Writes happen
// outside the hub lock; connections that fail the write are dropped.
// A nil hub is a no-op.
func (h *WSHub) Broadcast(userID int64, event string, task any) {
	if h == nil {
		return
	}

	msg := taskEvent{Event: event, Task: task}
	for _, client := range h.clients(userID) {
		if err := client.send(msg); err != nil {
			h.logger.Warn("websocket write failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
			if h.unregister(userID, client) {
				client.conn.Close()
			}
		}
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	if h.WSHub == nil {
		sendError(c, "Not found", http.StatusNotFound)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log(c).Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	userID := currentUserID(c)
	client := h.WSHub.register(userID, conn)
	h.log(c).Info("websocket connected", slog.Int64("user_id", userID))

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.WSHub.unregister(userID, client)
			conn.Close()
			h.log(c).Info("websocket closed", slog.Int64("user_id", userID))
			return
		}
	}
}

// checkOrigin allows every origin when no allow-list is configured.
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.AllowedOrigins, r.Header.Get("Origin"))
}
