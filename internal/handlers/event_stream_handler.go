package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"odl-backend/internal/models"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the router level
	},
}

// EventStreamHandler pushes every committed production event to the
// connected dashboards. Delivery is best effort: a slow or broken
// client is dropped, never a transition.
type EventStreamHandler struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewEventStreamHandler() *EventStreamHandler {
	return &EventStreamHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Stream upgrades the connection and keeps it registered until the
// client disconnects.
func (h *EventStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[EventStream] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[EventStream] client connected (%d active)", count)

	// Reader loop exists only to detect disconnects.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish satisfies the transition engine's event sink.
func (h *EventStreamHandler) Publish(event *models.ProductionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EventStream] marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *EventStreamHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
