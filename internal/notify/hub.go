// Package notify pushes order status changes to connected dashboard
// clients over websockets, replacing poll-the-list refreshes.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"burger-bar/internal/common/logger"
	"burger-bar/internal/domain"
)

type statusUpdate struct {
	OrderID    string        `json:"order_id"`
	Status     domain.Status `json:"status"`
	StatusText string        `json:"status_text"`
}

// Hub fans one status update out to every connected client. Writes go
// through the run loop, so a slow client never blocks the aggregator.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
	lg         *logger.Logger
}

func NewHub(lg *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		lg:         lg,
	}
}

// Run owns the client set until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// OrderUpdated implements the aggregator's Notifier. Drops the update if
// the broadcast buffer is full rather than stalling a merge.
func (h *Hub) OrderUpdated(orderID string, status domain.Status, label string) {
	message, err := json.Marshal(statusUpdate{OrderID: orderID, Status: status, StatusText: label})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- message:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and registers it. Server-to-client only;
// no read pump.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Error(r.Context(), "ws_upgrade_failed", err, nil)
		return
	}
	h.register <- conn
}
