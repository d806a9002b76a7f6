package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/pkg/logger"
)

// Hub tracks live connections by connection id.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	logger.Debug(context.Background(), "client connected", zap.String("conn_id", c.ID), zap.String("username", c.Username))
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[c.ID]; ok && current == c {
		delete(h.clients, c.ID)
		close(c.Send)
		logger.Debug(context.Background(), "client disconnected", zap.String("conn_id", c.ID))
	}
}

// SendToClient queues message without blocking. A full buffer drops the
// message and reports false.
func (h *Hub) SendToClient(id string, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[id]
	if !exists {
		return false
	}

	select {
	case client.Send <- message:
		return true
	default:
		logger.Warn(context.Background(), "client send buffer full", zap.String("conn_id", id))
		return false
	}
}

// Broadcast queues message for every connected client and returns how
// many accepted it.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range h.clients {
		select {
		case client.Send <- message:
			sent++
		default:
		}
	}
	return sent
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
