package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kendall-kelly/door-production-api/models"
	"go.uber.org/zap"
)

// Hub tracks connected clients and routes event envelopes to them. Office
// users receive every event; other users only receive events addressed to
// them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds c to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.logger.Info("WebSocket client registered", zap.Uint("user_id", c.UserID), zap.String("role", string(c.Role)))
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Info("WebSocket client disconnected", zap.Uint("user_id", c.UserID))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver sends env to every client matching the route. Clients whose
// queue is full are dropped.
func (h *Hub) Deliver(env Envelope, recipients map[uint]bool) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", env.Type, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.Role != models.RoleOffice && !recipients[c.UserID] {
			continue
		}
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("WebSocket client too slow, dropped", zap.Uint("user_id", c.UserID))
		}
	}
	return nil
}

// Listener returns a bus listener forwarding events to the hub. A resolved
// problem is also sent to the operator who reported it.
func (h *Hub) Listener() Listener {
	return func(_ context.Context, event Event) error {
		recipients := map[uint]bool{}
		if resolved, ok := event.(ProblemResolved); ok {
			recipients[resolved.ReportedBy] = true
		}
		return h.Deliver(NewEnvelope(event), recipients)
	}
}
