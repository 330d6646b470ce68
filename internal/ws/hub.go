package ws

import (
	"encoding/json"
	"sync"

	"multisweeper/internal/logger"
	"multisweeper/internal/session"
)

// Hub tracks live connections by id and fans game states out to them.
// It implements session.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	connectionsActive.Set(float64(n))
}

// Unregister removes c and closes its send queue. A newer client that reused
// the id is left alone.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
	}
	n := len(h.clients)
	h.mu.Unlock()

	connectionsActive.Set(float64(n))
	c.close()
}

func (h *Hub) client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// Publish serializes snap once and queues it for every participant without
// blocking. Participants that are not connected, or whose queue is full, are
// returned as dead; the full ones are disconnected.
func (h *Hub) Publish(snap session.Snapshot, participants []string) []string {
	data, err := json.Marshal(GameStatePayload{Type: MsgGameState, Snapshot: snap})
	if err != nil {
		logger.Error("game state marshal error", "game_id", snap.GameID, "error", err)
		return nil
	}

	var dead []string
	for _, id := range participants {
		c := h.client(id)
		if c == nil {
			dead = append(dead, id)
			continue
		}
		if !c.trySend(data) {
			// client can't keep up, disconnect it
			logger.Warn("ws client too slow, disconnecting", "conn_id", id, "game_id", snap.GameID)
			broadcastDrops.Inc()
			h.Unregister(c)
			dead = append(dead, id)
		}
	}
	return dead
}

// Send queues v for a single connection and reports whether it was queued.
// A client whose queue is full is disconnected, as in Publish.
func (h *Hub) Send(connID string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws marshal error", "conn_id", connID, "error", err)
		return false
	}
	c := h.client(connID)
	if c == nil {
		return false
	}
	if !c.trySend(data) {
		logger.Warn("ws client too slow, disconnecting", "conn_id", connID)
		broadcastDrops.Inc()
		h.Unregister(c)
		return false
	}
	return true
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Their read loops unwind membership.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		clients = append(clients, c)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	connectionsActive.Set(0)
}
