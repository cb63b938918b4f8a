package websocket

import (
	"encoding/json"
	"sync"
)

// BalanceUpdate announces a project's recomputed balance on one resource
// after a committed hold, charge, refund, or release.
type BalanceUpdate struct {
	ProjectID  string `json:"project_id"`
	ResourceID string `json:"resource_id"`
	Balance    int64  `json:"balance"`
}

// Hub fans balance updates out to the websocket clients subscribed to a
// project.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(projectID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*Client]struct{})
	}
	h.clients[projectID][client] = struct{}{}
}

func (h *Hub) Unregister(projectID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[projectID] == nil {
		return
	}
	delete(h.clients[projectID], client)
	if len(h.clients[projectID]) == 0 {
		delete(h.clients, projectID)
	}
}

func (h *Hub) BroadcastBalance(projectID string, update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[projectID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
