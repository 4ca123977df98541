package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"logitrack-backend/internal/models"
)

// Hub maintains active WebSocket connections and pushes visit and moto
// location events to dashboard clients.
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's register/unregister loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client connected: %s (%s), total: %d", client.UserID, client.UserRole, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("🔴 [WEBSOCKET] Client disconnected: %s, remaining: %d", client.UserID, h.ClientCount())
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.send <- payload:
		default:
			log.Printf("⚠️ Client buffer full, dropping message for: %s", userID)
		}
	}
}

// BroadcastToRoles sends a message to every connected user holding one of the
// given roles. Visit events go to managers and dispatchers this way.
func (h *Hub) BroadcastToRoles(data interface{}, roles ...models.Role) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		for _, role := range roles {
			if client.UserRole == role {
				select {
				case client.send <- payload:
				default:
					log.Printf("⚠️ Client buffer full, skipping: %s", client.UserID)
				}
				break
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
