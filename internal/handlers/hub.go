package handlers

import (
	"sync"

	"github.com/gorilla/websocket"
)

type eventClient struct {
	conn      *websocket.Conn
	send      chan []byte
	id        string
	closeOnce sync.Once
}

func (c *eventClient) trySend(payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *eventClient) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// EventHub fans change notifications out to every connected UI so open list
// screens refresh without polling. Clients that cannot keep up are dropped
// rather than blocking the mutation path.
type EventHub struct {
	mu      sync.Mutex
	clients map[string]*eventClient
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*eventClient),
	}
}

func (h *EventHub) Add(client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Replace any existing connection with the same id.
	if old := h.clients[client.id]; old != nil {
		_ = old.conn.Close()
		old.closeSend()
	}
	h.clients[client.id] = client
}

func (h *EventHub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[id]; exists {
		client.closeSend()
	}
	delete(h.clients, id)
}

func (h *EventHub) Broadcast(payload []byte) {
	h.mu.Lock()
	clients := make([]*eventClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if !client.trySend(payload) {
			_ = client.conn.Close()
		}
	}
}

func (h *EventHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
