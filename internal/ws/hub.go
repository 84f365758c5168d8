package ws

import (
	"encoding/json" // Frame encoding
	"sync"          // Connection registry locking

	"github.com/sirupsen/logrus" // Logging library
)

// Client is one live WebSocket connection of a user.
type Client struct {
	UserID uint        // Authenticated owner of the connection
	Send   chan []byte // Outbound frames, drained by the write pump
	hub    *Hub        // Set by Register
	mu     sync.Mutex  // Guards closed and sends on Send
	closed bool        // Send has been closed
}

// NewClient builds a client with a buffered outbound queue.
func NewClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 256)}
}

// enqueue drops the frame when the client is slow or already gone.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return // Connection already gone
	}
	select {
	case c.Send <- data:
	default:
		logrus.WithField("user_id", c.UserID).Warn("ws client queue full, frame dropped")
	}
}

// Close unregisters the client and closes its queue. Safe to call twice.
func (c *Client) Close() {
	if c.hub != nil {
		c.hub.unregister(c)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Hub tracks live connections per user.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[*Client]struct{}
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{byUser: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection; a user may hold several at once
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

// unregister forgets a connection and drops the user entry once empty
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// BroadcastToUser sends payload as JSON to every connection of the user.
func (h *Hub) BroadcastToUser(userID uint, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Warn("ws payload not encodable")
		return
	}
	// Snapshot under the read lock so slow clients never block Register
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.enqueue(data)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}
