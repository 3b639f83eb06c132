package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Event is one server-push notification: turns committing, undo/redo moves,
// saves landing. Clients use these to refresh their rendered state.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	Time      int64       `json:"time"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *EventHub
	mu     sync.Mutex
	closed bool
}

// EventHub manages WebSocket connections and broadcasts session events
type EventHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mu         sync.RWMutex
	logger     *log.Logger
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan Event, 1000),
		logger:     log.With("component", "event-hub"),
	}
}

// Run starts the hub's event loop
func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *EventHub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.Info("client connected", "client", client.ID, "total", len(h.clients))

	go client.writePump()
}

func (h *EventHub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
		h.logger.Info("client disconnected", "client", client.ID, "total", len(h.clients))
	}
}

func (h *EventHub) broadcastEvent(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Time = time.Now().Unix()
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", "err", err)
		return
	}

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Client send buffer full, skip
			h.logger.Warn("client send buffer full", "client", client.ID)
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *EventHub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", event.Type)
	}
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.mu.Lock()
			if !ok {
				// Hub closed the channel
				c.closed = true
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.mu.Unlock()
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.closed = true
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

		case <-ticker.C:
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closed = true
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.Conn.Close()
}

// readPump drains the WebSocket connection until the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
