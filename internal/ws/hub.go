package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType represents the type of a hub payload.
type MessageType string

const (
	MessageNotificationsRead MessageType = "NotificationsRead"
)

// Event is the envelope written to clients.
type Event struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
	At   time.Time   `json:"at"`
}

// NotificationsRead carries the unread count after a mark-as-read.
type NotificationsRead struct {
	UnreadCount int      `json:"unread_count"`
	IDs         []string `json:"notification_ids,omitempty"`
	All         bool     `json:"mark_all,omitempty"`
}

// BroadcastMessage packages a payload for a user-scoped broadcast.
type BroadcastMessage struct {
	UserID  string
	Payload []byte
}

// Hub manages active clients and user-scoped broadcasts.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	done       chan struct{}
}

// NewHub builds a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if client.UserID() != message.UserID {
					continue
				}
				select {
				case client.Send <- message.Payload:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Broadcast sends a payload to every connection of a user. It is a no-op once
// the hub has stopped.
func (h *Hub) Broadcast(userID string, payload []byte) {
	select {
	case h.broadcast <- BroadcastMessage{UserID: userID, Payload: payload}:
	case <-h.done:
	}
}

// BroadcastEvent encodes and sends a typed event to a user.
func (h *Hub) BroadcastEvent(userID string, messageType MessageType, data any) error {
	payload, err := json.Marshal(Event{Type: messageType, Data: data, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	h.Broadcast(userID, payload)
	return nil
}

// NotificationsRead tells every session of userID about a mark-as-read.
func (h *Hub) NotificationsRead(userID string, event NotificationsRead) error {
	return h.BroadcastEvent(userID, MessageNotificationsRead, event)
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Client represents a websocket connection.
type Client struct {
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan []byte
	userID string
}

// NewClient returns a client for userID ready for registration.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, 256),
		userID: userID,
	}
}

// UserID returns the authenticated user of the connection.
func (c *Client) UserID() string {
	return c.userID
}
