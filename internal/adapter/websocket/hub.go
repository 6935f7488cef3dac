package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type envelope struct {
	userID string
	// client restricts delivery to one connection when set.
	client *Client
	data   []byte
}

// Hub fans messages out to the open connections of each user.
type Hub struct {
	// Registered clients by user.
	clients map[string]map[*Client]bool

	// Messages addressed to one user.
	direct chan envelope

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	mu  sync.RWMutex
	log *zap.Logger
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn Conn
	// Buffered channel of outbound messages.
	send chan []byte
	// User ID
	userID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		direct:     make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		case msg := <-h.direct:
			h.mu.Lock()
			for client := range h.clients[msg.userID] {
				if msg.client != nil && msg.client != client {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					h.log.Warn("Dropping slow websocket client", zap.String("user_id", client.userID))
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds conn for userID and starts its write pump. The caller owns reading
// from conn and must call Unregister when done.
func (h *Hub) Register(conn Conn, userID string) *Client {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), userID: userID}
	go client.writePump()

	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
	return client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendTo queues data for every connection of userID.
func (h *Hub) SendTo(userID string, data []byte) {
	select {
	case h.direct <- envelope{userID: userID, data: data}:
	case <-h.done:
	}
}

// Connections returns how many connections userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyOrder pushes an order confirmation to the user's open connections.
func (h *Hub) NotifyOrder(userID string, confirmation domain.OrderConfirmation) {
	data, err := json.Marshal(Message{Type: MessageOrderConfirmed, Order: &confirmation})
	if err != nil {
		h.log.Error("Failed to encode order notification", zap.Error(err))
		return
	}
	h.SendTo(userID, data)
}

// Send queues data on this connection only.
func (c *Client) Send(data []byte) {
	select {
	case c.hub.direct <- envelope{userID: c.userID, client: c, data: data}:
	case <-c.hub.done:
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.log.Debug("Websocket write failed", zap.String("user_id", c.userID), zap.Error(err))
			// Drain so the hub never blocks on a dead client.
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
