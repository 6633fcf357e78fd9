package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 45 * time.Second
)

// Client is one WebSocket connection bound to a live session.
type Client struct {
	Conn    *websocket.Conn
	Session *Session
	Send    chan []byte
	logger  *zap.SugaredLogger
}

// Hub tracks connected clients so sessions can be swept when their
// connections go idle.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	logger      *zap.SugaredLogger
	idleTimeout time.Duration
}

func NewHub(logger *zap.SugaredLogger, idleTimeout time.Duration) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		logger:      logger,
		idleTimeout: idleTimeout,
	}
}

// Register wires a connection to its session and starts the pumps.
func (h *Hub) Register(conn *websocket.Conn, session *Session) *Client {
	client := &Client{
		Conn:    conn,
		Session: session,
		Send:    make(chan []byte, 256),
		logger:  h.logger,
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.forwardUpdates()
	return client
}

// Unregister drops the client and closes its session. The Send channel is
// not touched here: forwardUpdates is its only sender and closes it once the
// session's update stream drains, so a disconnect during delivery never
// sends on a closed channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	client.Session.Close()
	client.Conn.Close()
}

// SweepIdle closes clients whose sessions have seen no activity within the
// idle timeout. Wired to a cron schedule in main.
func (h *Hub) SweepIdle() {
	cutoff := time.Now().Add(-h.idleTimeout)

	h.mu.RLock()
	var idle []*Client
	for client := range h.clients {
		if client.Session.IdleSince().Before(cutoff) {
			idle = append(idle, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range idle {
		h.logger.Infow("closing idle live session", "uid", client.Session.UID())
		h.Unregister(client)
	}
}

// CloseAll tears down every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.Unregister(client)
	}
}

// forwardUpdates serializes session updates onto the send channel. It owns
// Send: the channel closes only here, after Updates drains, which happens
// once the session is closed.
func (c *Client) forwardUpdates() {
	defer close(c.Send)
	for update := range c.Session.Updates() {
		data, err := json.Marshal(update)
		if err != nil {
			c.logger.Errorw("failed to marshal live update", "uid", c.Session.UID(), "error", err)
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Slow consumer; drop rather than stall the session loop.
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
