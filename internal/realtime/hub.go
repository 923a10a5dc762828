package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrDeliveryFailed reports a failed best-effort publish: nobody connected
// for the recipient, or every connection was too slow to take the message.
// Callers log it and move on; the durable notification record is the source
// of truth.
var ErrDeliveryFailed = errors.New("realtime delivery failed")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one message pushed to a connected client.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub tracks websocket connections per user and delivers events to a single
// recipient. It is the injected real-time channel behind the notification
// dispatcher; there is no process-global handle.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
}

type client struct {
	hub    *Hub
	userID uint
	conn   *websocket.Conn
	// send is never closed; unregister closes done instead, so a publisher
	// holding a stale snapshot of the client can never hit a closed channel.
	send chan []byte
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*client]struct{})}
}

// Publish delivers one event to every live connection of the recipient.
// Delivery is best effort: a full send buffer drops the message rather than
// blocking the publisher.
func (h *Hub) Publish(recipientID uint, event string, payload any) error {
	msg, err := json.Marshal(Event{Name: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[recipientID]))
	for c := range h.clients[recipientID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("recipient %d offline: %w", recipientID, ErrDeliveryFailed)
	}

	delivered := false
	for _, c := range conns {
		select {
		case c.send <- msg:
			delivered = true
		case <-c.done:
			// Disconnected since the snapshot.
		default:
			// Slow consumer; drop for this connection.
		}
	}
	if !delivered {
		return fmt.Errorf("recipient %d unreachable: %w", recipientID, ErrDeliveryFailed)
	}
	return nil
}

// Connected reports whether the recipient has at least one live connection.
func (h *Hub) Connected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// HandleConnection upgrades an authenticated HTTP request and pumps events
// to it until the peer goes away.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

// unregister is the single owner of the done close; the membership check
// makes a second call for the same client a no-op.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[c.userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.done)
			if len(conns) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
}

// readPump discards inbound frames; the channel is push-only. Its job is to
// notice the peer going away and to answer pings.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
