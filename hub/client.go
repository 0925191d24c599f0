package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
	publishTimeout = 2 * time.Second
)

// MessageHandler processes one inbound client message. Handlers run on the
// connection's read loop, so they must not block indefinitely.
type MessageHandler func(c *Client, msg InboundMessage)

// Client is one live websocket connection. Writes go through a buffered send
// channel drained by WritePump, so broadcasters never block on the socket.
type Client struct {
	id       string
	UserID   uint
	Username string

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	onMessage MessageHandler

	closeOnce sync.Once
	groups    map[string]struct{}
}

// NewClient wraps an upgraded websocket connection. userID is zero for
// anonymous connections (chat allows them, notifications do not).
func (h *Hub) NewClient(conn *websocket.Conn, userID uint, username string, onMessage MessageHandler) *Client {
	return &Client{
		id:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		onMessage: onMessage,
		groups:    make(map[string]struct{}),
	}
}

// ID returns the connection's identifier, used only for logging.
func (c *Client) ID() string {
	return c.id
}

// Send serializes v onto the connection's outbound queue. Best-effort: a
// slow consumer is disconnected instead of blocking the caller.
func (c *Client) Send(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.hub.logger.Errorw("client send marshal failed", "conn", c.id, "err", err)
		return
	}
	if !c.trySend(payload) {
		c.hub.detach(c)
	}
}

// ReadPump consumes inbound frames until the connection drops, then detaches
// the client from the hub. Runs on the request goroutine; subscription ends
// immediately on disconnect, no grace period.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debugw("live connection closed unexpectedly", "conn", c.id, "err", err)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(c, msg)
		}
	}
}

// WritePump drains the send channel onto the socket and keeps the connection
// alive with pings. Must run on its own goroutine, one per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a payload without blocking. Returns false when the buffer
// is full or the channel already closed.
func (c *Client) trySend(payload []byte) (ok bool) {
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

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
