package ws

import (
	"sync"
	"time"

	"multisweeper/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
)

// Client is one websocket connection. Its game membership is only touched by
// the read loop, so it needs no lock.
type Client struct {
	ID   string
	Conn *websocket.Conn

	send   chan []byte
	mu     sync.Mutex
	closed bool

	gameID string
	server *Server
}

func newClient(conn *websocket.Conn, server *Server, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:     uuid.NewString(),
		Conn:   conn,
		send:   make(chan []byte, buffer),
		server: server,
	}
}

// trySend queues msg without blocking. It fails when the client is closed or
// its queue is full.
func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the write loop; it is safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// run registers the client, sends the ready handshake and serves the
// connection until it is closed.
func (c *Client) run() {
	hub := c.server.hub
	hub.Register(c)
	go c.writePump()

	hub.Send(c.ID, ReadyPayload{Type: MsgReady, ConnectionID: c.ID})
	logger.Debug("ws client connected", "conn_id", c.ID)

	c.readPump()
}

//read
func (c *Client) readPump() {
	defer c.disconnect()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "conn_id", c.ID, "error", err)
			}
			return
		}
		c.server.dispatch(c, msg)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws write error", "conn_id", c.ID, "error", err)
				// readPump notices the closed socket and unwinds membership
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

//disconnect
func (c *Client) disconnect() {
	if c.gameID != "" {
		c.server.registry.Leave(c.gameID, c.ID)
		c.gameID = ""
	}
	c.server.hub.Unregister(c)
	_ = c.Conn.Close()
	logger.Debug("ws client disconnected", "conn_id", c.ID)
}
