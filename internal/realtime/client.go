package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/teamflow/teamflow/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one live websocket connection for an authenticated user.
// Writes go through a buffered channel drained by a single writer
// goroutine, which keeps per-connection delivery ordered.
type Client struct {
	id     string
	user   uint
	conn   *websocket.Conn
	send   chan Event
	closed chan struct{}
}

func NewClient(id string, userID uint, conn *websocket.Conn) *Client {
	return &Client{
		id:     id,
		user:   userID,
		conn:   conn,
		send:   make(chan Event, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) connID() string { return c.id }
func (c *Client) userID() uint   { return c.user }

// ConnID returns the connection identifier.
func (c *Client) ConnID() string { return c.id }

// UserID returns the authenticated user behind this connection.
func (c *Client) UserID() uint { return c.user }

// enqueue offers an event to the client's send buffer without blocking.
// It reports false when the event was dropped (slow or closing client).
func (c *Client) enqueue(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// shutdown severs the connection; the read loop exits and the hub's
// Disconnect bookkeeping runs from the serve path.
func (c *Client) shutdown() {
	select {
	case <-c.closed:
		return
	default:
		close(c.closed)
	}
	c.conn.Close()
}

// Serve runs the read and write pumps until the connection drops. The
// hub Connect/Disconnect bookkeeping happens here so callers only hand
// the client over.
func (c *Client) Serve(hub *Hub, dispatcher *Dispatcher) {
	hub.Connect(c)
	defer func() {
		hub.Disconnect(c)
		c.shutdown()
	}()

	go c.writePump()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("conn_id", c.id).Msg("websocket read error")
			}
			return
		}
		dispatcher.Dispatch(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
