// Per-connection plumbing around a gorilla/websocket connection.
//
// Each admitted connection gets one Client: a buffered outbound channel
// drained by a single writer goroutine (gorilla permits at most one
// concurrent writer), and a Send method the registry can call from any
// goroutine without blocking on a slow or closing peer.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a single outbound write may take.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before treating the peer as
	// gone; pings are sent at a fraction of this interval.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-connection outbound queue. A peer that falls
	// this far behind is dropped rather than allowed to stall the room.
	sendBuffer = 64
)

// Client is one open websocket connection after authentication. It belongs to
// exactly one user and one room; that identity never changes for the life of
// the connection.
type Client struct {
	UserID   string
	UserName string
	RoomID   string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient wraps an upgraded connection with its derived identity.
func NewClient(conn *websocket.Conn, userID, userName, roomID string) *Client {
	return &Client{
		UserID:   userID,
		UserName: userName,
		RoomID:   roomID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		closed:   make(chan struct{}),
	}
}

// Send queues a frame for delivery. It never blocks: if the client's buffer
// is full or the client is closing, the frame is dropped and false is
// returned. Broadcast treats a false return as "skip this peer"; cleanup
// stays with the disconnect path.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.closed:
		return false
	default:
		return false
	}
}

// Close marks the client as closing and closes the underlying connection.
// Safe to call from any goroutine and from multiple paths; only the first
// call has an effect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings. It exits when the client closes or a write
// fails; either way it closes the connection so readPump unblocks.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// readFrame blocks for the next inbound text frame. It returns an error when
// the connection is closed or the read deadline lapses without a pong.
func (c *Client) readFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// configureRead applies the read limit and the pong-refreshed deadline.
func (c *Client) configureRead(maxFrameBytes int64) {
	if maxFrameBytes > 0 {
		c.conn.SetReadLimit(maxFrameBytes)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}
