// Package transport implements the WebSocket transport collaborator
// described in spec §6: send(player_id, message_bytes), on_connect, and
// on_disconnect, plus the message router that turns decoded wire.Envelope
// values into C3/C4 operations.
//
// Grounded on the teacher's internal/v1/transport/client.go: a buffered
// send channel drained by a dedicated writePump goroutine, a readPump
// goroutine decoding inbound frames, and a wsConnection interface so tests
// can substitute a fake connection. The teacher frames are protobuf over
// binary WebSocket messages; this spec calls for a self-describing text
// encoding (spec §6), so frames here are JSON over TextMessage.
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// wsConnection is the subset of *websocket.Conn the client needs, kept as
// an interface so unit tests can substitute a fake.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// Client is one player's live WebSocket connection.
type Client struct {
	conn     wsConnection
	PlayerID string
	RoomID   string

	mu        sync.RWMutex
	closeOnce sync.Once
	closed    bool

	send chan []byte
}

func newClient(conn wsConnection, playerID, roomID string) *Client {
	return &Client{
		conn:     conn,
		PlayerID: playerID,
		RoomID:   roomID,
		send:     make(chan []byte, 256),
	}
}

// trySend enqueues data for delivery without blocking. Returns an error if
// the client has already been closed or its send buffer is full, so
// broadcast.Sender can count it as a failed delivery instead of stalling
// the whole fan-out (spec §4.4: "no suspension point").
func (c *Client) trySend(data []byte) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return errClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	defer c.close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
