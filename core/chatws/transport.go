package chatws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace is how long the peer gets to acknowledge a close frame before
// the underlying connection is torn down.
const closeGrace = time.Second

// Conn adapts a websocket connection to the actor's frame transport. The
// websocket package allows at most one concurrent writer, so writes are
// serialized here.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// ReadMessage blocks until a text frame arrives. It unblocks with an error
// when the peer disconnects or Close is called; the context is consulted
// only before the read starts, since websocket reads are not cancelable.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteMessage sends one text frame. Safe for concurrent use.
func (c *Conn) WriteMessage(_ context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame best-effort and tears the connection down,
// unblocking any pending read. Idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		deadline := time.Now().Add(closeGrace)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
