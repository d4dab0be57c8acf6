package push

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names sent to clients.
const (
	EventOnlineUsers     = "onlineUsers"
	EventNewMessage      = "newMessage"
	EventMessageReaction = "messageReaction"
)

const (
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	outboundBuffer = 32
)

// ErrConnClosed is returned by Send after the connection has shut down.
var ErrConnClosed = errors.New("push: connection closed")

// ErrSlowConsumer is returned when the outbound buffer is full.
var ErrSlowConsumer = errors.New("push: outbound buffer full")

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn owns one websocket. All writes go through a single writer goroutine,
// so Send is safe from any handler. The connection moves from connected to
// closed exactly once; Send after close reports ErrConnClosed.
type Conn struct {
	ws        *websocket.Conn
	out       chan envelope
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn wraps an upgraded websocket and starts its writer.
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:   ws,
		out:  make(chan envelope, outboundBuffer),
		done: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Send queues one event for delivery. It never blocks: a full buffer or a
// closed connection reports an error the caller is expected to swallow.
func (c *Conn) Send(event string, payload any) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.out <- envelope{Event: event, Data: payload}:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSlowConsumer
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Done is closed when the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close()
	for {
		select {
		case ev := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
