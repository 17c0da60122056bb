package realtime

import (
	"log"
	"sync"
	"time"

	"task-app-realtime/internal/jwt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Conn is one registered websocket connection. It owns a bounded outbound
// channel; writers never block on it. A connection that cannot keep up is
// closed instead of stalling the broadcaster.
type Conn struct {
	ID       string
	Identity jwt.Identity

	ws           *websocket.Conn
	send         chan Event
	done         chan struct{}
	pingInterval time.Duration
	pingTimeout  time.Duration

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, identity jwt.Identity, cfg Config) *Conn {
	return &Conn{
		ID:           uuid.NewString(),
		Identity:     identity,
		ws:           ws,
		send:         make(chan Event, cfg.SendBuffer),
		done:         make(chan struct{}),
		pingInterval: cfg.PingInterval,
		pingTimeout:  cfg.PingTimeout,
	}
}

// trySend queues an event without blocking. It reports false when the
// connection is closed or its buffer is full.
func (c *Conn) trySend(ev Event) bool {
	select {
	case <-c.done:
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

// close is idempotent and unblocks both pumps and the keepalive ticker.
func (c *Conn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if c.ws != nil {
		c.ws.Close()
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// keepAlive sends protocol-level pings so idle connections are detected by
// the read deadline on the peer.
func (c *Conn) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Printf("realtime: ping error for connection %s: %v", c.ID, err)
				c.close()
				return
			}
		}
	}
}

// writePump drains the outbound channel onto the wire. Events queued by the
// same publish call leave in queue order.
func (c *Conn) writePump() {
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				terr := &TransportError{ConnID: c.ID, Err: err}
				log.Printf("%v", terr)
				return
			}
		}
	}
}
