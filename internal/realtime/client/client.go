// Package client implements the consumer side of the realtime protocol:
// one logical session kept alive across physical reconnects, with bounded
// retry, room re-subscription and heartbeat probing.
package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Local lifecycle signals, dispatched through the same listener mechanism
// as server events.
const (
	SignalConnect          = "connect"
	SignalDisconnect       = "disconnect"
	SignalReconnectAttempt = "reconnect-attempt"
	SignalReconnectFailed  = "reconnect-failed"
	SignalLiveness         = "liveness"
)

// HeartbeatState drives the liveness classification surfaced to observers.
// A missed pong degrades the session but never forces a reconnect on its
// own; only a transport-level drop does.
type HeartbeatState struct {
	LastProbeSentAt   time.Time
	LastProbeAckAt    time.Time
	ConsecutiveMisses int
}

// Event is a server event or local signal as seen by listeners.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Config struct {
	URL   string
	Token string

	MaxAttempts       int           // reconnect attempts before giving up, default 5
	ReconnectDelay    time.Duration // base retry delay, default 5s
	MaxReconnectDelay time.Duration // cap for the exponential backoff, default 30s
	PingInterval      time.Duration // default 25s
	PongTimeout       time.Duration // default 10s

	Dialer *websocket.Dialer
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.MaxReconnectDelay == 0 {
		cfg.MaxReconnectDelay = 30 * time.Second
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.PongTimeout == 0 {
		cfg.PongTimeout = 10 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return cfg
}

// Client is the reconnection agent. All dialing happens on one run
// goroutine, so there is never more than one connect attempt in flight for
// a session.
type Client struct {
	cfg Config

	mu           sync.Mutex
	state        State
	ws           *websocket.Conn
	connID       string
	desiredRooms map[string]struct{}
	listeners    map[string]map[int]func(Event)
	nextListener int
	hb           HeartbeatState
	running      bool
	done         chan struct{}

	wmu sync.Mutex // serializes wire writes

	pongc chan struct{}
	wg    sync.WaitGroup
}

func New(cfg Config) *Client {
	return &Client{
		cfg:          cfg.withDefaults(),
		desiredRooms: make(map[string]struct{}),
		listeners:    make(map[string]map[int]func(Event)),
		pongc:        make(chan struct{}, 1),
	}
}

// Connect starts the session state machine. It returns immediately; observe
// SignalConnect and SignalReconnectFailed for the outcome.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.state = StateConnecting
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// Close ends the session. No further reconnect attempts are made.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.done)
	ws := c.ws
	c.ws = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
	c.wg.Wait()
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// ConnectionID is the server-assigned socket id from the last
// connection-confirmed event, empty until one arrives.
func (c *Client) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

func (c *Client) Heartbeat() HeartbeatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hb
}

// Subscribe registers a listener for a server event or local signal and
// returns its unsubscribe handle, so no listener leaks across reconnects.
func (c *Client) Subscribe(event string, fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listeners[event] == nil {
		c.listeners[event] = make(map[int]func(Event))
	}
	id := c.nextListener
	c.nextListener++
	c.listeners[event][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners[event], id)
	}
}

func (c *Client) emit(event string, ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.listeners[event]))
	for _, fn := range c.listeners[event] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("client: listener for %s panicked: %v", event, r)
				}
			}()
			fn(ev)
		}()
	}
}

func (c *Client) emitSignal(signal string, payload interface{}) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	c.emit(signal, Event{Type: signal, Payload: raw})
}

// JoinTaskRoom remembers the desired membership independently of transport
// state; the server forgets memberships on disconnect, so the agent
// re-subscribes after every reconnect.
func (c *Client) JoinTaskRoom(taskID string) {
	c.mu.Lock()
	c.desiredRooms[taskID] = struct{}{}
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		c.send(map[string]string{"type": "join-task", "roomId": taskID})
	}
}

func (c *Client) LeaveTaskRoom(taskID string) {
	c.mu.Lock()
	delete(c.desiredRooms, taskID)
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		c.send(map[string]string{"type": "leave-task", "roomId": taskID})
	}
}

// Ping sends an application-level probe; the matching pong updates the
// heartbeat state.
func (c *Client) Ping() {
	c.mu.Lock()
	c.hb.LastProbeSentAt = time.Now()
	c.mu.Unlock()
	c.send(map[string]string{"type": "ping"})
}

// CheckConnection asks the server to confirm session continuity; the answer
// arrives as a connection-confirmed event.
func (c *Client) CheckConnection() {
	c.send(map[string]string{"type": "check-connection"})
}

func (c *Client) send(msg interface{}) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := ws.WriteJSON(msg); err != nil {
		log.Printf("client: write failed: %v", err)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// backoff grows exponentially from the base delay up to the cap. Deliberate
// deviation from the fixed-interval retry of the original frontend; setting
// MaxReconnectDelay equal to ReconnectDelay restores fixed delay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.ReconnectDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.cfg.MaxReconnectDelay {
			return c.cfg.MaxReconnectDelay
		}
	}
	if delay > c.cfg.MaxReconnectDelay {
		delay = c.cfg.MaxReconnectDelay
	}
	return delay
}

// sleep waits out a retry delay, reporting false when the session was
// closed meanwhile.
func (c *Client) sleep(d time.Duration) bool {
	select {
	case <-c.done:
		return false
	case <-time.After(d):
		return true
	}
}

// run is the session state machine:
// Disconnected → Connecting → Connected → Reconnecting → Connected, or
// terminal Disconnected once MaxAttempts consecutive attempts fail.
func (c *Client) run() {
	defer c.wg.Done()

	attempt := 0
	for {
		if c.stopped() {
			c.setState(StateDisconnected)
			return
		}

		ws, err := c.dial()
		if err != nil {
			attempt++
			c.emitSignal(SignalReconnectAttempt, map[string]int{"attempt": attempt})
			if attempt >= c.cfg.MaxAttempts {
				c.setState(StateDisconnected)
				c.emitSignal(SignalReconnectFailed, nil)
				return
			}
			c.setState(StateReconnecting)
			if !c.sleep(c.backoff(attempt)) {
				c.setState(StateDisconnected)
				return
			}
			continue
		}

		attempt = 0
		c.mu.Lock()
		c.ws = ws
		c.state = StateConnected
		rooms := make([]string, 0, len(c.desiredRooms))
		for room := range c.desiredRooms {
			rooms = append(rooms, room)
		}
		c.mu.Unlock()

		c.emitSignal(SignalConnect, nil)

		// The server forgot everything on the last disconnect.
		for _, room := range rooms {
			c.send(map[string]string{"type": "join-task", "roomId": room})
		}
		c.CheckConnection()

		err = c.session(ws)

		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()

		if c.stopped() {
			c.setState(StateDisconnected)
			return
		}

		// The drop itself is not an attempt; the dial-failure branch above
		// owns the counter, so the full MaxAttempts budget applies after a
		// drop just as it does on initial connect.
		c.emitSignal(SignalDisconnect, map[string]string{"reason": fmt.Sprint(err)})
		c.setState(StateReconnecting)
		if !c.sleep(c.cfg.ReconnectDelay) {
			c.setState(StateDisconnected)
			return
		}
	}
}

func (c *Client) dial() (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)

	ws, resp, err := c.cfg.Dialer.Dial(c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	return ws, nil
}

// session reads server events until the transport drops, with the heartbeat
// loop running alongside. It returns the read error that ended the session.
func (c *Client) session(ws *websocket.Conn) error {
	sessionDone := make(chan struct{})
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go func() {
		defer hbWG.Done()
		c.heartbeat(sessionDone)
	}()

	var readErr error
	for {
		var ev Event
		if err := ws.ReadJSON(&ev); err != nil {
			readErr = err
			break
		}
		c.handleEvent(ev)
	}

	close(sessionDone)
	ws.Close()
	hbWG.Wait()
	return readErr
}

func (c *Client) handleEvent(ev Event) {
	switch ev.Type {
	case "pong":
		c.mu.Lock()
		c.hb.LastProbeAckAt = time.Now()
		c.hb.ConsecutiveMisses = 0
		c.mu.Unlock()
		select {
		case c.pongc <- struct{}{}:
		default:
		}

	case "connection-confirmed":
		var confirmed struct {
			SocketID string `json:"socketId"`
		}
		if err := json.Unmarshal(ev.Payload, &confirmed); err == nil {
			c.mu.Lock()
			c.connID = confirmed.SocketID
			c.mu.Unlock()
		}
	}

	c.emit(ev.Type, ev)
}

// heartbeat probes the server on a fixed interval while connected. A missed
// pong is surfaced through SignalLiveness; it does not tear the session
// down.
func (c *Client) heartbeat(sessionDone chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	// Drain any pong left over from a previous session.
	select {
	case <-c.pongc:
	default:
	}

	for {
		select {
		case <-c.done:
			return
		case <-sessionDone:
			return
		case <-ticker.C:
			c.Ping()
			select {
			case <-c.pongc:
			case <-time.After(c.cfg.PongTimeout):
				c.mu.Lock()
				c.hb.ConsecutiveMisses++
				misses := c.hb.ConsecutiveMisses
				c.mu.Unlock()
				c.emitSignal(SignalLiveness, map[string]int{"consecutiveMisses": misses})
			case <-sessionDone:
				return
			case <-c.done:
				return
			}
		}
	}
}
