package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"task-app-realtime/internal/jwt"

	"github.com/gorilla/websocket"
)

// Config is the handshake and liveness surface consumed from the
// environment. Zero values fall back to the socket defaults the frontend
// was built against.
type Config struct {
	AllowedOrigin string
	PingInterval  time.Duration
	PingTimeout   time.Duration
	SendBuffer    int
}

func (cfg Config) withDefaults() Config {
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 60 * time.Second
	}
	if cfg.SendBuffer == 0 {
		cfg.SendBuffer = 16
	}
	return cfg
}

// Handler authenticates and upgrades incoming websocket requests and runs
// the server side of the connection protocol.
type Handler struct {
	hub      *Hub
	verifier jwt.Verifier
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier jwt.Verifier, cfg Config) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		hub:      hub,
		verifier: verifier,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || cfg.AllowedOrigin == "" || cfg.AllowedOrigin == "*" {
					return true
				}
				return origin == cfg.AllowedOrigin
			},
		},
	}
}

// ServeWS runs the handshake. Authentication happens before the upgrade, so
// a connection that fails it is never registered and never reaches a room.
// Handshake failure is terminal for the attempt; retrying is the client's
// job.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		incAuthFailures()
		authErr := &AuthError{Reason: "authentication token required"}
		log.Printf("%v", authErr)
		http.Error(w, "authentication token required", http.StatusUnauthorized)
		return
	}

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		incAuthFailures()
		authErr := &AuthError{Reason: "invalid authentication token"}
		log.Printf("%v: %v", authErr, err)
		http.Error(w, "invalid authentication token", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	c := newConn(ws, identity, h.cfg)
	h.hub.Add(c)

	go c.keepAlive()
	go c.writePump()
	go h.readLoop(c)
}

// bearerToken extracts the credential from the dedicated auth query
// parameter, falling back to an Authorization header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// readLoop decodes inbound client messages and dispatches them. Malformed
// messages are dropped and the connection kept alive; only transport errors
// end the loop. Cleanup is unconditional on exit.
func (h *Handler) readLoop(c *Conn) {
	defer h.hub.Remove(c)

	c.ws.SetReadLimit(512 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(c.pingTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pingTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) && !c.isClosed() {
				log.Printf("%v", &TransportError{ConnID: c.ID, Err: err})
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("%v", &ProtocolError{Reason: "malformed message from " + c.ID})
			continue
		}

		switch msg.Type {
		case MessagePing:
			c.trySend(Event{Type: EventPong})

		case MessageJoinTask:
			if msg.RoomID == "" {
				log.Printf("%v", &ProtocolError{Reason: "join-task without roomId"})
				continue
			}
			h.hub.JoinTaskRoom(c, msg.RoomID)

		case MessageLeaveTask:
			if msg.RoomID == "" {
				log.Printf("%v", &ProtocolError{Reason: "leave-task without roomId"})
				continue
			}
			h.hub.LeaveTaskRoom(c, msg.RoomID)

		case MessageCheckConnection:
			c.trySend(Event{
				Type: EventConnectionConfirmed,
				Payload: ConnectionConfirmed{
					UserID:     c.Identity.UserID,
					SocketID:   c.ID,
					ServerTime: time.Now(),
				},
			})

		default:
			log.Printf("%v", &ProtocolError{Reason: "unknown message type " + msg.Type})
		}
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
