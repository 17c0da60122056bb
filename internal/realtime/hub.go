package realtime

import (
	"log"
	"time"
)

// Hub owns the registry, the room router and the presence tracker, and is
// the single place connections are admitted, removed and written to.
type Hub struct {
	registry  *Registry
	rooms     *Router
	presence  *presenceTracker
	startTime time.Time
}

func NewHub() *Hub {
	h := &Hub{
		registry:  NewRegistry(),
		rooms:     NewRouter(),
		startTime: time.Now(),
	}
	h.presence = newPresenceTracker(h.registry, func(userID string, online bool) {
		h.DeliverToRooms(Event{
			Type:    EventConnectionStatus,
			Payload: ConnectionStatus{UserID: userID, Online: online},
		}, UserRoom(userID))
	})
	return h
}

// Add registers an authenticated connection, joins it to its user room,
// fires the presence transition if it is the user's first connection and
// pushes server-info to the new connection.
func (h *Hub) Add(c *Conn) {
	first := h.registry.Register(c)
	h.rooms.Join(c, UserRoom(c.Identity.UserID))
	h.presence.connectionAdded(c.Identity.UserID, first)

	h.deliver(c, Event{Type: EventServerInfo, Payload: h.ServerInfo()})

	setConnections(h.registry.Connections())
	setRooms(h.rooms.RoomCount())
	log.Printf("realtime: user connected: %s (%s)", c.Identity.Email, c.ID)
}

// Remove deregisters the connection, drops all of its room memberships and
// fires the presence transition if it was the user's last connection.
// Idempotent: a second call for the same connection is a no-op.
func (h *Hub) Remove(c *Conn) {
	last, wasRegistered := h.registry.Deregister(c)
	if !wasRegistered {
		c.close()
		return
	}

	h.rooms.LeaveAll(c)
	h.presence.connectionRemoved(c.Identity.UserID, last)
	c.close()

	setConnections(h.registry.Connections())
	setRooms(h.rooms.RoomCount())
	log.Printf("realtime: user disconnected: %s (%s)", c.Identity.Email, c.ID)
}

// JoinTaskRoom and LeaveTaskRoom mutate task room membership only; user
// rooms are lifecycle-managed and cannot be addressed by clients.
func (h *Hub) JoinTaskRoom(c *Conn, taskID string) {
	h.rooms.Join(c, TaskRoom(taskID))
	setRooms(h.rooms.RoomCount())
	log.Printf("realtime: user %s joined task room: %s", c.Identity.Email, taskID)
}

func (h *Hub) LeaveTaskRoom(c *Conn, taskID string) {
	h.rooms.Leave(c, TaskRoom(taskID))
	setRooms(h.rooms.RoomCount())
	log.Printf("realtime: user %s left task room: %s", c.Identity.Email, taskID)
}

// DeliverToRooms fans the event out to the union of the given rooms' members.
// A connection present in several of the rooms receives the event once.
// Delivery failures are isolated per target and never reported to the caller.
func (h *Hub) DeliverToRooms(ev Event, rooms ...string) {
	seen := make(map[string]struct{})
	delivered := 0

	for _, room := range rooms {
		for _, c := range h.rooms.MembersOf(room) {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			if h.deliver(c, ev) {
				delivered++
			}
		}
	}

	if delivered > 0 {
		addDelivered(delivered)
	}
}

// BroadcastAll delivers to every registered connection.
func (h *Hub) BroadcastAll(ev Event) {
	delivered := 0
	for _, c := range h.registry.All() {
		if h.deliver(c, ev) {
			delivered++
		}
	}
	if delivered > 0 {
		addDelivered(delivered)
	}
}

// deliver writes to one connection's outbound buffer. A connection whose
// buffer is full is forcibly removed, freeing its resources rather than
// letting it grow without bound or stall other targets.
func (h *Hub) deliver(c *Conn, ev Event) bool {
	if c.trySend(ev) {
		return true
	}

	incSendDrops()
	if !c.isClosed() {
		log.Printf("%v", &CapacityError{ConnID: c.ID})
		h.Remove(c)
	}
	return false
}

func (h *Hub) ServerInfo() ServerInfo {
	return ServerInfo{
		ServerStartTime: h.startTime,
		ServerUptime:    time.Since(h.startTime).Milliseconds(),
		ConnectedUsers:  h.registry.OnlineUsers(),
	}
}

func (h *Hub) IsUserOnline(userID string) bool {
	return h.registry.IsUserOnline(userID)
}

func (h *Hub) OnlineUsers() int {
	return h.registry.OnlineUsers()
}

func (h *Hub) Connections() int {
	return h.registry.Connections()
}

func (h *Hub) Rooms() int {
	return h.rooms.RoomCount()
}
