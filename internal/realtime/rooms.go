package realtime

import "sync"

// Router maps room names to member connections and remembers the reverse
// mapping so disconnect cleanup can drop every membership in one pass.
type Router struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]*Conn
	memberships map[string]map[string]struct{}
}

func NewRouter() *Router {
	return &Router{
		rooms:       make(map[string]map[string]*Conn),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (rt *Router) Join(c *Conn, room string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	members, ok := rt.rooms[room]
	if !ok {
		members = make(map[string]*Conn)
		rt.rooms[room] = members
	}
	members[c.ID] = c

	joined, ok := rt.memberships[c.ID]
	if !ok {
		joined = make(map[string]struct{})
		rt.memberships[c.ID] = joined
	}
	joined[room] = struct{}{}
}

func (rt *Router) Leave(c *Conn, room string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.leaveLocked(c.ID, room)
}

// LeaveAll removes the connection from every room it was in, including its
// implicit user room. A missing or inconsistent entry for one room never
// stops removal from the rest.
func (rt *Router) LeaveAll(c *Conn) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for room := range rt.memberships[c.ID] {
		rt.leaveLocked(c.ID, room)
	}
	delete(rt.memberships, c.ID)
}

func (rt *Router) leaveLocked(connID, room string) {
	if members, ok := rt.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(rt.rooms, room)
		}
	}
	if joined, ok := rt.memberships[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(rt.memberships, connID)
		}
	}
}

// MembersOf snapshots the room's members so delivery can proceed without
// holding the router lock.
func (rt *Router) MembersOf(room string) []*Conn {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	members := make([]*Conn, 0, len(rt.rooms[room]))
	for _, c := range rt.rooms[room] {
		members = append(members, c)
	}
	return members
}

func (rt *Router) RoomsOf(c *Conn) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	rooms := make([]string, 0, len(rt.memberships[c.ID]))
	for room := range rt.memberships[c.ID] {
		rooms = append(rooms, room)
	}
	return rooms
}

func (rt *Router) RoomCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.rooms)
}
