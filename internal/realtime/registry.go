package realtime

import (
	"sync"

	"task-app-realtime/internal/jwt"
)

// Registry tracks live connections and their authenticated identities,
// indexed both ways. A user appears in byUser exactly while they have at
// least one live connection.
//
// A single mutex serializes all mutation; at this scale that is fine and it
// is the first thing to shard if concurrent connect churn ever becomes a
// bottleneck.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	byUser map[string]map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Conn),
		byUser: make(map[string]map[string]*Conn),
	}
}

// Register admits an authenticated connection. The returned flag reports
// whether this is the user's first live connection, computed inside the
// critical section so racing registrations cannot both observe it.
func (r *Registry) Register(c *Conn) (firstForUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID] = c

	userConns, ok := r.byUser[c.Identity.UserID]
	if !ok {
		userConns = make(map[string]*Conn)
		r.byUser[c.Identity.UserID] = userConns
	}
	userConns[c.ID] = c

	return len(userConns) == 1
}

// Deregister removes the connection. Calling it again for the same
// connection is a no-op; wasRegistered reports whether this call removed
// anything. lastForUser is true when the user's connection count dropped
// to zero.
func (r *Registry) Deregister(c *Conn) (lastForUser, wasRegistered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.ID]; !ok {
		return false, false
	}
	delete(r.conns, c.ID)

	userConns := r.byUser[c.Identity.UserID]
	delete(userConns, c.ID)
	if len(userConns) == 0 {
		delete(r.byUser, c.Identity.UserID)
		return true, true
	}
	return false, true
}

func (r *Registry) ConnectionsOf(userID string) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]*Conn, 0, len(r.byUser[userID]))
	for _, c := range r.byUser[userID] {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) IdentityOf(connID string) (jwt.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return jwt.Identity{}, false
	}
	return c.Identity, true
}

func (r *Registry) IsUserOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[userID]) > 0
}

// OnlineUsers counts distinct users with at least one connection.
func (r *Registry) OnlineUsers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser)
}

func (r *Registry) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// All snapshots every registered connection.
func (r *Registry) All() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}
