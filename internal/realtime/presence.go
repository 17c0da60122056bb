package realtime

// presenceTracker turns registry transitions into connection-status events
// targeted at the affected user's own room, so every device of that user
// learns the aggregate state. Exactly one event fires when the count goes
// 0→1 and one when it goes 1→0, never one per connection.
type presenceTracker struct {
	registry *Registry
	emit     func(userID string, online bool)
}

func newPresenceTracker(registry *Registry, emit func(userID string, online bool)) *presenceTracker {
	return &presenceTracker{
		registry: registry,
		emit:     emit,
	}
}

// connectionAdded reacts to a registration. firstForUser was computed
// atomically with the registry mutation.
func (t *presenceTracker) connectionAdded(userID string, firstForUser bool) {
	if firstForUser {
		t.emit(userID, true)
	}
	setOnlineUsers(t.registry.OnlineUsers())
}

func (t *presenceTracker) connectionRemoved(userID string, lastForUser bool) {
	if lastForUser {
		t.emit(userID, false)
	}
	setOnlineUsers(t.registry.OnlineUsers())
}
