package realtime

import "task-app-realtime/internal/queue"

// Broadcaster is the typed publish API used by trusted internal callers
// (the CRUD mutation handlers and the redis ingress), never by network
// input. Publishing is fire-and-forget: no error ever propagates back to
// the mutation that triggered it.
type Broadcaster struct {
	hub  *Hub
	jobs *queue.Manager
}

// NewBroadcaster wraps the hub. With a non-nil queue manager, fan-out runs
// on the worker pool so callers return immediately; with nil it runs inline.
func NewBroadcaster(hub *Hub, jobs *queue.Manager) *Broadcaster {
	return &Broadcaster{hub: hub, jobs: jobs}
}

// EmitTaskCreated notifies all of the owner's connections. No task room can
// exist before the task does, so the owner room is the only target.
func (b *Broadcaster) EmitTaskCreated(task Task) {
	b.publish(
		Event{Type: EventTaskCreated, Payload: TaskPayload{Task: task}},
		UserRoom(task.UserID),
	)
}

// EmitTaskUpdated notifies the owner's devices and anyone viewing the task.
func (b *Broadcaster) EmitTaskUpdated(task Task) {
	b.publish(
		Event{Type: EventTaskUpdated, Payload: TaskPayload{Task: task}},
		UserRoom(task.UserID), TaskRoom(task.ID),
	)
}

func (b *Broadcaster) EmitTaskDeleted(taskID, userID string) {
	b.publish(
		Event{Type: EventTaskDeleted, Payload: TaskDeletedPayload{TaskID: taskID}},
		UserRoom(userID), TaskRoom(taskID),
	)
}

// PublishToUser delivers to all of the user's own connections.
func (b *Broadcaster) PublishToUser(userID string, typ EventType, payload interface{}) {
	b.publish(Event{Type: typ, Payload: payload}, UserRoom(userID))
}

// PublishToTaskRoom delivers to everyone currently viewing the task.
func (b *Broadcaster) PublishToTaskRoom(taskID string, typ EventType, payload interface{}) {
	b.publish(Event{Type: typ, Payload: payload}, TaskRoom(taskID))
}

// PublishToUserAndTask delivers to the union of both rooms; a connection in
// both receives the event once.
func (b *Broadcaster) PublishToUserAndTask(userID, taskID string, typ EventType, payload interface{}) {
	b.publish(Event{Type: typ, Payload: payload}, UserRoom(userID), TaskRoom(taskID))
}

// Broadcast delivers to every connected client.
func (b *Broadcaster) Broadcast(typ EventType, payload interface{}) {
	ev := Event{Type: typ, Payload: payload}
	if b.jobs == nil {
		b.hub.BroadcastAll(ev)
		return
	}
	b.jobs.Enqueue(queue.Job{Fn: func() error {
		b.hub.BroadcastAll(ev)
		return nil
	}})
}

// publish performs all writes for one call from a single goroutine, so
// subscribers of the same room observe that call's events in publish order.
func (b *Broadcaster) publish(ev Event, rooms ...string) {
	if b.jobs == nil {
		b.hub.DeliverToRooms(ev, rooms...)
		return
	}
	b.jobs.Enqueue(queue.Job{Fn: func() error {
		b.hub.DeliverToRooms(ev, rooms...)
		return nil
	}})
}
