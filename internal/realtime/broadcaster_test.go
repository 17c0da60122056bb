package realtime

import (
	"reflect"
	"testing"
)

func newTestHubAndBroadcaster() (*Hub, *Broadcaster) {
	hub := NewHub()
	// nil queue manager: deliveries run inline, which keeps tests
	// deterministic.
	return hub, NewBroadcaster(hub, nil)
}

func drain(c *Conn) {
	for len(c.send) > 0 {
		<-c.send
	}
}

func TestTaskCreatedReachesEveryOwnerConnectionOnce(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	first := testConn("alice")
	second := testConn("alice")
	stranger := testConn("bob")
	hub.Add(first)
	hub.Add(second)
	hub.Add(stranger)
	drain(first)
	drain(second)
	drain(stranger)

	task := Task{
		ID:       "t1",
		Title:    "write report",
		Category: "WORK",
		Status:   "TODO",
		Priority: "HIGH",
		UserID:   "alice",
	}
	b.EmitTaskCreated(task)

	for _, c := range []*Conn{first, second} {
		ev := expectEvent(t, c, EventTaskCreated)
		payload := ev.Payload.(TaskPayload)
		if !reflect.DeepEqual(payload.Task, task) {
			t.Fatalf("payload mismatch: %+v", payload.Task)
		}
		expectNoEvent(t, c)
	}
	expectNoEvent(t, stranger)
}

func TestTaskUpdatedReachesOwnerAndViewers(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	owner := testConn("alice")
	viewer := testConn("bob")
	hub.Add(owner)
	hub.Add(viewer)
	hub.JoinTaskRoom(viewer, "t1")
	drain(owner)
	drain(viewer)

	b.EmitTaskUpdated(Task{ID: "t1", UserID: "alice", Title: "updated"})

	expectEvent(t, owner, EventTaskUpdated)
	expectEvent(t, viewer, EventTaskUpdated)
}

func TestTaskDeletedCarriesTaskID(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	viewer := testConn("bob")
	hub.Add(viewer)
	hub.JoinTaskRoom(viewer, "t1")
	drain(viewer)

	b.EmitTaskDeleted("t1", "alice")

	ev := expectEvent(t, viewer, EventTaskDeleted)
	payload := ev.Payload.(TaskDeletedPayload)
	if payload.TaskID != "t1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestPublishToUserAndTaskDeliversOnceToDualMembers(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	dual := testConn("alice")
	hub.Add(dual)
	hub.JoinTaskRoom(dual, "t1")
	drain(dual)

	b.PublishToUserAndTask("alice", "t1", EventTaskUpdated, TaskPayload{Task: Task{ID: "t1"}})

	expectEvent(t, dual, EventTaskUpdated)
	expectNoEvent(t, dual)
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	conns := []*Conn{testConn("alice"), testConn("bob"), testConn("carol")}
	for _, c := range conns {
		hub.Add(c)
		drain(c)
	}

	b.Broadcast(EventServerInfo, hub.ServerInfo())

	for _, c := range conns {
		expectEvent(t, c, EventServerInfo)
	}
}

func TestNeverRegisteredConnectionReceivesNothing(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()

	ghost := testConn("alice")
	member := testConn("alice")
	hub.Add(member)
	drain(member)

	b.EmitTaskCreated(Task{ID: "t1", UserID: "alice"})

	expectEvent(t, member, EventTaskCreated)
	expectNoEvent(t, ghost)

	if got := hub.registry.ConnectionsOf("alice"); len(got) != 1 {
		t.Fatalf("only the registered connection should be tracked, got %d", len(got))
	}
}
