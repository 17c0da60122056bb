package realtime

import "testing"

func TestIngressDispatchTaskCreated(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()
	ingress := NewIngress(nil, "", b)

	c := testConn("alice")
	hub.Add(c)
	drain(c)

	payload := `{"op":"task-created","task":{"id":"t1","title":"ship it","userId":"alice"}}`
	if err := ingress.dispatch(payload); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	ev := expectEvent(t, c, EventTaskCreated)
	task := ev.Payload.(TaskPayload).Task
	if task.ID != "t1" || task.UserID != "alice" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestIngressDispatchTaskDeleted(t *testing.T) {
	hub, b := newTestHubAndBroadcaster()
	ingress := NewIngress(nil, "", b)

	c := testConn("alice")
	hub.Add(c)
	drain(c)

	payload := `{"op":"task-deleted","taskId":"t1","userId":"alice"}`
	if err := ingress.dispatch(payload); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	expectEvent(t, c, EventTaskDeleted)
}

func TestIngressDropsBadEnvelopes(t *testing.T) {
	_, b := newTestHubAndBroadcaster()
	ingress := NewIngress(nil, "", b)

	cases := []string{
		`not json`,
		`{"op":"unknown-op"}`,
		`{"op":"task-created"}`,
		`{"op":"task-deleted","taskId":"t1"}`,
	}
	for _, payload := range cases {
		if err := ingress.dispatch(payload); err == nil {
			t.Fatalf("expected error for payload %q", payload)
		}
	}
}
