package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"task-app-realtime/internal/jwt"

	"github.com/gorilla/websocket"
)

type fakeVerifier struct {
	identities map[string]jwt.Identity
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (jwt.Identity, error) {
	identity, ok := f.identities[token]
	if !ok {
		return jwt.Identity{}, jwt.ErrInvalidToken
	}
	return identity, nil
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startTestServer(t *testing.T) (*Hub, *Broadcaster, string, func()) {
	t.Helper()

	hub := NewHub()
	verifier := &fakeVerifier{identities: map[string]jwt.Identity{
		"alice-token": {UserID: "alice", Email: "alice@example.com"},
		"bob-token":   {UserID: "bob", Email: "bob@example.com"},
	}}
	handler := NewHandler(hub, verifier, Config{
		PingInterval: 50 * time.Millisecond,
		PingTimeout:  time.Second,
	})

	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return hub, NewBroadcaster(hub, nil), wsURL, srv.Close
}

func dialWS(t *testing.T, wsURL, token string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return ws
}

func readWire(t *testing.T, ws *websocket.Conn) wireEvent {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wireEvent
	if err := ws.ReadJSON(&ev); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return ev
}

func expectWire(t *testing.T, ws *websocket.Conn, typ EventType) wireEvent {
	t.Helper()
	ev := readWire(t, ws)
	if ev.Type != string(typ) {
		t.Fatalf("expected %s, got %s", typ, ev.Type)
	}
	return ev
}

func TestHandshakePushesServerInfo(t *testing.T) {
	_, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "alice-token")
	defer ws.Close()

	status := expectWire(t, ws, EventConnectionStatus)
	var presence ConnectionStatus
	if err := json.Unmarshal(status.Payload, &presence); err != nil {
		t.Fatalf("bad presence payload: %v", err)
	}
	if presence.UserID != "alice" || !presence.Online {
		t.Fatalf("unexpected presence: %+v", presence)
	}

	ev := expectWire(t, ws, EventServerInfo)
	var info ServerInfo
	if err := json.Unmarshal(ev.Payload, &info); err != nil {
		t.Fatalf("bad server-info payload: %v", err)
	}
	if info.ConnectedUsers != 1 {
		t.Fatalf("expected 1 connected user, got %d", info.ConnectedUsers)
	}
	if info.ServerStartTime.IsZero() {
		t.Fatal("server start time missing")
	}
}

func TestHandshakeWithoutTokenIsRejected(t *testing.T) {
	hub, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial should fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
	if hub.Connections() != 0 {
		t.Fatal("rejected handshake must never register a connection")
	}
}

func TestHandshakeWithInvalidTokenIsRejected(t *testing.T) {
	hub, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=forged", nil)
	if err == nil {
		t.Fatal("dial should fail with an invalid token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
	if hub.Connections() != 0 || len(hub.registry.ConnectionsOf("alice")) != 0 {
		t.Fatal("rejected handshake must never register a connection")
	}
}

func TestAuthorizationHeaderFallback(t *testing.T) {
	_, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	header := http.Header{}
	header.Set("Authorization", "Bearer alice-token")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial with Authorization header failed: %v", err)
	}
	defer ws.Close()

	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)
}

func TestPingPong(t *testing.T) {
	_, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "alice-token")
	defer ws.Close()
	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)

	for i := 0; i < 3; i++ {
		if err := ws.WriteJSON(map[string]string{"type": "ping"}); err != nil {
			t.Fatalf("write ping: %v", err)
		}
		expectWire(t, ws, EventPong)
	}
}

func TestCheckConnectionConfirmsIdentity(t *testing.T) {
	_, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "alice-token")
	defer ws.Close()
	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)

	if err := ws.WriteJSON(map[string]string{"type": "check-connection"}); err != nil {
		t.Fatalf("write check-connection: %v", err)
	}

	ev := expectWire(t, ws, EventConnectionConfirmed)
	var confirmed ConnectionConfirmed
	if err := json.Unmarshal(ev.Payload, &confirmed); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if confirmed.UserID != "alice" {
		t.Fatalf("unexpected userId: %s", confirmed.UserID)
	}
	if confirmed.SocketID == "" {
		t.Fatal("socketId missing")
	}
	if confirmed.ServerTime.IsZero() {
		t.Fatal("serverTime missing")
	}
}

func TestJoinTaskRoomReceivesUpdates(t *testing.T) {
	_, b, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "bob-token")
	defer ws.Close()
	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)

	// check-connection doubles as a fence: once confirmed, the join-task
	// before it has been processed.
	ws.WriteJSON(map[string]string{"type": "join-task", "roomId": "t1"})
	ws.WriteJSON(map[string]string{"type": "check-connection"})
	expectWire(t, ws, EventConnectionConfirmed)

	b.EmitTaskUpdated(Task{ID: "t1", UserID: "alice", Title: "shared"})

	ev := expectWire(t, ws, EventTaskUpdated)
	var payload TaskPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.Task.ID != "t1" {
		t.Fatalf("unexpected task: %+v", payload.Task)
	}

	// After leaving, updates stop.
	ws.WriteJSON(map[string]string{"type": "leave-task", "roomId": "t1"})
	ws.WriteJSON(map[string]string{"type": "check-connection"})
	expectWire(t, ws, EventConnectionConfirmed)

	b.EmitTaskUpdated(Task{ID: "t1", UserID: "alice", Title: "unseen"})
	ws.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var ev2 wireEvent
	if err := ws.ReadJSON(&ev2); err == nil {
		t.Fatalf("received %s after leaving the room", ev2.Type)
	}
}

func TestMalformedMessageKeepsConnectionAlive(t *testing.T) {
	_, _, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "alice-token")
	defer ws.Close()
	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}
	if err := ws.WriteJSON(map[string]string{"type": "no-such-type"}); err != nil {
		t.Fatalf("write unknown type: %v", err)
	}

	if err := ws.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	expectWire(t, ws, EventPong)
}

func TestDisconnectDropsPresenceAndRooms(t *testing.T) {
	hub, b, wsURL, shutdown := startTestServer(t)
	defer shutdown()

	ws := dialWS(t, wsURL, "alice-token")
	expectWire(t, ws, EventConnectionStatus)
	expectWire(t, ws, EventServerInfo)

	ws.WriteJSON(map[string]string{"type": "join-task", "roomId": "t1"})
	ws.WriteJSON(map[string]string{"type": "check-connection"})
	expectWire(t, ws, EventConnectionConfirmed)

	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection not cleaned up after close")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if hub.IsUserOnline("alice") {
		t.Fatal("user should be offline after the only connection closed")
	}

	// Broadcasts to the former rooms must not panic or deliver anywhere.
	b.EmitTaskUpdated(Task{ID: "t1", UserID: "alice"})
	if hub.Rooms() != 0 {
		t.Fatalf("expected no rooms after disconnect, got %d", hub.Rooms())
	}
}
