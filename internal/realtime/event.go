package realtime

import "time"

type EventType string

const (
	EventServerInfo          EventType = "server-info"
	EventPong                EventType = "pong"
	EventConnectionConfirmed EventType = "connection-confirmed"
	EventConnectionStatus    EventType = "connection-status"
	EventTaskCreated         EventType = "task-created"
	EventTaskUpdated         EventType = "task-updated"
	EventTaskDeleted         EventType = "task-deleted"
)

// Event is the outbound wire frame. Events are immutable values with no
// delivery-tracking metadata; delivery is at-most-once per connection.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type ServerInfo struct {
	ServerStartTime time.Time `json:"serverStartTime"`
	ServerUptime    int64     `json:"serverUptime"` // milliseconds
	ConnectedUsers  int       `json:"connectedUsers"`
}

type ConnectionConfirmed struct {
	UserID     string    `json:"userId"`
	SocketID   string    `json:"socketId"`
	ServerTime time.Time `json:"serverTime"`
}

type ConnectionStatus struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// Task mirrors the task record owned by the CRUD backend; the realtime
// service only carries it inside event payloads.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Completed   bool   `json:"completed"`
	DueDate     string `json:"dueDate,omitempty"`
	Progress    int    `json:"progress"`
	UserID      string `json:"userId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type TaskPayload struct {
	Task Task `json:"task"`
}

type TaskDeletedPayload struct {
	TaskID string `json:"taskId"`
}

// ClientMessage is the inbound wire frame sent by clients after the
// handshake.
type ClientMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

const (
	MessagePing            = "ping"
	MessageJoinTask        = "join-task"
	MessageLeaveTask       = "leave-task"
	MessageCheckConnection = "check-connection"
)

// UserRoom is implicitly joined by every connection of a user at handshake
// time and targets all of that user's devices.
func UserRoom(userID string) string {
	return "user:" + userID
}

// TaskRoom groups every connection currently viewing a task.
func TaskRoom(taskID string) string {
	return "task:" + taskID
}
