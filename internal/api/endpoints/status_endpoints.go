package endpoints

import (
	"net/http"

	"task-app-realtime/internal/realtime"
)

type StatusEndpoints interface {
	Health(http.ResponseWriter, *http.Request) error
	Stats(http.ResponseWriter, *http.Request) error
}

type statusEndpoints struct {
	hub *realtime.Hub
}

func NewStatusEndpoints(hub *realtime.Hub) StatusEndpoints {
	return &statusEndpoints{hub: hub}
}

func (h *statusEndpoints) Health(w http.ResponseWriter, r *http.Request) error {
	return WriteJSON(w, http.StatusOK, struct{}{})
}

type StatsRes struct {
	Connections    int   `json:"connections"`
	ConnectedUsers int   `json:"connectedUsers"`
	Rooms          int   `json:"rooms"`
	ServerUptime   int64 `json:"serverUptime"`
}

// Stats reports the live connection topology, mirroring what server-info
// pushes to clients at handshake time.
func (h *statusEndpoints) Stats(w http.ResponseWriter, r *http.Request) error {
	info := h.hub.ServerInfo()
	return WriteJSON(w, http.StatusOK, StatsRes{
		Connections:    h.hub.Connections(),
		ConnectedUsers: h.hub.OnlineUsers(),
		Rooms:          h.hub.Rooms(),
		ServerUptime:   info.ServerUptime,
	})
}
