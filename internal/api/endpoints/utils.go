package endpoints

import (
	"net/http"

	"task-app-realtime/internal/api"
)

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}
