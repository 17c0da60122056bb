package router

import (
	"net/http"

	"task-app-realtime/internal/api"
	"task-app-realtime/internal/api/endpoints"
)

func RealtimeRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		// The websocket route is registered directly: an upgraded
		// connection must not run through the request queue.
		mux.HandleFunc(prefix+"/ws", s.Realtime().ServeWS)

		statusEndpoints := endpoints.NewStatusEndpoints(s.Hub())
		mux.HandleFunc(prefix+"/stats", s.MakeHTTPHandleFunc(statusEndpoints.Stats))
	}
}
