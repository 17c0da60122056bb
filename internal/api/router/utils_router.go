package router

import (
	"net/http"

	"task-app-realtime/internal/api"
	"task-app-realtime/internal/api/endpoints"
)

func UtilsRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		statusEndpoints := endpoints.NewStatusEndpoints(s.Hub())
		mux.HandleFunc(prefix+"/health", s.MakeHTTPHandleFunc(statusEndpoints.Health))
	}
}
