package api

import (
	"fmt"
	"net/http"

	"task-app-realtime/internal/queue"
	"task-app-realtime/internal/realtime"

	"github.com/prometheus/client_golang/prometheus"
)

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.Manager
	realtimeHandler     *realtime.Handler
	hub                 *realtime.Hub
	allowedOrigins      []string
	routeRegistrars     []RouteRegistrar
	metrics             *metrics
}

func NewAPIServer(
	listenAddr string,
	rqm *queue.Manager,
	handler *realtime.Handler,
	hub *realtime.Hub,
	allowedOrigins []string,
	registrars ...RouteRegistrar,
) *APIServer {
	return &APIServer{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		realtimeHandler:     handler,
		hub:                 hub,
		allowedOrigins:      allowedOrigins,
		routeRegistrars:     registrars,
		metrics:             newMetrics(prometheus.DefaultRegisterer, listenAddr, rqm),
	}
}

func (s *APIServer) Run() {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	fmt.Printf("Server listening on http://localhost%s\n", s.listenAddr)

	if err := http.ListenAndServe(s.listenAddr, s.metrics.instrument(mux)); err != nil {
		fmt.Printf("server stopped: %v\n", err)
	}
}

func (s *APIServer) Realtime() *realtime.Handler {
	return s.realtimeHandler
}

func (s *APIServer) Hub() *realtime.Hub {
	return s.hub
}
