package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"task-app-realtime/internal/api/middleware"
	"task-app-realtime/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs the endpoint through the bounded worker pool and
// the CORS/logging chain. Not used for the websocket route: an upgraded
// connection lives for minutes and must not occupy a queue worker.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc) http.HandlerFunc {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization"},
		AllowCredentials: true,
	}

	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		s.requestQueueManager.Enqueue(queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		})

		err := <-errc
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				log.Println(httpErr.ErrorLog)
				WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
			} else {
				WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
			}
		}
	}

	middlewares := []middleware.Middleware{
		middleware.CORS(corsConfig),
		middleware.Logging(),
	}

	return middleware.Chain(baseHandler, middlewares...)
}
