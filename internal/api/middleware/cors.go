package middleware

import (
	"net/http"

	"task-app-realtime/utils"
)

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

func CORS(config CORSConfig) Middleware {
	return func(f http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowedOrigin := ""

			for _, o := range config.AllowedOrigins {
				if o == "*" {
					if config.AllowCredentials {
						allowedOrigin = origin
					} else {
						allowedOrigin = "*"
					}
					break
				} else if o == origin {
					allowedOrigin = o
					break
				}
			}

			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.Header().Set("Access-Control-Allow-Methods", utils.StringJoin(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", utils.StringJoin(config.AllowedHeaders, ", "))
			}

			if r.Method == http.MethodOptions {
				if allowedOrigin != "" {
					w.WriteHeader(http.StatusOK)
				} else {
					w.WriteHeader(http.StatusForbidden)
				}
				return
			}

			f(w, r)
		}
	}
}
