package main

import (
	"context"
	"log"

	"task-app-realtime/internal/api"
	"task-app-realtime/internal/api/router"
	"task-app-realtime/internal/env"
	"task-app-realtime/internal/jwt"
	"task-app-realtime/internal/queue"
	"task-app-realtime/internal/realtime"
	"task-app-realtime/internal/store"

	"github.com/go-redis/redis/v8"
)

func main() {
	env.Require(env.JWTSecret, env.ClientURL, env.AWSRegion)

	queueManager := queue.NewManager(64, 10)

	db, err := store.NewDynamoDBClient()
	if err != nil {
		log.Fatalf("dynamodb init failed: %v", err)
	}
	users := store.NewUsers(db)

	verifier := jwt.NewHS256Verifier(env.Get(env.JWTSecret), users)

	hub := realtime.NewHub()
	handler := realtime.NewHandler(hub, verifier, realtime.Config{
		AllowedOrigin: env.Get(env.ClientURL),
		PingInterval:  env.GetDuration(env.PingInterval, 0),
		PingTimeout:   env.GetDuration(env.PingTimeout, 0),
		SendBuffer:    env.GetInt(env.SendBuffer, 0),
	})
	broadcaster := realtime.NewBroadcaster(hub, queueManager)

	if redisURL := env.Get(env.EventsRedisURL); redisURL != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisURL,
			Password: env.Get(env.EventsRedisPass),
			DB:       0,
		})
		ingress := realtime.NewIngress(rdb, env.Get(env.EventsChannel), broadcaster)
		go ingress.Run(context.Background())
	}

	server := api.NewAPIServer(
		env.GetOrDefault(env.ListenAddr, ":4000"),
		queueManager,
		handler,
		hub,
		[]string{env.Get(env.ClientURL)},
		router.UtilsRoutes("/api/realtime/v1"),
		router.RealtimeRoutes("/api/realtime/v1"),
	)

	server.Run()
}
