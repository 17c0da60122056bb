package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "task_app_ws_connections",
			Help: "Current number of registered websocket connections.",
		},
	)
	wsOnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "task_app_ws_online_users",
			Help: "Current number of distinct users with at least one connection.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "task_app_ws_rooms",
			Help: "Current number of non-empty rooms.",
		},
	)
	wsEventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_app_ws_events_delivered_total",
			Help: "Total events written to connection outbound buffers.",
		},
	)
	wsSendDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_app_ws_send_drops_total",
			Help: "Total deliveries dropped because a connection could not keep up.",
		},
	)
	wsAuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_app_ws_auth_failures_total",
			Help: "Total websocket handshakes rejected during authentication.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsConnections,
		wsOnlineUsers,
		wsRooms,
		wsEventsDelivered,
		wsSendDrops,
		wsAuthFailures,
	)
}

func setConnections(count int) {
	wsConnections.Set(float64(count))
}

func setOnlineUsers(count int) {
	wsOnlineUsers.Set(float64(count))
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(count int) {
	wsEventsDelivered.Add(float64(count))
}

func incSendDrops() {
	wsSendDrops.Inc()
}

func incAuthFailures() {
	wsAuthFailures.Inc()
}
